// Package storage keeps user images in the Firebase Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"strive-backend-go/internal/core"
)

const (
	// ImagePrefix is the object path prefix of every image.
	ImagePrefix = "images/"
	// MaxImageBytes caps uploads and fetched images.
	MaxImageBytes = 10 << 20

	downloadTokenKey = "firebaseStorageDownloadTokens"
	signedURLTTL     = 24 * time.Hour
)

// errBlockedAddress is returned by the dialer for hosts inside our network.
var errBlockedAddress = errors.New("address is not publicly routable")

// checkPublicIP rejects loopback, private, link-local, multicast and
// unspecified addresses.
func checkPublicIP(ip net.IP) error {
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast() || ip.IsMulticast() {
		return errBlockedAddress
	}
	return nil
}

// newFetchClient returns a client whose dialer refuses non-public addresses.
// The check runs on the resolved address of every connection, redirects
// included.
func newFetchClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			return checkPublicIP(net.ParseIP(host))
		},
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{Timeout: 20 * time.Second, Transport: transport}
}

// ImageStore stores images as "images/<id>" objects with a Firebase
// download token so clients can fetch them without credentials.
type ImageStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ core.ImageStore = (*ImageStore)(nil)

// NewImageStore creates an ImageStore on bucket.
func NewImageStore(bucket *gcs.BucketHandle, bucketName string, logger *zap.Logger) *ImageStore {
	return &ImageStore{
		bucket:     bucket,
		bucketName: bucketName,
		httpClient: newFetchClient(),
		logger:     logger,
	}
}

// ObjectName returns the object path of image id.
func ObjectName(id string) string {
	return ImagePrefix + id
}

// DownloadURL builds the tokenised Firebase download URL of an object.
func DownloadURL(bucket, object, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(object), url.QueryEscape(token))
}

// ValidateContentType accepts image/* types, ignoring parameters.
func ValidateContentType(contentType string) (string, error) {
	if contentType == "" {
		return "", fmt.Errorf("%w: missing content type", core.ErrInvalidInput)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: bad content type %q", core.ErrInvalidInput, contentType)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %q is not an image", core.ErrInvalidInput, mediaType)
	}
	return mediaType, nil
}

// Upload stores the image read from r and returns its new id.
func (s *ImageStore) Upload(ctx context.Context, r io.Reader, contentType string) (string, error) {
	mediaType, err := ValidateContentType(contentType)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	object := ObjectName(id)
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := s.bucket.Object(object).NewWriter(writeCtx)
	w.ContentType = mediaType
	w.Metadata = map[string]string{downloadTokenKey: uuid.NewString()}

	n, err := io.Copy(w, io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write image %s: %w", object, err)
	}
	if n > MaxImageBytes {
		// Cancelling before Close abandons the upload.
		cancel()
		w.Close()
		return "", core.ErrImageTooLarge
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize image %s: %w", object, err)
	}

	s.logger.Info("Image uploaded", zap.String("object", object), zap.Int64("bytes", n))
	return id, nil
}

// UploadFromURL fetches an image over HTTP and stores it. Only public hosts
// are fetched, and upstream failures are reported without their details.
func (s *ImageStore) UploadFromURL(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return "", fmt.Errorf("%w: image url must be absolute http(s)", core.ErrInvalidInput)
	}
	if strings.EqualFold(u.Hostname(), "localhost") {
		return "", fmt.Errorf("%w: image url host is not allowed", core.ErrInvalidInput)
	}
	if ip := net.ParseIP(u.Hostname()); ip != nil && checkPublicIP(ip) != nil {
		return "", fmt.Errorf("%w: image url host is not allowed", core.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, errBlockedAddress) {
			return "", fmt.Errorf("%w: image url host is not allowed", core.ErrInvalidInput)
		}
		s.logger.Warn("Image fetch failed", zap.String("host", u.Host), zap.Error(err))
		return "", fmt.Errorf("%w: image url could not be fetched", core.ErrInvalidInput)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("Image fetch returned non-OK status", zap.String("host", u.Host), zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: image url could not be fetched", core.ErrInvalidInput)
	}
	if resp.ContentLength > MaxImageBytes {
		return "", core.ErrImageTooLarge
	}
	return s.Upload(ctx, resp.Body, resp.Header.Get("Content-Type"))
}

// URL returns the download URL of image id, falling back to a signed URL for
// objects stored without a download token.
func (s *ImageStore) URL(ctx context.Context, id string) (string, error) {
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: bad image id %q", core.ErrInvalidInput, id)
	}
	object := ObjectName(id)
	attrs, err := s.bucket.Object(object).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return "", fmt.Errorf("%w: %s", core.ErrImageNotFound, id)
		}
		return "", fmt.Errorf("failed to read image %s: %w", object, err)
	}

	if token := firstToken(attrs.Metadata[downloadTokenKey]); token != "" {
		return DownloadURL(s.bucketName, object, token), nil
	}

	signed, err := s.bucket.SignedURL(object, &gcs.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(signedURLTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", object, err)
	}
	return signed, nil
}

// firstToken picks the first of a comma-separated token list.
func firstToken(tokens string) string {
	if i := strings.IndexByte(tokens, ','); i >= 0 {
		return tokens[:i]
	}
	return tokens
}
