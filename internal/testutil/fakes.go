package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"strive-backend-go/internal/models"
)

// Errors returned by FakeIdentity. Callers map them onto their own sentinels
// through the constructor fields.
var (
	errDuplicateEmail = errors.New("fake identity: email exists")
	errBadCredentials = errors.New("fake identity: bad credentials")
)

type account struct {
	uid         string
	password    string
	displayName string
}

// FakeIdentity is an in-memory identity provider.
type FakeIdentity struct {
	mu       sync.Mutex
	accounts map[string]account
	// ResetEmails lists addresses the backend was asked to email directly.
	ResetEmails []string
	// DuplicateErr and CredentialsErr replace the default errors when set.
	DuplicateErr   error
	CredentialsErr error
}

// NewFakeIdentity returns an empty FakeIdentity.
func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{accounts: make(map[string]account)}
}

// AddAccount registers an existing account.
func (f *FakeIdentity) AddAccount(uid, email, password, displayName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = account{uid: uid, password: password, displayName: displayName}
}

func (f *FakeIdentity) CreateAccount(_ context.Context, email, password, displayName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[email]; ok {
		if f.DuplicateErr != nil {
			return "", f.DuplicateErr
		}
		return "", errDuplicateEmail
	}
	uid := fmt.Sprintf("uid-%d", len(f.accounts)+1)
	f.accounts[email] = account{uid: uid, password: password, displayName: displayName}
	return uid, nil
}

func (f *FakeIdentity) SignInWithPassword(_ context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[email]
	if !ok || acc.password != password {
		if f.CredentialsErr != nil {
			return nil, f.CredentialsErr
		}
		return nil, errBadCredentials
	}
	return &models.Session{
		UID:          acc.uid,
		Email:        email,
		DisplayName:  acc.displayName,
		IDToken:      "id-token-" + acc.uid,
		RefreshToken: "refresh-token-" + acc.uid,
		ExpiresIn:    3600,
	}, nil
}

func (f *FakeIdentity) PasswordResetLink(_ context.Context, email string) (string, error) {
	return "https://reset.example/?email=" + email, nil
}

func (f *FakeIdentity) SendPasswordResetEmail(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResetEmails = append(f.ResetEmails, email)
	return nil
}

// FakeImageStore keeps uploaded images in memory.
type FakeImageStore struct {
	mu     sync.Mutex
	Images map[string][]byte
	// Fetched lists URLs passed to UploadFromURL.
	Fetched []string
}

// NewFakeImageStore returns an empty FakeImageStore.
func NewFakeImageStore() *FakeImageStore {
	return &FakeImageStore{Images: make(map[string][]byte)}
}

func (s *FakeImageStore) Upload(_ context.Context, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("image-%d", len(s.Images)+1)
	s.Images[id] = data
	return id, nil
}

func (s *FakeImageStore) UploadFromURL(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fetched = append(s.Fetched, url)
	id := fmt.Sprintf("image-%d", len(s.Images)+1)
	s.Images[id] = []byte(url)
	return id, nil
}

func (s *FakeImageStore) URL(_ context.Context, id string) (string, error) {
	return "https://images.example/" + id, nil
}

// RecordingNotifier captures notifications.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
	Err  error
}

func (n *RecordingNotifier) Notify(_ context.Context, notification models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return n.Err
}

// Sent returns the captured notifications.
func (n *RecordingNotifier) Sent() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notification(nil), n.sent...)
}

// Mail is a captured message.
type Mail struct {
	To, Subject, Body string
}

// RecordingMailer captures sent mail.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []Mail
}

func (m *RecordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Mail{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns the captured mail.
func (m *RecordingMailer) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.sent...)
}
