package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"strive-backend-go/internal/core"
	"strive-backend-go/internal/metrics"
	"strive-backend-go/internal/middleware"
	"strive-backend-go/internal/models"
	"strive-backend-go/internal/testutil"
)

const guestID = "guest-uid"

type tokenTable map[string]string

func (t tokenTable) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if uid, ok := t[idToken]; ok {
		return &auth.Token{UID: uid, Claims: map[string]interface{}{"email": uid + "@example.com"}}, nil
	}
	return nil, errors.New("invalid token")
}

type testServer struct {
	router   *gin.Engine
	users    *testutil.MemoryUserRepository
	groups   *testutil.MemoryGroupRepository
	identity *testutil.FakeIdentity
	images   *testutil.FakeImageStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	users := testutil.NewMemoryUserRepository(
		&models.User{UID: guestID, Name: models.GuestName},
		&models.User{UID: "alice", Name: "Alice Martin", Email: "alice@example.com"},
		&models.User{UID: "bob", Name: "Bob Durand", Email: "bob@example.com"},
	)
	challenges := testutil.NewMemoryChallengeRepository()
	comments := testutil.NewMemoryCommentRepository()
	groups := testutil.NewMemoryGroupRepository()
	descs := &testutil.StaticChallengeDescriptionRepository{Description: &models.ChallengeDescription{
		Title:       "Sunrise",
		Description: "Catch the sunrise",
		EndDate:     time.Now().Add(72 * time.Hour),
	}}
	identity := testutil.NewFakeIdentity()
	images := testutil.NewFakeImageStore()
	notifier := &testutil.RecordingNotifier{}
	activity := core.NewActivityService(&testutil.MemoryActivityRepository{})

	userService := core.NewUserService(users, images, activity, guestID, logger)
	descriptionService := core.NewChallengeDescriptionService(descs, logger)
	challengeService := core.NewChallengeService(challenges, groups, users, descriptionService, activity, logger)
	svc := Services{
		Auth:                 core.NewAuthService(identity, userService, users, nil, logger),
		Users:                userService,
		Friends:              core.NewFriendService(users, notifier, activity, logger),
		Challenges:           challengeService,
		Comments:             core.NewCommentService(comments, users, challengeService, notifier, activity, logger),
		Groups:               core.NewGroupService(groups, users, activity, logger),
		ChallengeDescription: descriptionService,
		Images:               images,
	}

	authMW := middleware.NewAuthMiddleware(tokenTable{"alice-token": "alice", "bob-token": "bob"}, guestID, logger)
	m := metrics.New()
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger), middleware.Metrics(m))
	SetupRoutes(router, authMW, middleware.NewRateLimiter(1000, 1000, logger), m, svc, logger)

	return &testServer{router: router, users: users, groups: groups, identity: identity, images: images}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)

	rec := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "strive_http_requests_total")
}

func TestMutatingRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)
	cases := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/challenges"},
		{http.MethodPost, "/api/v1/challenges/c1/like"},
		{http.MethodPost, "/api/v1/challenges/c1/comments"},
		{http.MethodPut, "/api/v1/users/me/name"},
		{http.MethodPost, "/api/v1/friends/bob/request"},
		{http.MethodGet, "/api/v1/friends"},
		{http.MethodPost, "/api/v1/groups"},
		{http.MethodPost, "/api/v1/images"},
	}
	for _, tc := range cases {
		rec := s.do(tc.method, tc.path, "", map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/friends", "forged", nil).Code)
}

func TestCurrentUserFallsBackToGuest(t *testing.T) {
	s := newTestServer(t)

	var guest models.User
	rec := s.do(http.MethodGet, "/api/v1/users/me", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &guest)
	assert.Equal(t, models.GuestName, guest.Name)

	var alice models.User
	rec = s.do(http.MethodGet, "/api/v1/users/me", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &alice)
	assert.Equal(t, "alice", alice.UID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/users/nobody", "", nil).Code)
}

func TestOtherUsersArePublicViews(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.users.Set(ctx, &models.User{
		UID:           "alice",
		Name:          "Alice Martin",
		Email:         "alice@example.com",
		Phone:         "+33 6 12 34 56 78",
		Address:       "1 rue de Nice",
		ExpoPushToken: "ExponentPushToken[abc]",
		Friends:       []string{"bob"},
	}))
	private := []string{"+33 6 12 34 56 78", "1 rue de Nice", "ExponentPushToken[abc]", "alice@example.com", "phone", "address", "expoPushToken", "email"}

	paths := []struct{ path, token string }{
		{"/api/v1/users", ""},
		{"/api/v1/users/alice", ""},
		{"/api/v1/users/alice", "bob-token"},
	}
	for _, p := range paths {
		rec := s.do(http.MethodGet, p.path, p.token, nil)
		require.Equal(t, http.StatusOK, rec.Code, p.path)
		for _, field := range private {
			assert.NotContains(t, rec.Body.String(), field, p.path)
		}
	}

	rec := s.do(http.MethodGet, "/api/v1/friends", "bob-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "1 rue de Nice")

	var alice PublicUser
	decode(t, s.do(http.MethodGet, "/api/v1/users/alice", "", nil), &alice)
	assert.Equal(t, "Alice Martin", alice.Name)
	assert.Equal(t, []string{"bob"}, alice.Friends)

	var me models.User
	rec = s.do(http.MethodGet, "/api/v1/users/me", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &me)
	assert.Equal(t, "1 rue de Nice", me.Address)
	assert.Equal(t, "ExponentPushToken[abc]", me.ExpoPushToken)
}

func TestSignUpAndSignIn(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/auth/signup", "", models.SignUpRequest{
		Name: "Ada", Surname: "Lovelace", Email: "not-an-email", Password: "password1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/signup", "", models.SignUpRequest{
		Name: "Ada", Surname: "Lovelace", Email: "ada@example.com", Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/signup", "", models.SignUpRequest{
		Name: "Ada", Surname: "Lovelace", Email: "ada@example.com", Password: "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.User
	decode(t, rec, &created)
	assert.Equal(t, "Ada Lovelace", created.Name)

	s.identity.DuplicateErr = core.ErrEmailInUse
	rec = s.do(http.MethodPost, "/api/v1/auth/signup", "", models.SignUpRequest{
		Name: "Ada", Surname: "Lovelace", Email: "ada@example.com", Password: "password1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	s.identity.CredentialsErr = core.ErrInvalidCredentials
	rec = s.do(http.MethodPost, "/api/v1/auth/signin", "", models.SignInRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/auth/signin", "", models.SignInRequest{Email: "ada@example.com", Password: "password1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var session models.Session
	decode(t, rec, &session)
	assert.NotEmpty(t, session.IDToken)
}

func TestPasswordReset(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/auth/password-reset", "", models.PasswordResetRequest{Email: "alice@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"alice@example.com"}, s.identity.ResetEmails)

	rec = s.do(http.MethodPost, "/api/v1/auth/password-reset", "", models.PasswordResetRequest{Email: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInitializeUserProfile(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/users/initialize", "alice-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFriendRequestFlow(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/friends/bob/request", "alice-token", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/friends/alice/request", "alice-token", nil).Code)

	var incoming []models.User
	rec := s.do(http.MethodGet, "/api/v1/friends/requests", "bob-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &incoming)
	require.Len(t, incoming, 1)
	assert.Equal(t, "alice", incoming[0].UID)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/friends/alice/accept", "bob-token", nil).Code)

	var status models.FriendStatus
	rec = s.do(http.MethodGet, "/api/v1/friends/bob/status", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &status)
	assert.True(t, status.IsFriend)
	assert.False(t, status.IsRequested)

	assert.Contains(t, s.users.Get("alice").Friends, "bob")
	assert.Contains(t, s.users.Get("bob").Friends, "alice")
}

func TestAcceptWithoutRequestIsRefused(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/friends/bob/accept", "alice-token", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, s.users.Get("alice").Friends)
	assert.Empty(t, s.users.Get("bob").Friends)
}

func TestUpdateLikesOnlyChangesCallersLike(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/challenges", "alice-token", models.CreateChallengeRequest{Caption: "mine"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var challenge models.Challenge
	decode(t, rec, &challenge)
	path := "/api/v1/challenges/" + challenge.ID + "/likes"

	rec = s.do(http.MethodPut, path, "bob-token", models.UpdateLikesRequest{Likes: []string{"alice", guestID, "ghost"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var likes LikesResponse
	rec = s.do(http.MethodPut, path, "bob-token", models.UpdateLikesRequest{Likes: []string{"bob"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &likes)
	assert.Equal(t, []string{"bob"}, likes.Likes)

	rec = s.do(http.MethodPut, path, "alice-token", models.UpdateLikesRequest{Likes: []string{}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &likes)
	assert.Equal(t, []string{"bob"}, likes.Likes)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPut, path, "", models.UpdateLikesRequest{}).Code)
}

func TestChallengeLikesAndComments(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/challenges", "alice-token", models.CreateChallengeRequest{
		Caption:  "sunrise over the bay",
		Location: &models.Point{Latitude: 43.7, Longitude: 7.26},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var challenge models.Challenge
	decode(t, rec, &challenge)
	assert.Equal(t, "alice", challenge.UID)
	assert.Equal(t, "Sunrise", challenge.ChallengeDescription)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/challenges/"+challenge.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/challenges/missing", "", nil).Code)

	var likes LikesResponse
	rec = s.do(http.MethodPost, "/api/v1/challenges/"+challenge.ID+"/like", "bob-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &likes)
	assert.Equal(t, []string{"bob"}, likes.Likes)

	rec = s.do(http.MethodPost, "/api/v1/challenges/"+challenge.ID+"/comments", "bob-token", models.AddCommentRequest{Text: "Beautiful!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var comments []models.Comment
	rec = s.do(http.MethodGet, "/api/v1/challenges/"+challenge.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "Bob Durand", comments[0].UserName)

	var view models.MapView
	rec = s.do(http.MethodGet, "/api/v1/map", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Len(t, view.Challenges, 1)

	var feed models.HomeFeed
	rec = s.do(http.MethodGet, "/api/v1/feed", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &feed)
	assert.True(t, feed.UserIsGuest)
	assert.Len(t, feed.Challenges, 1)
}

func TestListChallengesValidatesLimit(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/challenges?limit=abc", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/challenges?limit=5", "", nil).Code)
}

func TestGroups(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/groups", "alice-token", models.CreateGroupRequest{
		Name:           "Runners",
		ChallengeTitle: "Sunrise",
		Members:        []string{"bob"},
		Location:       &models.Point{Latitude: 43.7, Longitude: 7.26},
		Radius:         5000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var group models.Group
	decode(t, rec, &group)
	assert.ElementsMatch(t, []string{"alice", "bob"}, group.Members)

	var members []models.User
	rec = s.do(http.MethodGet, "/api/v1/groups/"+group.GID+"/members", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &members)
	assert.Len(t, members, 2)

	var nearby []models.Group
	rec = s.do(http.MethodGet, "/api/v1/groups/nearby?lat=43.71&lon=7.27", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &nearby)
	assert.Len(t, nearby, 1)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/groups/nearby?lat=north", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/groups/missing", "", nil).Code)
}

func TestChallengeDescription(t *testing.T) {
	s := newTestServer(t)

	var desc models.ChallengeDescription
	rec := s.do(http.MethodGet, "/api/v1/challenge-description", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &desc)
	assert.Equal(t, "Sunrise", desc.Title)

	var countdown models.Countdown
	rec = s.do(http.MethodGet, "/api/v1/challenge-description/countdown", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &countdown)
	assert.False(t, countdown.Finished)
	assert.GreaterOrEqual(t, countdown.Days, int64(2))
}

func TestImageUploadAndProfilePicture(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="sunrise.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer alice-token")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var image ImageResponse
	decode(t, rec, &image)
	assert.Equal(t, "image-1", image.ID)
	assert.Equal(t, "https://images.example/image-1", image.URL)

	rec = s.do(http.MethodPut, "/api/v1/users/me/picture", "alice-token", models.SetPictureRequest{ImageID: image.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	var picture PictureResponse
	rec = s.do(http.MethodGet, "/api/v1/users/alice/picture", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &picture)
	assert.Equal(t, "https://images.example/image-1", picture.URL)

	rec = s.do(http.MethodPut, "/api/v1/users/me/picture", "alice-token", models.SetPictureRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetNameAndPushToken(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/v1/users/me/name", "alice-token", models.SetNameRequest{Name: "Alice M."}).Code)
	assert.Equal(t, "Alice M.", s.users.Get("alice").Name)

	rec := s.do(http.MethodPut, "/api/v1/users/me/push-token", "alice-token", models.PushTokenRequest{Token: "not-a-token"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/v1/users/me/push-token", "alice-token", models.PushTokenRequest{Token: "ExponentPushToken[abc123]"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
