package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joshua-takyi/streambay/internal/helpers"
	"github.com/joshua-takyi/streambay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return nil, models.NewConflictError("user with same email or username already exists")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user not found")
	}
	return user, nil
}

func (r *fakeUserRepo) GetUserByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == username || user.Email == email {
			return user, nil
		}
	}
	return nil, models.NewNotFoundError("user not found")
}

func (r *fakeUserRepo) UpdateFields(_ context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user not found")
	}

	for key, value := range fields {
		str, _ := value.(string)
		switch key {
		case "username":
			for otherID, other := range r.users {
				if otherID != id && other.Username == str {
					return nil, models.NewConflictError("user with same email or username already exists")
				}
			}
			user.Username = str
		case "email":
			for otherID, other := range r.users {
				if otherID != id && other.Email == str {
					return nil, models.NewConflictError("user with same email or username already exists")
				}
			}
			user.Email = str
		case "fullName":
			user.FullName = str
		case "avatar":
			user.AvatarURL = str
		case "coverImage":
			user.CoverImageURL = str
		}
	}
	user.UpdatedAt = time.Now()
	return user, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return models.NewNotFoundError("user not found")
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return models.NewNotFoundError("user not found")
	}
	user.RefreshToken = token
	return nil
}

func (r *fakeUserRepo) ClearRefreshToken(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return models.NewNotFoundError("user not found")
	}
	user.RefreshToken = ""
	return nil
}

type fakeUploader struct {
	fail bool
}

func (f *fakeUploader) Upload(_ context.Context, localPath, folder string) (string, error) {
	if f.fail {
		return "", errors.New("upload failed")
	}
	return "https://cdn.example.com/" + folder + "/" + filepath.Base(localPath), nil
}

func newTestService() (*UserService, *fakeUserRepo, *fakeUploader) {
	repo := newFakeUserRepo()
	uploader := &fakeUploader{}
	tokens := helpers.NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewUserService(repo, uploader, tokens), repo, uploader
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:      "kofi@example.com",
		FullName:   "Kofi Annan",
		Username:   "kofi",
		Password:   "s3cret-pass",
		AvatarPath: "/tmp/avatar.png",
	}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	var apiErr *models.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.Status)
}

func TestRegister_StripsSecrets(t *testing.T) {
	svc, repo, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	body, err := json.Marshal(created)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "refreshToken")

	id, err := primitive.ObjectIDFromHex(created.ID)
	require.NoError(t, err)
	stored, err := repo.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.True(t, helpers.CheckPassword("s3cret-pass", stored.PasswordHash))
}

func TestRegister_BlankFieldRejected(t *testing.T) {
	svc, _, _ := newTestService()

	input := validRegisterInput()
	input.FullName = "   "
	_, err := svc.Register(context.Background(), input)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestRegister_MissingAvatarRejected(t *testing.T) {
	svc, _, _ := newTestService()

	input := validRegisterInput()
	input.AvatarPath = ""
	_, err := svc.Register(context.Background(), input)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestRegister_PasswordStoredVerbatim(t *testing.T) {
	svc, _, _ := newTestService()

	input := validRegisterInput()
	input.Password = "  hunter2  "
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	// the registered password authenticates exactly as supplied
	_, _, err = svc.Login(context.Background(), "kofi", "  hunter2  ")
	require.NoError(t, err)

	// the trimmed variant is a different password
	_, _, err = svc.Login(context.Background(), "kofi", "hunter2")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestRegister_WhitespaceOnlyPasswordRejected(t *testing.T) {
	svc, _, _ := newTestService()

	input := validRegisterInput()
	input.Password = "   "
	_, err := svc.Register(context.Background(), input)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestRegister_DuplicateUsernameCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	input := validRegisterInput()
	input.Username = "KOFI"
	input.Email = "other@example.com"
	_, err = svc.Register(context.Background(), input)
	assertStatus(t, err, http.StatusConflict)
}

func TestRegister_UploadFailure(t *testing.T) {
	svc, _, uploader := newTestService()
	uploader.fail = true

	_, err := svc.Register(context.Background(), validRegisterInput())
	assertStatus(t, err, http.StatusInternalServerError)
}

func TestRegister_OptionalCoverImage(t *testing.T) {
	svc, repo, _ := newTestService()

	input := validRegisterInput()
	input.CoverImagePath = "/tmp/cover.png"
	created, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, created.CoverImageURL, helpers.CoverFolder)

	id, _ := primitive.ObjectIDFromHex(created.ID)
	stored, err := repo.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	assert.Contains(t, stored.AvatarURL, helpers.AvatarFolder)
}

func TestLogin_TokenCarriesUserIdentity(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	user, pair, err := svc.Login(context.Background(), "kofi", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.tokens.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestLogin_ByEmail(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "kofi@example.com", "s3cret-pass")
	require.NoError(t, err)
}

func TestLogin_Failures(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "", "s3cret-pass")
	assertStatus(t, err, http.StatusBadRequest)

	_, _, err = svc.Login(context.Background(), "nobody", "s3cret-pass")
	assertStatus(t, err, http.StatusNotFound)

	_, _, err = svc.Login(context.Background(), "kofi", "wrong-pass")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestLogin_OverwritesPreviousSession(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, first, err := svc.Login(context.Background(), "kofi", "s3cret-pass")
	require.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "kofi", "s3cret-pass")
	require.NoError(t, err)

	// the first session's refresh token was rotated out by the second login
	_, err = svc.RefreshTokens(context.Background(), first.RefreshToken)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestRefreshTokens_Rotation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, first, err := svc.Login(context.Background(), "kofi", "s3cret-pass")
	require.NoError(t, err)

	second, err := svc.RefreshTokens(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// replaying the rotated-out token must fail
	_, err = svc.RefreshTokens(context.Background(), first.RefreshToken)
	assertStatus(t, err, http.StatusUnauthorized)

	// the current token still works
	_, err = svc.RefreshTokens(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshTokens_Failures(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RefreshTokens(context.Background(), "")
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = svc.RefreshTokens(context.Background(), "not.a.jwt")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	svc, repo, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(created.ID)

	_, pair, err := svc.Login(context.Background(), "kofi", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), id))

	stored, err := repo.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, stored.RefreshToken)

	_, err = svc.RefreshTokens(context.Background(), pair.RefreshToken)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(created.ID)

	// wrong old password leaves the stored hash untouched
	err = svc.ChangePassword(context.Background(), id, "wrong-old", "new-pass")
	assertStatus(t, err, http.StatusUnauthorized)

	stored, err := repo.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, helpers.CheckPassword("s3cret-pass", stored.PasswordHash))

	// correct old password rotates the hash
	require.NoError(t, svc.ChangePassword(context.Background(), id, "s3cret-pass", "new-pass"))

	stored, err = repo.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, helpers.CheckPassword("s3cret-pass", stored.PasswordHash))
	assert.True(t, helpers.CheckPassword("new-pass", stored.PasswordHash))
}

func TestChangePassword_BlankNewPassword(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(created.ID)

	err = svc.ChangePassword(context.Background(), id, "s3cret-pass", "   ")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestChangePassword_WhitespacePreserved(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(created.ID)

	require.NoError(t, svc.ChangePassword(context.Background(), id, "s3cret-pass", " padded pass "))

	_, _, err = svc.Login(context.Background(), "kofi", " padded pass ")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "kofi", "padded pass")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestChangeUsername(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(created.ID)

	updated, err := svc.ChangeUsername(context.Background(), id, "  Kwame ")
	require.NoError(t, err)
	assert.Equal(t, "kwame", updated.Username)

	_, err = svc.ChangeUsername(context.Background(), id, "")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestChangeUsername_Conflict(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	other := validRegisterInput()
	other.Username = "ama"
	other.Email = "ama@example.com"
	second, err := svc.Register(context.Background(), other)
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(second.ID)

	_, err = svc.ChangeUsername(context.Background(), id, "kofi")
	assertStatus(t, err, http.StatusConflict)
}

func TestUpdateAccountDetails(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(created.ID)

	_, err = svc.UpdateAccountDetails(context.Background(), id, "", "")
	assertStatus(t, err, http.StatusBadRequest)

	updated, err := svc.UpdateAccountDetails(context.Background(), id, "", "Kofi A. Annan")
	require.NoError(t, err)
	assert.Equal(t, "Kofi A. Annan", updated.FullName)
	assert.Equal(t, "kofi@example.com", updated.Email)

	updated, err = svc.UpdateAccountDetails(context.Background(), id, "Kofi@New.Example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "kofi@new.example.com", updated.Email)
}

func TestUpdateAvatarAndCoverImage(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(created.ID)

	updated, err := svc.UpdateAvatar(context.Background(), id, "/tmp/newavatar.png")
	require.NoError(t, err)
	assert.Contains(t, updated.AvatarURL, "newavatar.png")
	assert.NotEqual(t, created.AvatarURL, updated.AvatarURL)

	updated, err = svc.UpdateCoverImage(context.Background(), id, "/tmp/newcover.png")
	require.NoError(t, err)
	assert.Contains(t, updated.CoverImageURL, "newcover.png")

	_, err = svc.UpdateAvatar(context.Background(), id, "")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestGetUser(t *testing.T) {
	svc, _, _ := newTestService()

	created, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	id, _ := primitive.ObjectIDFromHex(created.ID)

	current, err := svc.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, created.Username, current.Username)

	_, err = svc.GetUser(context.Background(), primitive.NewObjectID())
	assertStatus(t, err, http.StatusNotFound)
}
