package application

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamerhq/roamer-api/internal/domain/entity"
	"github.com/roamerhq/roamer-api/internal/domain/repository"
	"github.com/roamerhq/roamer-api/pkg/helpers"
)

type fakeUserRepo struct {
	createFn     func(ctx context.Context, u *entity.User) error
	getByIDFn    func(ctx context.Context, id string) (*entity.User, error)
	getByEmailFn func(ctx context.Context, email string) (*entity.User, error)
	listFn       func(ctx context.Context) ([]*entity.User, error)
}

func (f *fakeUserRepo) Create(ctx context.Context, u *entity.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}
	u.ID = "new-user-id"
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

type fakeArtifactStore struct {
	released   []string
	releaseErr error
}

func (f *fakeArtifactStore) Stage(context.Context, io.Reader, string) (string, error) {
	return "staged-ref", nil
}

func (f *fakeArtifactStore) Release(_ context.Context, ref string) error {
	f.released = append(f.released, ref)
	return f.releaseErr
}

func (f *fakeArtifactStore) URL(ref string) string { return "/uploads/images/" + ref }

func testJWT() *helpers.JWTManager {
	return &helpers.JWTManager{Secret: []byte("test-secret"), TTL: time.Hour}
}

func newUserService(repo repository.UserRepository, store *fakeArtifactStore) *UserService {
	return NewUserService(repo, testJWT(), store, nil, nil, nil, "")
}

func TestSignup(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	var created *entity.User
	repo := &fakeUserRepo{
		createFn: func(_ context.Context, u *entity.User) error {
			u.ID = "user-1"
			created = u
			return nil
		},
	}
	svc := newUserService(repo, store)

	res, err := svc.Signup(context.Background(), "Kai", "  Kai@Example.COM ", "secret123", "avatar.png")
	require.NoError(t, err)

	assert.Equal(t, "user-1", res.UserID)
	assert.Equal(t, "kai@example.com", res.Email, "email is normalized before storage")
	assert.Empty(t, store.released, "the new record owns the artifact")

	require.NotNil(t, created)
	assert.Equal(t, "avatar.png", created.Image)
	assert.NotEqual(t, "secret123", created.PasswordHash)
	assert.True(t, helpers.CompareHashAndPassword(created.PasswordHash, "secret123"))

	claims, err := svc.JWT.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "kai@example.com", claims.Email)
}

func TestSignupEmailTaken(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	createCalls := 0
	repo := &fakeUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*entity.User, error) {
			return &entity.User{ID: "existing", Email: email}, nil
		},
		createFn: func(context.Context, *entity.User) error {
			createCalls++
			return nil
		},
	}
	svc := newUserService(repo, store)

	_, err := svc.Signup(context.Background(), "Kai", "kai@example.com", "secret123", "avatar.png")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Zero(t, createCalls, "no second record for a taken email")
	assert.Equal(t, []string{"avatar.png"}, store.released)
}

func TestSignupDuplicateRace(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	repo := &fakeUserRepo{
		createFn: func(context.Context, *entity.User) error {
			return repository.ErrDuplicateEmail
		},
	}
	svc := newUserService(repo, store)

	_, err := svc.Signup(context.Background(), "Kai", "kai@example.com", "secret123", "avatar.png")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, []string{"avatar.png"}, store.released)
}

func TestSignupRepoFailureReleasesArtifact(t *testing.T) {
	t.Parallel()

	store := &fakeArtifactStore{}
	repo := &fakeUserRepo{
		createFn: func(context.Context, *entity.User) error {
			return errors.New("connection reset")
		},
	}
	svc := newUserService(repo, store)

	_, err := svc.Signup(context.Background(), "Kai", "kai@example.com", "secret123", "avatar.png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, []string{"avatar.png"}, store.released)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	hash, err := helpers.HashPassword("secret123")
	require.NoError(t, err)
	repo := &fakeUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*entity.User, error) {
			if email == "kai@example.com" {
				return &entity.User{ID: "user-1", Email: email, PasswordHash: hash}, nil
			}
			return nil, repository.ErrNotFound
		},
	}
	svc := newUserService(repo, &fakeArtifactStore{})

	res, err := svc.Login(context.Background(), "KAI@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", res.UserID)

	claims, err := svc.JWT.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	hash, err := helpers.HashPassword("secret123")
	require.NoError(t, err)
	repo := &fakeUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*entity.User, error) {
			if email == "kai@example.com" {
				return &entity.User{ID: "user-1", Email: email, PasswordHash: hash}, nil
			}
			return nil, repository.ErrNotFound
		},
	}
	svc := newUserService(repo, &fakeArtifactStore{})

	_, wrongPassword := svc.Login(context.Background(), "kai@example.com", "nope")
	_, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "secret123")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	repo := &fakeUserRepo{
		getByIDFn: func(_ context.Context, id string) (*entity.User, error) {
			if id == "user-1" {
				return &entity.User{ID: id, Name: "Kai"}, nil
			}
			return nil, repository.ErrNotFound
		},
	}
	svc := newUserService(repo, &fakeArtifactStore{})

	u, err := svc.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Kai", u.Name)

	_, err = svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
