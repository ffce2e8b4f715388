package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/roamerhq/roamer-api/internal/domain/entity"
	"github.com/roamerhq/roamer-api/internal/domain/repository"
	"github.com/roamerhq/roamer-api/internal/storage"
	"github.com/roamerhq/roamer-api/pkg/helpers"
	"github.com/roamerhq/roamer-api/pkg/mailer"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login failures carry no enumeration signal.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)

// NormalizeEmail lowercases and trims an address. Applied before every
// lookup and before the uniqueness check at signup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserService handles signup, login, and user listing.
type UserService struct {
	Repo         repository.UserRepository
	JWT          *helpers.JWTManager
	Store        storage.ArtifactStore
	Pub          *helpers.RabbitPublisher
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewUserService(repo repository.UserRepository, jwt *helpers.JWTManager, store storage.ArtifactStore, pub *helpers.RabbitPublisher, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string) *UserService {
	return &UserService{
		Repo:         repo,
		JWT:          jwt,
		Store:        store,
		Pub:          pub,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
	}
}

// AuthResult is what signup and login hand back to the HTTP layer.
type AuthResult struct {
	UserID  string
	Email   string
	Token   string
	Expires time.Time
}

// Signup registers a new user. The avatar artifact has already been staged;
// every failure path from here on releases it, since no record will
// reference it.
func (s *UserService) Signup(ctx context.Context, name, email, password, artifactRef string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		releaseArtifact(ctx, s.Store, s.Pub, s.Logger, artifactRef)
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		releaseArtifact(ctx, s.Store, s.Pub, s.Logger, artifactRef)
		return nil, err
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		releaseArtifact(ctx, s.Store, s.Pub, s.Logger, artifactRef)
		return nil, err
	}

	u := &entity.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Image:        artifactRef,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		releaseArtifact(ctx, s.Store, s.Pub, s.Logger, artifactRef)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// lost the race with a concurrent signup for the same address
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, exp, err := s.JWT.Generate(u.ID, u.Email)
	if err != nil {
		// the user row exists and owns the artifact; only the token failed
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("token signing failed")
		}
		return nil, err
	}

	if s.Pub != nil {
		if pErr := s.Pub.PublishJSON(ctx, mailer.WelcomeEmail(u.Email, u.Name)); pErr != nil && s.Logger != nil {
			s.Logger.WithError(pErr).WithField("user_id", u.ID).Warn("welcome email enqueue failed")
		}
	}
	_ = s.indexUser(ctx, u)

	return &AuthResult{UserID: u.ID, Email: u.Email, Token: token, Expires: exp}, nil
}

// Login verifies credentials and issues a token. A signing failure is
// propagated as a server error, never swallowed into an empty token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.Repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.JWT.Generate(u.ID, u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("token signing failed")
		}
		return nil, err
	}
	return &AuthResult{UserID: u.ID, Email: u.Email, Token: token, Expires: exp}, nil
}

// List returns all users; the repository projection excludes password hashes.
func (s *UserService) List(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.List(ctx)
}

// GetByID resolves a user or reports ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}
