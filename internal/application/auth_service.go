package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/internal/domain/entity"
	repo "github.com/oksasatya/fastbb/internal/domain/repository"
	"github.com/oksasatya/fastbb/pkg/helpers"
	"github.com/oksasatya/fastbb/pkg/mailer"
	tpl "github.com/oksasatya/fastbb/pkg/mailer/templates"
)

// TokenIssuer signs access tokens for a subject using the configured ttl.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

// TokenVerifier validates an access token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenManager is both halves of the token flow.
type TokenManager interface {
	TokenIssuer
	TokenVerifier
}

// JobPublisher enqueues JSON jobs, e.g. emails, for background workers.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// MailSettings controls the welcome email sent after registration.
type MailSettings struct {
	Enabled  bool
	AppName  string
	ForumURL string
}

const TokenTypeBearer = "bearer"

// AccessToken is what a successful login hands back to the client.
type AccessToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type AuthService struct {
	Repo   repo.UserRepository
	Hasher helpers.PasswordHasher
	Tokens TokenManager
	Pub    JobPublisher
	Mail   MailSettings
	Logger *logrus.Logger

	now func() time.Time
}

func NewAuthService(repo repo.UserRepository, hasher helpers.PasswordHasher, tokens TokenManager, pub JobPublisher, mail MailSettings, logger *logrus.Logger) *AuthService {
	return &AuthService{
		Repo:   repo,
		Hasher: hasher,
		Tokens: tokens,
		Pub:    pub,
		Mail:   mail,
		Logger: logger,
		now:    time.Now,
	}
}

// Register creates an active, non-admin user with a freshly hashed password.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, invalid("username can not be empty")
	}
	if in.Password == "" {
		return nil, invalid("password can not be empty")
	}

	if _, err := s.Repo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	var email *string
	if e := strings.TrimSpace(in.Email); e != "" {
		if _, err := s.Repo.FindByEmail(ctx, e); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		email = &e
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.Repo.Insert(ctx, &entity.StoredCredential{
		User:       entity.User{Username: username, Email: email, IsActive: true},
		Credential: entity.Credential{PasswordHash: hash},
	})
	switch {
	case errors.Is(err, repo.ErrDuplicateUsername):
		return nil, ErrUsernameTaken
	case errors.Is(err, repo.ErrDuplicateEmail):
		return nil, ErrEmailTaken
	case err != nil:
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).WithField("username", u.Username).Info("user registered")
	}
	s.sendWelcome(ctx, u)
	return u, nil
}

func (s *AuthService) sendWelcome(ctx context.Context, u *entity.User) {
	if s.Pub == nil || !s.Mail.Enabled || u.Email == nil {
		return
	}
	data := tpl.NewWelcomeData(s.Mail.AppName, u.Username, *u.Email, s.Mail.ForumURL, tpl.WithTime(s.now()))
	job := mailer.EmailJob{To: *u.Email, Template: tpl.Welcome, Data: tpl.ToMap(data)}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("failed to publish welcome email")
	}
}

// dummyHash is compared against when the username is unknown, so both
// failure paths cost one bcrypt comparison at the default cost.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Authenticate checks username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials. On success last-login is refreshed.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	sc, err := s.Repo.FindCredentialByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		s.Hasher.Compare(dummyHash, password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("username", username).Error("credential lookup failed")
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if !s.Hasher.Compare(sc.Credential.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	u := sc.User
	ts := s.now().UTC()
	if err := s.Repo.UpdateLastLogin(ctx, u.ID, ts); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	u.LastLogin = ts
	return &u, nil
}

// Login authenticates and mints a bearer token for the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AccessToken, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	tok, exp, err := s.Tokens.Issue(u.Username)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("issue access token failed")
		}
		return nil, err
	}
	return &AccessToken{AccessToken: tok, TokenType: TokenTypeBearer, ExpiresAt: exp}, nil
}

// Resolve maps a bearer token to its user. It does not check the active flag.
func (s *AuthService) Resolve(ctx context.Context, token string) (*entity.User, error) {
	subject, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	u, err := s.Repo.FindByUsername(ctx, subject)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("username", subject).Error("resolve user failed")
		}
		return nil, err
	}
	return u, nil
}

// RequireActive rejects deactivated accounts.
func RequireActive(u *entity.User) error {
	if u == nil {
		return ErrUnauthorized
	}
	if !u.IsActive {
		return ErrInactiveUser
	}
	return nil
}

// RequireAdmin rejects active users without the admin flag.
func RequireAdmin(u *entity.User) error {
	if err := RequireActive(u); err != nil {
		return err
	}
	if !u.IsAdmin {
		return ErrForbidden
	}
	return nil
}
