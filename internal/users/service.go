package users

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/auth"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/events"
)

const minPasswordLen = 8

// Session is the result of a successful register or login.
type Session struct {
	User        User      `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service implements account registration, login, and profile management.
type Service struct {
	store  Store
	tokens auth.TokenService
	events *events.Publisher
	log    *zap.Logger
}

func NewService(store Store, tokens auth.TokenService, pub *events.Publisher, log *zap.Logger) *Service {
	return &Service{store: store, tokens: tokens, events: pub, log: log}
}

// RegisterInput carries a new account request.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	var missing []string
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Username == "" {
		missing = append(missing, "username")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return Session{}, &apperr.ValidationError{Missing: missing}
	}
	if !strings.Contains(in.Email, "@") {
		return Session{}, apperr.InvalidOperation("invalid email address")
	}
	if len(in.Password) < minPasswordLen {
		return Session{}, apperr.InvalidOperation("password too short")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, err
	}

	u, err := s.store.Insert(ctx, User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
	})
	if err != nil {
		return Session{}, err
	}

	token, exp, err := s.tokens.NewAccessToken(u.ID, string(u.Role), time.Time{})
	if err != nil {
		return Session{}, err
	}
	s.events.Publish(events.SubjectUserRegistered, "user_registered", u.ID, map[string]any{
		"username": u.Username,
	})
	return Session{User: u, AccessToken: token, ExpiresAt: exp}, nil
}

// Login authenticates with email or username. Wrong credentials and unknown
// logins are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, login, password string) (Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return Session{}, &apperr.ValidationError{Missing: []string{"login", "password"}}
	}

	u, err := s.store.GetByLogin(ctx, login)
	if err != nil {
		return Session{}, apperr.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, apperr.ErrUnauthorized
	}

	token, exp, err := s.tokens.NewAccessToken(u.ID, string(u.Role), time.Time{})
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, AccessToken: token, ExpiresAt: exp}, nil
}

func (s *Service) Profile(ctx context.Context, id string) (User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id, bio, avatarURL string) (User, error) {
	return s.store.UpdateProfile(ctx, id, bio, avatarURL)
}

// ChangePassword verifies the current password before writing the new hash.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return apperr.ErrUnauthorized
	}
	if len(next) < minPasswordLen {
		return apperr.InvalidOperation("password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, id, string(hash))
}
