// Package identity issues and validates bearer credentials and owns the
// user records behind them. Permission flags live on the user row and are
// copied into the token at login.
package identity

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/shelfward/shelfward/internal/domain"
	"github.com/shelfward/shelfward/internal/storage"
)

const logMsgAdminSeeded = "seed admin created"

// Logger interface for operational logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Service handles registration, login, and user administration.
type Service struct {
	users  storage.Users
	tokens *TokenCodec
	logger Logger
}

// Option defines a functional option for configuring Service.
type Option func(*Service)

// WithLogger sets the logger for the Service.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService wires the identity service.
func NewService(users storage.Users, tokens *TokenCodec, options ...Option) *Service {
	s := &Service{users: users, tokens: tokens}

	for _, option := range options {
		option(s)
	}

	return s
}

// Register creates a new user with no permission flags.
func (s *Service) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	var empty domain.User

	if name == "" || email == "" || password == "" {
		return empty, fmt.Errorf("%w: name, email and password are required", domain.ErrValidation)
	}

	hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if hashErr != nil {
		return empty, hashErr
	}

	return s.users.CreateUser(ctx, name, email, string(hash))
}

// Login checks the credentials and issues a bearer token carrying the
// user's current permission flags. Disabled users cannot log in.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	var empty domain.User

	if email == "" || password == "" {
		return empty, "", fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, lookupErr := s.users.UserByEmail(ctx, email)
	if lookupErr != nil {
		// Not revealing whether the email exists.
		return empty, "", domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return empty, "", domain.ErrUserDisabled
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return empty, "", domain.ErrInvalidCredentials
	}

	token, issueErr := s.tokens.Issue(user)
	if issueErr != nil {
		return empty, "", issueErr
	}

	return user, token, nil
}

// Get loads an active user by id.
func (s *Service) Get(ctx context.Context, userID int64) (domain.User, error) {
	return s.users.UserByID(ctx, userID, false)
}

// Update changes a user's name and/or password. Callers may update
// themselves; updating someone else requires the can_update_users flag.
func (s *Service) Update(ctx context.Context, caller domain.Caller, userID int64, name, password string) (domain.User, error) {
	var empty domain.User

	if caller.UserID != userID && !caller.CanUpdateUsers {
		return empty, domain.ErrForbidden
	}

	var update domain.UserUpdate
	if name != "" {
		update.Name = &name
	}
	if password != "" {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			return empty, hashErr
		}

		hashString := string(hash)
		update.PasswordHash = &hashString
	}

	if update.IsEmpty() {
		return empty, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	return s.users.UpdateUser(ctx, userID, update)
}

// Deactivate soft-deletes a user. Callers may deactivate themselves;
// deactivating someone else requires the can_delete_users flag.
func (s *Service) Deactivate(ctx context.Context, caller domain.Caller, userID int64) (domain.User, error) {
	if caller.UserID != userID && !caller.CanDeleteUsers {
		return domain.User{}, domain.ErrForbidden
	}

	return s.users.DeactivateUser(ctx, userID)
}

// SeedAdmin creates a fully-privileged user on bootstrap when configured.
// Existing users with the same email are left untouched.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if hashErr != nil {
		return hashErr
	}

	created, seedErr := s.users.SeedUser(ctx, "Admin", email, string(hash))
	if seedErr != nil {
		return seedErr
	}

	if created && s.logger != nil {
		s.logger.Info(logMsgAdminSeeded, "email", email)
	}

	return nil
}
