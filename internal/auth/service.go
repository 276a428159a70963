// Package auth handles signup, login and stateless sessions.
package auth

import (
	"context"
	"errors"
	"fmt"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Service signs users up and in against a UserStore.
type Service struct {
	users  storage.UserStore
	tokens *Tokens
	cost   int
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(users storage.UserStore, tokens *Tokens, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is an issued login.
type Session struct {
	User  core.User
	Token string
}

// Signup creates the user and logs them in.
func (s *Service) Signup(ctx context.Context, username, password string) (Session, error) {
	name, err := core.ValidateUsername(username)
	if err != nil {
		return Session{}, err
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return Session{}, err
	}
	user, err := s.users.CreateUser(ctx, name, hash)
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	applog.FromContext(ctx).InfoContext(ctx, "User signed up",
		applog.FieldComponent, applog.ComponentAuth,
		applog.FieldUserID, user.ID,
		applog.FieldOperation, applog.OpSignup)
	return s.issue(user)
}

// Login checks the credentials. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.users.UserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	ok, err := CheckPassword(user.PasswordHash, password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		applog.FromContext(ctx).WarnContext(ctx, "Login failed",
			applog.FieldComponent, applog.ComponentAuth,
			applog.FieldUserID, user.ID)
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Authenticate resolves a session token to its user. A deleted user
// invalidates the token.
func (s *Service) Authenticate(ctx context.Context, token string) (core.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return core.User{}, err
	}
	id, _ := claims.UserID()
	user, err := s.users.UserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrInvalidToken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Tokens exposes the signer, used by the cookie helpers.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

func (s *Service) issue(user core.User) (Session, error) {
	token, _, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}
