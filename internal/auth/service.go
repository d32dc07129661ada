package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mvetrov/churnguard/internal/store"
)

// ErrInvalidCredentials is returned by Login for a wrong username/password
// pair. Deliberately does not say which half was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ValidationError reports user-correctable registration problems.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid registration: %s", strings.Join(names, ", "))
}

// Service implements registration, login and request authentication on top
// of the persistence layer.
type Service struct {
	store       store.Store
	tokenPrefix string
}

// NewService builds an auth service. prefix is the API token prefix
// (DefaultTokenPrefix when empty).
func NewService(st store.Store, prefix string) *Service {
	if prefix == "" {
		prefix = DefaultTokenPrefix
	}
	return &Service{store: st, tokenPrefix: prefix}
}

// Register validates and creates a new user, returning the user and a fresh
// API token. Duplicate usernames and emails surface as field errors.
func (s *Service) Register(ctx context.Context, username, password, email string) (*store.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	fields := map[string]string{}
	switch {
	case username == "":
		fields["username"] = "username is required"
	case len(username) < 3 || len(username) > 50:
		fields["username"] = "username must be between 3 and 50 characters"
	}
	switch {
	case password == "":
		fields["password"] = "password is required"
	case len(password) < 8:
		fields["password"] = "password must be at least 8 characters"
	}
	switch {
	case email == "":
		fields["email"] = "email is required"
	case !strings.Contains(email, "@"):
		fields["email"] = "invalid email format"
	}
	if len(fields) > 0 {
		return nil, "", &ValidationError{Fields: fields}
	}

	hash, err := HashSecret(password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.store.CreateUser(ctx, store.CreateUserParams{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, "", &ValidationError{Fields: map[string]string{
			"username": "username or email already registered",
		}}
	}
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a fresh API token.
func (s *Service) Login(ctx context.Context, username, password string) (*store.User, string, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !VerifySecret(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves an Authorization header to a user. Tokens are
// bcrypt-hashed, so each stored hash is checked in turn; the match updates
// the token's last-used timestamp in the background.
func (s *Service) Authenticate(ctx context.Context, authHeader string) (*store.User, error) {
	token := ExtractBearerToken(authHeader)
	if token == "" {
		return nil, errors.New("missing bearer token")
	}

	tokens, err := s.store.ListTokens(ctx)
	if err != nil {
		return nil, errors.New("authentication service unavailable")
	}

	for i := range tokens {
		if !VerifySecret(token, tokens[i].TokenHash) {
			continue
		}
		user, err := s.store.GetUserByID(ctx, tokens[i].UserID)
		if err != nil {
			return nil, errors.New("invalid token")
		}
		id := tokens[i].ID
		go func() {
			_ = s.store.TouchToken(context.Background(), id)
		}()
		return user, nil
	}
	return nil, errors.New("invalid token")
}

func (s *Service) issueToken(ctx context.Context, user *store.User) (string, error) {
	token, err := GenerateToken(s.tokenPrefix)
	if err != nil {
		return "", err
	}
	hash, err := HashSecret(token)
	if err != nil {
		return "", err
	}
	err = s.store.CreateToken(ctx, store.Token{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hash,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}
