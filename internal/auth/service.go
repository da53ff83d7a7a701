package auth

import (
	"context"
	"fmt"
	"strings"

	"clinic-portal/internal/configs"
	"clinic-portal/internal/database"

	"github.com/google/uuid"
)

// Authenticator exchanges credentials for a pair of tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, credentials Credentials) (*Tokens, error)
}

// Registrar creates portal accounts.
type Registrar interface {

	// Register creates a user with the given role, failing with a conflict when the
	// email is already taken.
	Register(ctx context.Context, registration Registration) (*User, error)
}

// Authorizer is what the other contexts need to protect their routes.
type Authorizer interface {

	// ValidateToken returns the owner of a valid access token.
	ValidateToken(ctx context.Context, token string) (*User, error)

	// RefreshTokens issues a new pair of tokens from a valid refresh token.
	RefreshTokens(ctx context.Context, tokens Tokens) (*Tokens, error)

	// GetAuthenticatedUser returns the user JwtValidator stored in the context.
	GetAuthenticatedUser(ctx context.Context) (User, error)
}

type Service interface {
	Authenticator
	Registrar
	Authorizer
}

type defaultService struct {
	repository Repository
	config     configs.Config
}

// NewService creates a new auth service.
func NewService(config configs.Config, dbConn database.Connection) Service {
	return &defaultService{
		config:     config,
		repository: newRepository(dbConn),
	}
}

func unexpected(err error) error {
	return fmt.Errorf("an unexpected error occurred: %w", err)
}

func (d defaultService) Authenticate(ctx context.Context, credentials Credentials) (*Tokens, error) {
	if err := credentials.Validate(); err != nil {
		return nil, err
	}
	user, err := d.repository.FindUserByEmail(ctx, normalizeEmail(credentials.Email))
	if err != nil {
		return nil, unexpected(err)
	}
	if user == nil {
		return nil, NewUnauthorizedError()
	}
	matches, err := d.repository.CheckUserPassword(ctx, user.Email, credentials.Password)
	switch {
	case err != nil:
		return nil, unexpected(err)
	case !matches:
		return nil, NewUnauthorizedError()
	}
	return IssueTokens(d.config.PrivateKey(), *user)
}

func (d defaultService) Register(ctx context.Context, registration Registration) (*User, error) {
	if err := registration.Validate(); err != nil {
		return nil, err
	}
	email := normalizeEmail(registration.Email)
	existing, err := d.repository.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, unexpected(err)
	}
	if existing != nil {
		return nil, newEmailAlreadyRegisteredError()
	}
	hashed, err := EncryptPassword(registration.Password)
	if err != nil {
		return nil, err
	}
	user := &User{UUID: uuid.New(), Email: email, Password: hashed, Role: registration.Role}
	if err = d.repository.InsertUser(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, newEmailAlreadyRegisteredError()
		}
		return nil, unexpected(err)
	}
	user.Password = ""
	return user, nil
}

// userFromToken loads the owner of a verified token. A missing owner is unauthorized.
func (d defaultService) userFromToken(ctx context.Context, token string, kind TokenKind) (*User, error) {
	claims, err := VerifyToken(token, d.config.PrivateKey().PublicKey, kind)
	if err != nil {
		return nil, NewUnauthorizedError()
	}
	user, err := d.repository.FindUserByUUID(ctx, claims.Subject)
	if err != nil {
		return nil, unexpected(err)
	}
	if user == nil {
		return nil, NewUnauthorizedError()
	}
	return user, nil
}

func (d defaultService) ValidateToken(ctx context.Context, token string) (*User, error) {
	user, err := d.userFromToken(ctx, token, AccessToken)
	if err != nil {
		return nil, NewUnauthorizedError()
	}
	return user, nil
}

func (d defaultService) RefreshTokens(ctx context.Context, tokens Tokens) (*Tokens, error) {
	if err := tokens.Validate(); err != nil {
		return nil, err
	}
	user, err := d.userFromToken(ctx, tokens.RefreshToken, RefreshToken)
	if err != nil {
		return nil, err
	}
	return IssueTokens(d.config.PrivateKey(), *user)
}

func (d defaultService) GetAuthenticatedUser(ctx context.Context) (User, error) {
	user, ok := ctx.Value(UserContextKey).(User)
	if !ok {
		return User{}, NewUnauthorizedError()
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
