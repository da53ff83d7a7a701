package auth

import (
	"crypto"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jws"
	"github.com/lestrrat-go/jwx/jwt"
)

const (
	signatureAlgorithm = jwa.RS512
	tokenIssuer        = "clinic_portal"
	tokenAudience      = "clinic_portal"
	kindClaim          = "typ"
	roleClaim          = "role"
)

// TokenKind tells apart the tokens issued to a user.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

var lifetimes = map[TokenKind]time.Duration{
	AccessToken:  15 * time.Minute,
	RefreshToken: 24 * time.Hour,
}

var errWrongTokenKind = errors.New("token was issued for another purpose")

// Claims holds what a verified token tells about its bearer.
type Claims struct {
	Subject    uuid.UUID
	Role       Role
	Kind       TokenKind
	Expiration time.Time
}

// ClaimOption changes a token before it is signed.
type ClaimOption func(token jwt.Token) error

// ExpiringAt overrides the expiration of the token.
func ExpiringAt(at time.Time) ClaimOption {
	return func(token jwt.Token) error {
		return token.Set(jwt.ExpirationKey, at)
	}
}

func newToken(user User, kind TokenKind, opts []ClaimOption) (jwt.Token, error) {
	jti, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	claims := map[string]interface{}{
		jwt.IssuerKey:     tokenIssuer,
		jwt.AudienceKey:   []string{tokenAudience},
		jwt.SubjectKey:    user.UUID.String(),
		jwt.JwtIDKey:      jti.String(),
		jwt.IssuedAtKey:   now,
		jwt.ExpirationKey: now.Add(lifetimes[kind]),
		kindClaim:         string(kind),
		roleClaim:         string(user.Role),
	}
	token := jwt.New()
	for name, value := range claims {
		if err = token.Set(name, value); err != nil {
			return nil, err
		}
	}
	for _, opt := range opts {
		if err = opt(token); err != nil {
			return nil, err
		}
	}
	return token, nil
}

// keyID derives the kid header from the SHA-256 thumbprint of the signing key.
func keyID(privateKey rsa.PrivateKey) (string, error) {
	key, err := jwk.New(privateKey)
	if err != nil {
		return "", err
	}
	thumbprint, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(thumbprint), nil
}

func sign(token jwt.Token, privateKey rsa.PrivateKey) (string, error) {
	kid, err := keyID(privateKey)
	if err != nil {
		return "", err
	}
	headers := jws.NewHeaders()
	if err = headers.Set(jws.KeyIDKey, kid); err != nil {
		return "", err
	}
	signed, err := jwt.Sign(token, signatureAlgorithm, privateKey, jwt.WithHeaders(headers))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

func issue(privateKey rsa.PrivateKey, user User, kind TokenKind, opts []ClaimOption) (string, error) {
	token, err := newToken(user, kind, opts)
	if err != nil {
		return "", err
	}
	return sign(token, privateKey)
}

// IssueTokens signs an access and a refresh token for the user. The options are applied to
// both tokens after the default claims.
func IssueTokens(privateKey rsa.PrivateKey, user User, opts ...ClaimOption) (*Tokens, error) {
	access, err := issue(privateKey, user, AccessToken, opts)
	if err != nil {
		return nil, fmt.Errorf("could not sign the access token: %w", err)
	}
	refresh, err := issue(privateKey, user, RefreshToken, opts)
	if err != nil {
		return nil, fmt.Errorf("could not sign the refresh token: %w", err)
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// MustIssueTokens issues the tokens of the user, panicking on failure.
func MustIssueTokens(privateKey rsa.PrivateKey, user User, opts ...ClaimOption) *Tokens {
	tokens, err := IssueTokens(privateKey, user, opts...)
	if err != nil {
		panic(err)
	}
	return tokens
}

// VerifyToken checks the signature, the registered claims and the kind of the token.
func VerifyToken(raw string, publicKey rsa.PublicKey, kind TokenKind) (*Claims, error) {
	token, err := jwt.Parse([]byte(raw), jwt.WithVerify(signatureAlgorithm, publicKey))
	if err != nil {
		return nil, err
	}
	if err = jwt.Validate(token, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience)); err != nil {
		return nil, err
	}
	if typ, _ := token.Get(kindClaim); typ != string(kind) {
		return nil, errWrongTokenKind
	}
	subject, err := uuid.Parse(token.Subject())
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	role, _ := token.Get(roleClaim)
	roleName, _ := role.(string)
	return &Claims{
		Subject:    subject,
		Role:       Role(roleName),
		Kind:       kind,
		Expiration: token.Expiration(),
	}, nil
}
