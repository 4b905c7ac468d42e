package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Customer is the authenticated caller of customer routes.
type Customer struct {
	ID   string
	Name string
}

// CustomerClaims is the bearer token payload. Tokens are issued by the
// identity provider; this service only verifies them.
type CustomerClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 customer tokens.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier creates a TokenVerifier for tokens signed with secret.
func NewTokenVerifier(secret []byte, leeway time.Duration) *TokenVerifier {
	return &TokenVerifier{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

// Verify parses an Authorization header value of the form "Bearer <token>".
func (v *TokenVerifier) Verify(header string) (*Customer, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, ErrUnauthorized
	}

	var claims CustomerClaims
	if _, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return nil, errors.Wrap(ErrUnauthorized, err.Error())
	}
	if claims.Subject == "" {
		return nil, errors.Wrap(ErrUnauthorized, "token has no subject")
	}
	return &Customer{ID: claims.Subject, Name: claims.Name}, nil
}

type customerKey struct{}

// WithCustomer returns a copy of ctx carrying c.
func WithCustomer(ctx context.Context, c *Customer) context.Context {
	return context.WithValue(ctx, customerKey{}, c)
}

// CustomerFrom returns the customer stored by WithCustomer.
func CustomerFrom(ctx context.Context) (*Customer, bool) {
	c, ok := ctx.Value(customerKey{}).(*Customer)
	return c, ok
}
