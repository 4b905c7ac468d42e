package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/dailymenu/internal/domain/auth"
)

// APIKeyHeader carries the administrator API key.
const APIKeyHeader = "api_key"

// Security guards the customer and admin route groups.
type Security struct {
	keys   *auth.KeyVerifier
	tokens *auth.TokenVerifier
}

// NewSecurity creates the route guards.
func NewSecurity(keys *auth.KeyVerifier, tokens *auth.TokenVerifier) *Security {
	return &Security{keys: keys, tokens: tokens}
}

// Admin requires an API key with the admin scope.
func (s *Security) Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := s.keys.Verify(r.Context(), r.Header.Get(APIKeyHeader), auth.ScopeAdmin)
		if err != nil {
			fail(w, r, err)
			return
		}
		ctx := zctx.With(r.Context(), zap.String("api_key_id", info.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Customer requires a bearer token and stores the customer in the context.
func (s *Security) Customer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := s.tokens.Verify(r.Header.Get("Authorization"))
		if err != nil {
			fail(w, r, err)
			return
		}
		ctx := auth.WithCustomer(r.Context(), c)
		ctx = zctx.With(ctx, zap.String("customer_id", c.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
