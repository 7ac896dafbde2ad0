package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/BradenHooton/supportportal/internal/models"
	pkghttp "github.com/BradenHooton/supportportal/pkg/http"
	"github.com/go-chi/chi/v5/middleware"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SecurityContextKey is the key for storing the caller's security context
	SecurityContextKey contextKey = "security_context"

	AuthorizationHeader = "Authorization"
	TokenPrefix         = "Bearer "
	// TokenResponseHeader carries a freshly issued token back to the client
	TokenResponseHeader = "Jwt-Token"

	ForbiddenMessage    = "Please login to access this page"
	AccessDeniedMessage = "You are not authorized to access this page"
)

// SecurityContext records who is calling and with which authorities
type SecurityContext struct {
	Subject     string
	Authorities []string
	RemoteAddr  string
	RequestID   string
}

// HasAuthority checks the caller's authorities
func (sc *SecurityContext) HasAuthority(authority string) bool {
	return models.HasAuthority(sc.Authorities, authority)
}

// TokenVerifier is the subset of TokenProvider the gatekeeper depends on
type TokenVerifier interface {
	Subject(token string) (string, error)
	IsValid(subject, token string) bool
	Authorities(token string) ([]string, error)
}

// AuthorizeRequest builds a security context from the request's bearer token.
// Returns nil when the header is absent, not a bearer token, or fails verification.
func AuthorizeRequest(tv TokenVerifier, r *http.Request) *SecurityContext {
	header := r.Header.Get(AuthorizationHeader)
	if !strings.HasPrefix(header, TokenPrefix) {
		return nil
	}
	token := strings.TrimPrefix(header, TokenPrefix)

	subject, err := tv.Subject(token)
	if err != nil || !tv.IsValid(subject, token) {
		return nil
	}

	authorities, err := tv.Authorities(token)
	if err != nil {
		return nil
	}

	return &SecurityContext{
		Subject:     subject,
		Authorities: authorities,
		RemoteAddr:  r.RemoteAddr,
		RequestID:   middleware.GetReqID(r.Context()),
	}
}

// Gatekeeper establishes the security context for every request. It never
// rejects: requests with a missing or bad token continue anonymously and the
// route's access policy decides.
func Gatekeeper(tv TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Preflight requests pass through untouched
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if !strings.HasPrefix(r.Header.Get(AuthorizationHeader), TokenPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if sc := AuthorizeRequest(tv, r); sc != nil {
				if FromContext(ctx) == nil {
					ctx = WithSecurityContext(ctx, sc)
				}
			} else {
				// never leave a stale context behind a rejected token
				ctx = context.WithValue(ctx, SecurityContextKey, (*SecurityContext)(nil))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthority allows the request if the caller holds ANY of the given authorities
func RequireAuthority(authorities ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := FromContext(r.Context())
			if sc == nil {
				pkghttp.WriteForbidden(w, ForbiddenMessage)
				return
			}

			for _, authority := range authorities {
				if sc.HasAuthority(authority) {
					next.ServeHTTP(w, r)
					return
				}
			}

			pkghttp.WriteForbidden(w, AccessDeniedMessage)
		})
	}
}

// WithSecurityContext returns a copy of ctx carrying sc
func WithSecurityContext(ctx context.Context, sc *SecurityContext) context.Context {
	return context.WithValue(ctx, SecurityContextKey, sc)
}

// FromContext extracts the security context; nil means anonymous
func FromContext(ctx context.Context) *SecurityContext {
	sc, ok := ctx.Value(SecurityContextKey).(*SecurityContext)
	if !ok {
		return nil
	}
	return sc
}
