package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agb-planner/planner/internal/config"
	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

type callerKey struct{}

// WithCaller returns a context carrying the request's caller.
func WithCaller(ctx context.Context, c *model.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller attached to ctx, or nil for anonymous
// requests.
func CallerFrom(ctx context.Context) *model.Caller {
	c, _ := ctx.Value(callerKey{}).(*model.Caller)
	return c
}

// Authenticator verifies HS256 bearer tokens. Without a secret every
// request is anonymous.
type Authenticator struct {
	secret   []byte
	required bool
}

// NewAuthenticator creates an authenticator from the server auth settings.
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{secret: []byte(cfg.Secret), required: cfg.Required}
}

// Middleware attaches the verified caller to the request context. Invalid
// tokens are rejected; missing ones are anonymous unless required.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.secret) == 0 || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		if header == "" {
			if a.required {
				HandleError(w, perrors.ErrUnauthorized("authorization token required"))
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		caller, err := a.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			HandleError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// Verify checks a token and returns its caller. The id comes from the
// user_id claim, falling back to sub.
func (a *Authenticator) Verify(token string) (*model.Caller, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, perrors.ErrUnauthorized("token is not valid").WithCause(err)
	}

	id, _ := claims["user_id"].(string)
	if id == "" {
		id, _ = claims["sub"].(string)
	}
	if id == "" {
		return nil, perrors.ErrUnauthorized("token carries no user id")
	}
	name, _ := claims["name"].(string)
	return &model.Caller{ID: id, Name: name}, nil
}

// Sign issues a token for userID valid for ttl. Used by the CLI and tests.
func (a *Authenticator) Sign(userID, name string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	if name != "" {
		claims["name"] = name
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
