package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fieldnotes/internal/config"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/logging"
)

type userKey struct{}

// AnonymousUser is the identity attached to every request when API keys are
// not required. It may see every job.
var AnonymousUser = domain.User{ID: "anonymous", Role: domain.RoleAdmin}

// apiKey is one configured key and the user it authenticates.
type apiKey struct {
	key  []byte
	user domain.User
}

// parseAPIKeys parses key:userId[:admin] entries.
func parseAPIKeys(entries []string) ([]apiKey, error) {
	keys := make([]apiKey, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid API key entry: want key:userId[:admin]")
		}
		user := domain.User{ID: parts[1], Role: domain.RoleContributor}
		if len(parts) == 3 {
			if parts[2] != "admin" {
				return nil, fmt.Errorf("invalid API key role %q for user %s", parts[2], parts[1])
			}
			user.Role = domain.RoleAdmin
		}
		keys = append(keys, apiKey{key: []byte(parts[0]), user: user})
	}
	return keys, nil
}

// APIKeyAuth returns middleware that authenticates the X-API-Key header
// against the configured keys and attaches the matching user to the request.
// If RequireAPIKey is false, every request runs as AnonymousUser.
// If RequireAPIKey is true but no keys are configured, all requests are rejected.
func APIKeyAuth(cfg *config.SecurityConfig) (func(http.Handler) http.Handler, error) {
	keys, err := parseAPIKeys(cfg.APIKeys)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), AnonymousUser)))
				return
			}

			presented := r.Header.Get("X-API-Key")
			if presented == "" {
				slog.Warn("auth: missing API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY")
				return
			}

			user, ok := matchAPIKey([]byte(presented), keys)
			if !ok {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}, nil
}

// matchAPIKey compares against every key so the time taken does not depend
// on which key matched.
func matchAPIKey(presented []byte, keys []apiKey) (domain.User, bool) {
	var matched domain.User
	found := 0
	for _, k := range keys {
		if subtle.ConstantTimeCompare(presented, k.key) == 1 {
			matched = k.user
			found = 1
		}
	}
	return matched, found == 1
}

// WithUser attaches user to ctx and to the loggers derived from it.
func WithUser(ctx context.Context, user domain.User) context.Context {
	ctx = context.WithValue(ctx, userKey{}, user)
	return logging.ContextWith(ctx, "user_id", user.ID)
}

// UserFromContext returns the user attached by APIKeyAuth.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userKey{}).(domain.User)
	return user, ok
}

type authError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeAuthError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(authError{Error: message, Code: code})
}
