// Package auth turns a bearer token into the caller's user id.
package auth

import (
	"context"
	"strings"

	"github.com/rpupo63/rooms-blog-backend/config"
	"github.com/rpupo63/rooms-blog-backend/errs"
)

// Identity is the authenticated caller
type Identity struct {
	UserID string
	Email  string
}

// Verifier validates an access token. Failures are errs token errors.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errs.NewMissingTokenError()
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errs.NewMissingTokenError()
	}
	return token, nil
}

// FromConfig picks the verifier named by AUTH_PROVIDER: "supabase" (the
// default) or "descope".
func FromConfig(cfg map[string]string) (Verifier, error) {
	switch provider := strings.ToLower(config.GetString(cfg, "AUTH_PROVIDER", "supabase")); provider {
	case "supabase":
		secret := config.GetString(cfg, "SUPABASE_JWT_SECRET", "")
		if secret == "" {
			return nil, errs.NewEnvironmentVariableError("SUPABASE_JWT_SECRET")
		}
		return NewSupabaseVerifier([]byte(secret), config.GetString(cfg, "SUPABASE_JWT_AUDIENCE", DefaultSupabaseAudience)), nil
	case "descope":
		projectID := config.GetString(cfg, "DESCOPE_PROJECT_ID", "")
		if projectID == "" {
			return nil, errs.NewEnvironmentVariableError("DESCOPE_PROJECT_ID")
		}
		return NewDescopeVerifier(projectID)
	default:
		return nil, errs.NewConfigError("AUTH_PROVIDER", errs.NewBadRequestError("unsupported auth provider "+provider))
	}
}
