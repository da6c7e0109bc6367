package auth

import (
	"context"
	"errors"

	"github.com/descope/go-sdk/descope/client"
	"github.com/rpupo63/rooms-blog-backend/errs"
)

// DescopeVerifier validates Descope session tokens against the project's
// public keys.
type DescopeVerifier struct {
	client *client.DescopeClient
}

func NewDescopeVerifier(projectID string) (*DescopeVerifier, error) {
	descopeClient, err := client.NewWithConfig(&client.Config{ProjectID: projectID})
	if err != nil {
		return nil, errs.NewConfigError("DESCOPE_PROJECT_ID", err)
	}
	return &DescopeVerifier{client: descopeClient}, nil
}

func (v *DescopeVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	authorized, session, err := v.client.Auth.ValidateSessionWithToken(ctx, token)
	if err != nil || !authorized || session == nil {
		if err == nil {
			err = errors.New("session not authorized")
		}
		return nil, errs.NewInvalidTokenError(err)
	}
	if session.ID == "" {
		return nil, errs.NewInvalidTokenError(errors.New("session has no subject"))
	}

	identity := &Identity{UserID: session.ID}
	if email, ok := session.Claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}
