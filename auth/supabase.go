package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rpupo63/rooms-blog-backend/errs"
)

const DefaultSupabaseAudience = "authenticated"

// SupabaseClaims are the fields of a Supabase access token this service reads
type SupabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SupabaseVerifier checks HS256 access tokens signed with the project's JWT
// secret. The subject is the user id.
type SupabaseVerifier struct {
	secret   []byte
	audience string
}

func NewSupabaseVerifier(secret []byte, audience string) *SupabaseVerifier {
	return &SupabaseVerifier{secret: secret, audience: audience}
}

func (v *SupabaseVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, &SupabaseClaims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.NewExpiredTokenError()
		}
		return nil, errs.NewInvalidTokenError(err)
	}

	claims, ok := parsed.Claims.(*SupabaseClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, errs.NewInvalidTokenError(errors.New("token has no subject"))
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}
