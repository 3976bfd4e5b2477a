package firebase

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"

	"io.winapps.memorialboard/internal/identity"
)

const anonymousProvider = "anonymous"

// AuthProvider verifies Firebase ID tokens.
type AuthProvider struct {
	client *auth.Client
}

func NewAuthProvider(ctx context.Context, app *firebase.App) (*AuthProvider, error) {
	client, err := GetAuthClient(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firebase Auth client: %w", err)
	}
	return &AuthProvider{client: client}, nil
}

func (p *AuthProvider) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	idToken, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	return identityFromToken(idToken), nil
}

func identityFromToken(t *auth.Token) *identity.Identity {
	email, _ := t.Claims["email"].(string)
	return &identity.Identity{
		UID:       t.UID,
		Email:     email,
		Anonymous: t.Firebase.SignInProvider == anonymousProvider,
		ExpiresAt: time.Unix(t.Expires, 0).UTC(),
	}
}
