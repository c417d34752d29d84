package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// NewFirebaseApp initialises the Admin SDK once; auth and messaging
// clients are derived from the same app.
func NewFirebaseApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

type FirebaseVerifier struct {
	client       *firebaseauth.Client
	checkRevoked bool
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App, checkRevoked bool) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}
	return &FirebaseVerifier{client: client, checkRevoked: checkRevoked}, nil
}

func (f *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	var (
		token *firebaseauth.Token
		err   error
	)
	if f.checkRevoked {
		token, err = f.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	} else {
		token, err = f.client.VerifyIDToken(ctx, idToken)
	}
	if err != nil {
		if firebaseauth.IsIDTokenRevoked(err) || firebaseauth.IsUserDisabled(err) {
			return nil, fmt.Errorf("%w: %v", ErrTokenRevoked, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return identityFromClaims(token.UID, token.Claims), nil
}

func identityFromClaims(uid string, claims map[string]interface{}) *Identity {
	identity := &Identity{UID: uid}
	if v, ok := claims["email"].(string); ok {
		identity.Email = v
	}
	if v, ok := claims["email_verified"].(bool); ok {
		identity.EmailVerified = v
	}
	if v, ok := claims["name"].(string); ok {
		identity.Name = v
	}
	return identity
}
