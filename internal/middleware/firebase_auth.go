package middleware

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// FirebaseVerifier verifies Firebase ID tokens; the principal is the Firebase UID
type FirebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier creates a new FirebaseVerifier
func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify checks the ID token signature, audience and expiry
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (string, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	return token.UID, nil
}
