package gcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

// ErrUnauthorizedPush is returned when a push delivery fails verification.
var ErrUnauthorizedPush = errors.New("push request not authorized")

// PushVerifier checks the OIDC bearer token attached to Pub/Sub push requests.
type PushVerifier struct {
	audience string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewPushVerifier creates a verifier for audience.
func NewPushVerifier(audience string) *PushVerifier {
	return &PushVerifier{audience: audience, validate: idtoken.Validate}
}

// Verify validates the Authorization header value.
func (v *PushVerifier) Verify(ctx context.Context, authorization string) error {
	token, ok := strings.CutPrefix(strings.TrimSpace(authorization), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: missing bearer token", ErrUnauthorizedPush)
	}
	payload, err := v.validate(ctx, strings.TrimSpace(token), v.audience)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorizedPush, err)
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return fmt.Errorf("%w: service account email not verified", ErrUnauthorizedPush)
	}
	return nil
}
