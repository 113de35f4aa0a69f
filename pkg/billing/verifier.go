package billing

import (
	"errors"
	"net/http"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// SignatureHeader is the header Paddle signs notifications with.
const SignatureHeader = "Paddle-Signature"

// Verifier authenticates a webhook request. The request body must remain readable
// after Verify returns.
type Verifier interface {
	Verify(r *http.Request) error
}

// PaddleVerifier delegates signature checks to the Paddle SDK.
type PaddleVerifier struct {
	v *paddle.WebhookVerifier
}

// NewPaddleVerifier returns ErrSecretNotConfigured for an empty secret.
func NewPaddleVerifier(secret string) (*PaddleVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretNotConfigured
	}
	return &PaddleVerifier{v: paddle.NewWebhookVerifier(secret)}, nil
}

func (p *PaddleVerifier) Verify(r *http.Request) error {
	if r.Header.Get(SignatureHeader) == "" {
		return ErrMissingSignature
	}
	ok, err := p.v.Verify(r)
	if err != nil {
		return errors.Join(ErrInvalidSignature, err)
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}
