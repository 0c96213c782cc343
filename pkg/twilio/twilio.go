package twilio

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go/client"
	"github.com/twilio/twilio-go/twiml"
)

const SignatureHeader = "X-Twilio-Signature"

var ErrInvalidSignature = errors.New("invalid twilio signature")

type Config struct {
	AuthToken string `split_words:"true" required:"true"`
	// PublicURL is the externally visible base URL Twilio posts to. When
	// empty the request's own scheme and host are used.
	PublicURL     string `split_words:"true"`
	SkipSignature bool   `split_words:"true" default:"false"`
}

// Validator checks that inbound webhooks were signed with the account's
// auth token.
type Validator struct {
	publicURL string
	skip      bool
	validator client.RequestValidator
}

func NewValidator(cfg Config) (*Validator, error) {
	token := strings.TrimSpace(cfg.AuthToken)
	if token == "" && !cfg.SkipSignature {
		return nil, errors.New("twilio auth token is required")
	}

	publicURL := strings.TrimSpace(cfg.PublicURL)
	if publicURL != "" {
		if _, err := url.ParseRequestURI(publicURL); err != nil {
			return nil, fmt.Errorf("twilio public url: %w", err)
		}
	}

	return &Validator{
		publicURL: strings.TrimRight(publicURL, "/"),
		skip:      cfg.SkipSignature,
		validator: client.NewRequestValidator(token),
	}, nil
}

func MustNew(cfg Config) *Validator {
	v, err := NewValidator(cfg)
	if err != nil {
		panic(err)
	}
	return v
}

// Verify checks the request signature against the URL Twilio called and the
// posted form. r.ParseForm must have been called.
func (v *Validator) Verify(r *http.Request) error {
	if v.skip {
		return nil
	}
	signature := strings.TrimSpace(r.Header.Get(SignatureHeader))
	if signature == "" {
		return fmt.Errorf("%w: missing %s header", ErrInvalidSignature, SignatureHeader)
	}

	params := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	if !v.validator.Validate(v.RequestURL(r), params, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// RequestURL rebuilds the full URL the webhook was sent to.
func (v *Validator) RequestURL(r *http.Request) string {
	if v.publicURL != "" {
		return v.publicURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// VoiceReply renders a TwiML document that reads message to the caller.
func VoiceReply(message string) (string, error) {
	return twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: message},
	})
}
