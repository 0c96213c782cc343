package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
)

const testToken = "12345"

func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newSignedRequest(t *testing.T, publicURL string, form url.Values, token string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/twilio/text", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(SignatureHeader, sign(token, publicURL+"/twilio/text", form))
	if err := req.ParseForm(); err != nil {
		t.Fatalf("ParseForm() error = %v", err)
	}
	return req
}

func TestVerifyAcceptsSignedRequest(t *testing.T) {
	t.Parallel()

	v, err := NewValidator(Config{AuthToken: testToken, PublicURL: "https://sms.example.com/"})
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	form := url.Values{"From": {"+15550001"}, "Body": {"Which items are low?"}, "To": {"+15559999"}}
	req := newSignedRequest(t, "https://sms.example.com", form, testToken)
	if err := v.Verify(req); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestVerifyRejectsBadSignatures(t *testing.T) {
	t.Parallel()

	v := MustNew(Config{AuthToken: testToken, PublicURL: "https://sms.example.com"})
	form := url.Values{"From": {"+15550001"}, "Body": {"hi"}}

	tests := []struct {
		name   string
		mutate func(r *http.Request)
	}{
		{
			name:   "missing header",
			mutate: func(r *http.Request) { r.Header.Del(SignatureHeader) },
		},
		{
			name:   "wrong token",
			mutate: func(r *http.Request) { r.Header.Set(SignatureHeader, sign("other", "https://sms.example.com/twilio/text", form)) },
		},
		{
			name:   "tampered body",
			mutate: func(r *http.Request) { r.PostForm.Set("Body", "stop") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newSignedRequest(t, "https://sms.example.com", form, testToken)
			tt.mutate(req)
			if err := v.Verify(req); !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("expected ErrInvalidSignature, got %v", err)
			}
		})
	}
}

func TestVerifySkip(t *testing.T) {
	t.Parallel()

	v := MustNew(Config{SkipSignature: true})
	req := httptest.NewRequest(http.MethodPost, "/twilio/text", nil)
	if err := v.Verify(req); err != nil {
		t.Fatalf("expected skip to accept unsigned request, got %v", err)
	}
}

func TestNewValidatorRequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := NewValidator(Config{}); err == nil {
		t.Fatal("expected error for empty auth token")
	}
	if _, err := NewValidator(Config{AuthToken: testToken, PublicURL: "not a url"}); err == nil {
		t.Fatal("expected error for invalid public url")
	}
}

func TestRequestURLFallsBackToHost(t *testing.T) {
	t.Parallel()

	v := MustNew(Config{AuthToken: testToken})
	req := httptest.NewRequest(http.MethodPost, "http://agent.internal:8080/twilio/text?x=1", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := v.RequestURL(req); got != "https://agent.internal:8080/twilio/text?x=1" {
		t.Fatalf("unexpected url: %s", got)
	}
}

func TestVoiceReply(t *testing.T) {
	t.Parallel()

	doc, err := VoiceReply("Please send us a text message instead.")
	if err != nil {
		t.Fatalf("VoiceReply() error = %v", err)
	}
	if !strings.Contains(doc, "<Response>") || !strings.Contains(doc, "<Say>Please send us a text message instead.</Say>") {
		t.Fatalf("unexpected twiml: %s", doc)
	}
}
