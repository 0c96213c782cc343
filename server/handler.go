package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	twiliox "github.com/tanpawarit/inventory-sms-agent/pkg/twilio"
)

const (
	EnrollmentReply  = "Welcome to the inventory assistant! Text any question about stock levels or reorders. Reply STOP to unsubscribe."
	UnsubscribeReply = "You have been unsubscribed and will no longer receive messages. Reply START to subscribe again."
	FailureReply     = "Sorry, something went wrong while handling your message. Please try again in a moment."
	VoiceMessage     = "This number only supports text messages. Please send us an SMS with your inventory question."
)

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	if !s.authenticate(w, r) {
		return
	}

	from := strings.TrimSpace(r.PostForm.Get("From"))
	body := r.PostForm.Get("Body")
	logger := hlog.FromRequest(r).With().Str("thread_id", from).Logger()

	switch strings.ToLower(strings.TrimSpace(body)) {
	case "start":
		logger.Info().Msg("thread enrolled")
		writeText(w, EnrollmentReply)
		return
	case "stop":
		logger.Info().Msg("thread unsubscribed")
		writeText(w, UnsubscribeReply)
		return
	}

	reply, err := s.respond(r.Context(), from, body)
	if err != nil {
		logger.Error().Err(err).Msg("message pipeline failed")
		reply = FailureReply
	}
	writeText(w, reply)
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if !s.authenticate(w, r) {
		return
	}

	doc, err := twiliox.VoiceReply(VoiceMessage)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render voice reply")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, "ok")
}

// authenticate parses the form and checks the webhook signature, writing
// the rejection itself when it returns false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("malformed webhook form")
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	if err := s.verifier.Verify(r); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("webhook rejected")
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return false
	}
	return true
}

// respond runs the pipeline and turns a panic into an error so the caller
// still gets a reply.
func (s *Server) respond(ctx context.Context, threadID string, text string) (reply string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pipeline panic: %v", rec)
		}
	}()
	return s.responder.HandleMessage(ctx, threadID, text)
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
