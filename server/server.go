package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Addr            string        `default:":8080"`
	RequestTimeout  time.Duration `split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
	MaxBodyBytes    int64         `split_words:"true" default:"65536"`
}

// Responder answers one inbound text for a thread.
type Responder interface {
	HandleMessage(ctx context.Context, threadID string, text string) (string, error)
}

// SignatureVerifier authenticates an inbound webhook whose form is parsed.
type SignatureVerifier interface {
	Verify(r *http.Request) error
}

type Server struct {
	cfg       Config
	responder Responder
	verifier  SignatureVerifier
	handler   http.Handler
}

func New(cfg Config, responder Responder, verifier SignatureVerifier) (*Server, error) {
	if responder == nil {
		return nil, errors.New("responder is required")
	}
	if verifier == nil {
		return nil, errors.New("signature verifier is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:       cfg,
		responder: responder,
		verifier:  verifier,
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Msg("http server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /twilio/text", s.handleText)
	mux.HandleFunc("POST /twilio/voice", s.handleVoice)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return chain(mux,
		hlogHandler(),
		requestID,
		accessLog(),
		recoverer,
		limitBody(s.cfg.MaxBodyBytes),
		timeout(s.cfg.RequestTimeout),
	)
}
