package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrMessageRequired is returned when the incoming message is missing or blank.
var ErrMessageRequired = errors.New("message is required")

// Responder produces a single reply for a single user message.
type Responder interface {
	Name() string
	Respond(ctx context.Context, message string) (string, error)
}

// UpstreamError marks a responder failure. Its detail is for logs only.
type UpstreamError struct {
	Responder string
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("responder %s failed: %v", e.Responder, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Service validates chat turns and delegates them to the configured responder.
type Service struct {
	responder Responder
}

// NewService binds the service to a responder chosen at startup.
func NewService(responder Responder) *Service {
	return &Service{responder: responder}
}

// ResponderName reports which responder answers chat turns.
func (s *Service) ResponderName() string {
	return s.responder.Name()
}

// Reply answers one chat turn. Validation failures come back as ErrMessageRequired,
// everything else the responder reports is wrapped in *UpstreamError.
func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrMessageRequired
	}

	started := time.Now()
	reply, err := s.responder.Respond(ctx, message)
	elapsed := time.Since(started)

	if err != nil {
		if errors.Is(err, ErrMessageRequired) {
			return "", err
		}
		log.Error().
			Err(err).
			Str("component", "chat").
			Str("responder", s.responder.Name()).
			Dur("elapsed", elapsed).
			Msg("responder failed")
		return "", &UpstreamError{Responder: s.responder.Name(), Err: err}
	}

	log.Debug().
		Str("component", "chat").
		Str("responder", s.responder.Name()).
		Dur("elapsed", elapsed).
		Int("length", len(reply)).
		Msg("reply generated")
	return reply, nil
}
