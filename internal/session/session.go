// SPDX-License-Identifier: MIT

// Package session owns the lifecycle of one segmented-streaming
// session bound to a playback surface: load, attach, error
// classification, bounded retry, recovery, and teardown.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MWieland/playctl/internal/log"
	"github.com/MWieland/playctl/internal/media"
	"github.com/MWieland/playctl/internal/metrics"
	"github.com/MWieland/playctl/internal/source"
)

// DefaultNetworkRetryLimit caps consecutive network-error recoveries
// before the session is declared failed.
const DefaultNetworkRetryLimit = 3

// Config describes one segmented session.
type Config struct {
	Source  source.Descriptor
	Surface media.Surface
	Client  media.SegmentedClient

	// Autoplay issues a play command once the manifest parses. A
	// policy-blocked autoplay is swallowed.
	Autoplay bool

	// StartPosition seeds fragment loading, in seconds.
	StartPosition float64

	// NetworkRetryLimit overrides DefaultNetworkRetryLimit when > 0.
	NetworkRetryLimit int

	// OnFatal receives the human-readable message of a terminal
	// failure. The session has already destroyed itself when it runs.
	OnFatal func(message string)
}

// Session is the live binding between one source descriptor and the
// playback surface. At most one Session may be alive at a time for a
// given surface; the owner enforces that.
//
// Session is a passive state machine: the owner feeds it client events
// through HandleEvent on a single sequential event stream.
type Session struct {
	mu sync.Mutex

	id         string
	cfg        Config
	retryLimit int

	state             State
	netRetries        int
	mediaRecoveryUsed bool

	log zerolog.Logger
}

// New creates a session and performs the attach/load sequence:
// bind the client to the surface, issue the manifest load, and start
// fragment loading from the configured position.
func New(cfg Config) (*Session, error) {
	if cfg.Surface == nil {
		return nil, errors.New("session requires a surface")
	}
	if cfg.Client == nil {
		return nil, errors.New("session requires a segmented client")
	}
	if err := cfg.Source.Validate(); err != nil {
		return nil, err
	}

	limit := cfg.NetworkRetryLimit
	if limit <= 0 {
		limit = DefaultNetworkRetryLimit
	}

	s := &Session{
		id:         uuid.NewString(),
		cfg:        cfg,
		retryLimit: limit,
		state:      StateUninitialized,
	}
	s.log = log.Derive(func(c *zerolog.Context) {
		*c = c.Str(log.FieldComponent, "session").
			Str(log.FieldSessionID, s.id).
			Str(log.FieldSourceURI, cfg.Source.URI)
	})

	if err := cfg.Client.Attach(cfg.Surface); err != nil {
		return nil, fmt.Errorf("attach segmented client: %w", err)
	}
	if err := cfg.Client.Load(cfg.Source.URI, cfg.Source.Headers); err != nil {
		cfg.Client.Detach()
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	s.setState(StateAttached)
	cfg.Client.StartLoad(cfg.StartPosition)

	s.log.Debug().Float64(log.FieldPosition, cfg.StartPosition).Msg("session attached")
	return s, nil
}

// ID returns the session's correlation ID.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Alive reports whether the session still owns the surface. Native
// surface errors are ignored by the owner while this is true; the
// segmented layer is authoritative.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateDestroyed
}

// NetworkRetries returns the current consecutive network-failure count.
func (s *Session) NetworkRetries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.netRetries
}

// HandleEvent applies one client event to the session state machine.
// Events arriving after destruction are ignored.
func (s *Session) HandleEvent(ev media.ClientEvent) {
	s.mu.Lock()
	if s.state == StateDestroyed {
		s.mu.Unlock()
		return
	}

	switch ev.Type {
	case media.ClientManifestParsed:
		s.transition(StateManifestParsed)
		// A recovering stream must not carry forward stale failure
		// counts.
		s.netRetries = 0
		autoplay := s.cfg.Autoplay
		surface := s.cfg.Surface
		s.mu.Unlock()
		if autoplay {
			if err := surface.Play(); err != nil {
				// Policy-blocked autoplay is a no-op, not an error.
				s.log.Debug().Err(err).Msg("autoplay rejected")
			}
		}
		return

	case media.ClientFragmentLoading:
		s.transition(StateFragmentsLoading)

	case media.ClientFragmentLoaded:
		s.transition(StateFragmentsLoaded)
		s.netRetries = 0

	case media.ClientError:
		s.handleErrorLocked(ev)
		return
	}
	s.mu.Unlock()
}

// handleErrorLocked is entered holding s.mu and releases it.
func (s *Session) handleErrorLocked(ev media.ClientEvent) {
	if !ev.Fatal {
		s.mu.Unlock()
		s.log.Debug().
			Str(log.FieldErrorClass, string(ev.Class)).
			Str("message", ev.Message).
			Msg("non-fatal client error, client recovers internally")
		return
	}

	switch ev.Class {
	case media.ErrorClassNetwork:
		s.netRetries++
		retries := s.netRetries
		if retries <= s.retryLimit {
			position := s.cfg.Surface.CurrentTime()
			client := s.cfg.Client
			s.mu.Unlock()
			metrics.IncSessionRetry(string(media.ErrorClassNetwork))
			s.log.Warn().
				Int(log.FieldRetries, retries).
				Float64(log.FieldPosition, position).
				Msg("fatal network error, restarting load")
			client.StartLoad(position)
			return
		}
		s.transition(StateErrored)
		s.mu.Unlock()
		s.fatal(media.ErrorClassNetwork, fmt.Sprintf("network error: giving up after %d attempts", retries))
		return

	case media.ErrorClassMedia:
		if !s.mediaRecoveryUsed {
			s.mediaRecoveryUsed = true
			client := s.cfg.Client
			s.mu.Unlock()
			metrics.IncSessionRetry(string(media.ErrorClassMedia))
			s.log.Warn().Str("message", ev.Message).Msg("fatal media error, attempting in-place recovery")
			client.RecoverMedia()
			return
		}
		s.transition(StateErrored)
		s.mu.Unlock()
		s.fatal(media.ErrorClassMedia, "failed to load stream")
		return

	default:
		s.transition(StateErrored)
		s.mu.Unlock()
		s.fatal(media.ErrorClassOther, "failed to load stream")
		return
	}
}

func (s *Session) fatal(class media.ErrorClass, message string) {
	metrics.IncSessionFatal(string(class))
	s.log.Error().
		Str(log.FieldErrorClass, string(class)).
		Msg("terminal session failure")
	s.Destroy()
	if s.cfg.OnFatal != nil {
		s.cfg.OnFatal(message)
	}
}

// Destroy tears the session down: stop all in-flight fragment fetches,
// detach from the surface, destroy the client, and clear the surface's
// source so buffered media is released. Idempotent; after Destroy no
// further network activity occurs.
func (s *Session) Destroy() {
	s.mu.Lock()
	if s.state == StateDestroyed {
		s.mu.Unlock()
		return
	}
	s.transition(StateDestroyed)
	client := s.cfg.Client
	surface := s.cfg.Surface
	s.mu.Unlock()

	client.StopLoad()
	client.Detach()
	client.Destroy()
	surface.ClearSource()

	metrics.IncSessionTeardown()
	s.log.Debug().Msg("session destroyed")
}

// transition is called holding s.mu.
func (s *Session) transition(next State) {
	if s.state == next {
		return
	}
	s.log.Debug().
		Str(log.FieldOldState, string(s.state)).
		Str(log.FieldNewState, string(next)).
		Msg("session state change")
	s.state = next
}

// setState is transition without holding s.mu, for construction only.
func (s *Session) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition(next)
}
