// SPDX-License-Identifier: MIT

// Package player implements the playback state machine: the observable
// transport state, control surface, and source pipeline of the
// adaptive media-playback controller.
//
// All state mutations run on a single internal event queue with
// run-to-completion dispatch. Surface callbacks, timer callbacks, and
// user commands are posted as events; whichever goroutine posts while
// the queue is idle drains it, so there are never two concurrent
// writers.
package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MWieland/playctl/internal/audiocheck"
	"github.com/MWieland/playctl/internal/classify"
	"github.com/MWieland/playctl/internal/config"
	"github.com/MWieland/playctl/internal/engine"
	"github.com/MWieland/playctl/internal/log"
	"github.com/MWieland/playctl/internal/media"
	"github.com/MWieland/playctl/internal/sched"
	"github.com/MWieland/playctl/internal/session"
	"github.com/MWieland/playctl/internal/source"
)

// Config wires the player to its environment.
type Config struct {
	// Surface is the native playback surface. Required.
	Surface media.Surface

	// NewSegmentedClient constructs a segmented-streaming client per
	// session. Nil means no client is available in the environment.
	NewSegmentedClient func() media.SegmentedClient

	// Classifier probes candidate sources. Defaults to classify.New().
	Classifier *classify.Classifier

	// Timers schedules the controls auto-hide and deferred audio
	// checks. Defaults to the real timer service.
	Timers sched.Service

	// Fullscreen mirrors the platform fullscreen signal. Optional.
	Fullscreen FullscreenObserver

	// FullscreenControl requests/exits platform fullscreen. Optional.
	FullscreenControl FullscreenControl

	// Callbacks is the host notification contract.
	Callbacks Callbacks

	// ControlsHideDelay overrides config.DefaultControlsHideDelay.
	ControlsHideDelay time.Duration

	// AudioCheckDelay overrides config.DefaultAudioCheckDelay.
	AudioCheckDelay time.Duration

	// NetworkRetryLimit overrides the session default when > 0.
	NetworkRetryLimit int
}

type event struct {
	name string
	fn   func()
}

// Player owns one playback surface. At most one session is alive at a
// time; activating a source fully destroys the previous session first.
type Player struct {
	cfg Config

	queueMu  sync.Mutex
	queue    []event
	draining bool

	stateMu sync.Mutex
	state   State
	req     Request

	// The fields below are touched only from the event stream.
	epoch         int
	closed        bool
	sess          *session.Session
	engineKind    engine.Kind
	probeCancel   context.CancelFunc
	cancelClient  func()
	controlsTimer sched.Timer
	pendingSeek   float64
	audio         *audiocheck.Detector

	cancelSurface    func()
	cancelFullscreen func()

	log zerolog.Logger
}

// New creates a player bound to the configured surface.
func New(cfg Config) (*Player, error) {
	if cfg.Surface == nil {
		return nil, errors.New("player requires a surface")
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classify.New()
	}
	if cfg.Timers == nil {
		cfg.Timers = sched.NewService()
	}
	if cfg.ControlsHideDelay <= 0 {
		cfg.ControlsHideDelay = config.DefaultControlsHideDelay
	}
	if cfg.AudioCheckDelay <= 0 {
		cfg.AudioCheckDelay = config.DefaultAudioCheckDelay
	}

	p := &Player{
		cfg:         cfg,
		pendingSeek: -1,
		state: State{
			Phase:           PhaseIdle,
			Volume:          1,
			ControlsVisible: true,
		},
		log: log.WithComponent("player"),
	}

	p.audio = audiocheck.New(cfg.Surface, cfg.Timers, cfg.AudioCheckDelay, func(tier audiocheck.Tier) {
		p.post("audio.issue", p.onAudioIssue)
	})

	p.cancelSurface = cfg.Surface.Subscribe(func(ev media.Event) {
		p.post("surface."+string(ev.Type), func() { p.onSurfaceEvent(ev) })
	})

	if cfg.Fullscreen != nil {
		p.cancelFullscreen = cfg.Fullscreen.Subscribe(func(active bool) {
			p.post("fullscreen.change", func() { p.onFullscreenChange(active) })
		})
	}

	return p, nil
}

// Open starts the playback pipeline for the given request, beginning
// with the first source.
func (p *Player) Open(req Request) error {
	if err := req.Sources.Validate(); err != nil {
		return err
	}
	p.post("open", func() {
		if p.closed {
			return
		}
		p.stateMu.Lock()
		p.req = req
		p.stateMu.Unlock()
		p.activateSource(0, req.ResumeAt, req.Autoplay)
	})
	return nil
}

// State returns a snapshot of the observable playback state.
func (p *Player) State() State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

// Close disposes the player: it runs the full session teardown
// contract, cancels timers, in-flight probes, and subscriptions.
// Idempotent.
func (p *Player) Close() {
	p.post("close", func() {
		if p.closed {
			return
		}
		p.closed = true
		p.epoch++
		p.cancelProbe()
		p.teardownActive()
		p.audio.Reset()
		p.stopControlsTimer()
		if p.cancelSurface != nil {
			p.cancelSurface()
		}
		if p.cancelFullscreen != nil {
			p.cancelFullscreen()
		}
		p.mutate(func(st *State) {
			st.Phase = PhaseIdle
			st.ControlsVisible = true
		})
		p.log.Debug().Msg("player closed")
	})
}

// post appends an event and, if no drain is running, drains the queue
// until empty. Handlers run outside the queue lock; events posted from
// within a handler are appended and processed in the same drain,
// preserving strict ordering.
func (p *Player) post(name string, fn func()) {
	p.queueMu.Lock()
	p.queue = append(p.queue, event{name: name, fn: fn})
	if p.draining {
		p.queueMu.Unlock()
		return
	}
	p.draining = true
	for {
		if len(p.queue) == 0 {
			p.draining = false
			p.queueMu.Unlock()
			return
		}
		ev := p.queue[0]
		p.queue = p.queue[1:]
		p.queueMu.Unlock()
		ev.fn()
		p.queueMu.Lock()
	}
}

// mutate applies fn to the observable state under the state lock.
func (p *Player) mutate(fn func(st *State)) {
	p.stateMu.Lock()
	fn(&p.state)
	p.stateMu.Unlock()
}

func (p *Player) setPhase(next Phase) {
	p.stateMu.Lock()
	prev := p.state.Phase
	p.state.Phase = next
	p.stateMu.Unlock()
	if prev != next {
		p.log.Debug().
			Str(log.FieldOldState, string(prev)).
			Str(log.FieldNewState, string(next)).
			Msg("phase change")
	}
}

func (p *Player) phase() Phase {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state.Phase
}

func (p *Player) currentRequest() Request {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.req
}

func (p *Player) sourceAt(idx int) (source.Descriptor, bool) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if idx < 0 || idx >= len(p.req.Sources) {
		return source.Descriptor{}, false
	}
	return p.req.Sources[idx], true
}
