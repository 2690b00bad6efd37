// SPDX-License-Identifier: MIT

package player

import (
	"github.com/MWieland/playctl/internal/source"
)

// State is the observable playback state. It is mutated only in
// reaction to surface events, timers, and user commands, all of which
// run on the player's single internal event stream.
type State struct {
	Phase           Phase
	SourceIndex     int
	CurrentTime     float64
	Duration        float64
	Volume          float64
	Muted           bool
	Fullscreen      bool
	ControlsVisible bool
	AudioIssue      bool

	// ErrorMessage carries the human-readable message while Phase is
	// PhaseError.
	ErrorMessage string

	// DownloadReason carries the classification reason while Phase is
	// PhaseDownloadOnly.
	DownloadReason string
}

// Request describes one piece of content to play.
type Request struct {
	// Sources is the ordered, non-empty list of candidate streams.
	// Ordering is preference order; the first entry is the default.
	Sources source.List

	// Poster is an optional poster image reference.
	Poster string

	// ResumeAt is an optional resume position in seconds.
	ResumeAt float64

	// Autoplay starts playback as soon as the source is ready.
	Autoplay bool

	// SkipClassification bypasses the probe for sources already known
	// to be streamable.
	SkipClassification bool
}

// Callbacks is the host-facing notification contract. Callbacks run on
// the player's event stream and must not block.
type Callbacks struct {
	// OnProgress delivers periodic (currentTime, duration) updates.
	OnProgress func(currentTime, duration float64)

	// OnEnded fires when playback completes.
	OnEnded func()

	// OnError delivers a human-readable message for every fatal
	// condition. The player never panics across its public boundary.
	OnError func(message string)

	// OnAudioIssue fires at most once per source activation when an
	// undecodable audio track is detected.
	OnAudioIssue func()
}

// FullscreenObserver delivers platform fullscreen-change signals.
type FullscreenObserver interface {
	Subscribe(fn func(active bool)) (cancel func())
}

// FullscreenControl requests and exits platform fullscreen. The
// observable Fullscreen flag is mirrored from the observer, never set
// directly.
type FullscreenControl interface {
	Request() error
	Exit() error
}
