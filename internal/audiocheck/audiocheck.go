// SPDX-License-Identifier: MIT

// Package audiocheck detects audio tracks the playback surface cannot
// decode. Detection is heuristic and best-effort, in two tiers, and
// never blocks or delays playback.
package audiocheck

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MWieland/playctl/internal/log"
	"github.com/MWieland/playctl/internal/media"
	"github.com/MWieland/playctl/internal/metrics"
	"github.com/MWieland/playctl/internal/sched"
)

// DefaultCheckDelay is the wait between metadata load and the deferred
// tier-B probe.
const DefaultCheckDelay = 3 * time.Second

// minPlaybackPosition guards the tier-B byte-counter read: only a
// position past this point with zero decoded bytes is suspicious.
const minPlaybackPosition = 1.0

// Tier identifies which heuristic flagged the issue.
type Tier string

const (
	// TierTrackInventory flags via the surface's audio-track inventory.
	TierTrackInventory Tier = "track_inventory"

	// TierDecodedBytes flags via the deferred decoded-audio-byte
	// counter check.
	TierDecodedBytes Tier = "decoded_bytes"
)

// Detector evaluates one source at a time. A flagged issue is a
// one-way signal for the lifetime of the active source; Reset clears
// it when the source changes.
type Detector struct {
	mu sync.Mutex

	surface media.Surface
	timers  sched.Service
	delay   time.Duration
	onIssue func(Tier)

	flagged bool
	pending sched.Timer

	log zerolog.Logger
}

// New creates a detector for the given surface. onIssue fires at most
// once per source activation.
func New(surface media.Surface, timers sched.Service, delay time.Duration, onIssue func(Tier)) *Detector {
	if delay <= 0 {
		delay = DefaultCheckDelay
	}
	return &Detector{
		surface: surface,
		timers:  timers,
		delay:   delay,
		onIssue: onIssue,
		log:     log.WithComponent("audiocheck"),
	}
}

// OnMetadataLoaded evaluates tier A immediately when the surface
// exposes an audio-track inventory, and otherwise schedules the
// deferred tier-B check.
func (d *Detector) OnMetadataLoaded() {
	d.mu.Lock()
	if d.flagged {
		d.mu.Unlock()
		return
	}
	d.stopPendingLocked()

	if n, ok := d.surface.AudioTrackCount(); ok {
		duration := d.surface.Duration()
		if duration > 0 && n == 0 {
			d.flagLocked(TierTrackInventory)
			return
		}
		d.mu.Unlock()
		return
	}

	d.pending = d.timers.AfterFunc(d.delay, d.deferredCheck)
	d.mu.Unlock()
}

// deferredCheck is the tier-B probe: zero decoded audio bytes while
// the position has advanced past the guard means the track is present
// but undecodable.
func (d *Detector) deferredCheck() {
	d.mu.Lock()
	if d.flagged {
		d.mu.Unlock()
		return
	}
	n, ok := d.surface.DecodedAudioBytes()
	if ok && n == 0 && d.surface.CurrentTime() > minPlaybackPosition {
		d.flagLocked(TierDecodedBytes)
		return
	}
	d.mu.Unlock()
}

// Reset clears the flag and cancels any pending deferred check. Called
// on every source change.
func (d *Detector) Reset() {
	d.mu.Lock()
	d.stopPendingLocked()
	d.flagged = false
	d.mu.Unlock()
}

// Flagged reports whether the active source has a flagged audio issue.
func (d *Detector) Flagged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flagged
}

// flagLocked is entered holding d.mu and releases it.
func (d *Detector) flagLocked(tier Tier) {
	d.flagged = true
	onIssue := d.onIssue
	d.mu.Unlock()

	metrics.IncAudioIssue(string(tier))
	d.log.Info().Str("tier", string(tier)).Msg("audio incompatibility flagged")
	if onIssue != nil {
		onIssue(tier)
	}
}

func (d *Detector) stopPendingLocked() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
