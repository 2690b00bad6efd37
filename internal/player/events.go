// SPDX-License-Identifier: MIT

package player

import (
	"github.com/MWieland/playctl/internal/media"
)

// onSurfaceEvent applies one native-surface event to the state machine.
func (p *Player) onSurfaceEvent(ev media.Event) {
	if p.closed {
		return
	}

	switch ev.Type {
	case media.EventMetadataLoaded:
		p.onMetadataLoaded(ev)

	case media.EventTimeUpdate:
		p.mutate(func(st *State) {
			st.CurrentTime = ev.CurrentTime
			if ev.Duration > 0 {
				st.Duration = ev.Duration
			}
		})
		if p.cfg.Callbacks.OnProgress != nil {
			p.cfg.Callbacks.OnProgress(ev.CurrentTime, ev.Duration)
		}

	case media.EventPlaying:
		p.setPhase(PhasePlaying)
		p.mutate(func(st *State) { st.ControlsVisible = true })
		p.armControlsTimer()

	case media.EventPaused:
		if p.phase() == PhasePlaying {
			p.setPhase(PhasePaused)
		}
		p.stopControlsTimer()
		p.mutate(func(st *State) { st.ControlsVisible = true })

	case media.EventEnded:
		p.setPhase(PhaseEnded)
		p.stopControlsTimer()
		p.mutate(func(st *State) { st.ControlsVisible = true })
		if p.cfg.Callbacks.OnEnded != nil {
			p.cfg.Callbacks.OnEnded()
		}

	case media.EventWaiting:
		// Mid-play buffering is not an observable phase; the surface
		// resumes with EventPlaying.
		p.log.Debug().Msg("surface waiting for data")

	case media.EventError:
		p.onSurfaceError(ev)
	}
}

func (p *Player) onMetadataLoaded(ev media.Event) {
	duration := ev.Duration
	if duration == 0 {
		duration = p.cfg.Surface.Duration()
	}
	p.mutate(func(st *State) { st.Duration = duration })

	// Position restore: resume-position on first load, captured
	// position on source switch.
	if p.pendingSeek > 0 {
		seekTo := p.pendingSeek
		p.pendingSeek = -1
		p.cfg.Surface.Seek(seekTo)
		p.mutate(func(st *State) { st.CurrentTime = seekTo })
	}

	p.audio.OnMetadataLoaded()
}

// onSurfaceError honors native-surface errors only when no segmented
// session is alive for the source; while one is, the segmented layer
// is authoritative.
func (p *Player) onSurfaceError(ev media.Event) {
	if p.sess != nil && p.sess.Alive() {
		p.log.Debug().Err(ev.Err).Msg("ignoring surface error, segmented session is authoritative")
		return
	}
	switch p.phase() {
	case PhaseProbing, PhaseLoading, PhasePlaying, PhasePaused:
	default:
		return
	}

	msg := "failed to load stream"
	if ev.Err != nil {
		msg = ev.Err.Error()
	}
	p.teardownActive()
	p.fail(msg)
}

// onAudioIssue mirrors the detector's one-way flag into observable
// state. Fire-once is enforced by the detector.
func (p *Player) onAudioIssue() {
	if p.closed {
		return
	}
	p.mutate(func(st *State) { st.AudioIssue = true })
	if p.cfg.Callbacks.OnAudioIssue != nil {
		p.cfg.Callbacks.OnAudioIssue()
	}
}

func (p *Player) onFullscreenChange(active bool) {
	if p.closed {
		return
	}
	p.mutate(func(st *State) { st.Fullscreen = active })
}

// armControlsTimer (re)starts the auto-hide countdown. Controls hide
// only while playing.
func (p *Player) armControlsTimer() {
	p.stopControlsTimer()
	p.controlsTimer = p.cfg.Timers.AfterFunc(p.cfg.ControlsHideDelay, func() {
		p.post("controls.hide", func() {
			if p.closed || p.phase() != PhasePlaying {
				return
			}
			p.mutate(func(st *State) { st.ControlsVisible = false })
		})
	})
}

func (p *Player) stopControlsTimer() {
	if p.controlsTimer != nil {
		p.controlsTimer.Stop()
		p.controlsTimer = nil
	}
}
