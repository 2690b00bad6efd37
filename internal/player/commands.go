// SPDX-License-Identifier: MIT

package player

import (
	"fmt"

	"github.com/MWieland/playctl/internal/metrics"
)

// Play issues a play command to the active surface. A rejected play
// (autoplay policy) is swallowed; the phase follows surface events.
func (p *Player) Play() {
	p.post("cmd.play", func() {
		if p.closed {
			return
		}
		if err := p.cfg.Surface.Play(); err != nil {
			p.log.Debug().Err(err).Msg("play rejected")
		}
	})
}

// Pause issues a pause command to the active surface.
func (p *Player) Pause() {
	p.post("cmd.pause", func() {
		if p.closed {
			return
		}
		p.cfg.Surface.Pause()
	})
}

// Seek moves the playback position. It does not transition the phase.
func (p *Player) Seek(position float64) {
	p.post("cmd.seek", func() {
		if p.closed {
			return
		}
		p.cfg.Surface.Seek(position)
		p.mutate(func(st *State) { st.CurrentTime = position })
	})
}

// SetVolume adjusts the surface volume, clamped to [0, 1]. It does not
// touch the muted flag.
func (p *Player) SetVolume(v float64) {
	p.post("cmd.volume", func() {
		if p.closed {
			return
		}
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		p.cfg.Surface.SetVolume(v)
		p.mutate(func(st *State) { st.Volume = v })
	})
}

// SetMuted toggles the muted flag independent of volume.
func (p *Player) SetMuted(muted bool) {
	p.post("cmd.mute", func() {
		if p.closed {
			return
		}
		p.cfg.Surface.SetMuted(muted)
		p.mutate(func(st *State) { st.Muted = muted })
	})
}

// PointerActivity reports pointer movement over the playback surface.
// Controls re-show and the auto-hide window restarts while playing.
func (p *Player) PointerActivity() {
	p.post("cmd.pointer", func() {
		if p.closed {
			return
		}
		p.mutate(func(st *State) { st.ControlsVisible = true })
		if p.phase() == PhasePlaying {
			p.armControlsTimer()
		}
	})
}

// SelectSource switches to the source at idx, preserving the current
// playback position across the switch.
func (p *Player) SelectSource(idx int) error {
	req := p.currentRequest()
	if idx < 0 || idx >= len(req.Sources) {
		return fmt.Errorf("source index %d out of range (%d sources)", idx, len(req.Sources))
	}
	p.post("cmd.select_source", func() {
		if p.closed {
			return
		}
		position := p.cfg.Surface.CurrentTime()
		metrics.IncSourceSwitch()
		p.activateSource(idx, position, true)
	})
	return nil
}

// TryNextSource advances to the next source, restarting the pipeline
// from classification. It reports whether a next source exists. Unlike
// SelectSource it does not preserve the position: it is the recovery
// action for download-only and failed sources.
func (p *Player) TryNextSource() bool {
	req := p.currentRequest()
	next := p.State().SourceIndex + 1
	if next >= len(req.Sources) {
		return false
	}
	p.post("cmd.next_source", func() {
		if p.closed {
			return
		}
		metrics.IncSourceSwitch()
		p.activateSource(next, 0, true)
	})
	return true
}

// DownloadURL returns the direct-download URI while the active source
// is download-only.
func (p *Player) DownloadURL() (string, bool) {
	st := p.State()
	if st.Phase != PhaseDownloadOnly {
		return "", false
	}
	src, ok := p.sourceAt(st.SourceIndex)
	if !ok {
		return "", false
	}
	return src.URI, true
}

// CopyLink returns the shareable link for the active source while it
// is download-only.
func (p *Player) CopyLink() (string, bool) {
	return p.DownloadURL()
}

// RequestFullscreen asks the platform for fullscreen. The observable
// flag follows the fullscreen observer, not this call.
func (p *Player) RequestFullscreen() {
	p.post("cmd.fullscreen", func() {
		if p.closed || p.cfg.FullscreenControl == nil {
			return
		}
		if err := p.cfg.FullscreenControl.Request(); err != nil {
			p.log.Debug().Err(err).Msg("fullscreen request rejected")
		}
	})
}

// ExitFullscreen asks the platform to leave fullscreen.
func (p *Player) ExitFullscreen() {
	p.post("cmd.fullscreen_exit", func() {
		if p.closed || p.cfg.FullscreenControl == nil {
			return
		}
		if err := p.cfg.FullscreenControl.Exit(); err != nil {
			p.log.Debug().Err(err).Msg("fullscreen exit rejected")
		}
	})
}
