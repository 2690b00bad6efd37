// SPDX-License-Identifier: MIT

package player

import (
	"context"

	"github.com/MWieland/playctl/internal/classify"
	"github.com/MWieland/playctl/internal/engine"
	"github.com/MWieland/playctl/internal/log"
	"github.com/MWieland/playctl/internal/media"
	"github.com/MWieland/playctl/internal/metrics"
	"github.com/MWieland/playctl/internal/session"
	"github.com/MWieland/playctl/internal/source"
)

// activateSource restarts the pipeline from classification for the
// source at idx. Any previous session is fully destroyed first; async
// results belonging to the previous activation are invalidated by the
// epoch bump.
func (p *Player) activateSource(idx int, startAt float64, autoplay bool) {
	src, ok := p.sourceAt(idx)
	if !ok {
		return
	}

	p.epoch++
	p.cancelProbe()
	p.teardownActive()
	p.audio.Reset()
	p.stopControlsTimer()

	p.pendingSeek = -1
	if startAt > 0 {
		p.pendingSeek = startAt
	}

	p.mutate(func(st *State) {
		st.Phase = PhaseProbing
		st.SourceIndex = idx
		st.CurrentTime = 0
		st.Duration = 0
		st.AudioIssue = false
		st.ErrorMessage = ""
		st.DownloadReason = ""
		st.ControlsVisible = true
	})

	p.log.Debug().
		Int(log.FieldSourceIdx, idx).
		Str(log.FieldSourceURI, src.URI).
		Msg("activating source")

	if p.currentRequest().SkipClassification {
		p.startEngine(src, autoplay)
		return
	}

	epoch := p.epoch
	ctx, cancel := context.WithCancel(context.Background())
	p.probeCancel = cancel
	go func() {
		res := p.cfg.Classifier.Classify(ctx, src.URI, src.Headers)
		p.post("probe.result", func() { p.onProbeResult(epoch, src, autoplay, res) })
	}()
}

// onProbeResult consumes a classification result. Results from a
// superseded activation are discarded rather than applied to stale
// state.
func (p *Player) onProbeResult(epoch int, src source.Descriptor, autoplay bool, res classify.Result) {
	if p.closed || epoch != p.epoch {
		p.log.Debug().Str(log.FieldSourceURI, src.URI).Msg("discarding stale probe result")
		return
	}
	p.cancelProbe()

	if !res.Streamable {
		p.mutate(func(st *State) {
			st.Phase = PhaseDownloadOnly
			st.DownloadReason = res.Reason
		})
		p.log.Info().
			Str(log.FieldSourceURI, src.URI).
			Str(log.FieldContentType, res.ContentType).
			Msg("source is a forced download")
		return
	}
	p.startEngine(src, autoplay)
}

// startEngine selects and initialises the playback engine for a
// classified-streamable source.
func (p *Player) startEngine(src source.Descriptor, autoplay bool) {
	manifest := engine.DetectManifest(src.URI, src.MediaType)
	out := engine.Select(engine.Input{
		URI:             src.URI,
		MediaType:       src.MediaType,
		NativeSupport:   manifest != engine.ManifestNone && p.cfg.Surface.CanPlayType(engine.MIMEFor(manifest)),
		ClientAvailable: p.cfg.NewSegmentedClient != nil,
	})
	metrics.IncEngineSelected(string(out.Kind), string(out.Reason))

	p.engineKind = out.Kind
	p.setPhase(PhaseLoading)

	start := 0.0
	if p.pendingSeek > 0 {
		start = p.pendingSeek
	}

	if out.Kind == engine.KindSegmented {
		p.startSegmented(src, autoplay, start)
		return
	}

	p.cfg.Surface.Load(src.URI, src.Headers)
	if autoplay {
		if err := p.cfg.Surface.Play(); err != nil {
			// Policy-blocked autoplay is a no-op, not an error.
			p.log.Debug().Err(err).Msg("autoplay rejected")
		}
	}
}

func (p *Player) startSegmented(src source.Descriptor, autoplay bool, start float64) {
	client := p.cfg.NewSegmentedClient()
	epoch := p.epoch
	p.cancelClient = client.Subscribe(func(ev media.ClientEvent) {
		p.post("client."+string(ev.Type), func() { p.onClientEvent(epoch, ev) })
	})

	sess, err := session.New(session.Config{
		Source:            src,
		Surface:           p.cfg.Surface,
		Client:            client,
		Autoplay:          autoplay,
		StartPosition:     start,
		NetworkRetryLimit: p.cfg.NetworkRetryLimit,
		OnFatal: func(msg string) {
			p.post("session.fatal", func() { p.onSessionFatal(epoch, msg) })
		},
	})
	if err != nil {
		p.log.Error().Err(err).Msg("segmented session setup failed")
		p.fail("failed to load stream")
		return
	}
	p.sess = sess
}

// onClientEvent forwards segmented-client events to the live session.
func (p *Player) onClientEvent(epoch int, ev media.ClientEvent) {
	if p.closed || epoch != p.epoch || p.sess == nil {
		return
	}
	p.sess.HandleEvent(ev)
}

// onSessionFatal consumes a terminal session failure. The session has
// already destroyed itself.
func (p *Player) onSessionFatal(epoch int, msg string) {
	if p.closed || epoch != p.epoch {
		return
	}
	p.releaseSession()
	p.fail(msg)
}

// fail surfaces a fatal condition as state plus the error callback.
func (p *Player) fail(msg string) {
	p.stopControlsTimer()
	p.mutate(func(st *State) {
		st.Phase = PhaseError
		st.ErrorMessage = msg
		st.ControlsVisible = true
	})
	if p.cfg.Callbacks.OnError != nil {
		p.cfg.Callbacks.OnError(msg)
	}
}

// teardownActive destroys whatever engine currently owns the surface.
// Safe to call when nothing is active.
func (p *Player) teardownActive() {
	if p.sess != nil {
		p.sess.Destroy()
		p.releaseSession()
		p.engineKind = ""
		return
	}
	if p.engineKind == engine.KindDirect {
		p.cfg.Surface.ClearSource()
		p.engineKind = ""
	}
}

func (p *Player) releaseSession() {
	if p.cancelClient != nil {
		p.cancelClient()
		p.cancelClient = nil
	}
	p.sess = nil
}

func (p *Player) cancelProbe() {
	if p.probeCancel != nil {
		p.probeCancel()
		p.probeCancel = nil
	}
}
