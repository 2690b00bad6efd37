// SPDX-License-Identifier: MIT

package player

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/MWieland/playctl/internal/media"
	"github.com/MWieland/playctl/internal/media/fake"
	"github.com/MWieland/playctl/internal/sched"
	"github.com/MWieland/playctl/internal/source"
)

// clientFactory hands out fake segmented clients and remembers them.
type clientFactory struct {
	mu      sync.Mutex
	clients []*fake.Client
}

func (f *clientFactory) new() media.SegmentedClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := fake.NewClient()
	f.clients = append(f.clients, c)
	return c
}

func (f *clientFactory) created() []*fake.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fake.Client(nil), f.clients...)
}

type testRig struct {
	player  *Player
	surface *fake.Surface
	clients *clientFactory
	timers  *sched.Manual
	errors  []string
	ended   int
	audio   int
}

func newTestRig(t *testing.T, mutate func(*Config)) *testRig {
	t.Helper()
	rig := &testRig{
		surface: fake.NewSurface(),
		clients: &clientFactory{},
		timers:  sched.NewManual(time.Unix(0, 0)),
	}
	cfg := Config{
		Surface:            rig.surface,
		NewSegmentedClient: rig.clients.new,
		Timers:             rig.timers,
		Callbacks: Callbacks{
			OnError:      func(msg string) { rig.errors = append(rig.errors, msg) },
			OnEnded:      func() { rig.ended++ },
			OnAudioIssue: func() { rig.audio++ },
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := New(cfg)
	require.NoError(t, err)
	rig.player = p
	t.Cleanup(p.Close)
	return rig
}

func hlsSources(n int) source.List {
	l := make(source.List, 0, n)
	for i := 0; i < n; i++ {
		l = append(l, source.Descriptor{URI: "https://cdn.example.com/v" + string(rune('a'+i)) + "/master.m3u8"})
	}
	return l
}

func openSkippingClassification(t *testing.T, rig *testRig, req Request) {
	t.Helper()
	req.SkipClassification = true
	require.NoError(t, rig.player.Open(req))
}

func fatalNetworkError() media.ClientEvent {
	return media.ClientEvent{Type: media.ClientError, Class: media.ErrorClassNetwork, Fatal: true, Message: "fragment load failed"}
}

func TestOpen_SegmentedPipeline(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: hlsSources(1), Autoplay: true})

	require.Len(t, rig.clients.created(), 1)
	client := rig.clients.created()[0]
	assert.Equal(t, PhaseLoading, rig.player.State().Phase)
	assert.Equal(t, rig.surface, client.AttachedTo)

	client.Emit(media.ClientEvent{Type: media.ClientManifestParsed})
	assert.Equal(t, 1, rig.surface.PlayCalls, "autoplay follows manifest parse")

	rig.surface.Emit(media.Event{Type: media.EventPlaying})
	assert.Equal(t, PhasePlaying, rig.player.State().Phase)
}

func TestOpen_RejectsEmptySourceList(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	assert.Error(t, rig.player.Open(Request{}))
}

func TestDownloadOnly_ShortCircuit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
	}))
	defer srv.Close()

	rig := newTestRig(t, nil)
	req := Request{Sources: source.List{
		{URI: srv.URL + "/movie.bin"},
		{URI: "https://cdn.example.com/fallback/master.m3u8"},
	}}
	require.NoError(t, rig.player.Open(req))

	require.Eventually(t, func() bool {
		return rig.player.State().Phase == PhaseDownloadOnly
	}, time.Second, 5*time.Millisecond)

	// No playback engine was initialised.
	assert.Empty(t, rig.clients.created())
	assert.Equal(t, 0, rig.surface.LoadCalls)
	assert.NotEmpty(t, rig.player.State().DownloadReason)

	uri, ok := rig.player.DownloadURL()
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/movie.bin", uri)
	link, ok := rig.player.CopyLink()
	require.True(t, ok)
	assert.Equal(t, uri, link)

	// A second source exists, so the recovery action advances the
	// pipeline.
	require.True(t, rig.player.TryNextSource())
	require.Eventually(t, func() bool {
		st := rig.player.State()
		return st.SourceIndex == 1 && st.Phase != PhaseDownloadOnly
	}, time.Second, 5*time.Millisecond)
}

func TestClassification_OptimisticOnProbeFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // probe hits a dead server

	rig := newTestRig(t, nil)
	require.NoError(t, rig.player.Open(Request{Sources: source.List{{URI: srv.URL + "/master.m3u8"}}}))

	// The pipeline proceeds to engine selection instead of halting.
	require.Eventually(t, func() bool {
		return rig.player.State().Phase == PhaseLoading
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, rig.clients.created(), 1)
}

func TestClassification_StaleProbeResultDiscarded(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow/movie.bin" {
			<-release
			w.Header().Set("Content-Type", "application/octet-stream")
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
	}))
	defer srv.Close()

	rig := newTestRig(t, nil)
	req := Request{Sources: source.List{
		{URI: srv.URL + "/slow/movie.bin"},
		{URI: srv.URL + "/fast/movie.mp4"},
	}}
	require.NoError(t, rig.player.Open(req))
	require.NoError(t, rig.player.SelectSource(1))

	require.Eventually(t, func() bool {
		st := rig.player.State()
		return st.SourceIndex == 1 && st.Phase == PhaseLoading
	}, time.Second, 5*time.Millisecond)

	close(release)

	// The late download-only verdict for the abandoned source must not
	// flip the state.
	assert.Never(t, func() bool {
		return rig.player.State().Phase == PhaseDownloadOnly
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestSelectSource_PositionPreserved(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: hlsSources(2), Autoplay: true})

	first := rig.clients.created()[0]
	first.Emit(media.ClientEvent{Type: media.ClientManifestParsed})
	rig.surface.Emit(media.Event{Type: media.EventPlaying})
	rig.surface.Position = 42.0
	rig.surface.Emit(media.Event{Type: media.EventPaused})
	require.Equal(t, PhasePaused, rig.player.State().Phase)

	require.NoError(t, rig.player.SelectSource(1))

	// Old session fully destroyed before the new one exists.
	assert.True(t, first.Destroyed)
	assert.Equal(t, 1, rig.surface.ClearSourceCalls)

	clients := rig.clients.created()
	require.Len(t, clients, 2)
	second := clients[1]
	require.Len(t, second.StartLoadCalls, 1)
	assert.Equal(t, 42.0, second.StartLoadCalls[0], "fragment loading restarts at the captured position")

	// Metadata availability completes the restore: seek + resume.
	rig.surface.Position = 0
	rig.surface.Emit(media.Event{Type: media.EventMetadataLoaded, Duration: 5400})
	assert.Contains(t, rig.surface.SeekCalls, 42.0)

	second.Emit(media.ClientEvent{Type: media.ClientManifestParsed})
	assert.GreaterOrEqual(t, rig.surface.PlayCalls, 1, "playback resumes after the switch")
}

func TestSelectSource_AtMostOneActiveSession(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: hlsSources(4)})

	require.NoError(t, rig.player.SelectSource(1))
	require.NoError(t, rig.player.SelectSource(2))
	require.NoError(t, rig.player.SelectSource(3))

	clients := rig.clients.created()
	require.Len(t, clients, 4)
	for i, c := range clients[:3] {
		assert.True(t, c.Destroyed, "client %d must be destroyed", i)
		assert.Equal(t, 1, c.StopLoadCalls, "client %d must stop loading exactly once", i)
	}
	assert.False(t, clients[3].Destroyed, "only the most recent session is alive")
}

func TestSelectSource_OutOfRange(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: hlsSources(1)})

	assert.Error(t, rig.player.SelectSource(5))
	assert.Error(t, rig.player.SelectSource(-1))
}

func TestSessionRetryCap_SurfacesTerminalError(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: hlsSources(1)})

	client := rig.clients.created()[0]
	for i := 0; i < 4; i++ {
		client.Emit(fatalNetworkError())
	}

	st := rig.player.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Contains(t, st.ErrorMessage, "network")
	require.Len(t, rig.errors, 1)
	assert.Len(t, client.StartLoadCalls, 4, "1 initial load + 3 retries")
	assert.True(t, client.Destroyed)
}

func TestSurfaceError_IgnoredWhileSegmentedSessionAlive(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: hlsSources(1)})

	rig.surface.Emit(media.Event{Type: media.EventError, Err: assert.AnError})

	assert.Equal(t, PhaseLoading, rig.player.State().Phase)
	assert.Empty(t, rig.errors)
}

func TestSurfaceError_FatalForDirectEngine(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: source.List{{URI: "https://cdn.example.com/movie.mp4"}}})

	require.Equal(t, 1, rig.surface.LoadCalls)
	rig.surface.Emit(media.Event{Type: media.EventError, Err: assert.AnError})

	st := rig.player.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, assert.AnError.Error(), st.ErrorMessage)
	require.Len(t, rig.errors, 1)
	assert.Equal(t, 1, rig.surface.ClearSourceCalls)
}

func TestControls_AutoHideWhilePlaying(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: source.List{{URI: "https://cdn.example.com/movie.mp4"}}, Autoplay: true})

	rig.surface.Emit(media.Event{Type: media.EventPlaying})
	assert.True(t, rig.player.State().ControlsVisible)

	rig.timers.Advance(3 * time.Second)
	assert.False(t, rig.player.State().ControlsVisible, "controls hide after the idle window")

	rig.player.PointerActivity()
	assert.True(t, rig.player.State().ControlsVisible, "pointer activity re-shows controls")

	// Activity before the window expires re-arms the timer.
	rig.timers.Advance(2 * time.Second)
	rig.player.PointerActivity()
	rig.timers.Advance(2 * time.Second)
	assert.True(t, rig.player.State().ControlsVisible)

	rig.timers.Advance(time.Second)
	assert.False(t, rig.player.State().ControlsVisible)
}

func TestControls_AlwaysVisibleWhenNotPlaying(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: source.List{{URI: "https://cdn.example.com/movie.mp4"}}})

	rig.surface.Emit(media.Event{Type: media.EventPlaying})
	rig.surface.Emit(media.Event{Type: media.EventPaused})

	rig.timers.Advance(10 * time.Second)
	assert.True(t, rig.player.State().ControlsVisible)
	assert.Equal(t, PhasePaused, rig.player.State().Phase)
}

func TestResumePosition_SeeksOnMetadata(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{
		Sources:  source.List{{URI: "https://cdn.example.com/movie.mp4"}},
		ResumeAt: 100,
	})

	rig.surface.Emit(media.Event{Type: media.EventMetadataLoaded, Duration: 7200})

	assert.Contains(t, rig.surface.SeekCalls, 100.0)
	want := State{
		Phase:           PhaseLoading,
		SourceIndex:     0,
		CurrentTime:     100,
		Duration:        7200,
		Volume:          1,
		ControlsVisible: true,
	}
	if diff := cmp.Diff(want, rig.player.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestAudioIssue_TierAFlagsOnce(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	rig.surface.AudioTracksOK = true
	rig.surface.AudioTracks = 0
	rig.surface.Dur = 120

	openSkippingClassification(t, rig, Request{Sources: source.List{{URI: "https://cdn.example.com/movie.mp4"}}})

	rig.surface.Emit(media.Event{Type: media.EventMetadataLoaded, Duration: 120})
	rig.surface.Emit(media.Event{Type: media.EventMetadataLoaded, Duration: 120})

	assert.True(t, rig.player.State().AudioIssue)
	assert.Equal(t, 1, rig.audio, "audio issue fires exactly once per source")
}

func TestAudioIssue_ClearedOnSourceSwitch(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	rig.surface.AudioTracksOK = true
	rig.surface.AudioTracks = 0
	rig.surface.Dur = 120

	openSkippingClassification(t, rig, Request{Sources: source.List{
		{URI: "https://cdn.example.com/movie.mp4"},
		{URI: "https://cdn.example.com/movie-v2.mp4"},
	}})
	rig.surface.Emit(media.Event{Type: media.EventMetadataLoaded, Duration: 120})
	require.True(t, rig.player.State().AudioIssue)

	require.NoError(t, rig.player.SelectSource(1))
	assert.False(t, rig.player.State().AudioIssue)
}

func TestProgressAndEndedCallbacks(t *testing.T) {
	t.Parallel()

	var progress [][2]float64
	rig := newTestRig(t, func(cfg *Config) {
		cfg.Callbacks.OnProgress = func(cur, dur float64) { progress = append(progress, [2]float64{cur, dur}) }
	})
	openSkippingClassification(t, rig, Request{Sources: source.List{{URI: "https://cdn.example.com/movie.mp4"}}})

	rig.surface.Emit(media.Event{Type: media.EventPlaying})
	rig.surface.Emit(media.Event{Type: media.EventTimeUpdate, CurrentTime: 10, Duration: 100})
	rig.surface.Emit(media.Event{Type: media.EventTimeUpdate, CurrentTime: 20, Duration: 100})
	rig.surface.Emit(media.Event{Type: media.EventEnded})

	require.Len(t, progress, 2)
	assert.Equal(t, [2]float64{20, 100}, progress[1])
	assert.Equal(t, 1, rig.ended)
	assert.Equal(t, PhaseEnded, rig.player.State().Phase)
}

func TestVolumeAndMuteIndependent(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: source.List{{URI: "https://cdn.example.com/movie.mp4"}}})

	rig.player.SetVolume(0.5)
	rig.player.SetMuted(true)

	st := rig.player.State()
	assert.Equal(t, 0.5, st.Volume)
	assert.True(t, st.Muted)
	assert.Equal(t, 0.5, rig.surface.Volume)
	assert.True(t, rig.surface.Muted)

	rig.player.SetVolume(2.0)
	assert.Equal(t, 1.0, rig.player.State().Volume, "volume clamps to [0, 1]")
	assert.True(t, rig.player.State().Muted, "volume change leaves muted untouched")
}

func TestFullscreen_MirroredFromObserver(t *testing.T) {
	t.Parallel()

	obs := &fakeFullscreen{}
	rig := newTestRig(t, func(cfg *Config) {
		cfg.Fullscreen = obs
		cfg.FullscreenControl = obs
	})
	openSkippingClassification(t, rig, Request{Sources: source.List{{URI: "https://cdn.example.com/movie.mp4"}}})

	rig.player.RequestFullscreen()
	assert.Equal(t, 1, obs.requests)
	assert.False(t, rig.player.State().Fullscreen, "flag follows the observer, not the request")

	obs.emit(true)
	assert.True(t, rig.player.State().Fullscreen)

	obs.emit(false)
	assert.False(t, rig.player.State().Fullscreen)
}

func TestClose_TeardownIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rig := newTestRig(t, nil)
	openSkippingClassification(t, rig, Request{Sources: hlsSources(1)})
	client := rig.clients.created()[0]

	rig.player.Close()
	rig.player.Close()

	assert.Equal(t, 1, client.StopLoadCalls)
	assert.Equal(t, 1, client.DetachCalls)
	assert.Equal(t, 1, client.DestroyCalls)
	assert.Equal(t, 1, rig.surface.ClearSourceCalls)
	assert.Equal(t, PhaseIdle, rig.player.State().Phase)

	// Events after disposal are dead letters.
	client.Emit(fatalNetworkError())
	rig.surface.Emit(media.Event{Type: media.EventPlaying})
	assert.Equal(t, PhaseIdle, rig.player.State().Phase)
	assert.Empty(t, rig.errors)
}

type fakeFullscreen struct {
	mu       sync.Mutex
	subs     []func(bool)
	requests int
	exits    int
}

func (f *fakeFullscreen) Subscribe(fn func(bool)) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *fakeFullscreen) Request() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return nil
}

func (f *fakeFullscreen) Exit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exits++
	return nil
}

func (f *fakeFullscreen) emit(active bool) {
	f.mu.Lock()
	subs := append(([]func(bool))(nil), f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(active)
	}
}
