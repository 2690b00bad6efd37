// SPDX-License-Identifier: MIT

// Package fake provides scriptable test doubles for the media
// capability interfaces.
package fake

import (
	"sync"

	"github.com/MWieland/playctl/internal/media"
)

// Surface is a scriptable media.Surface. Fields are read and written
// directly by tests; call recording is mutex-guarded so fakes can be
// driven from timer callbacks.
type Surface struct {
	mu      sync.Mutex
	subs    map[int]func(media.Event)
	nextSub int

	LoadedURI     string
	LoadedHeaders map[string]string
	LoadCalls     int

	PlayCalls  int
	PlayErr    error
	PauseCalls int

	SeekCalls []float64
	Volume    float64
	Muted     bool

	Position float64
	Dur      float64

	CanPlay map[string]bool

	AudioTracks   int
	AudioTracksOK bool

	DecodedBytes   uint64
	DecodedBytesOK bool

	ClearSourceCalls int
}

// NewSurface returns an empty fake surface with no optional
// capabilities.
func NewSurface() *Surface {
	return &Surface{subs: map[int]func(media.Event){}}
}

func (s *Surface) Load(uri string, headers map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoadedURI = uri
	s.LoadedHeaders = headers
	s.LoadCalls++
}

func (s *Surface) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PlayCalls++
	return s.PlayErr
}

func (s *Surface) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PauseCalls++
}

func (s *Surface) Seek(position float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SeekCalls = append(s.SeekCalls, position)
	s.Position = position
}

func (s *Surface) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Volume = v
}

func (s *Surface) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Muted = muted
}

func (s *Surface) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Position
}

func (s *Surface) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Dur
}

func (s *Surface) CanPlayType(mimeType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CanPlay[mimeType]
}

func (s *Surface) AudioTrackCount() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.AudioTracks, s.AudioTracksOK
}

func (s *Surface) DecodedAudioBytes() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DecodedBytes, s.DecodedBytesOK
}

func (s *Surface) ClearSource() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClearSourceCalls++
	s.LoadedURI = ""
}

func (s *Surface) Subscribe(fn func(media.Event)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Emit delivers an event to all subscribers.
func (s *Surface) Emit(ev media.Event) {
	s.mu.Lock()
	fns := make([]func(media.Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
