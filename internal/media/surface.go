// SPDX-License-Identifier: MIT

// Package media defines the capability interfaces the playback
// controller drives: the native playback surface and the segmented
// (adaptive) streaming client. The controller depends only on these
// interfaces, never on concrete platform objects.
package media

// EventType identifies a playback-surface event.
type EventType string

const (
	// EventMetadataLoaded fires once the surface knows duration and
	// track layout for the loaded source.
	EventMetadataLoaded EventType = "metadata_loaded"

	// EventTimeUpdate fires periodically while the position advances.
	EventTimeUpdate EventType = "time_update"

	// EventPlaying fires when playback starts or resumes.
	EventPlaying EventType = "playing"

	// EventPaused fires when playback is paused.
	EventPaused EventType = "paused"

	// EventWaiting fires when playback stalls waiting for data.
	EventWaiting EventType = "waiting"

	// EventEnded fires when the end of the media is reached.
	EventEnded EventType = "ended"

	// EventError fires when the surface fails to decode or fetch the
	// assigned source.
	EventError EventType = "error"
)

// Event is a single playback-surface notification.
type Event struct {
	Type        EventType
	CurrentTime float64
	Duration    float64
	Err         error // set for EventError only
}

// Surface is the platform's native media-rendering handle.
//
// AudioTrackCount and DecodedAudioBytes are optional capabilities: ok
// reports whether the surface exposes them at all, so callers can
// branch explicitly instead of probing ad hoc.
type Surface interface {
	// Load assigns a source to the surface. Headers are best-effort;
	// surfaces that cannot attach custom headers ignore them.
	Load(uri string, headers map[string]string)

	// Play starts playback. A policy-blocked autoplay returns an error.
	Play() error
	Pause()
	Seek(position float64)
	SetVolume(v float64)
	SetMuted(muted bool)

	CurrentTime() float64
	Duration() float64

	// CanPlayType reports whether the surface can natively decode the
	// given MIME type.
	CanPlayType(mimeType string) bool

	AudioTrackCount() (n int, ok bool)
	DecodedAudioBytes() (n uint64, ok bool)

	// ClearSource detaches the current source and forces the surface to
	// release buffered media so no further network activity occurs.
	ClearSource()

	// Subscribe registers a listener for surface events. The returned
	// cancel func removes it. Events may be delivered from arbitrary
	// goroutines.
	Subscribe(fn func(Event)) (cancel func())
}
