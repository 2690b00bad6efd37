// SPDX-License-Identifier: MIT

package media

// ErrorClass partitions segmented-client errors into recovery classes.
type ErrorClass string

const (
	// ErrorClassNetwork covers manifest and fragment fetch failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassMedia covers decode and buffer errors.
	ErrorClassMedia ErrorClass = "media"

	// ErrorClassOther covers everything else.
	ErrorClassOther ErrorClass = "other"
)

// ClientEventType identifies a segmented-client event.
type ClientEventType string

const (
	// ClientManifestParsed fires when the manifest has been fetched and
	// parsed successfully.
	ClientManifestParsed ClientEventType = "manifest_parsed"

	// ClientFragmentLoading fires when a fragment fetch begins.
	ClientFragmentLoading ClientEventType = "fragment_loading"

	// ClientFragmentLoaded fires when a fragment fetch completes.
	ClientFragmentLoaded ClientEventType = "fragment_loaded"

	// ClientError reports a client error; Fatal distinguishes errors
	// the client already recovered from internally.
	ClientError ClientEventType = "error"
)

// ClientEvent is a single segmented-client notification.
type ClientEvent struct {
	Type    ClientEventType
	Class   ErrorClass // ClientError only
	Fatal   bool       // ClientError only
	Message string     // ClientError only
}

// SegmentedClient is an adaptive-streaming client that fetches content
// in small sequential chunks per a manifest and feeds a Surface.
type SegmentedClient interface {
	// Attach binds the client to the playback surface.
	Attach(s Surface) error

	// Load fetches and parses the manifest at uri. Headers are applied
	// to manifest and fragment fetches.
	Load(uri string, headers map[string]string) error

	// StartLoad begins (or restarts) fragment loading from the given
	// position in seconds.
	StartLoad(position float64)

	// StopLoad ceases all in-flight fragment fetches.
	StopLoad()

	// RecoverMedia attempts a single in-place recovery from a media
	// (decode/buffer) error.
	RecoverMedia()

	// Detach unbinds the client from the surface.
	Detach()

	// Destroy releases the client. After Destroy no events are
	// delivered and no network activity occurs.
	Destroy()

	// Subscribe registers a listener for client events. The returned
	// cancel func removes it.
	Subscribe(fn func(ClientEvent)) (cancel func())
}
