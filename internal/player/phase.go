// SPDX-License-Identifier: MIT

package player

// Phase represents the observable transport state of the player.
type Phase string

const (
	// PhaseIdle indicates no content is loaded.
	PhaseIdle Phase = "idle"

	// PhaseProbing indicates the active source is being classified.
	PhaseProbing Phase = "probing"

	// PhaseLoading indicates a playback engine is initialising the
	// source.
	PhaseLoading Phase = "loading"

	// PhasePlaying indicates playback is running.
	PhasePlaying Phase = "playing"

	// PhasePaused indicates playback is paused and resumable.
	PhasePaused Phase = "paused"

	// PhaseEnded indicates playback reached the end of the media.
	PhaseEnded Phase = "ended"

	// PhaseDownloadOnly is terminal for the source: the stream is a
	// forced download and no playback engine is initialised.
	PhaseDownloadOnly Phase = "download_only"

	// PhaseError indicates a fatal, surfaced playback failure.
	PhaseError Phase = "error"
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	return string(p)
}

// IsValid checks whether the phase is valid.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseIdle, PhaseProbing, PhaseLoading, PhasePlaying,
		PhasePaused, PhaseEnded, PhaseDownloadOnly, PhaseError:
		return true
	default:
		return false
	}
}
