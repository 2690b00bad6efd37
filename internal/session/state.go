// SPDX-License-Identifier: MIT

package session

// State represents the lifecycle state of a segmented session.
type State string

const (
	// StateUninitialized indicates the session exists but is not yet
	// bound to a surface.
	StateUninitialized State = "uninitialized"

	// StateAttached indicates the client is bound to the surface and
	// the manifest load has been issued.
	StateAttached State = "attached"

	// StateManifestParsed indicates the manifest was fetched and
	// parsed successfully.
	StateManifestParsed State = "manifest_parsed"

	// StateFragmentsLoading indicates a fragment fetch is in flight.
	StateFragmentsLoading State = "fragments_loading"

	// StateFragmentsLoaded indicates the last fragment fetch completed.
	StateFragmentsLoaded State = "fragments_loaded"

	// StateErrored indicates a fatal error surfaced before teardown.
	StateErrored State = "errored"

	// StateDestroyed is terminal; the session holds no resources.
	StateDestroyed State = "destroyed"
)

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// IsValid checks whether the session state is valid.
func (s State) IsValid() bool {
	switch s {
	case StateUninitialized, StateAttached, StateManifestParsed,
		StateFragmentsLoading, StateFragmentsLoaded, StateErrored, StateDestroyed:
		return true
	default:
		return false
	}
}

// IsTerminal checks whether the state admits no further transitions.
func (s State) IsTerminal() bool {
	return s == StateDestroyed
}
