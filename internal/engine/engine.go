// SPDX-License-Identifier: MIT

// Package engine chooses, per source, between a segmented-streaming
// session and direct native playback.
package engine

import "strings"

// Kind identifies the playback engine driving a source.
type Kind string

const (
	// KindDirect assigns the source URI to the native surface.
	KindDirect Kind = "direct"

	// KindSegmented drives playback through a segmented-streaming
	// client.
	KindSegmented Kind = "segmented"
)

// Reason explains an engine selection.
type Reason string

const (
	ReasonNotAdaptive       Reason = "not_adaptive"
	ReasonNativeSupport     Reason = "native_manifest_support"
	ReasonClientSelected    Reason = "segmented_client_selected"
	ReasonClientUnavailable Reason = "segmented_client_unavailable"
)

// ManifestType identifies an adaptive-manifest format.
type ManifestType string

const (
	ManifestNone ManifestType = ""
	ManifestHLS  ManifestType = "hls"
	ManifestDASH ManifestType = "dash"
)

// Input captures everything the selector needs to know about a source
// and the environment.
type Input struct {
	URI       string
	MediaType string

	// NativeSupport reports whether the surface can decode the
	// detected manifest type directly.
	NativeSupport bool

	// ClientAvailable reports whether a segmented-streaming client is
	// available in the environment.
	ClientAvailable bool
}

// Output is the selector's decision.
type Output struct {
	Kind     Kind
	Manifest ManifestType
	Reason   Reason
}

// Select decides the engine for one source. It never rejects: when no
// segmented client is available the native surface is assigned and
// allowed to fail explicitly, which the playback state machine catches
// on its error path.
func Select(in Input) Output {
	manifest := DetectManifest(in.URI, in.MediaType)
	if manifest == ManifestNone {
		return Output{Kind: KindDirect, Reason: ReasonNotAdaptive}
	}
	if in.NativeSupport {
		// Native decoding avoids the overhead of the segmented client.
		return Output{Kind: KindDirect, Manifest: manifest, Reason: ReasonNativeSupport}
	}
	if in.ClientAvailable {
		return Output{Kind: KindSegmented, Manifest: manifest, Reason: ReasonClientSelected}
	}
	return Output{Kind: KindDirect, Manifest: manifest, Reason: ReasonClientUnavailable}
}

// DetectManifest detects an adaptive-manifest signature from the URI
// suffix or the declared media type.
func DetectManifest(uri, mediaType string) ManifestType {
	switch normalizeToken(mediaType) {
	case "application/vnd.apple.mpegurl", "application/x-mpegurl", "audio/mpegurl", "audio/x-mpegurl":
		return ManifestHLS
	case "application/dash+xml":
		return ManifestDASH
	}

	path := normalizeToken(uri)
	if idx := strings.IndexAny(path, "?#"); idx != -1 {
		path = path[:idx]
	}
	switch {
	case strings.HasSuffix(path, ".m3u8"), strings.HasSuffix(path, ".m3u"):
		return ManifestHLS
	case strings.HasSuffix(path, ".mpd"):
		return ManifestDASH
	}
	return ManifestNone
}

// MIMEFor returns the canonical MIME type for a manifest format, used
// to query native surface support.
func MIMEFor(m ManifestType) string {
	switch m {
	case ManifestHLS:
		return "application/vnd.apple.mpegurl"
	case ManifestDASH:
		return "application/dash+xml"
	default:
		return ""
	}
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
