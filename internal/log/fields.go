// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldSourceURI = "source_uri"
	FieldSourceIdx = "source_idx"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Media / stream fields
	FieldEngine      = "engine"
	FieldContentType = "content_type"
	FieldPosition    = "position"
	FieldDuration    = "duration"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldPhase    = "phase"

	// Error fields
	FieldErrorClass = "error_class"
	FieldRetries    = "retries"
)
