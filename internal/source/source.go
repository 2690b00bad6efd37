// SPDX-License-Identifier: MIT

// Package source defines stream source descriptors: the candidate
// variants of one piece of content the playback controller can choose
// between.
package source

import (
	"errors"
	"fmt"
)

// Descriptor is one candidate stream variant. It is immutable once
// handed to the controller.
type Descriptor struct {
	URI       string            `yaml:"uri" json:"uri"`
	MediaType string            `yaml:"media_type,omitempty" json:"media_type,omitempty"`
	Label     string            `yaml:"label,omitempty" json:"label,omitempty"`
	Quality   string            `yaml:"quality,omitempty" json:"quality,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// Validate checks the descriptor for minimal completeness.
func (d Descriptor) Validate() error {
	if d.URI == "" {
		return errors.New("source descriptor requires a uri")
	}
	return nil
}

// List is an ordered set of candidate sources. Ordering is preference
// order; the first entry is the default.
type List []Descriptor

// Validate checks that the list is non-empty and every entry is valid.
func (l List) Validate() error {
	if len(l) == 0 {
		return errors.New("source list must not be empty")
	}
	for i, d := range l {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}
	return nil
}
