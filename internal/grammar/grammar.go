// Package grammar decomposes test vector file names into their fields.
//
// A test vector name has the positional form
//
//	Type_Batch_Period_DM_Z_SNR_Pulsar_Freq[_Index].<ext>
//
// e.g. FakePulsar_1_0.1_10_0.0_15_J0000+0000_1400.fil. The optional Index
// distinguishes several profiles of the same pulsar observed at the same
// frequency. Parsing is purely positional: there is no escaping, so a name
// whose arity does not match is rejected rather than guessed at.
package grammar

import (
	"fmt"
	"strings"

	"github.com/harrison/tvscan/internal/models"
)

const (
	// MinComponents is the arity of a name without an index.
	MinComponents = 8
	// MaxComponents is the arity of a name with an index.
	MaxComponents = 9

	separator = "_"
)

// Fields holds the components of a successfully parsed name.
type Fields struct {
	Category          string
	Batch             string
	PeriodMs          string
	DispersionMeasure string
	Acceleration      string
	SignalToNoise     string
	Pulsar            string
	FrequencyMHz      string
	Index             string // Empty when the name has 8 components
	ProfileID         string
}

// Kind tags a parse outcome.
type Kind int

const (
	// Parsed means Fields is populated.
	Parsed Kind = iota
	// Malformed means Err describes why the name was rejected.
	Malformed
)

func (k Kind) String() string {
	if k == Parsed {
		return "parsed"
	}
	return "malformed"
}

// Result is the outcome of Parse: either Parsed with Fields, or Malformed with Err.
type Result struct {
	Kind   Kind
	Fields Fields
	Err    *models.MalformedNameError
}

// OK reports whether the name was parsed.
func (r Result) OK() bool {
	return r.Kind == Parsed
}

// Parse splits name on underscores after removing the ext suffix.
// When ext is empty or not a suffix of name, nothing is stripped.
func Parse(name, ext string) Result {
	stem := name
	if ext != "" && len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext) {
		stem = name[:len(name)-len(ext)]
	}

	parts := strings.Split(stem, separator)
	switch {
	case len(parts) < MinComponents:
		return malformed(name, len(parts), "too few components")
	case len(parts) > MaxComponents:
		return malformed(name, len(parts), "too many components")
	}

	f := Fields{
		Category:          parts[0],
		Batch:             parts[1],
		PeriodMs:          parts[2],
		DispersionMeasure: parts[3],
		Acceleration:      parts[4],
		SignalToNoise:     parts[5],
		Pulsar:            parts[6],
		FrequencyMHz:      parts[7],
	}
	if len(parts) == MaxComponents {
		f.Index = parts[8]
	}
	f.ProfileID = ComposeProfileID(f.Pulsar, f.FrequencyMHz, f.Index)

	return Result{Kind: Parsed, Fields: f}
}

func malformed(name string, n int, reason string) Result {
	return Result{
		Kind: Malformed,
		Err:  &models.MalformedNameError{Name: name, Components: n, Reason: reason},
	}
}

// ComposeProfileID joins the profile parts: Pulsar_Freq, or Pulsar_Freq_Index
// when index is non-empty.
func ComposeProfileID(pulsar, freq, index string) string {
	id := pulsar + separator + freq
	if index != "" {
		id += separator + index
	}
	return id
}

// ProfileRef is a profile id split back into its parts.
type ProfileRef struct {
	Pulsar       string
	FrequencyMHz string
	Index        string
}

// SplitProfileID reverses ComposeProfileID.
func SplitProfileID(id string) (ProfileRef, error) {
	parts := strings.Split(id, separator)
	switch len(parts) {
	case 2:
		return ProfileRef{Pulsar: parts[0], FrequencyMHz: parts[1]}, nil
	case 3:
		return ProfileRef{Pulsar: parts[0], FrequencyMHz: parts[1], Index: parts[2]}, nil
	default:
		return ProfileRef{}, fmt.Errorf("profile id %q: expected 2 or 3 components, got %d", id, len(parts))
	}
}

// ID returns the composed profile id.
func (p ProfileRef) ID() string {
	return ComposeProfileID(p.Pulsar, p.FrequencyMHz, p.Index)
}

// AscName is the name of the EPN profile file the vector was built from.
func (p ProfileRef) AscName() string {
	return p.ID() + ".asc"
}

// ImageName is the name of the rendered profile image for the vector.
func (p ProfileRef) ImageName() string {
	return p.ID() + ".png"
}
