package typematch

import (
	"github.com/Masterminds/semver/v3"
)

// Version is the library version.
const Version = "0.4.0"

// SchemaVersion is the format version declared by a schema document.
type SchemaVersion string

// Known schema format versions.
const (
	// Schema10 supports aliases, typed mappings, type variables, new types and literals.
	Schema10 SchemaVersion = "1.0.0"
	// Schema11 adds protocols and named tuples bound to registered Go types.
	Schema11 SchemaVersion = "1.1.0"
)

// supportedSchemas is the range of schema versions this library reads.
var supportedSchemas = mustConstraint(">= 1.0.0, < 2.0.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the version string.
func (v SchemaVersion) String() string {
	return string(v)
}

// IsValid returns true if this schema version is readable.
func (v SchemaVersion) IsValid() bool {
	sv, err := semver.NewVersion(string(v))
	if err != nil {
		return false
	}
	return supportedSchemas.Check(sv)
}

// SchemaFeatures lists the sections a schema version may use.
type SchemaFeatures struct {
	Protocols   bool
	NamedTuples bool
}

// Features returns the sections available in this schema version.
// Invalid versions have no optional features.
func (v SchemaVersion) Features() SchemaFeatures {
	sv, err := semver.NewVersion(string(v))
	if err != nil || !supportedSchemas.Check(sv) {
		return SchemaFeatures{}
	}
	extended := sv.Minor() >= 1
	return SchemaFeatures{
		Protocols:   extended,
		NamedTuples: extended,
	}
}
