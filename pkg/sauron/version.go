package sauron

// version is the semantic version string returned by Version. It has no
// relationship to the archive format's version field, which tracks the
// on-disk layout independently.
const version = "1.0.0"

// Version returns this module's semantic version string.
func Version() string {
	return version
}
