package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique identifier. KSUIDs order by creation time,
// which keeps embedded thread entries and notifications naturally ordered.
func New() string {
	return ksuid.New().String()
}

// Valid reports whether s parses as an identifier produced by New.
func Valid(s string) bool {
	_, err := ksuid.Parse(s)
	return err == nil
}
