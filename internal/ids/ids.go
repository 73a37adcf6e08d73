package ids

import "github.com/segmentio/ksuid"

// New returns a sortable, URL-safe identifier used for session IDs and
// deposit references.
func New() string {
	return ksuid.New().String()
}
