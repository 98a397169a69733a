// Package reqid mints the request identifiers stamped on every event
// emitted during a request lifecycle (spec §3 "Request", §4.8 "Request
// identity").
package reqid

import "github.com/google/uuid"

// New returns a fresh, structurally unique request identifier.
func New() string {
	return uuid.NewString()
}
