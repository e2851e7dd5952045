package core

import "fmt"

// UpstreamError is a non-2xx or malformed reply from a third-party service.
// It carries enough of the upstream body to diagnose without re-issuing
// the call.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: status=%d body=%s", e.Service, e.Status, e.Body)
}

// Excerpt bounds a response body for logs and error payloads.
func Excerpt(b []byte, max int) string {
	if len(b) > max {
		return string(b[:max])
	}
	return string(b)
}
