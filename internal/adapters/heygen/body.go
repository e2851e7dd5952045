package heygen

import (
	"fmt"
	"io"
	"net/http"
)

// Upstream bodies are small JSON documents; a hard cap keeps a misbehaving
// upstream from ballooning memory.
const maxBodyBytes = 1 << 20

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("heygen body read: %w", err)
	}
	return body, nil
}
