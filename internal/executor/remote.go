package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// remoteRequest is the payload sent to a remote compute runtime.
type remoteRequest struct {
	Task Task `json:"task"`
}

// remoteResponse is the runtime's reply.
type remoteResponse struct {
	OK      bool           `json:"ok"`
	Summary string         `json:"summary"`
	Output  map[string]any `json:"output,omitempty"`
}

// runRemote delegates the task to the remote runtime. Any transport
// failure, non-2xx status, or undecodable body is returned as an error so
// the caller can fall back to simulation; deadline expiry surfaces here as
// a context error like any other transport failure.
func (e *Executor) runRemote(ctx context.Context, endpoint string, task Task) (*remoteResponse, error) {
	body, err := json.Marshal(remoteRequest{Task: task})
	if err != nil {
		return nil, fmt.Errorf("encoding remote request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building remote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling remote runtime: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("remote runtime returned status %d", resp.StatusCode)
	}

	var decoded remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding remote response: %w", err)
	}
	return &decoded, nil
}
