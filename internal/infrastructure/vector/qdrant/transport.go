package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/resilience"
)

// do sends one JSON request. A nil payload sends no body; a nil out discards the response.
func (c *Client) do(ctx context.Context, method, path string, payload, out any, operation string) error {
	call := func(callCtx context.Context) error {
		return c.doOnce(callCtx, method, path, payload, out, operation)
	}
	var err error
	if c.executor == nil {
		err = call(ctx)
	} else {
		err = c.executor.Execute(ctx, "qdrant_"+operation, call, resilience.ClassifyHTTP)
	}
	return resilience.Surface(resilience.ClassifyHTTP, "qdrant "+operation, err)
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload, out any, operation string) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", operation, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.NewStatusError("qdrant", operation, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func isStatus(err error, code int) bool {
	return resilience.HasStatus(err, code)
}
