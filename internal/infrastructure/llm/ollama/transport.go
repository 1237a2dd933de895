package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/resilience"
)

// call posts one request, through the executor when one is attached, and maps
// the outcome onto the domain error kinds.
func (c *Client) call(ctx context.Context, operation, path string, payload, out any) error {
	attempt := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, operation)
	}
	var err error
	if c.executor == nil {
		err = attempt(ctx)
	} else {
		err = c.executor.Execute(ctx, operation, attempt, resilience.ClassifyHTTP)
	}
	return resilience.Surface(resilience.ClassifyHTTP, operation, err)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.NewStatusError("ollama", operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
