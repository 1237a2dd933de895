package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/resilience"
)

// embedBatchSize bounds one /api/embed request; long policy documents
// produce hundreds of segments.
const embedBatchSize = 64

// Client talks to the Ollama HTTP API. Every call goes through the resilience
// executor when one is configured.
type Client struct {
	baseURL     string
	genModel    string
	embedModel  string
	temperature float64
	httpClient  *http.Client
	executor    *resilience.Executor
}

// New returns a client generating at temperature 0: classification and
// clause answers should not vary between identical questions.
func New(baseURL, genModel, embedModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithTemperature sets the sampling temperature sent with every generation.
func (c *Client) WithTemperature(temperature float64) *Client {
	if temperature >= 0 {
		c.temperature = temperature
	}
	return c
}

// WithResilience routes calls through executor.
func (c *Client) WithResilience(executor *resilience.Executor) *Client {
	c.executor = executor
	return c
}

// WithTimeout overrides the per-request HTTP timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// Complete implements the synchronous language-model contract.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, map[string]any{
		"model":   c.genModel,
		"prompt":  prompt,
		"stream":  false,
		"options": map[string]any{"temperature": c.temperature},
	})
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.call(ctx, "ollama_generate", "/api/generate", reqBody, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

// Embed returns one vector per text, in order. Large inputs are sent in
// batches of embedBatchSize.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		batch := texts[start:min(start+embedBatchSize, len(texts))]
		vectors, err := e.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "ollama_embed", "/api/embed", request, &response); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, domain.WrapError(domain.ErrExternalService, "ollama embed",
			fmt.Errorf("got %d embeddings for %d inputs", len(response.Embeddings), len(texts)))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}
