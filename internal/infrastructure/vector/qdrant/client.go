package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
	"github.com/kirillkom/insurance-clause-qa/internal/infrastructure/resilience"
)

// pointNamespace keys deterministic point ids so re-ingesting a document overwrites it.
var pointNamespace = uuid.MustParse("6f1c2a8e-3b0d-4a57-9d0e-7c4b8e2f1a90")

var levelKeys = [domain.HierarchyDepth]string{"level_1", "level_2", "level_3", "level_4"}

// Client is the segment vector store backed by the Qdrant REST API.
type Client struct {
	baseURL        string
	collection     string
	apiKey         string
	scoreThreshold float64
	httpClient     *http.Client
	executor       *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) WithResilience(executor *resilience.Executor) *Client {
	c.executor = executor
	return c
}

// WithScoreThreshold drops hits below threshold server-side; zero disables it.
func (c *Client) WithScoreThreshold(threshold float64) *Client {
	c.scoreThreshold = threshold
	return c
}

func (c *Client) WithAPIKey(key string) *Client {
	c.apiKey = key
	return c
}

func (c *Client) collectionPath() string {
	return "/collections/" + url.PathEscape(c.collection)
}

func (c *Client) Upsert(ctx context.Context, segments []domain.Segment, vectors [][]float32) error {
	if len(segments) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(segments) != len(vectors) {
		return fmt.Errorf("segments/vectors mismatch: %d/%d", len(segments), len(vectors))
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(segments))
	for i, seg := range segments {
		points = append(points, point{
			ID:      pointID(seg.SourceRef, i),
			Vector:  vectors[i],
			Payload: segmentPayload(seg, i),
		})
	}

	return c.do(ctx, http.MethodPut, c.collectionPath()+"/points?wait=true", map[string]any{"points": points}, nil, "upsert")
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.ScoredSegment, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if c.scoreThreshold > 0 {
		reqBody["score_threshold"] = c.scoreThreshold
	}
	if filter.Restricted() {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key": "category",
					"match": map[string]any{
						"value": filter.Category,
					},
				},
			},
		}
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := c.do(ctx, http.MethodPost, c.collectionPath()+"/points/search", reqBody, &searchResp, "search")
	if isStatus(err, http.StatusNotFound) {
		// Missing collection means nothing was ingested yet.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.ScoredSegment, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.ScoredSegment{Segment: segmentFromPayload(r.Payload), Score: r.Score})
	}
	return out, nil
}

// Recreate drops the collection; the next Upsert creates it again.
func (c *Client) Recreate(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, c.collectionPath(), nil, nil, "delete_collection")
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return err
	}
	c.ensureMu.Lock()
	c.ensuredCollection = false
	c.ensuredVectorSize = 0
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err := c.do(ctx, http.MethodPut, c.collectionPath(), reqBody, nil, "ensure_collection")
	// 409 if the collection already exists (depends on version/config).
	if err != nil && !isStatus(err, http.StatusConflict) {
		return err
	}

	index := map[string]any{"field_name": "category", "field_schema": "keyword"}
	if err := c.do(ctx, http.MethodPut, c.collectionPath()+"/index?wait=true", index, nil, "category_index"); err != nil && !isStatus(err, http.StatusConflict) {
		return err
	}

	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func pointID(sourceRef string, index int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%s#%d", sourceRef, index))).String()
}

func segmentPayload(seg domain.Segment, index int) map[string]any {
	payload := map[string]any{
		"content":       seg.Content,
		"category":      string(seg.Category),
		"source_ref":    seg.SourceRef,
		"segment_index": index,
	}
	for i, level := range seg.Levels() {
		if level == nil {
			payload[levelKeys[i]] = nil
			continue
		}
		payload[levelKeys[i]] = *level
	}
	return payload
}

func segmentFromPayload(payload map[string]any) domain.Segment {
	seg := domain.Segment{
		Content:   getStringPayload(payload, "content"),
		Category:  domain.Category(getStringPayload(payload, "category")),
		SourceRef: getStringPayload(payload, "source_ref"),
	}
	for i, key := range levelKeys {
		if v, ok := payload[key]; ok && v != nil {
			seg.SetLevel(i+1, domain.StringPtr(getStringPayload(payload, key)))
		}
	}
	return seg
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
