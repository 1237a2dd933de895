package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

func testSegments() []domain.Segment {
	return []domain.Segment{
		{
			Content:   "회사는 ... 보상합니다.",
			Category:  domain.CategoryVehicle,
			Level1:    domain.StringPtr("제1편 배상책임"),
			Level2:    domain.StringPtr("제1장 대인배상"),
			SourceRef: "010_자동차보험_가공.xml",
		},
		{Content: "b", Category: domain.CategoryVehicle, SourceRef: "010_자동차보험_가공.xml"},
	}
}

func TestUpsertEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls, indexCalls int32
	var lastPoints []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/index":
			atomic.AddInt32(&indexCalls, 1)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points":
			var body struct {
				Points []map[string]any `json:"points"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			lastPoints = body.Points
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.Upsert(context.Background(), testSegments(), vectors); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	firstID := lastPoints[0]["id"]
	if err := client.Upsert(context.Background(), testSegments(), vectors); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
	if got := atomic.LoadInt32(&indexCalls); got != 1 {
		t.Fatalf("expected category index created once, got %d", got)
	}
	if lastPoints[0]["id"] != firstID {
		t.Fatalf("point ids must be deterministic")
	}
	payload := lastPoints[0]["payload"].(map[string]any)
	if payload["category"] != "자동차보험" || payload["level_2"] != "제1장 대인배상" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if v, ok := payload["level_3"]; !ok || v != nil {
		t.Fatalf("absent levels must be stored as null, got %+v", payload)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/docs" {
			http.Error(w, "boom", http.StatusBadRequest)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	err := New(server.URL, "docs").Upsert(context.Background(), testSegments()[:1], [][]float32{{0.1, 0.2}})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}

func TestSearchSendsCategoryFilterAndThreshold(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/docs/points/search" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.9,"payload":{"content":"x","category":"자동차보험","level_1":"제1편 배상책임","level_2":null,"source_ref":"010_자동차보험_가공.xml"}},
			{"score":0.4,"payload":{"content":"y","category":"자동차보험"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "docs").WithScoreThreshold(0.3)
	got, err := client.Search(context.Background(), []float32{0.1}, 10, domain.SearchFilter{Category: domain.CategoryVehicle})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if captured["score_threshold"] != 0.3 {
		t.Fatalf("score_threshold = %v", captured["score_threshold"])
	}
	filter, ok := captured["filter"].(map[string]any)
	if !ok || !strings.Contains(mustJSON(t, filter), "자동차보험") {
		t.Fatalf("expected category filter, got %v", captured["filter"])
	}
	if len(got) != 2 || got[0].Score != 0.9 || got[0].Category != domain.CategoryVehicle {
		t.Fatalf("unexpected results %+v", got)
	}
	if domain.DerefString(got[0].Level1) != "제1편 배상책임" || got[0].Level2 != nil {
		t.Fatalf("levels not decoded: %+v", got[0].Segment)
	}
}

func TestSearchWithoutFilterAndMissingCollection(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer server.Close()

	got, err := New(server.URL, "docs").Search(context.Background(), []float32{0.1}, 5, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	if _, ok := captured["filter"]; ok {
		t.Fatalf("unrestricted search must not send a filter")
	}
}

func TestRecreateDropsCollection(t *testing.T) {
	var deleted int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/collections/docs" {
			atomic.AddInt32(&deleted, 1)
			_, _ = w.Write([]byte(`{"result":true}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	client.markCollectionEnsured(2)
	if err := client.Recreate(context.Background()); err != nil {
		t.Fatalf("Recreate() error = %v", err)
	}
	if deleted != 1 || client.ensuredCollection {
		t.Fatalf("expected delete call and reset ensure cache")
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}
