package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("QDRANT_SCORE_THRESHOLD", "")
	t.Setenv("QDRANT_COLLECTION", "")
	t.Setenv("NEO4J_URI", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAGTopK != 10 {
		t.Fatalf("expected default top k 10, got %d", cfg.RAGTopK)
	}
	if cfg.QdrantScoreThreshold != 0.3 {
		t.Fatalf("expected default score threshold 0.3, got %v", cfg.QdrantScoreThreshold)
	}
	if cfg.QdrantCollection != "insurance_docs" {
		t.Fatalf("expected default collection insurance_docs, got %q", cfg.QdrantCollection)
	}
	if cfg.GraphEnabled() {
		t.Fatalf("graph sink must be disabled without NEO4J_URI")
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RAG_TOP_K", "7")
	t.Setenv("QDRANT_SCORE_THRESHOLD", "0.45")
	t.Setenv("OLLAMA_TIMEOUT", "15s")
	t.Setenv("EVAL_LOG_BACKEND", "Postgres")
	t.Setenv("EVAL_JUDGE_ENABLED", "false")
	t.Setenv("API_BACKPRESSURE_WAIT_MS", "40")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAGTopK != 7 || cfg.QdrantScoreThreshold != 0.45 {
		t.Fatalf("unexpected retrieval config %+v", cfg)
	}
	if cfg.OllamaTimeout != 15*time.Second {
		t.Fatalf("expected ollama timeout 15s, got %s", cfg.OllamaTimeout)
	}
	if cfg.EvalLogBackend != EvalBackendPostgres || cfg.EvalJudgeEnabled {
		t.Fatalf("unexpected eval config backend=%q judge=%v", cfg.EvalLogBackend, cfg.EvalJudgeEnabled)
	}
	if cfg.BackpressureWait() != 40*time.Millisecond {
		t.Fatalf("unexpected backpressure wait %s", cfg.BackpressureWait())
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RAG_TOP_K", "ten")
	t.Setenv("QDRANT_SCORE_THRESHOLD", "high")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAGTopK != 10 || cfg.QdrantScoreThreshold != 0.3 {
		t.Fatalf("malformed values must fall back to defaults, got %d %v", cfg.RAGTopK, cfg.QdrantScoreThreshold)
	}
}

func TestLoadAppliesYAMLUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("qdrant_collection: policies\nrag_top_k: 5\nneo4j_uri: bolt://graph:7687\nresilience_breaker_open_timeout: 45s\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RAG_TOP_K", "3")
	t.Setenv("QDRANT_COLLECTION", "")
	t.Setenv("NEO4J_URI", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QdrantCollection != "policies" {
		t.Fatalf("yaml must override defaults, got %q", cfg.QdrantCollection)
	}
	if cfg.RAGTopK != 3 {
		t.Fatalf("env must override yaml, got %d", cfg.RAGTopK)
	}
	if !cfg.GraphEnabled() || cfg.ResilienceBreakerOpenTimeout != 45*time.Second {
		t.Fatalf("unexpected graph config %+v", cfg)
	}
	if cfg.OllamaURL != "http://localhost:11434" {
		t.Fatalf("keys absent from yaml keep defaults, got %q", cfg.OllamaURL)
	}
}

func TestLoadFileRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("rag_top_k: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
