package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/kirillkom/insurance-clause-qa/internal/core/domain"
)

const maxLineBytes = 4 << 20

// Log is an append-only JSON-lines evaluation log. Appends from concurrent
// requests are serialized so every line stays intact.
type Log struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Log, error) {
	if path == "" {
		path = "./data/evaluations.jsonl"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create evaluation log dir: %w", err)
	}
	return &Log{path: path}, nil
}

func (l *Log) Append(_ context.Context, record domain.EvaluationRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal evaluation: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open evaluation log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append evaluation: %w", err)
	}
	return f.Close()
}

// List scans the whole log and keeps records inside window. Undecodable lines
// are skipped with a warning.
func (l *Log) List(ctx context.Context, window domain.TimeRange) ([]domain.EvaluationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open evaluation log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var out []domain.EvaluationRecord
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec domain.EvaluationRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Warn("evaluation_log_line_skipped", "line", lineNo, "error", err)
			continue
		}
		if window.Contains(rec.Timestamp) {
			out = append(out, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan evaluation log: %w", err)
	}
	return out, nil
}
