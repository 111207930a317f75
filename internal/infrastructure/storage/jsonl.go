package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"token-transfer-indexer/internal/domain/entity"
)

// JSONLWriter appends decoded transfers to a JSONL file, one event per line
type JSONLWriter struct {
	path string
	mu   sync.Mutex
}

// NewJSONLWriter creates a writer for path. The file is created on first write.
func NewJSONLWriter(path string) *JSONLWriter {
	return &JSONLWriter{path: path}
}

// WriteResult appends every transfer of result in discovery order and returns
// the number of lines written. Results without events write nothing.
func (w *JSONLWriter) WriteResult(result entity.DecodeResult) (int, error) {
	if result.Outcome != entity.OutcomeEvents {
		return 0, nil
	}

	records := make([]any, 0, result.Count())
	for _, t := range result.Transfers.ERC20 {
		records = append(records, t)
	}
	for _, t := range result.Transfers.ERC721 {
		records = append(records, t)
	}
	for _, t := range result.Transfers.ERC1155 {
		records = append(records, t)
	}
	return len(records), w.append(records)
}

func (w *JSONLWriter) append(records []any) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(w.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal transfer: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write transfer: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
