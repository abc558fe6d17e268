package termbank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JakeFAU/bunpro-yomitan/internal/grammar"
)

const (
	// DefaultShards is the number of term bank files a dictionary is split into.
	DefaultShards = 4

	indexFile   = "index.json"
	tagBankFile = "tag_bank_1.json"
	indent      = "    "
	formatV3    = 3
)

// Index is the dictionary metadata file Yomitan reads on import.
type Index struct {
	Title       string `json:"title"`
	Revision    string `json:"revision"`
	Format      int    `json:"format"`
	Author      string `json:"author,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Tag is one tag-bank record, serialized as [name, category, order, notes, score].
type Tag struct {
	Name     string
	Category string
	Order    int
	Notes    string
	Score    int
}

// MarshalJSON emits the positional tag tuple.
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Name, t.Category, t.Order, t.Notes, t.Score})
}

// Shard deals records round-robin into n shards; record i lands in shard i mod n
// and relative order is kept within each shard.
func Shard[T any](records []T, n int) [][]T {
	if n <= 0 {
		n = 1
	}
	shards := make([][]T, n)
	for i := range shards {
		shards[i] = make([]T, 0, (len(records)+n-1-i)/n)
	}
	for i, r := range records {
		shards[i%n] = append(shards[i%n], r)
	}
	return shards
}

// WriterConfig controls dictionary output.
type WriterConfig struct {
	Dir    string
	Shards int
	Index  Index
}

// Writer renders term banks and auxiliary files into a directory.
type Writer struct {
	cfg    WriterConfig
	logger *zap.Logger
}

// NewWriter returns a Writer; a zero shard count falls back to DefaultShards.
func NewWriter(cfg WriterConfig, logger *zap.Logger) *Writer {
	if cfg.Shards <= 0 {
		cfg.Shards = DefaultShards
	}
	if cfg.Index.Format == 0 {
		cfg.Index.Format = formatV3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{cfg: cfg, logger: logger}
}

// Write creates the output directory and writes term_bank_1..n.json, index.json
// and tag_bank_1.json. It returns the written paths in that order.
func (w *Writer) Write(records []grammar.ExpandedEntry) ([]string, error) {
	if err := os.MkdirAll(w.cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	terms := make([]Term, len(records))
	for i, r := range records {
		terms[i] = NewTerm(r)
	}

	var written []string
	for i, shard := range Shard(terms, w.cfg.Shards) {
		path := filepath.Join(w.cfg.Dir, fmt.Sprintf("term_bank_%d.json", i+1))
		if err := writeJSON(path, shard); err != nil {
			return written, err
		}
		w.logger.Info("Wrote term bank", zap.String("path", path), zap.Int("terms", len(shard)))
		written = append(written, path)
	}

	indexPath := filepath.Join(w.cfg.Dir, indexFile)
	if err := writeJSON(indexPath, w.cfg.Index); err != nil {
		return written, err
	}
	written = append(written, indexPath)

	tagPath := filepath.Join(w.cfg.Dir, tagBankFile)
	if err := writeJSON(tagPath, Tags()); err != nil {
		return written, err
	}
	written = append(written, tagPath)
	return written, nil
}

// Tags lists the JLPT and part-of-speech tags referenced by the term banks.
func Tags() []Tag {
	var tags []Tag
	for i, level := range grammar.JLPTLevels() {
		tags = append(tags, Tag{
			Name:     string(level),
			Category: "frequent",
			Order:    i,
			Notes:    "JLPT " + string(level),
		})
	}
	for i, pos := range grammar.PartsOfSpeech() {
		tags = append(tags, Tag{
			Name:     string(pos),
			Category: "partOfSpeech",
			Order:    i,
			Notes:    pos.Label(),
		})
	}
	return tags
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
