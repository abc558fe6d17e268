package build

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/bunpro-yomitan/internal/grammar"
)

var csvHeader = []string{"subject", "reading", "part_of_speech", "definition", "explanation", "link", "JLPT", "examples"}

// WriteCSV exports expanded records one row each. Examples are joined by a blank line.
func WriteCSV(path string, records []grammar.ExpandedEntry) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create csv dir %s: %w", dir, err)
		}
	}
	// #nosec G304 -- path comes from configuration.
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close csv %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Subject,
			r.Reading,
			string(r.PartOfSpeech),
			r.Definition,
			r.Explanation,
			r.Link,
			string(r.JLPT),
			strings.Join(r.Examples, "\n\n"),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row %q: %w", r.Subject, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
