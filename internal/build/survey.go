package build

import (
	"fmt"
	"sort"

	"github.com/JakeFAU/bunpro-yomitan/internal/extract"
)

// Survey returns the distinct raw part-of-speech labels across stored pages,
// sorted. It is used to find labels missing from the taxonomy before a build.
func Survey(pages PageSource) ([]string, error) {
	names, err := pages.List()
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	seen := map[string]struct{}{}
	for _, name := range names {
		doc, err := pages.Load(name)
		if err != nil {
			return nil, err
		}
		if label, ok := extract.PartOfSpeechLabel(doc); ok {
			seen[label] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, nil
}
