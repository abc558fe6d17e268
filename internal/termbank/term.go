// Package termbank renders expanded grammar entries into Yomitan term banks
// and packs them into an importable archive.
package termbank

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/bunpro-yomitan/internal/grammar"
)

// Section headings of the first glossary block.
const (
	headingMeaning     = "【 Meaning 】"
	headingExplanation = "【 Explanation 】"
	headingExamples    = "【 Example sentences 】"
	linkText           = "Link to Bunpro"

	structuredContentType = "structured-content"
	sequenceFlag          = 1
)

// Term is one term-bank record. It is serialized as the positional v3 tuple
// [expression, reading, definitionTags, rules, score, glossary, sequence, termTags].
type Term struct {
	Expression     string
	Reading        string
	DefinitionTags string
	Rules          grammar.PartOfSpeech
	Score          int
	Glossary       []Glossary
	Sequence       int
	TermTags       grammar.JLPTLevel
}

// Glossary is a structured-content definition block.
type Glossary struct {
	Type    string `json:"type"`
	Content []any  `json:"content"`
}

// Node is a structured-content element. Field order fixes the JSON key order.
type Node struct {
	Tag     string `json:"tag"`
	Href    string `json:"href,omitempty"`
	Style   *Style `json:"style,omitempty"`
	Content any    `json:"content"`
}

// Style holds the inline styles used by the rendered glossary.
type Style struct {
	MarginLeft    int    `json:"marginLeft,omitempty"`
	ListStyleType string `json:"listStyleType,omitempty"`
}

// NewTerm builds the record for one expanded entry.
func NewTerm(e grammar.ExpandedEntry) Term {
	return Term{
		Expression: e.Subject,
		Reading:    e.Reading,
		Rules:      e.PartOfSpeech,
		Glossary: []Glossary{
			{
				Type: structuredContentType,
				Content: []any{
					headingMeaning,
					Node{Tag: "div", Style: &Style{MarginLeft: 1}, Content: e.Definition},
					headingExplanation,
					Node{Tag: "div", Style: &Style{MarginLeft: 1}, Content: e.Explanation},
					headingExamples,
					Node{Tag: "ol", Content: exampleItems(e.Examples)},
				},
			},
			{
				Type: structuredContentType,
				Content: []any{
					Node{Tag: "a", Href: e.Link, Content: linkText},
				},
			},
		},
		Sequence: sequenceFlag,
		TermTags: e.JLPT,
	}
}

// MarshalJSON emits the positional tuple without escaping HTML characters.
func (t Term) MarshalJSON() ([]byte, error) {
	glossary := t.Glossary
	if glossary == nil {
		glossary = []Glossary{}
	}
	tuple := []any{
		t.Expression,
		t.Reading,
		t.DefinitionTags,
		string(t.Rules),
		t.Score,
		glossary,
		t.Sequence,
		string(t.TermTags),
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tuple); err != nil {
		return nil, fmt.Errorf("encode term %q: %w", t.Expression, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func exampleItems(examples []string) []Node {
	items := make([]Node, 0, len(examples))
	for i, sentence := range examples {
		items = append(items, Node{
			Tag:     "li",
			Style:   &Style{ListStyleType: ListMarker(i + 1)},
			Content: sentence,
		})
	}
	return items
}

// ListMarker returns the quoted CSS list marker for the n-th example: circled
// numerals for 1..20 and a plain "n." beyond that.
func ListMarker(n int) string {
	if n >= 1 && n <= 20 {
		return fmt.Sprintf("'%c'", rune(0x2460+n-1))
	}
	return fmt.Sprintf("'%d.'", n)
}
