// Package extract derives grammar entries from stored grammar-point pages.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/JakeFAU/bunpro-yomitan/internal/grammar"
)

// Selectors for the grammar-point page layout.
const (
	selectorHeading      = "h1"
	selectorTitle        = "title"
	selectorInfoHeadings = "ul h4"
	selectorInfoValues   = "ul > li > p"
	selectorDefinition   = "p.line-clamp-1"
	selectorWriteup      = "div.bp-writeup-body"
	selectorExampleJa    = ".writeup-example--japanese"
	selectorExampleEn    = ".writeup-example--english"
	selectorCanonical    = `head > link[rel="canonical"]`

	partOfSpeechHeading = "Part of Speech"
	jlptMarker          = "JLPT"
	titleSuffix         = "| Bunpro"

	// ExplanationUnavailable replaces the explanation of pages without a write-up block.
	ExplanationUnavailable = "Error: Could not extract explanation"
)

// Extractor maps a parsed page onto a grammar.Entry.
type Extractor struct {
	logger *zap.Logger
}

// New returns an Extractor that logs recoverable gaps to logger.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract reads every field of an entry. It returns an error wrapping
// grammar.ErrUnknownPartOfSpeech or grammar.ErrUnknownJLPTLevel when the page
// carries a taxonomy value outside the known sets. doc is not modified.
func (e *Extractor) Extract(doc *goquery.Document) (grammar.Entry, error) {
	title := Title(doc)

	pos, err := PartOfSpeech(doc)
	if err != nil {
		return grammar.Entry{}, fmt.Errorf("%s: %w", title, err)
	}
	level, err := JLPTLevel(title)
	if err != nil {
		return grammar.Entry{}, fmt.Errorf("%s: %w", title, err)
	}

	entry := grammar.Entry{
		Subject:      Subject(doc),
		Reading:      firstToken(title),
		PartOfSpeech: pos,
		Definition:   strings.TrimSpace(doc.Find(selectorDefinition).First().Text()),
		Explanation:  e.explanation(doc, title),
		Examples:     Examples(doc),
		Link:         e.link(doc, title),
		JLPT:         level,
	}
	return entry, nil
}

// Title returns the trimmed document title.
func Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find(selectorTitle).First().Text())
}

// Subject returns the first token of the page heading with Latin letters and
// commas removed.
func Subject(doc *goquery.Document) string {
	return StripLatin(firstToken(doc.Find(selectorHeading).First().Text()))
}

// StripLatin drops ASCII and full-width Latin letters and commas.
func StripLatin(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return -1
		case r >= 'ａ' && r <= 'ｚ', r >= 'Ａ' && r <= 'Ｚ':
			return -1
		case r == ',', r == '，':
			return -1
		}
		return r
	}, s)
}

// PartOfSpeech finds the "Part of Speech" row of the page's info list. Pages
// without the row yield grammar.PartOfSpeechUnknown.
func PartOfSpeech(doc *goquery.Document) (grammar.PartOfSpeech, error) {
	label, ok := PartOfSpeechLabel(doc)
	if !ok {
		return grammar.PartOfSpeechUnknown, nil
	}
	return grammar.ParsePartOfSpeech(label)
}

// PartOfSpeechLabel returns the raw label of the "Part of Speech" row.
func PartOfSpeechLabel(doc *goquery.Document) (string, bool) {
	headings := doc.Find(selectorInfoHeadings)
	values := doc.Find(selectorInfoValues)
	n := min(headings.Length(), values.Length())
	for i := 0; i < n; i++ {
		if strings.TrimSpace(headings.Eq(i).Text()) == partOfSpeechHeading {
			return strings.TrimSpace(values.Eq(i).Text()), true
		}
	}
	return "", false
}

// JLPTLevel parses the level that follows the JLPT marker in a page title such
// as "だ (JLPT N5) | Bunpro".
func JLPTLevel(title string) (grammar.JLPTLevel, error) {
	_, after, found := strings.Cut(title, jlptMarker)
	if !found {
		return grammar.ParseJLPTLevel("")
	}
	token := strings.TrimSpace(after)
	token = strings.TrimSpace(strings.TrimSuffix(token, titleSuffix))
	token = strings.TrimSpace(strings.TrimSuffix(token, ")"))
	return grammar.ParseJLPTLevel(token)
}

// Examples pairs each Japanese example sentence with its English counterpart.
func Examples(doc *goquery.Document) []string {
	english := doc.Find(selectorExampleEn)
	var out []string
	doc.Find(selectorExampleJa).Each(func(i int, s *goquery.Selection) {
		ja := strings.Join(strings.Fields(s.Text()), "")
		if ja == "" {
			return
		}
		if i < english.Length() {
			if en := strings.Join(strings.Fields(english.Eq(i).Text()), " "); en != "" {
				ja += "\n" + en
			}
		}
		out = append(out, ja)
	})
	return out
}

func (e *Extractor) explanation(doc *goquery.Document, title string) string {
	writeup := doc.Find(selectorWriteup).First()
	if writeup.Length() == 0 {
		e.logger.Warn("Could not find explanation block", zap.String("title", title))
		return ExplanationUnavailable
	}
	body := writeup.Clone()
	body.Find(selectorExampleJa + ", " + selectorExampleEn).Remove()
	return JoinText(body.Nodes...)
}

func (e *Extractor) link(doc *goquery.Document, title string) string {
	href, ok := doc.Find(selectorCanonical).First().Attr("href")
	if !ok {
		e.logger.Warn("Missing canonical link", zap.String("title", title))
		return ""
	}
	return strings.TrimSpace(href)
}

// JoinText joins every non-blank text node under nodes with single spaces.
func JoinText(nodes ...*html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
