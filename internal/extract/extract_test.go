package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/bunpro-yomitan/internal/grammar"
)

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	// #nosec G304 -- fixtures live in testdata.
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func parse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestExtractFullPage(t *testing.T) {
	doc := loadFixture(t, "taberu.html")
	entry, err := New(nil).Extract(doc)
	require.NoError(t, err)

	assert.Equal(t, grammar.Entry{
		Subject:      "食べる・食う",
		Reading:      "食べる・食う",
		PartOfSpeech: grammar.PartOfSpeechVerb,
		Definition:   "To eat, to consume",
		Explanation:  "食べる is the most common verb for eating. 食う is a rougher casual variant.",
		Examples: []string{
			"りんごを食べる。\nI eat an apple.",
			"飯を食う。\nI eat a meal.",
		},
		Link: "https://bunpro.jp/grammar_points/食べる",
		JLPT: grammar.JLPTN4,
	}, entry)
}

func TestExtractIsIdempotent(t *testing.T) {
	doc := loadFixture(t, "taberu.html")
	x := New(nil)
	first, err := x.Extract(doc)
	require.NoError(t, err)
	second, err := x.Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, doc.Find(selectorExampleJa).Length(), "source document must not be mutated")
}

func TestExtractUnknownJLPTLevel(t *testing.T) {
	_, err := New(nil).Extract(loadFixture(t, "unknown_level.html"))
	assert.ErrorIs(t, err, grammar.ErrUnknownJLPTLevel)
}

func TestExtractBarePageUsesFallbacks(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	entry, err := New(zap.New(core)).Extract(loadFixture(t, "bare.html"))
	require.NoError(t, err)

	assert.Equal(t, "+だ", entry.Subject)
	assert.Equal(t, grammar.PartOfSpeechUnknown, entry.PartOfSpeech)
	assert.Equal(t, "()", entry.Definition)
	assert.Equal(t, ExplanationUnavailable, entry.Explanation)
	assert.Empty(t, entry.Link)
	assert.Empty(t, entry.Examples)
	assert.Equal(t, grammar.JLPTN5, entry.JLPT)
	assert.Equal(t, 1, logs.FilterMessage("Could not find explanation block").Len())
	assert.Equal(t, 1, logs.FilterMessage("Missing canonical link").Len())
}

func TestExtractUnknownPartOfSpeech(t *testing.T) {
	doc := parse(t, `<html><head><title>よ (JLPT N5) | Bunpro</title></head>
<body><h1>よ</h1><ul><li><h4>Part of Speech</h4><p>Interjection</p></li></ul></body></html>`)
	_, err := New(nil).Extract(doc)
	assert.ErrorIs(t, err, grammar.ErrUnknownPartOfSpeech)
}

func TestJLPTLevel(t *testing.T) {
	tests := []struct {
		title string
		want  grammar.JLPTLevel
		err   error
	}{
		{"だ (JLPT N5) | Bunpro", grammar.JLPTN5, nil},
		{"ても (JLPT N4) | Bunpro", grammar.JLPTN4, nil},
		{"ものの (JLPT N0) | Bunpro", grammar.JLPTN0, nil},
		{"だ (JLPT N9) | Bunpro", "", grammar.ErrUnknownJLPTLevel},
		{"だ | Bunpro", "", grammar.ErrUnknownJLPTLevel},
		{"", "", grammar.ErrUnknownJLPTLevel},
	}
	for _, tt := range tests {
		got, err := JLPTLevel(tt.title)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.title)
			continue
		}
		require.NoError(t, err, tt.title)
		assert.Equal(t, tt.want, got, tt.title)
	}
}

func TestStripLatin(t *testing.T) {
	assert.Equal(t, "食べる・食う", StripLatin("Taberu,食べる・食う"))
	assert.Equal(t, "〜ても", StripLatin("〜ＴＥＭＯても，"))
	assert.Equal(t, "", StripLatin("Verb,"))
	assert.Equal(t, "(だ)", StripLatin("(だ)"))
}

func TestPartOfSpeechLabelPairsByPosition(t *testing.T) {
	doc := parse(t, `<ul>
<li><h4>Register</h4><p>Standard</p></li>
<li><h4>Part of Speech</h4><p> Particle </p></li>
</ul>`)
	label, ok := PartOfSpeechLabel(doc)
	require.True(t, ok)
	assert.Equal(t, "Particle", label)

	pos, err := PartOfSpeech(doc)
	require.NoError(t, err)
	assert.Equal(t, grammar.PartOfSpeechParticle, pos)
}

func TestJoinText(t *testing.T) {
	doc := parse(t, `<div id="x"> a <b>b</b>
<style>.x{}</style>  c </div>`)
	assert.Equal(t, "a b c", JoinText(doc.Find("#x").Nodes...))
	assert.Equal(t, "", JoinText())
}
