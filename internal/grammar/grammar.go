// Package grammar defines the dictionary records derived from grammar-point
// pages and the closed taxonomies they are tagged with.
package grammar

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPartOfSpeech reports a part-of-speech label outside the known taxonomy.
	ErrUnknownPartOfSpeech = errors.New("unknown part of speech")
	// ErrUnknownJLPTLevel reports a JLPT token outside N0..N5.
	ErrUnknownJLPTLevel = errors.New("unknown JLPT level")
)

// PartOfSpeech is a Yomitan rule/part-of-speech tag.
type PartOfSpeech string

// Part-of-speech tags emitted into term banks.
const (
	// PartOfSpeechUnknown marks pages that carry no part-of-speech row at all.
	PartOfSpeechUnknown       PartOfSpeech = ""
	PartOfSpeechAdjectiveNa   PartOfSpeech = "adj-na"
	PartOfSpeechAdverb        PartOfSpeech = "adv"
	PartOfSpeechAuxiliaryVerb PartOfSpeech = "aux-v"
	PartOfSpeechParticle      PartOfSpeech = "prt"
	PartOfSpeechExpression    PartOfSpeech = "exp"
	PartOfSpeechNoun          PartOfSpeech = "n"
	PartOfSpeechPronoun       PartOfSpeech = "pn"
	PartOfSpeechVerb          PartOfSpeech = "v-unspec"
)

// partOfSpeechLabels maps the site's labels onto tags. New labels must be added
// here explicitly; ParsePartOfSpeech refuses anything else.
var partOfSpeechLabels = map[string]PartOfSpeech{
	"Adjective":                PartOfSpeechAdjectiveNa,
	"Adjective + Conjunctions": PartOfSpeechAdjectiveNa,
	"Adverb":                   PartOfSpeechAdverb,
	"Auxiliary Verb":           PartOfSpeechAuxiliaryVerb,
	"Conjunctive Particle":     PartOfSpeechParticle,
	"Expression":               PartOfSpeechExpression,
	"Fixed Adjective":          PartOfSpeechAdjectiveNa,
	"Noun":                     PartOfSpeechNoun,
	"Particle":                 PartOfSpeechParticle,
	"Pronoun":                  PartOfSpeechPronoun,
	"Verb":                     PartOfSpeechVerb,
}

// ParsePartOfSpeech maps a site label to its tag.
func ParsePartOfSpeech(label string) (PartOfSpeech, error) {
	pos, ok := partOfSpeechLabels[label]
	if !ok {
		return PartOfSpeechUnknown, fmt.Errorf("%w: %q", ErrUnknownPartOfSpeech, label)
	}
	return pos, nil
}

var partOfSpeechNames = map[PartOfSpeech]string{
	PartOfSpeechAdjectiveNa:   "na-adjective",
	PartOfSpeechAdverb:        "adverb",
	PartOfSpeechAuxiliaryVerb: "auxiliary verb",
	PartOfSpeechParticle:      "particle",
	PartOfSpeechExpression:    "expression",
	PartOfSpeechNoun:          "noun",
	PartOfSpeechPronoun:       "pronoun",
	PartOfSpeechVerb:          "verb",
}

// Label is a short English description of the tag, used in tag banks.
func (p PartOfSpeech) Label() string {
	if name, ok := partOfSpeechNames[p]; ok {
		return name
	}
	return "unknown"
}

// PartsOfSpeech lists every tag a parsed label can produce, in a stable order.
func PartsOfSpeech() []PartOfSpeech {
	return []PartOfSpeech{
		PartOfSpeechAdjectiveNa,
		PartOfSpeechAdverb,
		PartOfSpeechAuxiliaryVerb,
		PartOfSpeechParticle,
		PartOfSpeechExpression,
		PartOfSpeechNoun,
		PartOfSpeechPronoun,
		PartOfSpeechVerb,
	}
}

// JLPTLevel is one of the six proficiency tiers.
type JLPTLevel string

// JLPT levels, N0 hardest through N5 easiest.
const (
	JLPTN0 JLPTLevel = "N0"
	JLPTN1 JLPTLevel = "N1"
	JLPTN2 JLPTLevel = "N2"
	JLPTN3 JLPTLevel = "N3"
	JLPTN4 JLPTLevel = "N4"
	JLPTN5 JLPTLevel = "N5"
)

// JLPTLevels returns all levels from hardest to easiest.
func JLPTLevels() []JLPTLevel {
	return []JLPTLevel{JLPTN0, JLPTN1, JLPTN2, JLPTN3, JLPTN4, JLPTN5}
}

// ParseJLPTLevel validates a level token such as "N4".
func ParseJLPTLevel(token string) (JLPTLevel, error) {
	for _, level := range JLPTLevels() {
		if string(level) == token {
			return level, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJLPTLevel, token)
}

// Entry is one grammar point as extracted from a stored page. Subject may be
// compound, joined by a middle dot.
type Entry struct {
	Subject      string
	Reading      string
	PartOfSpeech PartOfSpeech
	Definition   string
	Explanation  string
	Examples     []string
	Link         string
	JLPT         JLPTLevel
}

// ExpandedEntry is an Entry carrying exactly one headword.
type ExpandedEntry struct {
	Entry
}
