// Package planner turns the level -> grammar point mapping into scrape targets.
package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ErrConfig reports a missing or malformed level mapping file.
var ErrConfig = errors.New("level mapping unavailable")

// Target is one grammar-point page to fetch.
type Target struct {
	ID  string
	URL string
}

// Planner builds targets from a JSON mapping such as {"N5": ["だ", "です"]}.
type Planner struct {
	baseURL string
	logger  *zap.Logger
}

// New returns a Planner that prefixes identifiers with baseURL.
func New(baseURL string, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{baseURL: baseURL, logger: logger}
}

// Targets reads path and returns the targets of each requested level in file
// order. A missing or malformed file is logged and yields no targets.
func (p *Planner) Targets(path string, levels ...string) []Target {
	mapping, err := readMapping(path)
	if err != nil {
		p.logger.Error("Cannot plan targets", zap.String("path", path), zap.Error(err))
		return nil
	}

	var targets []Target
	for _, level := range levels {
		ids := mapping.GetStringSlice(level)
		if len(ids) == 0 {
			p.logger.Warn("No grammar points for level", zap.String("level", level), zap.String("path", path))
			continue
		}
		for _, id := range ids {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			targets = append(targets, Target{ID: id, URL: p.baseURL + id})
		}
	}
	p.logger.Info("Planned targets", zap.Strings("levels", levels), zap.Int("count", len(targets)))
	return targets
}

// Levels returns level names present in the mapping file, upper-cased.
func Levels(path string) ([]string, error) {
	mapping, err := readMapping(path)
	if err != nil {
		return nil, err
	}
	keys := mapping.AllKeys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.ToUpper(k))
	}
	return out, nil
}

func readMapping(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}
	return v, nil
}
