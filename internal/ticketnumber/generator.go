// Package ticketnumber formats the user-facing ticket number from a store-assigned sequence.
//
// Format: PREFIX-NNNNNN-XXXX, e.g. T-000042-9F1C. The sequence is the only
// uniqueness guarantee; the suffix makes numbers harder to guess.
package ticketnumber

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultPrefix = "T"
	suffixLength  = 4
	minDigits     = 6
)

// Sequencer hands out monotonically increasing values.
type Sequencer interface {
	NextSequence(ctx context.Context) (int64, error)
}

// Generator produces ticket numbers.
type Generator struct {
	sequencer Sequencer
	prefix    string
	suffix    func() string
}

// NewGenerator creates a generator backed by the given sequencer.
func NewGenerator(sequencer Sequencer, prefix string) *Generator {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultPrefix
	}
	return &Generator{sequencer: sequencer, prefix: prefix, suffix: randomSuffix}
}

// Next reserves the next sequence value and formats its number.
func (g *Generator) Next(ctx context.Context) (string, int64, error) {
	seq, err := g.sequencer.NextSequence(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("next ticket sequence: %w", err)
	}
	return g.Format(seq), seq, nil
}

// Format renders a number for an already reserved sequence value.
func (g *Generator) Format(seq int64) string {
	return fmt.Sprintf("%s-%0*d-%s", g.prefix, minDigits, seq, g.suffix())
}

var numberPattern = regexp.MustCompile(`^[A-Z]+-\d{6,}-[0-9A-Z]{4}$`)

// Valid reports whether s looks like a generated ticket number.
func Valid(s string) bool {
	return numberPattern.MatchString(s)
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength])
}
