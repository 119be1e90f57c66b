package classifier

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"mood-insights-go/internal/types"
)

// Keyword is the local text classifier: lexicon rules bias a random draw.
type Keyword struct {
	lex *Lexicon

	mu  sync.Mutex
	rng *rand.Rand
}

// NewKeyword uses src for its draws; a nil src seeds from the clock.
func NewKeyword(lex *Lexicon, src rand.Source) *Keyword {
	if lex == nil {
		lex = DefaultLexicon()
	}
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>17|1)
	}
	return &Keyword{lex: lex, rng: rand.New(src)}
}

func (k *Keyword) Name() string { return "keyword" }

func (k *Keyword) Classify(_ context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", types.InvalidInput("classifier.keyword", "text is empty")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	rule := k.lex.Match(text)
	if rule == nil {
		return k.lex.Vocabulary[k.rng.IntN(len(k.lex.Vocabulary))], nil
	}

	total := 0
	for _, c := range rule.Choices {
		total += c.Weight
	}
	n := k.rng.IntN(total)
	for _, c := range rule.Choices {
		if n < c.Weight {
			return c.Label, nil
		}
		n -= c.Weight
	}
	return rule.Choices[len(rule.Choices)-1].Label, nil
}
