package classifier

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// Lexicon is the ordered keyword rule set behind the Keyword classifier.
type Lexicon struct {
	Vocabulary []string `yaml:"vocabulary"`
	Rules      []Rule   `yaml:"rules"`
}

type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Choices  []Choice `yaml:"choices"`
}

type Choice struct {
	Label  string `yaml:"label"`
	Weight int    `yaml:"weight"`
}

// DefaultLexicon returns the embedded rule set.
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon(defaultLexicon)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lex
}

// LoadLexicon reads a YAML lexicon from path, or the embedded one when path
// is empty.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	lex, err := ParseLexicon(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, err
	}
	if len(lex.Vocabulary) == 0 {
		return nil, errors.New("vocabulary is empty")
	}

	var problems []string
	for i, r := range lex.Rules {
		if len(r.Keywords) == 0 {
			problems = append(problems, fmt.Sprintf("rule %d (%s) has no keywords", i, r.Name))
		}
		if len(r.Choices) == 0 {
			problems = append(problems, fmt.Sprintf("rule %d (%s) has no choices", i, r.Name))
		}
		for _, c := range r.Choices {
			if c.Label == "" || c.Weight <= 0 {
				problems = append(problems, fmt.Sprintf("rule %d (%s) has invalid choice %q/%d", i, r.Name, c.Label, c.Weight))
			}
		}
		for k, kw := range r.Keywords {
			lex.Rules[i].Keywords[k] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}
	return &lex, nil
}

// Match returns the first rule with a keyword contained in text, or nil.
func (l *Lexicon) Match(text string) *Rule {
	lower := strings.ToLower(text)
	for i := range l.Rules {
		for _, kw := range l.Rules[i].Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return &l.Rules[i]
			}
		}
	}
	return nil
}
