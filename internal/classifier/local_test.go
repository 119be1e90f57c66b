package classifier

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mood-insights-go/internal/config"
	"mood-insights-go/internal/types"
)

func TestKeywordMelancholyIsSadness(t *testing.T) {
	k := NewKeyword(nil, rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		label, err := k.Classify(context.Background(), "A Melancholy evening by the sea")
		require.NoError(t, err)
		assert.Equal(t, "Sadness", label)
	}
}

func TestKeywordConquerBias(t *testing.T) {
	k := NewKeyword(nil, rand.NewPCG(3, 4))
	seen := map[string]int{}
	for i := 0; i < 300; i++ {
		label, err := k.Classify(context.Background(), "we will conquer this mountain")
		require.NoError(t, err)
		seen[label]++
	}
	for label := range seen {
		assert.Contains(t, []string{"Joy", "Excitement", "Anger"}, label)
	}
	assert.Len(t, seen, 3)
}

func TestKeywordFallbackStaysInVocabulary(t *testing.T) {
	lex := DefaultLexicon()
	k := NewKeyword(lex, rand.NewPCG(5, 6))
	for i := 0; i < 100; i++ {
		label, err := k.Classify(context.Background(), "the bus leaves at nine")
		require.NoError(t, err)
		assert.Contains(t, lex.Vocabulary, label)
	}
}

func TestKeywordFirstRuleWins(t *testing.T) {
	k := NewKeyword(nil, rand.NewPCG(7, 8))
	label, err := k.Classify(context.Background(), "i conquer my melancholy")
	require.NoError(t, err)
	assert.Equal(t, "Sadness", label)
}

func TestKeywordEmptyText(t *testing.T) {
	_, err := NewKeyword(nil, nil).Classify(context.Background(), " \t")
	assert.True(t, types.IsInvalidInput(err))
}

func TestKeywordConcurrentUse(t *testing.T) {
	k := NewKeyword(nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			label, err := k.Classify(context.Background(), "melancholy")
			assert.NoError(t, err)
			assert.Equal(t, "Sadness", label)
		}()
	}
	wg.Wait()
}

func TestNormalizeMood(t *testing.T) {
	for in, want := range map[string]string{
		"joy":        "Joy",
		"JOY":        "Joy",
		"  sadness ": "Sadness",
		"Calmness":   "Calmness",
		"pure bliss": "Pure Bliss",
	} {
		got, err := NormalizeMood(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeMood("")
	assert.True(t, types.IsInvalidInput(err))

	label, err := QuickMood{}.Classify(context.Background(), "anger")
	require.NoError(t, err)
	assert.Equal(t, "Anger", label)
}

func TestLoadLexicon(t *testing.T) {
	dir := t.TempDir()

	custom := filepath.Join(dir, "lexicon.yaml")
	require.NoError(t, os.WriteFile(custom, []byte(`
vocabulary: [Neutral]
rules:
  - name: sea
    keywords: [" OCEAN "]
    choices: [{label: Calmness, weight: 1}]
`), 0o644))
	lex, err := LoadLexicon(custom)
	require.NoError(t, err)
	assert.Equal(t, "sea", lex.Match("the Ocean at dawn").Name)
	assert.Nil(t, lex.Match("a desert"))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
vocabulary: [Neutral]
rules:
  - name: broken
    keywords: []
    choices: [{label: Joy, weight: 0}]
`), 0o644))
	_, err = LoadLexicon(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no keywords")
	assert.Contains(t, err.Error(), "invalid choice")

	_, err = LoadLexicon(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseLexicon([]byte("rules: []"))
	assert.Error(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(config.ClassifierConfig{Backend: "gemini", GeminiModel: "m"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Name())

	c, err = New(config.ClassifierConfig{Backend: "OpenAI"})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	c, err = New(config.ClassifierConfig{Backend: "local"})
	require.NoError(t, err)
	assert.Equal(t, "keyword", c.Name())

	c, err = New(config.ClassifierConfig{Backend: "gemini", UseMock: true})
	require.NoError(t, err)
	assert.Equal(t, "keyword", c.Name())

	_, err = New(config.ClassifierConfig{Backend: "bert"})
	assert.Error(t, err)

	_, err = New(config.ClassifierConfig{Backend: "local", LexiconPath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
