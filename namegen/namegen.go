// Package namegen generates alliterative "Adjective Noun" species names.
package namegen

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed words/adjectives.txt
var adjectivesTxt []byte

//go:embed words/nouns.txt
var nounsTxt []byte

// Generator picks names from word lists indexed by first letter.
// It is not safe for concurrent use.
type Generator struct {
	rng        *rand.Rand
	adjectives map[rune][]string
	nouns      map[rune][]string
	letters    []rune // letters present in both lists
	used       map[string]struct{}
}

// New creates a generator over the embedded word lists.
func New(rng *rand.Rand) *Generator {
	g, err := NewFromLists(rng, adjectivesTxt, nounsTxt)
	if err != nil {
		panic(fmt.Sprintf("namegen: embedded word lists: %v", err))
	}
	return g
}

// NewFromLists creates a generator from raw word list contents.
// Lines starting with '#' are comments and lines starting with '[' are
// section headers; both are skipped.
func NewFromLists(rng *rand.Rand, adjectives, nouns []byte) (*Generator, error) {
	g := &Generator{
		rng:        rng,
		adjectives: parseWords(adjectives),
		nouns:      parseWords(nouns),
		used:       make(map[string]struct{}),
	}
	for r := range g.adjectives {
		if len(g.nouns[r]) > 0 {
			g.letters = append(g.letters, r)
		}
	}
	if len(g.letters) == 0 {
		return nil, fmt.Errorf("no starting letter shared by adjectives and nouns")
	}
	// Map iteration order is random; sort so a seeded rng is reproducible.
	sort.Slice(g.letters, func(i, j int) bool { return g.letters[i] < g.letters[j] })
	return g, nil
}

func parseWords(data []byte) map[rune][]string {
	words := make(map[rune][]string)
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == '[' {
			continue
		}
		word := capitalize(line)
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		first, _ := utf8.DecodeRuneInString(word)
		key := unicode.ToLower(first)
		words[key] = append(words[key], word)
	}
	return words
}

// capitalize upper-cases the first letter of every space or hyphen separated part.
func capitalize(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if upper {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		upper = r == ' ' || r == '-'
	}
	return b.String()
}

// Random returns a name whose adjective and noun share a starting letter.
func (g *Generator) Random() string {
	letter := g.letters[g.rng.Intn(len(g.letters))]
	adj := g.adjectives[letter]
	noun := g.nouns[letter]
	return adj[g.rng.Intn(len(adj))] + " " + noun[g.rng.Intn(len(noun))]
}

// Capacity returns the number of distinct names the lists can produce.
func (g *Generator) Capacity() int {
	n := 0
	for _, r := range g.letters {
		n += len(g.adjectives[r]) * len(g.nouns[r])
	}
	return n
}

// UniqueRandom returns a name this generator has not returned from
// UniqueRandom before. Once every combination is taken, names get a
// numeric suffix.
func (g *Generator) UniqueRandom() string {
	if len(g.used) < g.Capacity() {
		for {
			name := g.Random()
			if _, taken := g.used[name]; !taken {
				g.used[name] = struct{}{}
				return name
			}
		}
	}
	base := g.Random()
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s %d", base, i)
		if _, taken := g.used[name]; !taken {
			g.used[name] = struct{}{}
			return name
		}
	}
}
