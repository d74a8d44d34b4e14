package recurring

import (
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
)

// LexiconEntry maps a case-insensitive description substring to a label.
type LexiconEntry struct {
	Match    string
	Label    string
	Priority int // higher priority entries are checked first
}

// Namer turns raw transaction descriptions into readable labels.
type Namer struct {
	labels  *cache.Cache
	entries []LexiconEntry
	mu      sync.RWMutex
}

// NewNamer creates a namer over entries.
func NewNamer(entries []LexiconEntry) *Namer {
	n := &Namer{
		labels: cache.New(30*time.Minute, time.Hour),
	}
	n.UpdateLexicon(entries)
	return n
}

// UpdateLexicon replaces the lexicon and drops memoized labels.
func (n *Namer) UpdateLexicon(entries []LexiconEntry) {
	sorted := make([]LexiconEntry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Match) == "" {
			continue
		}
		e.Match = strings.ToLower(e.Match)
		sorted = append(sorted, e)
	}

	// Priority first; among equals the longer, more specific match wins.
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return len(sorted[i].Match) > len(sorted[j].Match)
	})

	n.mu.Lock()
	n.entries = sorted
	n.mu.Unlock()
	n.labels.Flush()
}

// Name returns the lexicon label for description, or the description
// title-cased when nothing matches.
func (n *Namer) Name(description string) string {
	if label, ok := n.labels.Get(description); ok {
		return label.(string)
	}

	label := n.lookup(description)
	n.labels.SetDefault(description, label)
	return label
}

func (n *Namer) lookup(description string) string {
	lower := strings.ToLower(description)

	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, e := range n.entries {
		if strings.Contains(lower, e.Match) {
			return e.Label
		}
	}
	return TitleCase(description)
}

// TitleCase upper-cases the first letter of every whitespace-delimited
// token and lower-cases the rest.
func TitleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		r, size := utf8.DecodeRuneInString(f)
		fields[i] = string(unicode.ToUpper(r)) + strings.ToLower(f[size:])
	}
	return strings.Join(fields, " ")
}
