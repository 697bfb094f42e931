// Package dedupe collapses near-duplicate entities coming from different
// providers under one canonical record.
package dedupe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

// DefaultLengthDelta is the maximum normalized-name length difference under
// which a shorter new name still matches a longer already-kept one.
const DefaultLengthDelta = 3

// foldDiacritics strips combining marks so "Cathédrale" and "Cathedrale"
// normalize identically.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Deduplicator removes near-duplicate entities while preserving input order.
type Deduplicator struct {
	lengthDelta int
}

// New creates a Deduplicator. A non-positive lengthDelta falls back to the
// default.
func New(lengthDelta int) *Deduplicator {
	if lengthDelta <= 0 {
		lengthDelta = DefaultLengthDelta
	}
	return &Deduplicator{lengthDelta: lengthDelta}
}

// Normalize lowercases, folds diacritics, drops punctuation, and collapses
// whitespace, so "Temple A (Annex)" and "Temple A Annex" compare equal.
func Normalize(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}
	folded = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// same reports whether a newly seen normalized name refers to an
// already-kept place. A kept name contained in the new one always matches,
// so "Temple A" absorbs every longer "Temple A ..." variant. The reverse
// direction matches only within a small length difference, which keeps a
// late short name like "Temple" from collapsing into "Temple of the Tooth".
func (d *Deduplicator) same(name, seen string) bool {
	if strings.Contains(name, seen) {
		return true
	}
	diff := len(name) - len(seen)
	if diff < 0 {
		diff = -diff
	}
	return diff < d.lengthDelta && strings.Contains(seen, name)
}

// Run returns entities with near-duplicates removed. The first occurrence
// wins and survivors keep their input order, so upstream source priority
// (LLM results ahead of structured API results) carries through unchanged.
func (d *Deduplicator) Run(entities []model.Entity) []model.Entity {
	if len(entities) < 2 {
		return entities
	}

	kept := make([]model.Entity, 0, len(entities))
	keptNames := make([]string, 0, len(entities))

	for _, e := range entities {
		name := Normalize(e.Name)
		dup := false
		for _, seen := range keptNames {
			if d.same(name, seen) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, e)
		keptNames = append(keptNames, name)
	}

	return kept
}
