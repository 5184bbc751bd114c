// Package search ranks catalog items against free-text queries. Matching is
// pure: no I/O, no shared state, deterministic for equal inputs.
package search

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Scored pairs an item with its match score (0..100).
type Scored[T any] struct {
	Item  T
	Score int
}

// Simple returns the items whose field contains the query, case-insensitively.
func Simple[T any](query string, items []T, field func(T) string) []T {
	q := normalize(query)
	if q == "" {
		return nil
	}
	var out []T
	for _, it := range items {
		if strings.Contains(normalize(field(it)), q) {
			out = append(out, it)
		}
	}
	return out
}

// Fuzzy scores every item with the token-set ratio and returns those at or
// above threshold, best first. Ties keep input order.
func Fuzzy[T any](query string, items []T, field func(T) string, limit, threshold int) []Scored[T] {
	q := normalize(query)
	if q == "" {
		return nil
	}
	var out []Scored[T]
	for _, it := range items {
		if s := TokenSetRatio(q, field(it)); s >= threshold {
			out = append(out, Scored[T]{Item: it, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Hybrid combines three passes: exact substring matches on the primary field
// (score 100), fuzzy matches on the primary field over the synonym-expanded
// query, and fuzzy matches on the description field discounted to 80%.
// An item appearing in several passes keeps its best score.
func Hybrid[T any](query string, items []T, name, descr func(T) string, limit, threshold int) []Scored[T] {
	q := normalize(query)
	if q == "" {
		return nil
	}
	best := make(map[int]int) // item index -> best score
	order := make([]int, 0, len(items))
	record := func(idx, score int) {
		if cur, ok := best[idx]; ok {
			if score > cur {
				best[idx] = score
			}
			return
		}
		best[idx] = score
		order = append(order, idx)
	}

	for i, it := range items {
		if strings.Contains(normalize(name(it)), q) {
			record(i, 100)
		}
	}

	variants := Expand(query)
	for i, it := range items {
		target := name(it)
		top := 0
		for _, v := range variants {
			if s := TokenSetRatio(v, target); s > top {
				top = s
			}
		}
		if top >= threshold {
			record(i, top)
		}
	}

	if descr != nil {
		for i, it := range items {
			top := 0
			for _, v := range variants {
				if s := TokenSetRatio(v, descr(it)); s > top {
					top = s
				}
			}
			if s := top * 80 / 100; s >= threshold {
				record(i, s)
			}
		}
	}

	out := make([]Scored[T], 0, len(order))
	for _, idx := range order {
		out = append(out, Scored[T]{Item: items[idx], Score: best[idx]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TokenSetRatio compares two strings as sets of tokens: the shared tokens and
// each side's remainder are recombined and the best pairwise similarity wins.
// Word order and duplication do not affect the score.
func TokenSetRatio(a, b string) int {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	var inter, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	s1 := strings.Join(inter, " ")
	s2 := strings.TrimSpace(s1 + " " + strings.Join(onlyA, " "))
	s3 := strings.TrimSpace(s1 + " " + strings.Join(onlyB, " "))

	best := ratio(s2, s3)
	if s1 != "" {
		if r := ratio(s1, s2); r > best {
			best = r
		}
		if r := ratio(s1, s3); r > best {
			best = r
		}
	}
	return best
}

// ratio is a normalized Levenshtein similarity in 0..100.
func ratio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}

func normalize(s string) string { return join(tokens(s)) }

func join(toks []string) string { return strings.Join(toks, " ") }

// tokens lowercases and splits on anything that is not a letter or digit.
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !isWordRune(r)
	})
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, t := range tokens(s) {
		set[t] = struct{}{}
	}
	return set
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r >= 'а' && r <= 'я', r == 'ё':
		return true
	}
	return false
}
