package canonical

import "sort"

// Audit accumulates unmapped modifier tokens over a pipeline pass. It is
// created by the orchestrating caller and handed to the Canonicalizer so
// there is no hidden process-wide state; re-running on identical input
// produces an identical accumulator.
type Audit struct {
	counts map[string]int
}

// NewAudit returns an empty accumulator.
func NewAudit() *Audit {
	return &Audit{counts: make(map[string]int)}
}

// Record counts one occurrence of an unmapped raw token.
func (a *Audit) Record(rawToken string) {
	a.counts[rawToken]++
}

// Count returns the occurrences seen for a raw token.
func (a *Audit) Count(rawToken string) int {
	return a.counts[rawToken]
}

// Total returns the total occurrences across all tokens.
func (a *Audit) Total() int {
	var n int
	for _, c := range a.counts {
		n += c
	}
	return n
}

// TokenCount pairs a raw token with its occurrence count.
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Sorted returns the accumulated counts ordered by descending count,
// then token, so the report is stable across runs.
func (a *Audit) Sorted() []TokenCount {
	out := make([]TokenCount, 0, len(a.counts))
	for tok, c := range a.counts {
		out = append(out, TokenCount{Token: tok, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	return out
}

// Merge folds another accumulator into this one.
func (a *Audit) Merge(other *Audit) {
	if other == nil {
		return
	}
	for tok, c := range other.counts {
		a.counts[tok] += c
	}
}
