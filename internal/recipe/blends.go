package recipe

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/oolongworks/teausage/internal/domain"
)

// blendTolerance is the allowed drift of blend weight sums from 1.0.
const blendTolerance = 1e-6

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// NormKey lowercases a label and collapses punctuation/spacing into
// underscores, matching the reference-table key convention.
func NormKey(v string) string {
	s := strings.ToLower(strings.TrimSpace(v))
	s = nonKeyChars.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// MenuEntry is the menu-level rule for one item: its default tea base
// (single tea or weighted blend) and whether a customer tea choice is
// required.
type MenuEntry struct {
	CategoryKey       string
	ItemKey           string
	DefaultBlend      []domain.BlendComponent
	RequiresTeaChoice bool
}

// Menu maps (category, item) keys to menu entries. Read-only after load.
type Menu struct {
	entries map[string]MenuEntry
}

func menuKey(categoryKey, itemKey string) string {
	return categoryKey + "\x00" + itemKey
}

// NewMenu indexes the given entries. Blend weights are validated here:
// a configured blend whose weights do not sum to 1.0 is a load-time
// configuration error, not a per-row condition.
func NewMenu(entries []MenuEntry) (*Menu, error) {
	idx := make(map[string]MenuEntry, len(entries))
	for _, e := range entries {
		if len(e.DefaultBlend) > 0 {
			var sum float64
			for _, bc := range e.DefaultBlend {
				if bc.Weight < 0 {
					return nil, &domain.ConfigurationError{
						Field:  fmt.Sprintf("blend %s/%s component %s", e.CategoryKey, e.ItemKey, bc.Tea),
						Reason: "has negative weight",
					}
				}
				sum += bc.Weight
			}
			if math.Abs(sum-1.0) > blendTolerance {
				return nil, &domain.ConfigurationError{
					Field:  fmt.Sprintf("blend %s/%s", e.CategoryKey, e.ItemKey),
					Reason: fmt.Sprintf("weights sum to %g, want 1", sum),
				}
			}
		}
		idx[menuKey(e.CategoryKey, e.ItemKey)] = e
	}
	return &Menu{entries: idx}, nil
}

// Lookup returns the menu entry for normalized category/item keys.
func (m *Menu) Lookup(categoryKey, itemKey string) (MenuEntry, bool) {
	e, ok := m.entries[menuKey(categoryKey, itemKey)]
	return e, ok
}

// Len reports the number of menu entries.
func (m *Menu) Len() int { return len(m.entries) }

// ParseBlend parses a "tea:weight|tea:weight" blend string into normalized
// components. A bare tea name means weight 1. Weights are re-normalized so
// they always sum to 1.0; an empty or weightless string yields nil.
func ParseBlend(s string) []domain.BlendComponent {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	comps := make([]domain.BlendComponent, 0, len(parts))
	for _, part := range parts {
		tok := strings.TrimSpace(part)
		if tok == "" {
			continue
		}
		name := tok
		weight := 1.0
		if idx := strings.Index(tok, ":"); idx >= 0 {
			name = strings.TrimSpace(tok[:idx])
			w := strings.TrimSpace(tok[idx+1:])
			if w == "" {
				weight = 0
			} else if parsed, err := strconv.ParseFloat(w, 64); err == nil {
				weight = parsed
			} else {
				weight = 0
			}
		}
		if name == "" {
			continue
		}
		comps = append(comps, domain.BlendComponent{Tea: name, Weight: weight})
	}
	if len(comps) == 0 {
		return nil
	}
	var total float64
	for _, c := range comps {
		total += c.Weight
	}
	if total <= 0 {
		// Degenerate weights: fall back to an even split.
		for i := range comps {
			comps[i].Weight = 1.0 / float64(len(comps))
		}
		return comps
	}
	for i := range comps {
		comps[i].Weight /= total
	}
	return comps
}

// FormatBlend renders components back into the canonical deterministic
// "tea:weight|tea:weight" form, sorted by tea name.
func FormatBlend(comps []domain.BlendComponent) string {
	if len(comps) == 0 {
		return ""
	}
	sorted := make([]domain.BlendComponent, len(comps))
	copy(sorted, comps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tea < sorted[j].Tea })
	parts := make([]string, 0, len(sorted))
	for _, c := range sorted {
		parts = append(parts, c.Tea+":"+strconv.FormatFloat(c.Weight, 'g', -1, 64))
	}
	return strings.Join(parts, "|")
}
