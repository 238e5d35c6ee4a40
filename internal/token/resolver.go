package token

import (
	"strings"

	"github.com/oolongworks/teausage/internal/domain"
)

// MatchMode selects how a rule's pattern is compared against a token.
type MatchMode int

const (
	// MatchExact compares the whole normalized token.
	MatchExact MatchMode = iota
	// MatchContains matches when the normalized token contains the pattern.
	MatchContains
)

// Rule maps a raw-token pattern to a canonical (kind, value) pair.
type Rule struct {
	Pattern string
	Mode    MatchMode
	Kind    domain.TokenKind
	Value   string
}

// Resolver classifies raw modifier tokens against an ordered rule table.
// Rules are evaluated top to bottom and the first match wins, so more
// specific patterns must precede general ones. The table is immutable
// after construction and safe for concurrent readers.
type Resolver struct {
	rules []Rule
}

// NewResolver builds a resolver from the given rules. Patterns are
// normalized once here so Resolve only lower-cases the incoming token.
func NewResolver(rules []Rule) *Resolver {
	normalized := make([]Rule, len(rules))
	for i, r := range rules {
		r.Pattern = strings.ToLower(strings.TrimSpace(r.Pattern))
		normalized[i] = r
	}
	return &Resolver{rules: normalized}
}

// Resolve maps one raw token to a ModifierToken. Tokens that match no
// rule come back with kind unknown and the original text preserved;
// resolution never fails.
func (r *Resolver) Resolve(raw string) domain.ModifierToken {
	trimmed := strings.TrimSpace(raw)
	norm := strings.ToLower(trimmed)
	for _, rule := range r.rules {
		if rule.Pattern == "" {
			continue
		}
		var ok bool
		switch rule.Mode {
		case MatchContains:
			ok = strings.Contains(norm, rule.Pattern)
		default:
			ok = norm == rule.Pattern
		}
		if ok {
			return domain.ModifierToken{Raw: trimmed, Kind: rule.Kind, Value: rule.Value}
		}
	}
	return domain.ModifierToken{Raw: trimmed, Kind: domain.TokenUnknown, Value: trimmed}
}

// ResolveAll splits raw modifier text on commas and resolves each
// non-empty token in order.
func (r *Resolver) ResolveAll(modifiers string) []domain.ModifierToken {
	if strings.TrimSpace(modifiers) == "" {
		return nil
	}
	parts := strings.Split(modifiers, ",")
	tokens := make([]domain.ModifierToken, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		tokens = append(tokens, r.Resolve(part))
	}
	return tokens
}

// Len reports the number of rules in the table.
func (r *Resolver) Len() int { return len(r.rules) }
