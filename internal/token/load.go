package token

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oolongworks/teausage/internal/domain"
)

// LoadRules reads the modifier token map CSV. Expected columns:
// raw_token, token_type, canonical_value and an optional match column
// ("exact" or "contains", default exact). Row order is preserved because
// it is the rule precedence.
func LoadRules(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token map %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read token map header: %w", err)
	}
	col := indexColumns(header)
	for _, required := range []string{"raw_token", "token_type", "canonical_value"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("token map %s missing column %q", path, required)
		}
	}

	var rules []Rule
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read token map row: %w", err)
		}
		raw := strings.TrimSpace(field(record, col, "raw_token"))
		if raw == "" {
			continue
		}
		kind, err := parseKind(field(record, col, "token_type"))
		if err != nil {
			return nil, fmt.Errorf("token map %s: %w", path, err)
		}
		mode := MatchExact
		if strings.EqualFold(strings.TrimSpace(field(record, col, "match")), "contains") {
			mode = MatchContains
		}
		rules = append(rules, Rule{
			Pattern: raw,
			Mode:    mode,
			Kind:    kind,
			Value:   strings.TrimSpace(field(record, col, "canonical_value")),
		})
	}
	return rules, nil
}

func parseKind(s string) (domain.TokenKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ice":
		return domain.TokenIce, nil
	case "sugar":
		return domain.TokenSugar, nil
	case "topping":
		return domain.TokenTopping, nil
	case "tea_base", "tea_override":
		return domain.TokenTeaOverride, nil
	default:
		return domain.TokenUnknown, fmt.Errorf("unknown token_type %q", s)
	}
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
