package recipe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/oolongworks/teausage/internal/domain"
)

var bucketColumns = map[string]int{
	"tea_base_ml_0":   0,
	"tea_base_ml_25":  25,
	"tea_base_ml_50":  50,
	"tea_base_ml_75":  75,
	"tea_base_ml_100": 100,
}

// LoadOverrides reads the recipe override table. Row order is preserved
// as the lookup tie-break. Malformed numeric cells fail the load; a recipe
// table with bad constants must not silently feed the volume math.
func LoadOverrides(path string) (*Table, error) {
	rows, col, err := readAll(path)
	if err != nil {
		return nil, err
	}
	for _, required := range []string{"category", "item_name", "ice"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("recipe table %s missing column %q", path, required)
		}
	}

	entries := make([]Override, 0, len(rows))
	for i, record := range rows {
		entry := Override{
			Category: strings.TrimSpace(field(record, col, "category")),
			ItemName: strings.TrimSpace(field(record, col, "item_name")),
		}
		if entry.Category == "" && entry.ItemName == "" {
			continue
		}

		switch ice := strings.ToLower(strings.TrimSpace(field(record, col, "ice"))); ice {
		case "", string(IcePerLevel):
			entry.Ice = IcePerLevel
		case string(IceForcedFull):
			entry.Ice = IceForcedFull
		case string(IceForcedNone):
			entry.Ice = IceForcedNone
		default:
			return nil, &domain.ConfigurationError{
				Field:  fmt.Sprintf("recipe row %d ice", i+2),
				Reason: fmt.Sprintf("unrecognized value %q", ice),
			}
		}

		if entry.TeaBaseMl, err = optionalMl(record, col, "tea_base_ml", i); err != nil {
			return nil, err
		}
		if entry.MilkMl, err = optionalMl(record, col, "milk_ml", i); err != nil {
			return nil, err
		}
		if ratio := strings.TrimSpace(field(record, col, "milk_ratio")); ratio != "" {
			v, err := strconv.ParseFloat(ratio, 64)
			if err != nil || v < 0 || v >= 1 {
				return nil, &domain.ConfigurationError{
					Field:  fmt.Sprintf("recipe row %d milk_ratio", i+2),
					Reason: fmt.Sprintf("invalid value %q", ratio),
				}
			}
			entry.MilkRatio = v
		}

		if toks := strings.TrimSpace(field(record, col, "match_tokens")); toks != "" {
			entry.MatchTokens = strings.Split(toks, "|")
		}

		for name, bucket := range bucketColumns {
			ml, err := optionalMl(record, col, name, i)
			if err != nil {
				return nil, err
			}
			if ml != nil {
				if entry.BucketTeaMl == nil {
					entry.BucketTeaMl = make(map[int]float64)
				}
				entry.BucketTeaMl[bucket] = *ml
			}
		}

		if entry.Forced() && entry.TeaBaseMl == nil {
			return nil, &domain.ConfigurationError{
				Field:  fmt.Sprintf("recipe row %d (%s)", i+2, entry.ItemName),
				Reason: "forced ice entry requires a flat tea_base_ml",
			}
		}

		entries = append(entries, entry)
	}
	return NewTable(entries), nil
}

// LoadMenu reads the item rule and blend rule tables into a Menu. Blend
// rules take precedence over an item's single default tea base, matching
// the documented resolution order.
func LoadMenu(itemRulesPath, blendRulesPath string) (*Menu, error) {
	itemRows, itemCol, err := readAll(itemRulesPath)
	if err != nil {
		return nil, err
	}
	blendRows, blendCol, err := readAll(blendRulesPath)
	if err != nil {
		return nil, err
	}

	type key struct{ cat, item string }
	blends := make(map[key][]domain.BlendComponent)
	for i, record := range blendRows {
		k := key{
			cat:  strings.TrimSpace(field(record, blendCol, "category_key")),
			item: strings.TrimSpace(field(record, blendCol, "item_key")),
		}
		tea := strings.TrimSpace(field(record, blendCol, "component_tea"))
		if tea == "" {
			continue
		}
		shareStr := strings.TrimSpace(field(record, blendCol, "share"))
		share, err := strconv.ParseFloat(shareStr, 64)
		if err != nil {
			return nil, &domain.ConfigurationError{
				Field:  fmt.Sprintf("blend rule row %d share", i+2),
				Reason: fmt.Sprintf("invalid value %q", shareStr),
			}
		}
		blends[k] = append(blends[k], domain.BlendComponent{Tea: tea, Weight: share})
	}

	entries := make([]MenuEntry, 0, len(itemRows))
	for _, record := range itemRows {
		e := MenuEntry{
			CategoryKey: strings.TrimSpace(field(record, itemCol, "category_key")),
			ItemKey:     strings.TrimSpace(field(record, itemCol, "item_key")),
		}
		if e.CategoryKey == "" && e.ItemKey == "" {
			continue
		}
		switch strings.TrimSpace(field(record, itemCol, "requires_tea_choice")) {
		case "1", "true", "TRUE", "True":
			e.RequiresTeaChoice = true
		}
		if blend, ok := blends[key{cat: e.CategoryKey, item: e.ItemKey}]; ok {
			e.DefaultBlend = blend
		} else if base := strings.TrimSpace(field(record, itemCol, "default_tea_base")); base != "" {
			e.DefaultBlend = ParseBlend(base)
		}
		entries = append(entries, e)
	}
	return NewMenu(entries)
}

func optionalMl(record []string, col map[string]int, name string, row int) (*float64, error) {
	s := strings.TrimSpace(field(record, col, name))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &domain.ConfigurationError{
			Field:  fmt.Sprintf("recipe row %d %s", row+2, name),
			Reason: fmt.Sprintf("invalid value %q", s),
		}
	}
	if v < 0 {
		return nil, &domain.ConfigurationError{
			Field:  fmt.Sprintf("recipe row %d %s", row+2, name),
			Reason: "must be non-negative",
		}
	}
	return &v, nil
}

// readAll slurps a reference CSV, returning its data rows and a
// lower-cased header index. Reference tables are small.
func readAll(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row of %s: %w", path, err)
		}
		rows = append(rows, record)
	}
	return rows, col, nil
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
