package clean

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oolongworks/teausage/internal/domain"
)

// rewardItem is the loyalty redemption line as it appears in the export,
// mojibake included. Redemptions are free restocks of drinks already
// counted, so they only add clutter.
const rewardItem = "Free Drink (100â˜¼ Reward)"

var (
	cjkRe         = regexp.MustCompile(`[\x{3400}-\x{4DBF}\x{4E00}-\x{9FFF}\x{F900}-\x{FAFF}]`)
	spaceRe       = regexp.MustCompile(`\s+`)
	icePctRe      = regexp.MustCompile(`(?i)\b(\d{1,3})\s*%\s*ice\b`)
	sugarPctRe    = regexp.MustCompile(`(?i)\b(\d{1,3})\s*%\s*sugar\b`)
	noIceRe       = regexp.MustCompile(`(?i)\bno\s*ice\b`)
	noSugarRe     = regexp.MustCompile(`(?i)\bno\s*sugar\b`)
	anyIceTokenRe = regexp.MustCompile(`(?i)\b(?:no\s*ice|\d{1,3}\s*%\s*ice)\b`)
	hotCategoryRe = regexp.MustCompile(`(?i)\bhot\b`)
)

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// RawRecord is one row of the export before cleaning.
type RawRecord struct {
	Date          string
	TransactionID string
	Category      string
	Item          string
	Qty           string
	Modifiers     string
	EventType     string
}

// Stats counts what the cleaner kept and threw away.
type Stats struct {
	TotalRows     int     `json:"total_rows"`
	PaymentRows   int     `json:"payment_rows"`
	RefundRows    int     `json:"refund_rows"`
	RewardRows    int     `json:"reward_rows"`
	InvalidRows   int     `json:"invalid_rows"`
	HotNoIceRows  int     `json:"hot_no_ice_rows"`
	FixedIceRows  int     `json:"fixed_ice_rows"`
	PaymentQtySum float64 `json:"payment_qty_sum"`
}

// Cleaner filters a raw point-of-sale export down to sell-through demand
// rows and normalizes the fields the rest of the pipeline reads.
type Cleaner struct {
	fixedIceItems map[string]bool
}

// NewCleaner builds a cleaner. fixedIceItems lists drinks that are always
// made with full ice even when the register recorded no ice modifier.
func NewCleaner(fixedIceItems []string) *Cleaner {
	set := make(map[string]bool, len(fixedIceItems))
	for _, item := range fixedIceItems {
		set[item] = true
	}
	return &Cleaner{fixedIceItems: set}
}

// Clean transforms raw export rows into order lines. Rows with an
// unparsable date or quantity, refunds, and reward redemptions are
// dropped and counted in Stats.
func (c *Cleaner) Clean(records []RawRecord) ([]domain.RawOrderLine, Stats) {
	stats := Stats{TotalRows: len(records)}
	out := make([]domain.RawOrderLine, 0, len(records))

	for _, rec := range records {
		date, ok := parseDate(rec.Date)
		qty, qtyErr := strconv.ParseFloat(strings.TrimSpace(rec.Qty), 64)
		if !ok || qtyErr != nil {
			stats.InvalidRows++
			continue
		}

		event := strings.ToLower(strings.TrimSpace(rec.EventType))
		if event == "refund" || qty < 0 {
			stats.RefundRows++
			continue
		}
		if event != "payment" || qty == 0 {
			stats.InvalidRows++
			continue
		}
		stats.PaymentRows++
		stats.PaymentQtySum += qty

		item := stripCJK(rec.Item)
		if item == rewardItem {
			stats.RewardRows++
			continue
		}

		line := domain.RawOrderLine{
			OrderID:   strings.TrimSpace(rec.TransactionID),
			Date:      date,
			Category:  stripCJK(rec.Category),
			Item:      item,
			Qty:       qty,
			Modifiers: strings.TrimSpace(rec.Modifiers),
		}
		line.IcePct = extractPct(line.Modifiers, icePctRe, noIceRe)
		line.SugarPct = extractPct(line.Modifiers, sugarPctRe, noSugarRe)

		c.applyIceDefaults(&line, &stats)
		out = append(out, line)
	}
	return out, stats
}

// applyIceDefaults fills in ice settings the register leaves implicit:
// hot drinks are served without ice, and some blended drinks are always
// full ice. The modifier text is amended too so canonicalization sees a
// consistent story.
func (c *Cleaner) applyIceDefaults(line *domain.RawOrderLine, stats *Stats) {
	hasIceToken := anyIceTokenRe.MatchString(line.Modifiers)

	if hotCategoryRe.MatchString(line.Category) && !hasIceToken {
		line.Modifiers = appendModifier(line.Modifiers, "No Ice")
		zero := 0
		line.IcePct = &zero
		stats.HotNoIceRows++
		return
	}

	if c.fixedIceItems[line.Item] && line.IcePct == nil {
		full := 100
		line.IcePct = &full
		if !hasIceToken {
			line.Modifiers = appendModifier(line.Modifiers, "100% Ice")
		}
		stats.FixedIceRows++
	}
}

func stripCJK(s string) string {
	s = cjkRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// extractPct pulls "NN% ice"-style values out of modifier text. An
// explicit "no ..." token wins as zero regardless of position.
func extractPct(mods string, pctRe, noneRe *regexp.Regexp) *int {
	if noneRe.MatchString(mods) {
		zero := 0
		return &zero
	}
	m := pctRe.FindStringSubmatch(mods)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

func appendModifier(mods, extra string) string {
	if mods == "" {
		return extra
	}
	return mods + ", " + extra
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
