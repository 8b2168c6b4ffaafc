package bot

import (
	"slices"
	"strconv"
	"strings"

	"github.com/chiahsuan/eatwhat-linebot-go/internal/storage"
)

// weekdayNames maps weekday integers 0(Sunday)..6(Saturday) to the
// single-character Chinese names used in replies.
var weekdayNames = [7]string{"日", "一", "二", "三", "四", "五", "六"}

// Render formats one shop record for a reply:
//
//	"鼎泰豐 （休：日、六，機率：0.5）"
//
// The closed-days clause is omitted entirely when the shop has none.
// The space before the full-width parenthesis is load-bearing: the LINE
// client splits tappable text on it. Keep it exactly as is.
func Render(shop *storage.Shop) string {
	var b strings.Builder
	b.WriteString(shop.Name)
	b.WriteString(" （")
	if len(shop.ClosedDays) > 0 {
		b.WriteString("休：")
		b.WriteString(joinWeekdays(shop.ClosedDays))
		b.WriteString("，")
	}
	b.WriteString("機率：")
	b.WriteString(FormatRate(shop.Rate))
	b.WriteString("）")
	return b.String()
}

// RenderList renders shops one per line.
func RenderList(shops []storage.Shop) string {
	lines := make([]string, len(shops))
	for i := range shops {
		lines[i] = Render(&shops[i])
	}
	return strings.Join(lines, "\n")
}

// DumpLine renders a shop back into the add-command syntax that recreates
// it, e.g. "可吃 鼎泰豐 -06 .5". Rates outside (0,1) cannot be expressed as
// a "."-prefixed token, so only those inside the interval get a rate suffix.
func DumpLine(shop *storage.Shop) string {
	parts := []string{KeywordAdd, shop.Name}
	if len(shop.ClosedDays) > 0 {
		var digits strings.Builder
		digits.WriteByte('-')
		for _, d := range sortedDays(shop.ClosedDays) {
			digits.WriteByte(byte('0' + d))
		}
		parts = append(parts, digits.String())
	}
	if shop.Rate > 0 && shop.Rate < 1 {
		// Decimal notation here, not FormatRate: 'g' switches to exponent
		// form below 1e-4 and "1e-05" is not a valid rate token.
		fixed := strconv.FormatFloat(shop.Rate, 'f', -1, 64)
		parts = append(parts, strings.TrimPrefix(fixed, "0"))
	}
	return strings.Join(parts, " ")
}

// FormatRate renders a rate without a trailing fraction for whole numbers.
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'g', -1, 64)
}

func joinWeekdays(days []int) string {
	names := make([]string, 0, len(days))
	for _, d := range sortedDays(days) {
		if d >= 0 && d < len(weekdayNames) {
			names = append(names, weekdayNames[d])
		}
	}
	return strings.Join(names, "、")
}

func sortedDays(days []int) []int {
	sorted := make([]int, len(days))
	copy(sorted, days)
	slices.Sort(sorted)
	return sorted
}
