package bot

import (
	"strconv"
	"strings"

	"github.com/chiahsuan/eatwhat-linebot-go/internal/sliceutil"
)

// Options are the decoded shop modifiers of an add/update command.
type Options struct {
	// ClosedDays are the weekdays (0=Sunday..6=Saturday) the shop is
	// excluded from today-scoped recommendations. Empty by default.
	ClosedDays []int
	// Rate is the acceptance probability weight, default 1.
	Rate float64
}

// ParseOptions decodes modifier tokens into structured options.
//
//   - a token starting with "-" encodes closed days: each digit of the
//     remainder is taken modulo 7, non-digit runes are dropped, duplicates
//     collapse ("-135" -> [1 3 5])
//   - a token starting with "." encodes the rate and is parsed as a decimal
//     number (".5" -> 0.5); a token that does not parse keeps the default
//
// Decoding never fails: malformed input degrades to the defaults
// (no closed days, rate 1).
func ParseOptions(tokens []string) Options {
	opts := Options{Rate: 1}
	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok, "-"):
			opts.ClosedDays = parseClosedDays(tok[1:])
		case strings.HasPrefix(tok, "."):
			if rate, err := strconv.ParseFloat(tok, 64); err == nil {
				opts.Rate = rate
			}
		}
	}
	return opts
}

func parseClosedDays(s string) []int {
	days := make([]int, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			days = append(days, int(r-'0')%7)
		}
	}
	if len(days) == 0 {
		return nil
	}
	return sliceutil.Deduplicate(days, func(d int) int { return d })
}
