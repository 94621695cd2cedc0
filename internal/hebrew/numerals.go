// Package hebrew renders numbers, clock times and price movements as spoken
// Hebrew. Number words are unpointed; fixed phrases carry niqqud so the
// speech engine reads them unambiguously.
package hebrew

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumber is returned for NaN and infinite input.
var ErrInvalidNumber = errors.New("hebrew: number is not finite")

const (
	wordZero  = "אפס"
	wordPoint = "נקודה"
	wordMinus = "מינוס"
	conj      = "ו"
)

var (
	feminineUnits  = [...]string{"", "אחת", "שתיים", "שלוש", "ארבע", "חמש", "שש", "שבע", "שמונה", "תשע"}
	feminineTeens  = [...]string{"עשר", "אחת עשרה", "שתים עשרה", "שלוש עשרה", "ארבע עשרה", "חמש עשרה", "שש עשרה", "שבע עשרה", "שמונה עשרה", "תשע עשרה"}
	masculineUnits = [...]string{"", "אחד", "שניים", "שלושה", "ארבעה", "חמישה", "שישה", "שבעה", "שמונה", "תשעה"}
	masculineTeens = [...]string{"עשרה", "אחד עשר", "שנים עשר", "שלושה עשר", "ארבעה עשר", "חמישה עשר", "שישה עשר", "שבעה עשר", "שמונה עשר", "תשעה עשר"}
	tensWords      = [...]string{"", "", "עשרים", "שלושים", "ארבעים", "חמישים", "שישים", "שבעים", "שמונים", "תשעים"}
	hundredsWords  = [...]string{"", "מאה", "מאתיים", "שלוש מאות", "ארבע מאות", "חמש מאות", "שש מאות", "שבע מאות", "שמונה מאות", "תשע מאות"}
	thousandsWords = [...]string{"", "אלף", "אלפיים", "שלושת אלפים", "ארבעת אלפים", "חמשת אלפים", "ששת אלפים", "שבעת אלפים", "שמונת אלפים", "תשעת אלפים", "עשרת אלפים"}
)

// Multiples of the largest scale are spelled recursively, so any magnitude
// reads as "<n> טריליון".
var scales = []struct {
	size int64
	one  string
	two  string
}{
	{1_000_000_000_000, "טריליון", "שני טריליון"},
	{1_000_000_000, "מיליארד", "שני מיליארד"},
	{1_000_000, "מיליון", "שני מיליון"},
}

var (
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
	topScale = big.NewInt(scales[0].size)
)

// Verbalize spells x in Hebrew words.
//
// The value is rounded to two decimals first. Four-digit magnitudes and up
// are spoken as whole numbers, three-digit magnitudes keep one decimal and
// smaller values keep two. Decimals are read digit by digit:
// 12.34 -> "שתים עשרה נקודה שלוש ארבע".
func Verbalize(x float64) (string, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", fmt.Errorf("%w: %v", ErrInvalidNumber, x)
	}
	return VerbalizeDecimal(decimal.NewFromFloat(x)), nil
}

// VerbalizeDecimal is Verbalize for values that are already decimals.
func VerbalizeDecimal(d decimal.Decimal) string {
	d = d.Round(2)
	if d.IsNegative() {
		return wordMinus + " " + VerbalizeDecimal(d.Neg())
	}

	whole := d.Truncate(0)
	switch {
	case whole.GreaterThanOrEqual(thousand):
		return cardinal(d.Round(0).BigInt())
	case whole.GreaterThanOrEqual(hundred):
		d = d.Round(1)
		if d.GreaterThanOrEqual(thousand) {
			return cardinal(d.BigInt())
		}
	}

	words := Cardinal(d.IntPart())
	frac := d.Sub(d.Truncate(0))
	if frac.IsZero() {
		return words
	}
	digits := strings.TrimRight(frac.StringFixed(2)[2:], "0")
	spoken := make([]string, 0, len(digits))
	for _, r := range digits {
		spoken = append(spoken, digitWord(int(r-'0')))
	}
	return words + " " + wordPoint + " " + strings.Join(spoken, " ")
}

// Cardinal spells a whole number in the feminine counting form.
func Cardinal(n int64) string {
	return cardinal(big.NewInt(n))
}

func cardinal(n *big.Int) string {
	if n.Sign() < 0 {
		return wordMinus + " " + cardinal(new(big.Int).Neg(n))
	}
	return spellBig(n, false)
}

// spellBig handles values past int64 by splitting off whole trillions.
func spellBig(n *big.Int, masculine bool) string {
	if n.IsInt64() {
		return spell(n.Int64(), masculine)
	}
	q, r := new(big.Int).QuoRem(n, topScale, new(big.Int))
	parts := []string{spellBig(q, true) + " " + scales[0].one}
	if r.Sign() > 0 {
		parts = append(parts, groups(r.Int64(), masculine)...)
		parts[len(parts)-1] = conj + parts[len(parts)-1]
	}
	return strings.Join(parts, " ")
}

func digitWord(d int) string {
	if d == 0 {
		return wordZero
	}
	return feminineUnits[d]
}

func spell(n int64, masculine bool) string {
	if n == 0 {
		return wordZero
	}
	parts := groups(n, masculine)
	if len(parts) > 1 {
		parts[len(parts)-1] = conj + parts[len(parts)-1]
	}
	return strings.Join(parts, " ")
}

// groups splits n into spoken elements; the caller attaches the conjunction
// to the last one.
func groups(n int64, masculine bool) []string {
	var parts []string
	for _, s := range scales {
		q := n / s.size
		n %= s.size
		switch {
		case q == 0:
		case q == 1:
			parts = append(parts, s.one)
		case q == 2:
			parts = append(parts, s.two)
		default:
			parts = append(parts, spell(q, true)+" "+s.one)
		}
	}

	if q := n / 1000; q > 0 {
		if q <= 10 {
			parts = append(parts, thousandsWords[q])
		} else {
			parts = append(parts, spell(q, true)+" "+thousandsWords[1])
		}
		n %= 1000
	}

	return append(parts, belowThousand(int(n), masculine)...)
}

func belowThousand(n int, masculine bool) []string {
	units, teens := feminineUnits, feminineTeens
	if masculine {
		units, teens = masculineUnits, masculineTeens
	}

	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, hundredsWords[h])
	}
	r := n % 100
	switch {
	case r == 0:
	case r < 10:
		parts = append(parts, units[r])
	case r < 20:
		parts = append(parts, teens[r-10])
	default:
		parts = append(parts, tensWords[r/10])
		if u := r % 10; u > 0 {
			parts = append(parts, units[u])
		}
	}
	return parts
}
