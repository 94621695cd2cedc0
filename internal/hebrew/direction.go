package hebrew

import (
	"github.com/shopspring/decimal"

	"github.com/yn6733212/Market-Snapshot/internal/model"
)

// Gender selects the grammatical agreement of a phrase.
type Gender int

const (
	Masculine Gender = iota
	Feminine
)

func (g Gender) String() string {
	if g == Feminine {
		return "feminine"
	}
	return "masculine"
}

// Forms holds a phrase in both genders, indexed by Gender.
type Forms [2]string

// For returns the form agreeing with g.
func (f Forms) For(g Gender) string {
	return f[g]
}

// Movement is the kind of price move a phrase describes.
type Movement int

const (
	Unavailable Movement = iota
	Unchanged
	Rising
	Falling
	RisingSharply
	FallingSharply
	ContinuingUp
	ContinuingDown
)

func (m Movement) String() string {
	return [...]string{
		"unavailable", "unchanged", "rising", "falling",
		"rising_sharply", "falling_sharply", "continuing_up", "continuing_down",
	}[m]
}

// Table maps every movement to its gendered forms.
type Table map[Movement]Forms

// DefaultThreshold is the percent move from which the emphatic phrase is used.
const DefaultThreshold = 1.5

// UnavailableText is spoken when no change could be computed.
const UnavailableText = "לֹא זָמִין"

const sharply = " בְּצוּרָה דְּרָמָטִית"

// Present describes a market that is trading now.
var Present = Table{
	Unchanged:      {"לְלֹא שִׁינּוּי", "לְלֹא שִׁינּוּי"},
	Rising:         {"עוֹלֶה", "עוֹלָה"},
	Falling:        {"יוֹרֵד", "יוֹרֶדֶת"},
	RisingSharply:  {"עוֹלֶה" + sharply, "עוֹלָה" + sharply},
	FallingSharply: {"יוֹרֵד" + sharply, "יוֹרֶדֶת" + sharply},
	ContinuingUp:   {"מַמְשִׁיךְ לַעֲלוֹת", "מַמְשִׁיכָה לַעֲלוֹת"},
	ContinuingDown: {"מַמְשִׁיךְ לָרֶדֶת", "מַמְשִׁיכָה לָרֶדֶת"},
}

// Past describes a session that has already closed.
var Past = Table{
	Unchanged:      {"נוֹתַר לְלֹא שִׁינּוּי", "נוֹתְרָה לְלֹא שִׁינּוּי"},
	Rising:         {"עָלָה", "עָלְתָה"},
	Falling:        {"יָרַד", "יָרְדָה"},
	RisingSharply:  {"עָלָה" + sharply, "עָלְתָה" + sharply},
	FallingSharply: {"יָרַד" + sharply, "יָרְדָה" + sharply},
	ContinuingUp:   {"הִמְשִׁיךְ לַעֲלוֹת", "הִמְשִׁיכָה לַעֲלוֹת"},
	ContinuingDown: {"הִמְשִׁיךְ לָרֶדֶת", "הִמְשִׁיכָה לָרֶדֶת"},
}

// Currency describes the strength of a currency rather than its price.
var Currency = Table{
	Unchanged:      {"יַצִּיב", "יַצִּיבָה"},
	Rising:         {"מִתְחַזֵּק", "מִתְחַזֶּקֶת"},
	Falling:        {"נֶחֱלָשׁ", "נֶחֱלֶשֶׁת"},
	RisingSharply:  {"מִתְחַזֵּק" + sharply, "מִתְחַזֶּקֶת" + sharply},
	FallingSharply: {"נֶחֱלָשׁ" + sharply, "נֶחֱלֶשֶׁת" + sharply},
	ContinuingUp:   {"מַמְשִׁיךְ לְהִתְחַזֵּק", "מַמְשִׁיכָה לְהִתְחַזֵּק"},
	ContinuingDown: {"מַמְשִׁיךְ לְהֵיחָלֵשׁ", "מַמְשִׁיכָה לְהֵיחָלֵשׁ"},
}

// Classify picks the movement for a change. A trend wins over magnitude;
// magnitude at or above threshold is emphatic.
func Classify(change decimal.NullDecimal, trend model.Trend, threshold float64) Movement {
	if !change.Valid {
		return Unavailable
	}
	switch trend {
	case model.TrendRising:
		return ContinuingUp
	case model.TrendFalling:
		return ContinuingDown
	}

	pct := change.Decimal
	if pct.IsZero() {
		return Unchanged
	}
	sharp := pct.Abs().GreaterThanOrEqual(decimal.NewFromFloat(threshold))
	switch {
	case pct.IsPositive() && sharp:
		return RisingSharply
	case pct.IsPositive():
		return Rising
	case sharp:
		return FallingSharply
	default:
		return Falling
	}
}

// Phrase returns the verb phrase for a change in the given table and gender,
// along with the movement it was classified as. Without a change the phrase
// is always UnavailableText.
func Phrase(table Table, change decimal.NullDecimal, trend model.Trend, threshold float64, g Gender) (string, Movement) {
	m := Classify(change, trend, threshold)
	if m == Unavailable {
		return UnavailableText, m
	}
	return table[m].For(g), m
}
