package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yn6733212/Market-Snapshot/internal/hebrew"
	"github.com/yn6733212/Market-Snapshot/internal/model"
)

const (
	headerFormat = "הִנֵה תְמוּנַת הַשׁוּק נָכוֹן לְשָׁעָה %s %s."

	titleIsrael      = "בְּיִשְׂרָאֵל:"
	titleWorld       = "בְּבוּרְסוֹת הָעוֹלָם:"
	titleEquities    = "בְּשׁוּק הַמְּנָיוֹת:"
	titleCrypto      = "בְּגִזְרַת הַקְּרִיפְּטוֹ:"
	titleCommodities = "עוֹד בָּעוֹלָם:"

	israelClosed     = "הַבּוּרְסָה נִסְגְּרָה."
	israelBeforeOpen = "בּוּרְסַת תֵּל אָבִיב טֶרֶם נִפְתְּחָה וּצְפוּיָה לְהִיפָּתַח %s."

	worldOpen    = "הַבּוּרְסוֹת פְּתוּחוֹת כָּעֵת לְמִסְחָר."
	worldPre     = "הַבּוּרְסוֹת טֶרֶם נִפְתְּחוּ, הַנְּתוּנִים מִתְיַחֲסִים לַמִּסְחָר הַמּוּקְדָּם לְפִי מָה שֶׁנִּרְשַׁם בִּתְעוּדוֹת הַסַּל שֶׁעוֹקְבוֹת אַחֲרֵי הַמַּדָּדִים."
	worldPost    = "הַבּוּרְסוֹת נִסְגְּרוּ, הַנְּתוּנִים מִתְיַחֲסִים לַמִּסְחָר הַמְּאוּחָר לְפִי מָה שֶׁנִּרְשַׁם בִּתְעוּדוֹת הַסַּל שֶׁעוֹקְבוֹת אַחֲרֵי הַמַּדָּדִים."
	worldWeekend = "הַבּוּרְסוֹת סְגוּרוֹת בְּסוֹף הַשָּׁבוּעַ, וְאֵלֶּה רָמוֹת הַנְּעִילָה הָאַחֲרוֹנוֹת."

	noDataFormat = "אֵין נְתוּנִים זְמִינִים עֲבוּר %s."

	percentWord = "אָחוּז"
	prepIn      = "בְּ"
	conjAnd     = "וְ"
)

var hundred = decimal.NewFromInt(100)

func header(local time.Time) string {
	return fmt.Sprintf(headerFormat, hebrew.ClockPhrase(local), hebrew.SegmentOf(local).Phrase())
}

// untilPhrase speaks a wait such as "בְּעוֹד שָׁעָה וְעשרים דַּקּוֹת".
// Zero hours or zero minutes are left out.
func untilPhrase(d time.Duration) string {
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)

	var parts []string
	switch h {
	case 0:
	case 1:
		parts = append(parts, "שָׁעָה")
	case 2:
		parts = append(parts, "שְׁעָתַיִים")
	default:
		parts = append(parts, hebrew.Cardinal(h)+" שָׁעוֹת")
	}
	switch m {
	case 0:
	case 1:
		parts = append(parts, "דַּקָּה")
	default:
		parts = append(parts, hebrew.Cardinal(m)+" דַּקּוֹת")
	}
	if len(parts) == 0 {
		return "בְּקָרוֹב"
	}
	return "בְּעוֹד " + strings.Join(parts, " "+conjAnd)
}

// invertChange turns a change of the USD/ILS rate into the change of the
// shekel against the dollar: 1/(1+p) - 1.
func invertChange(change decimal.NullDecimal) decimal.NullDecimal {
	if !change.Valid {
		return change
	}
	base := hundred.Add(change.Decimal)
	if !base.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(change.Decimal.Neg().Div(base).Mul(hundred).Round(2))
}

func invertTrend(t model.Trend) model.Trend {
	switch t {
	case model.TrendRising:
		return model.TrendFalling
	case model.TrendFalling:
		return model.TrendRising
	default:
		return t
	}
}

func noData(inst Instrument) string {
	name := inst.Name
	if inst.LevelSubject != "" {
		name = inst.LevelSubject
	}
	return fmt.Sprintf(noDataFormat, name)
}

// sentence renders one instrument line:
//
//	<name> <direction> בְּ<percent> אָחוּז וְ<level verb> <price> <unit>.
//
// A missing change leaves only the level clause, an unchanged price drops the
// percent clause, and an instrument without facts gets the no-data line.
func sentence(inst Instrument, table hebrew.Table, level Level, unit Unit, facts model.InstrumentFacts) string {
	if facts.Empty() {
		return noData(inst)
	}

	var levelClause string
	if facts.LatestPrice.Valid {
		levelClause = levelForms[level].For(inst.Gender) + " " +
			hebrew.VerbalizeDecimal(facts.LatestPrice.Decimal) + " " + unit.Words()
		if inst.LevelSubject != "" {
			levelClause = inst.LevelSubject + " " + levelClause
		}
	}

	change, trend := facts.PercentChange, facts.Trend
	if inst.Inverted {
		change, trend = invertChange(change), invertTrend(trend)
	}
	if !change.Valid {
		if inst.LevelSubject != "" {
			return levelClause + "."
		}
		return inst.Name + " " + levelClause + "."
	}

	verb, m := hebrew.Phrase(table, change, trend, inst.Threshold, inst.Gender)
	parts := []string{inst.Name, verb}
	if m != hebrew.Unchanged {
		parts = append(parts, prepIn+hebrew.VerbalizeDecimal(change.Decimal.Abs())+" "+percentWord)
	}
	if inst.Against != "" {
		parts = append(parts, inst.Against)
	}
	text := strings.Join(parts, " ")

	switch {
	case levelClause == "":
	case inst.LevelSubject != "":
		text += ", " + conjAnd + levelClause
	default:
		text += " " + conjAnd + levelClause
	}
	return text + "."
}

// levelOnly renders "<name> <level verb> <price> <unit>." regardless of change.
func levelOnly(inst Instrument, level Level, unit Unit, facts model.InstrumentFacts) string {
	facts.PercentChange = decimal.NullDecimal{}
	facts.Trend = model.TrendNone
	return sentence(inst, hebrew.Present, level, unit, facts)
}
