package hebrew

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaySegment is the part of the day used in the report header.
type DaySegment int

const (
	Morning DaySegment = iota
	Afternoon
	Evening
	Night
)

var segmentPhrases = [...]string{
	Morning:   "בַּבֹּקֶר",
	Afternoon: "בַּצָּהֳרַיִים",
	Evening:   "בָּעֶרֶב",
	Night:     "בַּלַּיְלָה",
}

func (s DaySegment) String() string {
	return [...]string{"morning", "afternoon", "evening", "night"}[s]
}

// Phrase returns the spoken form, e.g. "בַּבֹּקֶר".
func (s DaySegment) Phrase() string {
	return segmentPhrases[s]
}

// SegmentOf buckets the local hour of t: [6,12) morning, [12,18) afternoon,
// [18,23) evening, anything else night.
func SegmentOf(t time.Time) DaySegment {
	switch h := t.Hour(); {
	case h >= 6 && h < 12:
		return Morning
	case h >= 12 && h < 18:
		return Afternoon
	case h >= 18 && h < 23:
		return Evening
	default:
		return Night
	}
}

const (
	wordExactly = "בְּדִיּוּק"
	wordMinutes = "דַּקּוֹת"
	vav         = "וְ"
)

// DialHour maps a 24-hour clock hour onto a 12-hour dial. Both 0 and 12
// map to 12.
func DialHour(hour int) int {
	switch {
	case hour == 0:
		return 12
	case hour > 12:
		return hour - 12
	default:
		return hour
	}
}

// ClockPhrase speaks the local time of t on a 12-hour dial:
// "אחת בְּדִיּוּק" at 13:00, "שתיים וְחמש דַּקּוֹת" at 14:05.
func ClockPhrase(t time.Time) string {
	hour := VerbalizeDecimal(decimal.NewFromInt(int64(DialHour(t.Hour()))))
	if t.Minute() == 0 {
		return hour + " " + wordExactly
	}
	minute := VerbalizeDecimal(decimal.NewFromInt(int64(t.Minute())))
	return hour + " " + vav + minute + " " + wordMinutes
}
