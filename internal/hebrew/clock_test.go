package hebrew

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 4, hour, minute, 0, 0, time.UTC)
}

func TestSegmentOf_PartitionsTheDay(t *testing.T) {
	counts := map[DaySegment]int{}
	for h := 0; h < 24; h++ {
		counts[SegmentOf(at(h, 0))]++
	}
	assert.Equal(t, 6, counts[Morning])
	assert.Equal(t, 6, counts[Afternoon])
	assert.Equal(t, 5, counts[Evening])
	assert.Equal(t, 7, counts[Night])

	assert.Equal(t, Morning, SegmentOf(at(6, 0)))
	assert.Equal(t, Night, SegmentOf(at(5, 59)))
	assert.Equal(t, Afternoon, SegmentOf(at(12, 0)))
	assert.Equal(t, Evening, SegmentOf(at(22, 59)))
	assert.Equal(t, Night, SegmentOf(at(23, 30)))
}

func TestDialHour(t *testing.T) {
	assert.Equal(t, 12, DialHour(0))
	assert.Equal(t, 12, DialHour(12))
	assert.Equal(t, 1, DialHour(13))
	assert.Equal(t, 11, DialHour(23))
	assert.Equal(t, 9, DialHour(9))
}

func TestClockPhrase(t *testing.T) {
	assert.Equal(t, "אחת "+wordExactly, ClockPhrase(at(13, 0)))
	assert.Equal(t, "שתיים "+vav+"חמש "+wordMinutes, ClockPhrase(at(14, 5)))
	assert.Equal(t, "שתים עשרה "+vav+"שלושים "+wordMinutes, ClockPhrase(at(0, 30)))
	assert.Equal(t, "אחת עשרה "+vav+"חמש עשרה "+wordMinutes, ClockPhrase(at(11, 15)))
}

func TestDaySegmentPhrase(t *testing.T) {
	assert.Equal(t, "בַּבֹּקֶר", Morning.Phrase())
	assert.Equal(t, "night", Night.String())
}
