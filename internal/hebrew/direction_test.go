package hebrew

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yn6733212/Market-Snapshot/internal/model"
)

func pct(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		change    decimal.NullDecimal
		trend     model.Trend
		threshold float64
		want      Movement
	}{
		{"absent", decimal.NullDecimal{}, model.TrendRising, DefaultThreshold, Unavailable},
		{"zero", pct(0), model.TrendNone, DefaultThreshold, Unchanged},
		{"small rise", pct(0.5), model.TrendNone, DefaultThreshold, Rising},
		{"small fall", pct(-0.5), model.TrendNone, DefaultThreshold, Falling},
		{"at threshold", pct(1.5), model.TrendNone, DefaultThreshold, RisingSharply},
		{"below threshold", pct(-1.49), model.TrendNone, DefaultThreshold, Falling},
		{"sharp fall", pct(-2), model.TrendNone, DefaultThreshold, FallingSharply},
		{"equity threshold", pct(4.99), model.TrendNone, 5, Rising},
		{"trend wins", pct(7), model.TrendRising, DefaultThreshold, ContinuingUp},
		{"falling trend", pct(-0.1), model.TrendFalling, DefaultThreshold, ContinuingDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.change, tt.trend, tt.threshold))
		})
	}
}

func phraseOnly(table Table, change decimal.NullDecimal, trend model.Trend, threshold float64, g Gender) string {
	text, _ := Phrase(table, change, trend, threshold, g)
	return text
}

func TestPhrase_GenderAgreement(t *testing.T) {
	assert.Equal(t, "יוֹרֵד בְּצוּרָה דְּרָמָטִית",
		phraseOnly(Present, pct(-2), model.TrendNone, DefaultThreshold, Masculine))
	assert.Equal(t, "יוֹרֶדֶת בְּצוּרָה דְּרָמָטִית",
		phraseOnly(Present, pct(-2), model.TrendNone, DefaultThreshold, Feminine))
	assert.Equal(t, "מַמְשִׁיכָה לַעֲלוֹת",
		phraseOnly(Present, pct(1), model.TrendRising, DefaultThreshold, Feminine))
	assert.Equal(t, "נֶחֱלָשׁ",
		phraseOnly(Currency, pct(-0.3), model.TrendNone, DefaultThreshold, Masculine))
}

func TestPhrase_ReportsMovement(t *testing.T) {
	text, m := Phrase(Past, pct(0), model.TrendNone, DefaultThreshold, Masculine)
	assert.Equal(t, Unchanged, m)
	assert.Equal(t, Past[Unchanged].For(Masculine), text)

	_, m = Phrase(Present, pct(3), model.TrendNone, DefaultThreshold, Feminine)
	assert.Equal(t, RisingSharply, m)
}

func TestPhrase_UnavailableIgnoresEverythingElse(t *testing.T) {
	for _, table := range []Table{Present, Past, Currency} {
		for _, g := range []Gender{Masculine, Feminine} {
			for _, tr := range []model.Trend{model.TrendNone, model.TrendRising, model.TrendFalling} {
				text, m := Phrase(table, decimal.NullDecimal{}, tr, 5, g)
				assert.Equal(t, UnavailableText, text)
				assert.Equal(t, Unavailable, m)
			}
		}
	}
}

func TestTables_CoverEveryMovement(t *testing.T) {
	for _, table := range []Table{Present, Past, Currency} {
		for m := Unchanged; m <= ContinuingDown; m++ {
			forms, ok := table[m]
			if assert.True(t, ok, "missing %s", m) {
				assert.NotEmpty(t, forms.For(Masculine))
				assert.NotEmpty(t, forms.For(Feminine))
			}
		}
	}
}
