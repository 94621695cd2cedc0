package report

import (
	"github.com/yn6733212/Market-Snapshot/internal/hebrew"
	"github.com/yn6733212/Market-Snapshot/internal/model"
)

// Unit is what a price level is measured in.
type Unit int

const (
	Points Unit = iota
	Dollars
	DollarsPerOunce
	DollarsPerBarrel
	Shekels
)

var unitWords = [...]string{
	Points:           "נְקוּדוֹת",
	Dollars:          "דוֹלָר",
	DollarsPerOunce:  "דוֹלָר לְאוֹנְקִיָּה",
	DollarsPerBarrel: "דוֹלָר לְחָבִית",
	Shekels:          "שְׁקָלִים",
}

func (u Unit) Words() string { return unitWords[u] }

// Level is the verb phrase that introduces a price level.
type Level int

const (
	Stands Level = iota
	ClosedAt
	Trades
	IsAt
)

var levelForms = [...]hebrew.Forms{
	Stands:   {"עוֹמֵד עַל", "עוֹמֶדֶת עַל"},
	ClosedAt: {"נִנְעַל בְּרָמָה שֶׁל", "נִנְעֲלָה בְּרָמָה שֶׁל"},
	Trades:   {"נִסְחָר בְּשַׁעַר שֶׁל", "נִסְחֶרֶת בְּשַׁעַר שֶׁל"},
	IsAt:     {"נִמְצָא עַל", "נִמְצֵאת עַל"},
}

// Instrument is one row of the report table. The composer runs the same
// sentence algorithm over every row; rows differ only in data.
type Instrument struct {
	Key     string
	Segment model.SegmentKind
	// Name is the spoken subject, including "מַדַּד" or "מְנָיַת" where needed.
	Name        string
	Ticker      string
	ProxyTicker string // tracking ETF, used outside US cash hours
	Gender      hebrew.Gender
	Threshold   float64
	Table       hebrew.Table
	Level       Level
	Unit        Unit
	ProxyUnit   Unit
	// Inverted instruments describe the quote currency, so the change is
	// flipped before it is phrased. Against names the base currency and
	// LevelSubject is who the level clause speaks about.
	Inverted     bool
	Against      string
	LevelSubject string
}

// DefaultInstruments is the instrument table in report order.
func DefaultInstruments() []Instrument {
	index := func(key, name, ticker, proxy string) Instrument {
		return Instrument{
			Key: key, Segment: model.SegmentWorld, Name: name,
			Ticker: ticker, ProxyTicker: proxy,
			Gender: hebrew.Masculine, Threshold: hebrew.DefaultThreshold, Table: hebrew.Present,
			Level: Stands, Unit: Points, ProxyUnit: Dollars,
		}
	}
	stock := func(key, name, ticker string) Instrument {
		return Instrument{
			Key: key, Segment: model.SegmentEquities, Name: "מְנָיַת " + name, Ticker: ticker,
			Gender: hebrew.Feminine, Threshold: 5, Table: hebrew.Present,
			Level: Trades, Unit: Dollars,
		}
	}

	return []Instrument{
		{Key: "ta125", Segment: model.SegmentIsrael, Name: "מַדַּד תֵּל אָבִיב 125", Ticker: "^TA125.TA",
			Gender: hebrew.Masculine, Threshold: hebrew.DefaultThreshold, Table: hebrew.Present, Level: Stands, Unit: Points},
		{Key: "ta35", Segment: model.SegmentIsrael, Name: "מַדַּד תֵּל אָבִיב 35", Ticker: "TA35.TA",
			Gender: hebrew.Masculine, Threshold: hebrew.DefaultThreshold, Table: hebrew.Present, Level: Stands, Unit: Points},

		index("sp500", "מַדַּד הָאֶס אֶנְד פִּי חֲמֵשׁ מֵאוֹת", "^GSPC", "SPY"),
		index("nasdaq", "הַנַּאסְדָּק", "^IXIC", "QQQ"),
		index("dowjones", "הַדָּאוֹ ג'וֹנְס", "^DJI", "DIA"),
		index("russell", "הָרָאסֶל", "^RUT", "IWM"),

		stock("apple", "אֶפֶּל", "AAPL"),
		stock("nvidia", "אֶנְבִידְיָה", "NVDA"),
		stock("amazon", "אֲמָזוֹן", "AMZN"),
		stock("tesla", "טֶסְלָה", "TSLA"),

		{Key: "bitcoin", Segment: model.SegmentCrypto, Name: "הַבִּיטְקוֹיְן", Ticker: "BTC-USD",
			Gender: hebrew.Masculine, Threshold: hebrew.DefaultThreshold, Table: hebrew.Present, Level: Trades, Unit: Dollars},
		{Key: "ethereum", Segment: model.SegmentCrypto, Name: "הָאִיתֶ'רְיוּם", Ticker: "ETH-USD",
			Gender: hebrew.Feminine, Threshold: hebrew.DefaultThreshold, Table: hebrew.Present, Level: Trades, Unit: Dollars},

		{Key: "gold", Segment: model.SegmentCommodities, Name: "הַזָּהָב", Ticker: "GC=F",
			Gender: hebrew.Masculine, Threshold: hebrew.DefaultThreshold, Table: hebrew.Present, Level: IsAt, Unit: DollarsPerOunce},
		{Key: "oil", Segment: model.SegmentCommodities, Name: "הַנֵּפְט", Ticker: "CL=F",
			Gender: hebrew.Masculine, Threshold: hebrew.DefaultThreshold, Table: hebrew.Present, Level: IsAt, Unit: DollarsPerBarrel},
		{Key: "shekel", Segment: model.SegmentCommodities, Name: "הַשֶּׁקֶל", Ticker: "USDILS=X",
			Gender: hebrew.Masculine, Threshold: hebrew.DefaultThreshold, Table: hebrew.Currency, Level: Trades, Unit: Shekels,
			Inverted: true, Against: "מוּל הַדּוֹלָר", LevelSubject: "הַדּוֹלָר"},
	}
}

// ticker picks the live or proxy ticker for the US session.
func (i Instrument) ticker(live bool) string {
	if i.ProxyTicker == "" || live {
		return i.Ticker
	}
	return i.ProxyTicker
}

func (i Instrument) unit(live bool) Unit {
	if i.ProxyTicker == "" || live {
		return i.Unit
	}
	return i.ProxyUnit
}
