package model

// IsraelSession is the Tel-Aviv exchange state at a given moment.
type IsraelSession int

const (
	IsraelBeforeOpen IsraelSession = iota
	IsraelOpen
	IsraelAfterClose
)

func (s IsraelSession) String() string {
	switch s {
	case IsraelBeforeOpen:
		return "before_open"
	case IsraelOpen:
		return "open"
	default:
		return "after_close"
	}
}

// USSession is the New-York exchange state at a given moment.
type USSession int

const (
	USOpen USSession = iota
	USPreMarket
	USPostMarket
	USClosedWeekend
)

func (s USSession) String() string {
	switch s {
	case USOpen:
		return "open"
	case USPreMarket:
		return "pre_market"
	case USPostMarket:
		return "post_market"
	default:
		return "closed_weekend"
	}
}

// Sessions is computed fresh on every report run.
type Sessions struct {
	Israel IsraelSession
	US     USSession
}
