package model

import (
	"strings"
	"time"
)

// SegmentKind identifies a block of the spoken report.
type SegmentKind string

const (
	SegmentHeader      SegmentKind = "header"
	SegmentIsrael      SegmentKind = "israel"
	SegmentWorld       SegmentKind = "world"
	SegmentEquities    SegmentKind = "equities"
	SegmentCrypto      SegmentKind = "crypto"
	SegmentCommodities SegmentKind = "commodities"
)

// Segment is one block of lines. Lines are prose sentences or a block title.
type Segment struct {
	Kind  SegmentKind
	Lines []string
}

// Report is the composed market snapshot for a single run.
type Report struct {
	GeneratedAt time.Time
	Sessions    Sessions
	Segments    []Segment
	Outcomes    []Outcome
}

// Text renders the report as one blob, segments separated by blank lines.
func (r *Report) Text() string {
	blocks := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if len(s.Lines) == 0 {
			continue
		}
		blocks = append(blocks, strings.Join(s.Lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// Degraded returns the keys of instruments rendered without data.
func (r *Report) Degraded() []string {
	var keys []string
	for _, o := range r.Outcomes {
		if o.Degraded() {
			keys = append(keys, o.Key)
		}
	}
	return keys
}

// Segment returns the segment of the given kind, if present.
func (r *Report) Segment(kind SegmentKind) (Segment, bool) {
	for _, s := range r.Segments {
		if s.Kind == kind {
			return s, true
		}
	}
	return Segment{}, false
}
