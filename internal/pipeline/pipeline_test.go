package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yn6733212/Market-Snapshot/internal/collector"
	"github.com/yn6733212/Market-Snapshot/internal/metrics"
	"github.com/yn6733212/Market-Snapshot/internal/model"
	"github.com/yn6733212/Market-Snapshot/internal/recorder"
	"github.com/yn6733212/Market-Snapshot/internal/report"
	"github.com/yn6733212/Market-Snapshot/internal/session"
)

func telephonyWAV(samples int) []byte {
	data := make([]byte, samples*2)
	var b bytes.Buffer
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+len(data)))
	b.WriteString("WAVEfmt ")
	for _, v := range []any{uint32(16), uint16(1), uint16(1), uint32(8000), uint32(16000), uint16(2), uint16(16)} {
		_ = binary.Write(&b, binary.LittleEndian, v)
	}
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

type fakeComposer struct {
	report *model.Report
	err    error
}

func (f *fakeComposer) Compose(context.Context, time.Time) (*model.Report, error) {
	return f.report, f.err
}

type fakeSynth struct {
	text, voice string
	err         error
}

func (f *fakeSynth) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	f.text, f.voice = text, voice
	return []byte("mp3"), f.err
}

type fakeTranscoder struct {
	out []byte
	err error
}

func (f *fakeTranscoder) Transcode(context.Context, []byte) ([]byte, error) { return f.out, f.err }

type fakeUploader struct {
	calls  int
	target string
	err    error
}

func (f *fakeUploader) UploadWithRetry(_ context.Context, _ []byte, target string, _ int) (string, error) {
	f.calls++
	f.target = target
	if f.err != nil {
		return "", f.err
	}
	return `{"responseStatus":"OK"}`, nil
}

type memRecorder struct{ runs []*recorder.RunRecord }

func (m *memRecorder) RecordRun(rec *recorder.RunRecord) error {
	m.runs = append(m.runs, rec)
	return nil
}

func (m *memRecorder) RecentRuns(int) ([]recorder.RunRecord, error) { return nil, nil }
func (m *memRecorder) Close() error                                 { return nil }

type fakeAlerter struct{ sent []string }

func (f *fakeAlerter) SendWithRetry(_ context.Context, text string, _ int) error {
	f.sent = append(f.sent, text)
	return nil
}

func simpleReport(outcomes ...model.Outcome) *model.Report {
	return &model.Report{
		Sessions: model.Sessions{Israel: model.IsraelOpen, US: model.USOpen},
		Segments: []model.Segment{{Kind: model.SegmentHeader, Lines: []string{"שָׁלוֹם"}}},
		Outcomes: outcomes,
	}
}

type harness struct {
	p        *Pipeline
	synth    *fakeSynth
	trans    *fakeTranscoder
	upload   *fakeUploader
	journal  *memRecorder
	alerts   *fakeAlerter
	registry *prometheus.Registry
}

func newHarness(r *model.Report) *harness {
	h := &harness{
		synth:    &fakeSynth{},
		trans:    &fakeTranscoder{out: telephonyWAV(800)},
		upload:   &fakeUploader{},
		journal:  &memRecorder{},
		alerts:   &fakeAlerter{},
		registry: prometheus.NewRegistry(),
	}
	h.p = &Pipeline{
		Composer:   &fakeComposer{report: r},
		Synth:      h.synth,
		Transcoder: h.trans,
		Uploader:   h.upload,
		Recorder:   h.journal,
		Alerter:    h.alerts,
		Metrics:    metrics.New(h.registry),
		Options:    Options{Voice: "he-IL-AvriNeural", TargetPath: "ivr2:/2/", SampleRate: 8000},
	}
	return h
}

func TestRun_Delivered(t *testing.T) {
	h := newHarness(simpleReport(model.Outcome{Key: "ta35", Facts: model.InstrumentFacts{Trend: model.TrendRising, PercentChange: decimalOne()}}))

	res := h.p.Run(context.Background(), time.Now())

	require.NoError(t, res.Err)
	assert.Equal(t, model.RunDelivered, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "שָׁלוֹם", h.synth.text)
	assert.Equal(t, "he-IL-AvriNeural", h.synth.voice)
	assert.Equal(t, "ivr2:/2/", h.upload.target)
	assert.Equal(t, utf8.RuneCountInString("שָׁלוֹם"), res.TextChars)
	assert.Contains(t, res.Upload, "OK")

	require.Len(t, h.journal.runs, 1)
	assert.Equal(t, "DELIVERED", h.journal.runs[0].Status)
	assert.Equal(t, "open", h.journal.runs[0].Israel)
	assert.Empty(t, h.alerts.sent)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.p.Metrics.RunsTotal.WithLabelValues("DELIVERED")))
}

func TestRun_DegradedStillUploads(t *testing.T) {
	h := newHarness(simpleReport(
		model.Outcome{Key: "oil", Ticker: "CL=F", Err: model.ErrInstrumentUnavailable},
		model.Outcome{Key: "gold", Ticker: "GC=F", Facts: model.InstrumentFacts{PercentChange: decimalOne()}},
	))

	res := h.p.Run(context.Background(), time.Now())

	assert.Equal(t, model.RunDegraded, res.Status)
	assert.Equal(t, []string{"oil"}, res.DegradedKeys())
	assert.Equal(t, 1, h.upload.calls)
	require.Len(t, h.journal.runs, 1)
	require.Len(t, h.journal.runs[0].Degraded, 1)
	assert.Equal(t, "CL=F", h.journal.runs[0].Degraded[0].Ticker)
	assert.Len(t, h.alerts.sent, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.p.Metrics.DegradedInstruments))
	assert.Equal(t, 3, ExitCode(res.Status))
}

func TestRun_StageFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
		stage string
	}{
		{"compose", func(h *harness) { h.p.Composer = &fakeComposer{err: errors.New("boom")} }, StageCompose},
		{"synthesize", func(h *harness) { h.synth.err = errors.New("429") }, StageSynthesize},
		{"transcode", func(h *harness) { h.trans.err = errors.New("ffmpeg missing") }, StageTranscode},
		{"validate", func(h *harness) { h.trans.out = []byte("not a wav") }, StageValidate},
		{"upload", func(h *harness) { h.upload.err = errors.New("status 500") }, StageUpload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(simpleReport())
			tt.setup(h)

			res := h.p.Run(context.Background(), time.Now())

			assert.Equal(t, model.RunFailed, res.Status)
			assert.Equal(t, tt.stage, res.Stage)
			require.Error(t, res.Err)
			assert.Contains(t, res.Err.Error(), tt.stage+":")
			require.Len(t, h.journal.runs, 1)
			assert.Equal(t, tt.stage, h.journal.runs[0].Stage)
			assert.Len(t, h.alerts.sent, 1)
			assert.Equal(t, 1, ExitCode(res.Status))
		})
	}
}

func TestRun_EmptyTextAborts(t *testing.T) {
	h := newHarness(&model.Report{Segments: []model.Segment{{Kind: model.SegmentHeader, Lines: []string{"  "}}}})

	res := h.p.Run(context.Background(), time.Now())

	assert.Equal(t, model.RunFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrEmptyReport)
	assert.Equal(t, 0, h.upload.calls)
	assert.Empty(t, h.synth.text)
}

func TestRun_DryRunPrintsText(t *testing.T) {
	h := newHarness(simpleReport())
	var out bytes.Buffer
	h.p.DryRun = true
	h.p.DryRunOut = &out

	res := h.p.Run(context.Background(), time.Now())

	assert.Equal(t, model.RunDelivered, res.Status)
	assert.True(t, res.DryRun)
	assert.Equal(t, "שָׁלוֹם\n", out.String())
	assert.Empty(t, h.synth.text)
	assert.Equal(t, 0, h.upload.calls)
}

func TestRun_WithRealComposer(t *testing.T) {
	loc, err := time.LoadLocation(session.IsraelZone)
	require.NoError(t, err)
	now := time.Date(2025, 3, 4, 17, 40, 0, 0, loc)
	classifier, err := session.Default()
	require.NoError(t, err)

	fetcher := &collector.MockFetcher{Price: 100, Now: now, Errs: map[string]error{"CL=F": errors.New("rate limited")}}
	h := newHarness(nil)
	h.p.Composer = report.NewComposer(collector.NewCollector(fetcher, nil), classifier, loc, nil)

	res := h.p.Run(context.Background(), now)

	assert.Equal(t, model.RunDegraded, res.Status)
	assert.Equal(t, []string{"oil"}, res.DegradedKeys())
	assert.Equal(t, model.IsraelAfterClose, res.Sessions.Israel)
	assert.Equal(t, model.USOpen, res.Sessions.US)
	assert.Contains(t, h.synth.text, "אֵין נְתוּנִים זְמִינִים")
	assert.Greater(t, res.TextChars, 200)
}

func TestPreview_NoDelivery(t *testing.T) {
	h := newHarness(simpleReport())

	r, err := h.p.Preview(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, "שָׁלוֹם", r.Text())
	assert.Equal(t, 0, h.upload.calls)
	assert.Empty(t, h.journal.runs)
}

func decimalOne() decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(1)) }
