// Package pipeline runs one market snapshot end to end: compose, synthesize,
// transcode, validate, upload, then journal, alert and metrics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yn6733212/Market-Snapshot/internal/audio"
	"github.com/yn6733212/Market-Snapshot/internal/delivery"
	"github.com/yn6733212/Market-Snapshot/internal/logging"
	"github.com/yn6733212/Market-Snapshot/internal/metrics"
	"github.com/yn6733212/Market-Snapshot/internal/model"
	"github.com/yn6733212/Market-Snapshot/internal/recorder"
	"github.com/yn6733212/Market-Snapshot/internal/speech"
	"github.com/yn6733212/Market-Snapshot/internal/trace"
)

// ErrEmptyReport aborts a run whose composed text is blank.
var ErrEmptyReport = errors.New("report has no text")

const (
	StageCompose    = "compose"
	StageSynthesize = "synthesize"
	StageTranscode  = "transcode"
	StageValidate   = "validate"
	StageUpload     = "upload"
)

// Composer builds the report for an instant.
type Composer interface {
	Compose(ctx context.Context, now time.Time) (*model.Report, error)
}

// Alerter delivers operator messages.
type Alerter interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options are the delivery settings of a run.
type Options struct {
	Voice      string
	TargetPath string
	SampleRate int
	MaxRetries int
	DryRun     bool
	DryRunOut  io.Writer
}

// Pipeline wires the stages together. Recorder, Alerter and Metrics are optional.
type Pipeline struct {
	Composer   Composer
	Synth      speech.Synthesizer
	Transcoder audio.Transcoder
	Uploader   delivery.Uploader
	Recorder   recorder.Recorder
	Alerter    Alerter
	Format     func(model.RunResult) string
	Metrics    *metrics.Metrics
	Log        *logrus.Logger
	Options
}

// Run executes every stage once. It never panics on collaborator errors; the
// returned result carries the failing stage instead.
func (p *Pipeline) Run(ctx context.Context, now time.Time) model.RunResult {
	log := p.Log
	if log == nil {
		log = logging.Discard()
	}
	res := model.RunResult{RunID: uuid.NewString(), StartedAt: time.Now(), DryRun: p.DryRun}

	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", res.RunID), attribute.Bool("dry_run", p.DryRun))

	fields := logrus.Fields{"run_id": res.RunID}
	if id, ok := trace.TraceID(ctx); ok {
		fields["trace_id"] = id
	}
	entry := log.WithFields(fields)
	entry.Info("Starting market snapshot run")

	err := p.execute(ctx, now, &res, entry)
	res.Duration = time.Since(res.StartedAt)
	switch {
	case err != nil:
		res.Status = model.RunFailed
		res.Err = err
		span.SetStatus(codes.Error, err.Error())
	case len(res.Degraded) > 0:
		res.Status = model.RunDegraded
	default:
		res.Status = model.RunDelivered
	}
	span.SetAttributes(attribute.String("status", string(res.Status)))

	p.finish(ctx, res, entry)
	return res
}

func (p *Pipeline) execute(ctx context.Context, now time.Time, res *model.RunResult, log *logrus.Entry) error {
	var text string
	err := p.stage(ctx, res, StageCompose, func(ctx context.Context) error {
		r, err := p.compose(ctx, now)
		if r != nil {
			res.Sessions = r.Sessions
			for _, o := range r.Outcomes {
				if o.Degraded() {
					res.Degraded = append(res.Degraded, o)
				}
			}
		}
		if err != nil {
			return err
		}
		text = r.Text()
		res.TextChars = utf8.RuneCountInString(text)
		return nil
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"israel":   res.Sessions.Israel.String(),
		"us":       res.Sessions.US.String(),
		"chars":    res.TextChars,
		"degraded": res.DegradedKeys(),
	}).Info("Report composed")

	if p.DryRun {
		out := p.DryRunOut
		if out == nil {
			out = os.Stdout
		}
		_, err := fmt.Fprintln(out, text)
		return err
	}

	var raw, wav []byte
	if err := p.stage(ctx, res, StageSynthesize, func(ctx context.Context) (err error) {
		raw, err = p.Synth.Synthesize(ctx, text, p.Voice)
		return err
	}); err != nil {
		return err
	}
	if err := p.stage(ctx, res, StageTranscode, func(ctx context.Context) (err error) {
		wav, err = p.Transcoder.Transcode(ctx, raw)
		return err
	}); err != nil {
		return err
	}
	if err := p.stage(ctx, res, StageValidate, func(context.Context) error {
		return audio.ValidateWAV(wav, p.SampleRate)
	}); err != nil {
		return err
	}
	return p.stage(ctx, res, StageUpload, func(ctx context.Context) (err error) {
		res.Upload, err = p.Uploader.UploadWithRetry(ctx, wav, p.TargetPath, p.MaxRetries)
		return err
	})
}

// stage times fn under its own span and records the name on failure.
func (p *Pipeline) stage(ctx context.Context, res *model.RunResult, name string, fn func(context.Context) error) error {
	ctx, span := trace.StartSpan(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.Metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		res.Stage = name
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (p *Pipeline) compose(ctx context.Context, now time.Time) (*model.Report, error) {
	r, err := p.Composer.Compose(ctx, now)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(r.Text()) == "" {
		return r, ErrEmptyReport
	}
	return r, nil
}

// Preview composes the report without any delivery side effect.
func (p *Pipeline) Preview(ctx context.Context, now time.Time) (*model.Report, error) {
	return p.compose(ctx, now)
}

func (p *Pipeline) finish(ctx context.Context, res model.RunResult, log *logrus.Entry) {
	log = log.WithFields(logrus.Fields{"status": res.Status, "duration": res.Duration.Round(time.Millisecond)})
	switch res.Status {
	case model.RunFailed:
		log.WithError(res.Err).WithField("stage", res.Stage).Error("Market snapshot run failed")
	case model.RunDegraded:
		log.WithField("degraded", res.DegradedKeys()).Warn("Market snapshot delivered with missing instruments")
	default:
		log.Info("Market snapshot delivered")
	}

	if p.Recorder != nil {
		if err := p.Recorder.RecordRun(Record(res)); err != nil {
			log.WithError(err).Error("Failed to journal run")
		}
	}

	if p.Alerter != nil && res.Status != model.RunDelivered {
		format := p.Format
		if format == nil {
			format = func(r model.RunResult) string { return fmt.Sprintf("%s %s", r.Status, r.RunID) }
		}
		// The alert must go out even when the run was cancelled.
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()
		if err := p.Alerter.SendWithRetry(actx, format(res), 2); err != nil {
			log.WithError(err).Error("Failed to send operator alert")
		}
	}

	p.Metrics.RecordRun(string(res.Status), len(res.Degraded), res.StartedAt)
}

// Record converts a run result into its journal row.
func Record(res model.RunResult) *recorder.RunRecord {
	rec := &recorder.RunRecord{
		RunID:     res.RunID,
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		Status:    string(res.Status),
		Stage:     res.Stage,
		Israel:    res.Sessions.Israel.String(),
		US:        res.Sessions.US.String(),
		TextChars: res.TextChars,
		Upload:    res.Upload,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	for _, o := range res.Degraded {
		f := recorder.InstrumentFailure{Key: o.Key, Ticker: o.Ticker}
		if o.Err != nil {
			f.Error = o.Err.Error()
		}
		rec.Degraded = append(rec.Degraded, f)
	}
	return rec
}

// ExitCode maps a run status to the process exit code of a one-shot run.
func ExitCode(s model.RunStatus) int {
	switch s {
	case model.RunDelivered:
		return 0
	case model.RunDegraded:
		return 3
	default:
		return 1
	}
}
