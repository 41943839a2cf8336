// Package app runs one feedback export: resolve the bucket, download the
// records, optionally analyze them, and write the export files.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vtt-feedback/internal/analysis"
	"vtt-feedback/internal/config"
	"vtt-feedback/internal/export"
	"vtt-feedback/internal/observability"
	"vtt-feedback/internal/platform"
	"vtt-feedback/internal/source"
	appErrors "vtt-feedback/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const metricsNamespace = "feedback_export"

// ErrBucketUnresolved is wrapped in the error returned when no bucket name
// could be determined.
var ErrBucketUnresolved = errors.New("could not determine bucket name")

// BucketResolver finds the bucket to read from.
type BucketResolver interface {
	Resolve(ctx context.Context, explicit string) (string, bool)
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Resolver BucketResolver
	Objects  source.ObjectAPI
	// Opener may be nil; the output directory is then never opened.
	Opener platform.Opener
	Out    io.Writer
	Logger *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result describes a finished run.
type Result struct {
	RunID     string
	Bucket    string
	OutputDir string
	Records   int
	Stats     source.Stats
	Files     []string
}

// Runner executes a single export run.
type Runner struct {
	cfg     *config.Config
	deps    Deps
	metrics *observability.Collector
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg *config.Config, deps Deps) *Runner {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Runner{
		cfg:     cfg,
		deps:    deps,
		metrics: observability.NewCollector(metricsNamespace),
	}
}

// Metrics returns the run's counters.
func (r *Runner) Metrics() *observability.Collector {
	return r.metrics
}

// Run performs the export. Zero records is not an error: a message is
// printed and no files are written.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	logger := r.deps.Logger.With(zap.String("run_id", res.RunID))
	out := r.deps.Out

	outputDir, err := r.cfg.ResolveOutputDir()
	if err != nil {
		return res, appErrors.NewInternalError("failed to resolve output directory").WithCause(err)
	}
	res.OutputDir = outputDir

	bucket, ok := r.deps.Resolver.Resolve(ctx, r.cfg.Bucket)
	if !ok {
		logger.Error("Bucket name unresolved",
			zap.String("stack", r.cfg.StackName),
			zap.String("output", r.cfg.StackOutputKey))
		return res, appErrors.NewNotFoundError("feedback bucket name").WithCause(ErrBucketUnresolved)
	}
	res.Bucket = bucket
	logger = logger.With(zap.String("bucket", bucket))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return res, appErrors.NewInternalError("failed to create output directory").WithCause(err)
	}

	since, until := r.cfg.Window()
	store := source.NewStore(r.deps.Objects, bucket, source.Options{
		Prefix: r.cfg.Prefix,
		Since:  since,
		Until:  until,
	}, logger, r.metrics)

	fmt.Fprintf(out, "📥 Downloading feedback from %s\n", store.URI())
	records, stats, err := store.FetchAll(ctx)
	res.Stats = stats
	if err != nil {
		return res, appErrors.Wrap(err, "failed to list feedback objects")
	}
	res.Records = len(records)
	fmt.Fprintf(out, "✅ Downloaded %d feedback items\n", len(records))

	if len(records) == 0 {
		fmt.Fprintln(out, "No feedback found in bucket")
		r.logSummary(logger)
		return res, nil
	}

	if r.cfg.Analyze {
		if err := analysis.Analyze(records).Print(out); err != nil {
			logger.Warn("Failed to print analysis", zap.Error(err))
		}
	}

	exporter := export.NewExporter(outputDir, r.deps.Now(), logger, r.metrics)
	files, err := exporter.Export(records, r.cfg.Format)
	res.Files = files
	for _, f := range files {
		fmt.Fprintf(out, "📄 Created %s: %s\n", strings.ToUpper(strings.TrimPrefix(filepath.Ext(f), ".")), f)
	}
	if err != nil {
		return res, err
	}

	fmt.Fprintf(out, "\n✅ Export complete!\n")
	fmt.Fprintf(out, "📁 Files saved to: %s\n", outputDir)

	if r.cfg.OpenOutputDir && len(files) > 0 && r.deps.Opener != nil {
		if err := r.deps.Opener.Open(ctx, outputDir); err != nil {
			logger.Warn("Failed to open output directory", zap.String("dir", outputDir), zap.Error(err))
		}
	}

	r.logSummary(logger)
	return res, nil
}

func (r *Runner) logSummary(logger *zap.Logger) {
	snap, err := r.metrics.Snapshot()
	if err != nil {
		logger.Warn("Failed to gather run metrics", zap.Error(err))
		return
	}
	logger.Info("Run summary", zap.Any("metrics", snap))
}

// ExitMessage is the user-facing line printed for a fatal error.
func ExitMessage(err error) string {
	switch {
	case errors.Is(err, ErrBucketUnresolved):
		return fmt.Sprintf("❌ Could not determine bucket name. Please provide --bucket or set %s", source.BucketEnvVar)
	case appErrors.IsValidation(err):
		return "❌ " + appErrors.GetAppError(err).Message
	case appErrors.IsNotFound(err), appErrors.IsUnauthorized(err), appErrors.IsExternal(err):
		return fmt.Sprintf("❌ Error accessing S3: %v", err)
	case errors.Is(err, context.Canceled):
		return "❌ Interrupted"
	default:
		return fmt.Sprintf("❌ %v", err)
	}
}
