// Package export writes feedback records to timestamped CSV and JSON files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"vtt-feedback/internal/config"
	"vtt-feedback/internal/feedback"
	"vtt-feedback/internal/observability"
	appErrors "vtt-feedback/pkg/errors"

	"go.uber.org/zap"
)

const (
	filePrefix  = "feedback_export_"
	stampLayout = "20060102_150405"
)

// Exporter writes export files into one directory. All files written by an
// Exporter share the same timestamped base name.
type Exporter struct {
	dir      string
	baseName string
	logger   *zap.Logger
	metrics  *observability.Collector
}

// NewExporter creates an exporter whose files are stamped with at.
// metrics may be nil.
func NewExporter(dir string, at time.Time, logger *zap.Logger, metrics *observability.Collector) *Exporter {
	return &Exporter{
		dir:      dir,
		baseName: BaseName(at),
		logger:   logger,
		metrics:  metrics,
	}
}

// BaseName is the file name, without extension, for an export started at t.
func BaseName(t time.Time) string {
	return filePrefix + t.Format(stampLayout)
}

// Export writes the files selected by format and returns their paths in
// the order written (CSV first).
func (e *Exporter) Export(records []feedback.Record, format config.Format) ([]string, error) {
	var created []string

	if format.IncludesCSV() {
		path, err := e.WriteCSV(records)
		if err != nil {
			return created, err
		}
		created = append(created, path)
	}

	if format.IncludesJSON() {
		path, err := e.WriteJSON(records)
		if err != nil {
			return created, err
		}
		created = append(created, path)
	}

	return created, nil
}

// WriteCSV writes the records to <dir>/<base>.csv.
func (e *Exporter) WriteCSV(records []feedback.Record) (string, error) {
	return e.writeFile("csv", records, WriteCSV)
}

// WriteJSON writes the records to <dir>/<base>.json.
func (e *Exporter) WriteJSON(records []feedback.Record) (string, error) {
	return e.writeFile("json", records, WriteJSON)
}

func (e *Exporter) writeFile(ext string, records []feedback.Record, write func(io.Writer, []feedback.Record) error) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", appErrors.NewInternalError("failed to create output directory").WithCause(err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s.%s", e.baseName, ext))
	file, err := os.Create(path)
	if err != nil {
		return "", appErrors.NewInternalError("failed to create export file").WithCause(err)
	}

	if err := write(file, records); err != nil {
		file.Close()
		return "", appErrors.Wrapf(err, "failed to write %s export", ext)
	}
	if err := file.Close(); err != nil {
		return "", appErrors.NewInternalError("failed to close export file").WithCause(err)
	}

	if e.metrics != nil {
		e.metrics.FilesWritten.WithLabelValues(ext).Inc()
		e.metrics.RecordsExported.WithLabelValues(ext).Add(float64(len(records)))
	}
	e.logger.Info("Export file written",
		zap.String("format", ext),
		zap.String("path", path),
		zap.Int("records", len(records)))

	return path, nil
}
