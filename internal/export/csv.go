package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"vtt-feedback/internal/feedback"
)

// Columns is the fixed CSV header. Fields outside it are not exported.
var Columns = []string{
	feedback.FieldTimestamp,
	feedback.FieldSubmittedAt,
	feedback.FieldOriginalWord,
	feedback.FieldCurrentTransformation,
	feedback.FieldSuggestedTransformation,
	feedback.FieldIntensity,
	feedback.FieldContext,
	feedback.FieldReason,
	feedback.FieldID,
	feedback.FieldUserAgent,
	feedback.FieldIP,
}

// WriteCSV writes the header followed by one row per record, CRLF
// terminated. A record without timestamp gets its submittedAt value in that
// column.
func WriteCSV(w io.Writer, records []feedback.Record) error {
	writer := csv.NewWriter(w)
	writer.UseCRLF = true

	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(Columns))
	for i, rec := range records {
		rec = rec.WithTimestampAlias()
		for j, col := range Columns {
			row[j], _ = rec.String(col)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
