package export

import (
	"encoding/json"
	"fmt"
	"io"

	"vtt-feedback/internal/feedback"
)

// WriteJSON writes the records as one indented array. Non-ASCII and HTML
// characters are written literally.
func WriteJSON(w io.Writer, records []feedback.Record) error {
	if records == nil {
		records = []feedback.Record{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
