package analysis

import (
	"fmt"
	"io"
	"strings"
)

const dateLayout = "2006-01-02 15:04:05-07:00"

// printer remembers the first write error so rendering code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Print renders the report. Sections with no data are omitted.
func (r Report) Print(w io.Writer) error {
	p := &printer{w: w}

	if r.Total == 0 {
		p.printf("No feedback to analyze\n")
		return p.err
	}

	p.printf("\n📊 Feedback Analysis\n")
	p.printf("%s\n", strings.Repeat("=", 50))
	p.printf("Total feedback items: %d\n", r.Total)

	if r.DateRange != nil {
		p.printf("Date range: %s to %s\n",
			r.DateRange.Earliest.Format(dateLayout),
			r.DateRange.Latest.Format(dateLayout))
	}

	if len(r.Intensity) > 0 {
		p.printf("\n📈 Intensity Distribution:\n")
		for _, l := range r.Intensity {
			p.printf("  Level %s: %d (%.1f%%)\n", l.Level, l.Count, l.Percent)
		}
	}

	if len(r.TopWords) > 0 {
		p.printf("\n🔤 Top %d Words with Feedback:\n", topWords)
		for _, c := range r.TopWords {
			p.printf("  '%s': %d times\n", c.Value, c.Count)
		}
	}

	if len(r.Contexts) > 0 {
		p.printf("\n🎯 Context Distribution:\n")
		for _, c := range r.Contexts {
			p.printf("  %s: %d\n", c.Value, c.Count)
		}
	}

	if len(r.Transformations) > 0 {
		p.printf("\n🔄 Common Transformation Patterns:\n")
		for _, t := range r.Transformations {
			p.printf("  '%s' → '%s': %d times\n", t.Current, t.Suggested, t.Count)
		}
	}

	if len(r.MultiSuggestWords) > 0 {
		p.printf("\n🤔 Words with Multiple Different Suggestions:\n")
		for _, ws := range r.MultiSuggestWords {
			quoted := make([]string, len(ws.Suggestions))
			for i, s := range ws.Suggestions {
				quoted[i] = "'" + s + "'"
			}
			p.printf("  '%s': [%s]\n", ws.Word, strings.Join(quoted, ", "))
		}
	}

	return p.err
}
