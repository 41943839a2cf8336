package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"vtt-feedback/internal/feedback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(fields ...interface{}) feedback.Record {
	r := feedback.Record{}
	for i := 0; i+1 < len(fields); i += 2 {
		r[fields[i].(string)] = fields[i+1]
	}
	return r
}

func TestAnalyze_Empty(t *testing.T) {
	report := Analyze(nil)
	assert.Equal(t, 0, report.Total)

	var buf bytes.Buffer
	require.NoError(t, report.Print(&buf))
	assert.Equal(t, "No feedback to analyze\n", buf.String())
}

func TestAnalyze_DateRange(t *testing.T) {
	records := []feedback.Record{
		rec("submittedAt", "2025-02-01T10:00:00Z"),
		rec("submittedAt", "2025-01-01T09:00:00Z"),
		rec("submittedAt", "not a date"),
		rec("timestamp", "2020-01-01T00:00:00Z"),
		rec("submittedAt", "2025-03-01T08:30:00Z"),
	}

	report := Analyze(records)
	require.NotNil(t, report.DateRange)
	assert.Equal(t, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), report.DateRange.Earliest)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC), report.DateRange.Latest)

	assert.Nil(t, Analyze([]feedback.Record{rec("id", "x")}).DateRange)
}

func TestAnalyze_IntensitySumsToHundred(t *testing.T) {
	records := []feedback.Record{
		rec("intensity", json.Number("3")),
		rec("intensity", json.Number("1")),
		rec("intensity", json.Number("10")),
		rec("intensity", json.Number("3")),
		rec("intensity", json.Number("2")),
		rec("intensity", json.Number("3")),
		rec("id", "no intensity"),
	}

	report := Analyze(records)
	require.Len(t, report.Intensity, 4)

	levels := make([]string, 0, len(report.Intensity))
	sum := 0.0
	for _, l := range report.Intensity {
		levels = append(levels, l.Level)
		sum += l.Percent
	}
	assert.Equal(t, []string{"1", "2", "3", "10"}, levels)
	assert.InDelta(t, 100.0, sum, 1e-9)
	assert.Equal(t, 3, report.Intensity[2].Count)
	assert.InDelta(t, 50.0, report.Intensity[2].Percent, 1e-9)
}

func TestAnalyze_IntensityLexicalFallback(t *testing.T) {
	records := []feedback.Record{
		rec("intensity", "high"),
		rec("intensity", json.Number("2")),
		rec("intensity", "low"),
	}

	report := Analyze(records)
	levels := []string{}
	for _, l := range report.Intensity {
		levels = append(levels, l.Level)
	}
	assert.Equal(t, []string{"2", "high", "low"}, levels)
}

func TestAnalyze_TopWords(t *testing.T) {
	var records []feedback.Record
	add := func(word string, n int) {
		for i := 0; i < n; i++ {
			records = append(records, rec("originalWord", word))
		}
	}
	add("Love", 2)
	add("love", 3)
	add("heart", 2)
	for _, w := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		add(w, 1)
	}

	report := Analyze(records)
	require.Len(t, report.TopWords, 10)
	assert.Equal(t, Count{Value: "love", Count: 5}, report.TopWords[0])
	assert.Equal(t, Count{Value: "heart", Count: 2}, report.TopWords[1])
	// ties keep first-seen order
	assert.Equal(t, "a", report.TopWords[2].Value)
	assert.Equal(t, "h", report.TopWords[9].Value)
}

func TestAnalyze_Contexts(t *testing.T) {
	records := []feedback.Record{
		rec("context", "singing"),
		rec("context", "speaking"),
		rec("context", "speaking"),
		rec("id", "x"),
	}

	report := Analyze(records)
	assert.Equal(t, []Count{{"speaking", 2}, {"singing", 1}}, report.Contexts)
}

func TestAnalyze_Transformations(t *testing.T) {
	records := []feedback.Record{
		rec("currentTransformation", "loh-v", "suggestedTransformation", "luh-v"),
		rec("currentTransformation", "hah", "suggestedTransformation", "hoh"),
		rec("currentTransformation", "loh-v", "suggestedTransformation", "luh-v"),
		rec("currentTransformation", "only-current"),
	}

	report := Analyze(records)
	assert.Equal(t, []TransformationPair{
		{Current: "loh-v", Suggested: "luh-v", Count: 2},
		{Current: "hah", Suggested: "hoh", Count: 1},
	}, report.Transformations)
}

func TestAnalyze_MultiSuggestions(t *testing.T) {
	records := []feedback.Record{
		rec("originalWord", "Love", "suggestedTransformation", "luhv"),
		rec("originalWord", "love", "suggestedTransformation", "lahv"),
		rec("originalWord", "love", "suggestedTransformation", "luhv"),
		rec("originalWord", "heart", "suggestedTransformation", "hahrt"),
		rec("originalWord", "heart", "suggestedTransformation", "hahrt"),
		rec("originalWord", "night", "suggestedTransformation", "nah-eet"),
		rec("originalWord", "night", "suggestedTransformation", "naht"),
		rec("originalWord", "night", "suggestedTransformation", "nite"),
		rec("originalWord", "day", "suggestedTransformation", "deh"),
		rec("originalWord", "day", "suggestedTransformation", "dee"),
		rec("originalWord", "missing"),
	}

	report := Analyze(records)
	require.Len(t, report.MultiSuggestWords, 3)

	assert.Equal(t, WordSuggestions{Word: "night", Suggestions: []string{"nah-eet", "naht", "nite"}}, report.MultiSuggestWords[0])
	assert.Equal(t, WordSuggestions{Word: "love", Suggestions: []string{"luhv", "lahv"}}, report.MultiSuggestWords[1])
	assert.Equal(t, "day", report.MultiSuggestWords[2].Word)

	for _, ws := range report.MultiSuggestWords {
		assert.NotEqual(t, "heart", ws.Word)
	}
}

func TestAnalyze_MultiSuggestionsCapped(t *testing.T) {
	var records []feedback.Record
	for _, w := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		records = append(records,
			rec("originalWord", w, "suggestedTransformation", w+"1"),
			rec("originalWord", w, "suggestedTransformation", w+"2"))
	}

	report := Analyze(records)
	require.Len(t, report.MultiSuggestWords, 5)
	assert.Equal(t, "e", report.MultiSuggestWords[4].Word)
}

func TestAnalyze_DoesNotMutate(t *testing.T) {
	r := rec("originalWord", "Love", "submittedAt", "2025-01-01T00:00:00Z")
	Analyze([]feedback.Record{r})

	assert.Equal(t, "Love", r["originalWord"])
	assert.Len(t, r, 2)
}

func TestReport_Print(t *testing.T) {
	records := []feedback.Record{
		rec("submittedAt", "2025-01-01T09:00:00Z", "originalWord", "Love", "intensity", json.Number("2"),
			"context", "singing", "currentTransformation", "luv", "suggestedTransformation", "luhv"),
		rec("submittedAt", "2025-01-02T09:00:00Z", "originalWord", "love", "intensity", json.Number("3"),
			"context", "singing", "currentTransformation", "luv", "suggestedTransformation", "lahv"),
	}

	var buf bytes.Buffer
	require.NoError(t, Analyze(records).Print(&buf))
	out := buf.String()

	assert.Contains(t, out, "Total feedback items: 2")
	assert.Contains(t, out, "Date range: 2025-01-01 09:00:00+00:00 to 2025-01-02 09:00:00+00:00")
	assert.Contains(t, out, "  Level 2: 1 (50.0%)")
	assert.Contains(t, out, "  'love': 2 times")
	assert.Contains(t, out, "  singing: 2")
	assert.Contains(t, out, "  'luv' → 'luhv': 1 times")
	assert.Contains(t, out, "  'love': ['luhv', 'lahv']")
}

func TestReport_PrintDateRangeOffsets(t *testing.T) {
	records := []feedback.Record{
		rec("submittedAt", "2025-01-01T09:00:00+02:00"),
		rec("submittedAt", "2025-01-01T10:00:00Z"),
	}

	var buf bytes.Buffer
	require.NoError(t, Analyze(records).Print(&buf))
	assert.Contains(t, buf.String(), "Date range: 2025-01-01 09:00:00+02:00 to 2025-01-01 10:00:00+00:00")
}

func TestReport_PrintSkipsAbsentSections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Analyze([]feedback.Record{rec("id", "a")}).Print(&buf))
	out := buf.String()

	assert.Contains(t, out, "Total feedback items: 1")
	assert.NotContains(t, out, "Date range")
	assert.NotContains(t, out, "Intensity Distribution")
	assert.NotContains(t, out, "Top 10 Words")
	assert.NotContains(t, out, "Context Distribution")
	assert.NotContains(t, out, "Transformation Patterns")
	assert.NotContains(t, out, "Multiple Different Suggestions")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestReport_PrintWriteError(t *testing.T) {
	err := Analyze([]feedback.Record{rec("id", "a")}).Print(failingWriter{})
	assert.EqualError(t, err, "closed pipe")
}
