// Package analysis computes descriptive statistics over a set of feedback
// records and renders them as a console report.
package analysis

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"vtt-feedback/internal/feedback"
)

const (
	topWords           = 10
	topTransformations = 10
	topMultiSuggestion = 5
)

// Count is a value with its number of occurrences.
type Count struct {
	Value string
	Count int
}

// IntensityLevel is one intensity value with its share of the records that
// carry an intensity.
type IntensityLevel struct {
	Level   string
	Count   int
	Percent float64
}

// TransformationPair is an observed/desired output pair.
type TransformationPair struct {
	Current   string
	Suggested string
	Count     int
}

// WordSuggestions lists the distinct suggestions made for one word.
type WordSuggestions struct {
	Word        string
	Suggestions []string
}

// DateRange is the span of submittedAt values.
type DateRange struct {
	Earliest time.Time
	Latest   time.Time
}

// Report holds every statistic. A nil or empty section means the field was
// absent from all records.
type Report struct {
	Total             int
	DateRange         *DateRange
	Intensity         []IntensityLevel
	TopWords          []Count
	Contexts          []Count
	Transformations   []TransformationPair
	MultiSuggestWords []WordSuggestions
}

// Analyze folds the records into a Report. Records are not modified.
func Analyze(records []feedback.Record) Report {
	report := Report{Total: len(records)}
	if len(records) == 0 {
		return report
	}

	report.DateRange = dateRange(records)
	report.Intensity = intensity(records)
	report.TopWords = top(counts(records, feedback.FieldOriginalWord, strings.ToLower), topWords)
	report.Contexts = counts(records, feedback.FieldContext, nil)
	report.Transformations = transformations(records)
	report.MultiSuggestWords = multiSuggestions(records)

	return report
}

func dateRange(records []feedback.Record) *DateRange {
	var r *DateRange
	for _, rec := range records {
		t, ok := rec.SubmittedAt()
		if !ok {
			continue
		}
		if r == nil {
			r = &DateRange{Earliest: t, Latest: t}
			continue
		}
		if t.Before(r.Earliest) {
			r.Earliest = t
		}
		if t.After(r.Latest) {
			r.Latest = t
		}
	}
	return r
}

// tally counts values keeping first-seen order for stable tie-breaking.
type tally struct {
	order []string
	n     map[string]int
}

func newTally() *tally {
	return &tally{n: make(map[string]int)}
}

func (t *tally) add(v string) {
	if _, ok := t.n[v]; !ok {
		t.order = append(t.order, v)
	}
	t.n[v]++
}

// byCount returns values by count descending, ties in first-seen order.
func (t *tally) byCount() []Count {
	out := make([]Count, 0, len(t.order))
	for _, v := range t.order {
		out = append(out, Count{Value: v, Count: t.n[v]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func counts(records []feedback.Record, field string, normalize func(string) string) []Count {
	t := newTally()
	for _, rec := range records {
		v, ok := rec.String(field)
		if !ok {
			continue
		}
		if normalize != nil {
			v = normalize(v)
		}
		t.add(v)
	}
	return t.byCount()
}

func top(c []Count, n int) []Count {
	if len(c) > n {
		return c[:n]
	}
	return c
}

func intensity(records []feedback.Record) []IntensityLevel {
	t := newTally()
	total := 0
	for _, rec := range records {
		v, ok := rec.String(feedback.FieldIntensity)
		if !ok {
			continue
		}
		t.add(v)
		total++
	}
	if total == 0 {
		return nil
	}

	levels := make([]string, len(t.order))
	copy(levels, t.order)
	sortLevels(levels)

	out := make([]IntensityLevel, 0, len(levels))
	for _, l := range levels {
		n := t.n[l]
		out = append(out, IntensityLevel{
			Level:   l,
			Count:   n,
			Percent: float64(n) / float64(total) * 100,
		})
	}
	return out
}

// sortLevels orders numerically when every level is a number, lexically
// otherwise.
func sortLevels(levels []string) {
	nums := make(map[string]float64, len(levels))
	for _, l := range levels {
		f, err := strconv.ParseFloat(l, 64)
		if err != nil {
			sort.Strings(levels)
			return
		}
		nums[l] = f
	}
	sort.SliceStable(levels, func(i, j int) bool { return nums[levels[i]] < nums[levels[j]] })
}

func transformations(records []feedback.Record) []TransformationPair {
	type pair struct{ current, suggested string }

	var order []pair
	n := make(map[pair]int)
	for _, rec := range records {
		cur, ok := rec.String(feedback.FieldCurrentTransformation)
		if !ok {
			continue
		}
		sug, ok := rec.String(feedback.FieldSuggestedTransformation)
		if !ok {
			continue
		}
		p := pair{cur, sug}
		if _, seen := n[p]; !seen {
			order = append(order, p)
		}
		n[p]++
	}

	out := make([]TransformationPair, 0, len(order))
	for _, p := range order {
		out = append(out, TransformationPair{Current: p.current, Suggested: p.suggested, Count: n[p]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > topTransformations {
		out = out[:topTransformations]
	}
	return out
}

func multiSuggestions(records []feedback.Record) []WordSuggestions {
	var words []string
	suggestions := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	for _, rec := range records {
		word, ok := rec.String(feedback.FieldOriginalWord)
		if !ok {
			continue
		}
		sug, ok := rec.String(feedback.FieldSuggestedTransformation)
		if !ok {
			continue
		}
		word = strings.ToLower(word)
		if _, ok := seen[word]; !ok {
			seen[word] = make(map[string]bool)
			words = append(words, word)
		}
		if !seen[word][sug] {
			seen[word][sug] = true
			suggestions[word] = append(suggestions[word], sug)
		}
	}

	var out []WordSuggestions
	for _, w := range words {
		if len(suggestions[w]) > 1 {
			out = append(out, WordSuggestions{Word: w, Suggestions: suggestions[w]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Suggestions) > len(out[j].Suggestions) })
	if len(out) > topMultiSuggestion {
		out = out[:topMultiSuggestion]
	}
	return out
}
