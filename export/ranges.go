package export

import (
	"math"
	"strconv"
	"strings"
)

// Unbounded is the upper bound used for layer ranges. Layer counts vary per
// page, so layer ranges are clamped when a page is drawn.
const Unbounded = math.MaxInt

// Range is an inclusive, 0-based index interval.
type Range struct {
	First int
	Last  int
}

// Len returns the number of indices in the interval.
func (r Range) Len() int {
	if r.Last < r.First {
		return 0
	}
	n := r.Last - r.First
	if n == math.MaxInt {
		return math.MaxInt
	}
	return n + 1
}

// Ranges is an ordered list of intervals. Intervals may overlap; overlapping
// indices are visited once per interval.
type Ranges []Range

// ParseRange parses a comma separated list of 1-based tokens of the form
// "N", "N-M" or "N-" into 0-based intervals clamped to [0, upperBound].
// "N-" extends to upperBound. Malformed and reversed tokens are skipped.
func ParseRange(text string, upperBound int) Ranges {
	if upperBound < 0 {
		return nil
	}

	var out Ranges
	for _, token := range strings.Split(text, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		r, ok := parseToken(token, upperBound)
		if !ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

func parseToken(token string, upperBound int) (Range, bool) {
	left, right, dashed := strings.Cut(token, "-")
	first, ok := parseIndex(left)
	if !ok {
		return Range{}, false
	}

	last := first
	if dashed {
		right = strings.TrimSpace(right)
		if right == "" {
			last = upperBound
		} else if last, ok = parseIndex(right); !ok {
			return Range{}, false
		}
	}

	first = clamp(first, upperBound)
	last = clamp(last, upperBound)
	if first > last {
		return Range{}, false
	}
	return Range{First: first, Last: last}, true
}

// parseIndex converts a 1-based decimal token to a 0-based index.
func parseIndex(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Overflow: the value is past any bound.
		return math.MaxInt, true
	}
	if n < 1 {
		return 0, false
	}
	return n - 1, true
}

func clamp(v, upperBound int) int {
	if v < 0 {
		return 0
	}
	if v > upperBound {
		return upperBound
	}
	return v
}

// PageRange resolves a page range expression for a document with pageCount
// pages. Empty text, or text that yields no valid interval, selects the
// whole document so an export never silently produces zero pages.
func PageRange(text string, pageCount int) Ranges {
	if pageCount <= 0 {
		return nil
	}
	all := Ranges{{First: 0, Last: pageCount - 1}}
	if strings.TrimSpace(text) == "" {
		return all
	}
	parsed := ParseRange(text, pageCount-1)
	if len(parsed) == 0 {
		return all
	}
	return parsed
}

// LayerRange parses a layer range expression. A nil result means no layer
// filtering, which is also what text without a valid interval produces.
func LayerRange(text string) Ranges {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parsed := ParseRange(text, Unbounded)
	if len(parsed) == 0 {
		return nil
	}
	return parsed
}

// Count returns the number of indices selected, counting duplicates.
func (rs Ranges) Count() int {
	total := 0
	for _, r := range rs {
		n := r.Len()
		if total > math.MaxInt-n {
			return math.MaxInt
		}
		total += n
	}
	return total
}

// Clamp limits every interval to [0, count-1], dropping intervals that start
// at or beyond count.
func (rs Ranges) Clamp(count int) Ranges {
	if count <= 0 {
		return nil
	}
	out := make(Ranges, 0, len(rs))
	for _, r := range rs {
		if r.First >= count {
			continue
		}
		out = append(out, Range{First: max(r.First, 0), Last: min(r.Last, count-1)})
	}
	return out
}

// Indices expands the intervals clamped to count, in order, duplicates kept.
func (rs Ranges) Indices(count int) []int {
	var out []int
	for _, r := range rs.Clamp(count) {
		for i := r.First; i <= r.Last; i++ {
			out = append(out, i)
		}
	}
	return out
}

// String renders the ranges back to 1-based text.
func (rs Ranges) String() string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		first := strconv.Itoa(r.First + 1)
		switch {
		case r.Last == Unbounded:
			parts = append(parts, first+"-")
		case r.Last == r.First:
			parts = append(parts, first)
		default:
			parts = append(parts, first+"-"+strconv.Itoa(r.Last+1))
		}
	}
	return strings.Join(parts, ",")
}
