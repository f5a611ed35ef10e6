package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Catalog number columns of both element lines (0-indexed, half-open).
const (
	catalogStart = 2
	catalogEnd   = 7
)

// CatalogNumber extracts the catalog number from columns [2,7) of an element line.
// The field may be zero- or space-padded; anything that is not a positive
// integer is rejected.
func CatalogNumber(line string) (int, error) {
	if len(line) < catalogEnd {
		return 0, fmt.Errorf("line too short for catalog number: %d chars", len(line))
	}
	field := strings.TrimSpace(line[catalogStart:catalogEnd])
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("catalog number %q is not numeric", field)
	}
	if n <= 0 {
		return 0, fmt.Errorf("catalog number %q is not positive", field)
	}
	return n, nil
}

// ParseGroup reads a group listing (name, line 1, line 2 repeated) from r.
// Blank lines are ignored. Triplets with a missing line, a bad line marker, an
// empty name or an unusable catalog number are skipped with a warning; they
// never fail the whole payload.
func ParseGroup(r io.Reader, logger *slog.Logger) ([]ElementSet, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	var sets []ElementSet
	for i := 0; i < len(lines); i += 3 {
		if i+2 >= len(lines) {
			logger.Warn("skipping truncated TLE entry", "line_index", i, "name", lines[i])
			break
		}
		name := strings.TrimSpace(lines[i])
		line1 := strings.TrimSpace(lines[i+1])
		line2 := strings.TrimSpace(lines[i+2])

		if name == "" {
			logger.Warn("skipping TLE entry with empty name", "line_index", i)
			continue
		}
		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			continue
		}
		catnr, err := CatalogNumber(line1)
		if err != nil {
			logger.Warn("skipping TLE entry with invalid catalog number", "name", name, "error", err)
			continue
		}

		sets = append(sets, ElementSet{
			CatalogNumber: catnr,
			Name:          name,
			Line1:         line1,
			Line2:         line2,
			Epoch:         epochOf(line1),
		})
	}

	return sets, nil
}

// ParseElementSet decodes a single-satellite response: the first three
// non-blank lines are taken as name, line 1 and line 2.
func ParseElementSet(data []byte) (ElementSet, error) {
	lines, err := readLines(strings.NewReader(string(data)))
	if err != nil {
		return ElementSet{}, fmt.Errorf("%w: %v", ErrMalformedElementData, err)
	}
	if len(lines) < 3 {
		return ElementSet{}, fmt.Errorf("%w: expected name and two element lines, got %d line(s)", ErrMalformedElementData, len(lines))
	}

	set := ElementSet{
		Name:  strings.TrimSpace(lines[0]),
		Line1: strings.TrimSpace(lines[1]),
		Line2: strings.TrimSpace(lines[2]),
	}
	if set.Name == "" {
		return ElementSet{}, fmt.Errorf("%w: empty satellite name", ErrMalformedElementData)
	}
	catnr, err := CatalogNumber(set.Line1)
	if err != nil {
		return ElementSet{}, fmt.Errorf("%w: line 1: %v", ErrMalformedElementData, err)
	}
	set.CatalogNumber = catnr
	set.Epoch = epochOf(set.Line1)
	return set, nil
}

// Validate checks that set is a complete element set for catalog number want.
// Structural problems are ErrMalformedElementData; a well-formed set that
// describes a different satellite is ErrValidation.
func Validate(set ElementSet, want int) error {
	if strings.TrimSpace(set.Name) == "" {
		return fmt.Errorf("%w: empty satellite name", ErrMalformedElementData)
	}
	if set.Line1 == "" || set.Line2 == "" {
		return fmt.Errorf("%w: missing element line", ErrMalformedElementData)
	}

	n1, err := CatalogNumber(set.Line1)
	if err != nil {
		return fmt.Errorf("%w: line 1: %v", ErrMalformedElementData, err)
	}
	n2, err := CatalogNumber(set.Line2)
	if err != nil {
		return fmt.Errorf("%w: line 2: %v", ErrMalformedElementData, err)
	}

	if n1 != want || n2 != want {
		return fmt.Errorf("%w: requested %d, line 1 has %d, line 2 has %d", ErrValidation, want, n1, n2)
	}
	if set.CatalogNumber != 0 && set.CatalogNumber != want {
		return fmt.Errorf("%w: requested %d, record keyed %d", ErrValidation, want, set.CatalogNumber)
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}
	return lines, nil
}

// epochOf returns the epoch encoded in line 1, or the zero time if unreadable.
func epochOf(line1 string) time.Time {
	if len(line1) < 32 {
		return time.Time{}
	}
	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return time.Time{}
	}
	return epoch
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
