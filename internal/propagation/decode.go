package propagation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

var (
	// ErrElementDecode means an element set cannot be turned into a model:
	// wrong length, wrong line markers or an unreadable numeric field.
	ErrElementDecode = errors.New("element set decode failed")

	// ErrPropagation means the model could not produce a usable position at
	// the requested time.
	ErrPropagation = errors.New("propagation failed")
)

const lineLength = 69

// field is a fixed-column numeric field read by the SGP4 initialiser.
type field struct {
	name  string
	line  int
	exact bool // read without any blank handling
	value func(l1, l2 string) string
}

// The initialiser parses these exact column slices and aborts the process on
// failure, so every one is checked here first. Columns are 0-indexed, half-open.
var fields = []field{
	{"epoch day", 1, true, func(l1, _ string) string { return l1[20:32] }},
	{"mean motion first derivative", 1, false, func(l1, _ string) string { return l1[33:43] }},
	{"mean motion second derivative", 1, false, func(l1, _ string) string {
		return l1[44:45] + "." + l1[45:50] + "e" + l1[50:52]
	}},
	{"drag term", 1, false, func(l1, _ string) string {
		return l1[53:54] + "." + l1[54:59] + "e" + l1[59:61]
	}},
	{"inclination", 2, false, func(_, l2 string) string { return l2[8:16] }},
	{"right ascension", 2, false, func(_, l2 string) string { return l2[17:25] }},
	{"eccentricity", 2, true, func(_, l2 string) string { return "." + l2[26:33] }},
	{"argument of perigee", 2, false, func(_, l2 string) string { return l2[34:42] }},
	{"mean anomaly", 2, false, func(_, l2 string) string { return l2[43:51] }},
	{"mean motion", 2, false, func(_, l2 string) string { return l2[52:63] }},
}

// checkLines validates everything the SGP4 initialiser reads from the two
// element lines.
func checkLines(line1, line2 string) error {
	if len(line1) != lineLength {
		return fmt.Errorf("%w: line 1 length %d, expected %d", ErrElementDecode, len(line1), lineLength)
	}
	if len(line2) != lineLength {
		return fmt.Errorf("%w: line 2 length %d, expected %d", ErrElementDecode, len(line2), lineLength)
	}
	if line1[0] != '1' {
		return fmt.Errorf("%w: line 1 must start with '1', got %q", ErrElementDecode, line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("%w: line 2 must start with '2', got %q", ErrElementDecode, line2[0])
	}

	for i, l := range []string{line1, line2} {
		if _, err := tle.CatalogNumber(l); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrElementDecode, i+1, err)
		}
	}

	if _, err := strconv.Atoi(line1[18:20]); err != nil {
		return fmt.Errorf("%w: epoch year %q is not numeric", ErrElementDecode, line1[18:20])
	}

	for _, f := range fields {
		raw := f.value(line1, line2)
		ok := parsesBothWays(raw)
		if f.exact {
			_, err := strconv.ParseFloat(raw, 64)
			ok = err == nil
		}
		if !ok {
			return fmt.Errorf("%w: line %d %s %q is not numeric", ErrElementDecode, f.line, f.name, raw)
		}
	}

	if mm, _ := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64); mm <= 0 {
		return fmt.Errorf("%w: mean motion %q must be positive", ErrElementDecode, line2[52:63])
	}
	return nil
}

// parsesBothWays reports whether s parses as a float both with up to two
// blanks stripped and with surrounding blanks trimmed. A field passing both
// cannot trip the initialiser whichever normalisation it applies.
func parsesBothWays(s string) bool {
	if _, err := strconv.ParseFloat(strings.Replace(s, " ", "", 2), 64); err != nil {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
