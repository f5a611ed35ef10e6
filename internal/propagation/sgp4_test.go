package propagation

import (
	"errors"
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/kashacker/satellite-tracker-orbitx/internal/tle"
)

// ISS TLE (epoch 2025-02-14).
const (
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058"
)

// Vallado SGP4 verification case, satellite 00005 (deep-ish, e=0.186).
const (
	vanguardLine1 = "1 00005U 58002B   00179.78495062  .00000023  00000-0  28098-4 0  4753"
	vanguardLine2 = "2 00005  34.2682 348.7242 1859667 331.7664  19.3264 10.82419157413667"
)

func set(name, l1, l2 string) tle.ElementSet {
	n, _ := tle.CatalogNumber(l1)
	return tle.ElementSet{CatalogNumber: n, Name: name, Line1: l1, Line2: l2}
}

func TestPropagateISS(t *testing.T) {
	m, err := Decode(set("ISS (ZARYA)", issLine1, issLine2))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if m.catalogNumber != 25544 {
		t.Errorf("catalogNumber = %d", m.catalogNumber)
	}

	target := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	r, err := m.Propagate(target)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	// ISS orbits ~420 km up: ~6791 km from the centre.
	if mag := r.Norm(); mag < 6650 || mag > 6850 {
		t.Errorf("TEME position magnitude = %.1f km, expected ~6791 km", mag)
	}

	// Matches the library called directly with the same constants.
	ref, _ := satellite.Propagate(satellite.TLEToSat(issLine1, issLine2, satellite.GravityWGS72), 2025, 2, 14, 12, 0, 0)
	if math.Abs(ref.X-r.X) > 1e-9 || math.Abs(ref.Y-r.Y) > 1e-9 || math.Abs(ref.Z-r.Z) > 1e-9 {
		t.Errorf("position %+v differs from library %+v", r, ref)
	}
}

// TestPropagateVallado checks the Vallado verification case at its epoch,
// r = (7022.465, -1400.083, 0.040) km. The epoch falls between whole
// seconds, so the interpolated position is compared with a tolerance.
func TestPropagateVallado(t *testing.T) {
	m, err := Decode(set("VANGUARD 1", vanguardLine1, vanguardLine2))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// Epoch: 2000 day 179.78495062 = 2000-06-27 18:50:19.73 UTC.
	r, err := m.Propagate(time.Date(2000, 6, 27, 18, 50, 19, 733_000_000, time.UTC))
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	want := math.Sqrt(7022.46529266*7022.46529266 + 1400.08296755*1400.08296755 + 0.03995155*0.03995155)
	if math.Abs(r.Norm()-want) > 2.0 {
		t.Errorf("|r| = %.3f km, want %.3f ±2 km", r.Norm(), want)
	}
	if math.Abs(r.X-7022.465) > 10 || math.Abs(r.Y+1400.083) > 10 {
		t.Errorf("r = %+v, want near (7022.465, -1400.083, 0.040)", r)
	}
}

func TestPropagateSubSecond(t *testing.T) {
	m, err := Decode(set("ISS (ZARYA)", issLine1, issLine2))
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2025, 2, 14, 6, 0, 0, 0, time.UTC)
	a, _ := m.Propagate(base)
	c, _ := m.Propagate(base.Add(time.Second))
	b, err := m.Propagate(base.Add(500 * time.Millisecond))
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}

	// ISS moves ~7.66 km/s, so half a second is ~3.8 km from either neighbour.
	if d := b.Sub(a).Norm(); d < 3 || d > 4.5 {
		t.Errorf("distance from whole second = %.3f km, want ~3.8", d)
	}
	mid := a.Add(c).Scale(0.5)
	if d := b.Sub(mid).Norm(); d > 1e-9 {
		t.Errorf("half-second position %+v is %.3g km from midpoint %+v", b, d, mid)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	replace := func(s string, at int, with string) string {
		return s[:at] + with + s[at+len(with):]
	}

	tests := []struct {
		name   string
		l1, l2 string
	}{
		{"garbage", "invalid line 1", "invalid line 2"},
		{"short line 1", issLine1[:60], issLine2},
		{"long line 2", issLine1, issLine2 + "0"},
		{"swapped lines", issLine2, issLine1},
		{"alpha catalog number", replace(issLine1, 2, "A5544"), issLine2},
		{"epoch year", replace(issLine1, 18, "2X"), issLine2},
		{"epoch day", replace(issLine1, 20, " 45.1803"), issLine2},
		{"ndot", replace(issLine1, 33, "  .0001x717"), issLine2},
		{"bstar", replace(issLine1, 53, " 3009A-3"), issLine2},
		{"nddot exponent", replace(issLine1, 50, "+?"), issLine2},
		{"inclination", issLine1, replace(issLine2, 8, " 51.64x2")},
		{"eccentricity", issLine1, replace(issLine2, 26, "00 3457")},
		{"mean anomaly", issLine1, replace(issLine2, 43, "2 3.8 19")},
		{"mean motion", issLine1, replace(issLine2, 52, "15.498-4301")},
		{"zero mean motion", issLine1, replace(issLine2, 52, "00.00000000")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tle.ElementSet{CatalogNumber: 25544, Name: "X", Line1: tt.l1, Line2: tt.l2})
			if !errors.Is(err, ErrElementDecode) {
				t.Fatalf("Decode error = %v, want ErrElementDecode", err)
			}
		})
	}
}

func TestDecodeAcceptsKnownSets(t *testing.T) {
	sets := []tle.ElementSet{
		set("ISS (ZARYA)", issLine1, issLine2),
		set("VANGUARD 1", vanguardLine1, vanguardLine2),
		set("ISS 2024", "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005", "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"),
		set("STARLINK-1007", "1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995", "2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05"),
	}
	for _, s := range sets {
		if _, err := Decode(s); err != nil {
			t.Errorf("Decode(%s): %v", s.Name, err)
		}
	}
}

// TestPropagateDecayed pushes a very low, high-drag orbit decades past its
// epoch; the model must fail rather than return a clamped position.
func TestPropagateDecayed(t *testing.T) {
	l1 := "1 25544U 98067A   25045.18032407  .00016717  00000+0  99999-1 0  9993"
	l2 := "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 16.40000000495058"
	m, err := Decode(set("DECAYING", l1, l2))
	if err != nil {
		t.Skipf("fixture rejected at init: %v", err)
	}
	_, err = m.Propagate(time.Date(2045, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrPropagation) {
		t.Errorf("Propagate error = %v, want ErrPropagation", err)
	}
}
