package journey

import (
	"errors"
	"math"
	"testing"

	"github.com/eirki/gargbot-3000-sub000/internal/shared/geo"
)

// Northbound route along a meridian. 1000 m is roughly 0.008993 degrees of
// latitude, so cumulative distances line up with the coordinates.
func testWaypoints() []Waypoint {
	return []Waypoint{
		{Seq: 0, Lat: 60.0, Lon: 10.0, DistanceM: 0},
		{Seq: 1, Lat: 60.008993, Lon: 10.0, DistanceM: 1000},
		{Seq: 2, Lat: 60.026980, Lon: 10.0, DistanceM: 3000},
	}
}

func testPath(t *testing.T) *Path {
	t.Helper()
	p, err := NewPath(testWaypoints())
	if err != nil {
		t.Fatalf("new path: %v", err)
	}
	return p
}

func TestNewPathValidation(t *testing.T) {
	if _, err := NewPath(testWaypoints()[:1]); err == nil {
		t.Fatalf("expected error for single waypoint")
	}

	shifted := testWaypoints()
	shifted[0].DistanceM = 5
	if _, err := NewPath(shifted); err == nil {
		t.Fatalf("expected error for non-zero start distance")
	}

	decreasing := testWaypoints()
	decreasing[2].DistanceM = 500
	if _, err := NewPath(decreasing); err == nil {
		t.Fatalf("expected error for decreasing distance")
	}

	badSeq := testWaypoints()
	badSeq[2].Seq = 1
	if _, err := NewPath(badSeq); err == nil {
		t.Fatalf("expected error for non-increasing seq")
	}
}

func TestLocationAtWaypointExact(t *testing.T) {
	p := testPath(t)

	pos, err := p.LocationAt(1000)
	if err != nil {
		t.Fatalf("location at 1000: %v", err)
	}
	if pos.Lat != 60.008993 || pos.Lon != 10.0 {
		t.Fatalf("expected exact waypoint coordinates, got %+v", pos)
	}
	if pos.LatestWaypoint != 1 || pos.Finished {
		t.Fatalf("unexpected position: %+v", pos)
	}
}

func TestLocationAtInterpolates(t *testing.T) {
	p := testPath(t)

	// Two days of 500 m and 750 m land at cumulative 1250 m, 250 m past
	// the second waypoint.
	pos, err := p.LocationAt(1250)
	if err != nil {
		t.Fatalf("location at 1250: %v", err)
	}
	if pos.LatestWaypoint != 1 {
		t.Fatalf("expected latest waypoint 1, got %d", pos.LatestWaypoint)
	}
	if pos.DistanceM != 1250 {
		t.Fatalf("expected distance 1250, got %f", pos.DistanceM)
	}
	got := geo.HaversineM(60.008993, 10.0, pos.Lat, pos.Lon)
	if math.Abs(got-250) > 1 {
		t.Fatalf("expected interpolated point 250 m past waypoint, got %f m", got)
	}
	if pos.Lat <= 60.008993 {
		t.Fatalf("expected northbound interpolation, got lat %f", pos.Lat)
	}
}

func TestLocationAtOrigin(t *testing.T) {
	p := testPath(t)

	pos, err := p.LocationAt(0)
	if err != nil {
		t.Fatalf("location at 0: %v", err)
	}
	if pos.Lat != 60.0 || pos.LatestWaypoint != 0 || pos.Finished {
		t.Fatalf("unexpected origin position: %+v", pos)
	}
}

func TestLocationAtEndFinishes(t *testing.T) {
	p := testPath(t)

	for _, dist := range []float64{3000, 3500} {
		pos, err := p.LocationAt(dist)
		if err != nil {
			t.Fatalf("location at %f: %v", dist, err)
		}
		if !pos.Finished {
			t.Fatalf("expected finished at %f", dist)
		}
		if pos.Lat != 60.026980 || pos.DistanceM != 3000 {
			t.Fatalf("expected clamp at final waypoint, got %+v", pos)
		}
	}
}

func TestLocationAtNegative(t *testing.T) {
	p := testPath(t)

	if _, err := p.LocationAt(-1); !errors.Is(err, ErrBehindRoute) {
		t.Fatalf("expected ErrBehindRoute, got %v", err)
	}
}

func TestSegmentBetween(t *testing.T) {
	p := testPath(t)

	seg := p.SegmentBetween(0, 1000)
	if len(seg) != 2 || seg[0].Seq != 0 || seg[1].Seq != 1 {
		t.Fatalf("unexpected segment: %+v", seg)
	}

	if seg := p.SegmentBetween(1100, 2900); len(seg) != 0 {
		t.Fatalf("expected empty segment, got %+v", seg)
	}

	if seg := p.SegmentBetween(500, 3000); len(seg) != 2 {
		t.Fatalf("expected two waypoints, got %+v", seg)
	}
}

func TestTotalDistance(t *testing.T) {
	p := testPath(t)
	if p.TotalDistanceM() != 3000 {
		t.Fatalf("expected 3000, got %f", p.TotalDistanceM())
	}
}
