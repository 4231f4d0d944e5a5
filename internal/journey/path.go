package journey

import (
	"errors"
	"fmt"
	"sort"

	"github.com/eirki/gargbot-3000-sub000/internal/shared/geo"
)

var ErrBehindRoute = errors.New("distance before route origin")

// Path is the ordered waypoint sequence of a journey, used to interpolate a
// geographic position for any cumulative distance.
type Path struct {
	waypoints []Waypoint
}

func NewPath(waypoints []Waypoint) (*Path, error) {
	if len(waypoints) < 2 {
		return nil, errors.New("path needs at least two waypoints")
	}
	if waypoints[0].DistanceM != 0 {
		return nil, errors.New("path must start at distance 0")
	}
	for i := 1; i < len(waypoints); i++ {
		if waypoints[i].Seq <= waypoints[i-1].Seq {
			return nil, fmt.Errorf("waypoint sequence not increasing at index %d", i)
		}
		if waypoints[i].DistanceM < waypoints[i-1].DistanceM {
			return nil, fmt.Errorf("waypoint distance decreasing at index %d", i)
		}
	}
	return &Path{waypoints: waypoints}, nil
}

func (p *Path) Waypoints() []Waypoint {
	return p.waypoints
}

func (p *Path) TotalDistanceM() float64 {
	return p.waypoints[len(p.waypoints)-1].DistanceM
}

// LocationAt interpolates the position at a cumulative distance. Past the end
// of the route it returns the final waypoint with Finished set.
func (p *Path) LocationAt(distanceM float64) (Position, error) {
	if distanceM < 0 {
		return Position{}, ErrBehindRoute
	}

	// Last waypoint at or before the target distance.
	idx := sort.Search(len(p.waypoints), func(i int) bool {
		return p.waypoints[i].DistanceM > distanceM
	}) - 1

	latest := p.waypoints[idx]
	if idx == len(p.waypoints)-1 {
		return Position{
			Lat:            latest.Lat,
			Lon:            latest.Lon,
			DistanceM:      latest.DistanceM,
			LatestWaypoint: latest.Seq,
			Finished:       true,
		}, nil
	}

	remaining := distanceM - latest.DistanceM
	pos := Position{
		Lat:            latest.Lat,
		Lon:            latest.Lon,
		DistanceM:      distanceM,
		LatestWaypoint: latest.Seq,
	}
	if remaining > 0 {
		next := p.waypoints[idx+1]
		bearing := geo.BearingDeg(latest.Lat, latest.Lon, next.Lat, next.Lon)
		pos.Lat, pos.Lon = geo.DestinationPoint(latest.Lat, latest.Lon, bearing, remaining)
	}
	return pos, nil
}

// SegmentBetween returns the waypoints whose cumulative distance lies within
// [lowM, highM], in route order.
func (p *Path) SegmentBetween(lowM, highM float64) []Waypoint {
	var segment []Waypoint
	for _, wp := range p.waypoints {
		if wp.DistanceM < lowM {
			continue
		}
		if wp.DistanceM > highM {
			break
		}
		segment = append(segment, wp)
	}
	return segment
}
