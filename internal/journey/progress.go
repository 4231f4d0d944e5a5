package journey

import "sort"

// DayProgress is the outcome of advancing a journey by one day's distance.
type DayProgress struct {
	Position       Position `json:"position"`
	StartDistanceM float64  `json:"start_distance_m"`
	EndDistanceM   float64  `json:"end_distance_m"`
	DayDistanceM   float64  `json:"day_distance_m"`
	Finished       bool     `json:"finished"`
}

// Advance moves an ongoing journey from prevDistanceM by dayDistanceM along
// the path. It reports false (no update) when the journey is not ongoing.
func Advance(j Journey, p *Path, prevDistanceM, dayDistanceM float64) (DayProgress, bool, error) {
	if !j.Ongoing() {
		return DayProgress{}, false, nil
	}

	end := prevDistanceM + dayDistanceM
	pos, err := p.LocationAt(end)
	if err != nil {
		return DayProgress{}, false, err
	}
	return DayProgress{
		Position:       pos,
		StartDistanceM: prevDistanceM,
		EndDistanceM:   end,
		DayDistanceM:   dayDistanceM,
		Finished:       pos.Finished,
	}, true, nil
}

// CountryChanged reports a border crossing. Unknown countries on either side
// never count as a change.
func CountryChanged(prev, current string) bool {
	return prev != "" && current != "" && prev != current
}

// Contribution is one person's share of a day's movement, in metres.
type Contribution struct {
	GarglingID int
	DistanceM  float64
}

// Point is a bare coordinate on a per-person segment polyline.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PersonSegment is the stretch of route covered by one person's steps on a
// given day, following the path geometry.
type PersonSegment struct {
	GarglingID int     `json:"gargling_id"`
	StartM     float64 `json:"start_m"`
	EndM       float64 `json:"end_m"`
	Points     []Point `json:"points"`
}

// ApportionSegments lays the day's contributions end to end along the route,
// largest first, starting at startDistanceM. Each person's segment follows
// the path geometry, crossing intermediate waypoints as needed.
func ApportionSegments(p *Path, startDistanceM float64, contribs []Contribution) ([]PersonSegment, error) {
	sorted := make([]Contribution, len(contribs))
	copy(sorted, contribs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DistanceM > sorted[j].DistanceM
	})

	segments := make([]PersonSegment, 0, len(sorted))
	cursor := startDistanceM
	total := p.TotalDistanceM()
	for _, c := range sorted {
		start := cursor
		end := start + c.DistanceM
		if end > total {
			end = total
		}

		startPos, err := p.LocationAt(start)
		if err != nil {
			return nil, err
		}
		endPos, err := p.LocationAt(end)
		if err != nil {
			return nil, err
		}

		points := []Point{{Lat: startPos.Lat, Lon: startPos.Lon}}
		for _, wp := range p.SegmentBetween(start, end) {
			if wp.DistanceM <= start || wp.DistanceM >= end {
				continue
			}
			points = append(points, Point{Lat: wp.Lat, Lon: wp.Lon})
		}
		points = append(points, Point{Lat: endPos.Lat, Lon: endPos.Lon})

		segments = append(segments, PersonSegment{
			GarglingID: c.GarglingID,
			StartM:     start,
			EndM:       end,
			Points:     points,
		})
		cursor = end
	}
	return segments, nil
}
