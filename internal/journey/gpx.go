package journey

import (
	"encoding/xml"
	"errors"

	"github.com/eirki/gargbot-3000-sub000/internal/shared/geo"
)

type gpxDoc struct {
	Tracks []struct {
		Segments []struct {
			Points []struct {
				Lat float64 `xml:"lat,attr"`
				Lon float64 `xml:"lon,attr"`
				Ele float64 `xml:"ele"`
			} `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
}

// ParseTrack reads a GPX track file into waypoints with cumulative distance
// from the route origin. Multiple track segments are concatenated.
func ParseTrack(data []byte) ([]Waypoint, error) {
	var doc gpxDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var waypoints []Waypoint
	cumulative := 0.0
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				if len(waypoints) > 0 {
					prev := waypoints[len(waypoints)-1]
					cumulative += geo.HaversineM(prev.Lat, prev.Lon, pt.Lat, pt.Lon)
				}
				waypoints = append(waypoints, Waypoint{
					Seq:        len(waypoints),
					Lat:        pt.Lat,
					Lon:        pt.Lon,
					ElevationM: pt.Ele,
					DistanceM:  cumulative,
				})
			}
		}
	}
	if len(waypoints) < 2 {
		return nil, errors.New("track has fewer than two points")
	}
	return waypoints, nil
}
