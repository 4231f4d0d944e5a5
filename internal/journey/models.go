package journey

import "time"

// Journey is one expedition along a pre-recorded route. At most one journey
// is ongoing (started, not finished) at a time.
type Journey struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	DistanceM   float64   `json:"distance_m"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (j Journey) Started() bool {
	return !j.StartedAt.IsZero()
}

func (j Journey) Finished() bool {
	return !j.FinishedAt.IsZero()
}

func (j Journey) Ongoing() bool {
	return j.Started() && !j.Finished()
}

// Waypoint is one recorded point on the route, with cumulative distance from
// the route origin. Waypoints are written once at upload time.
type Waypoint struct {
	JourneyID  string  `json:"journey_id"`
	Seq        int     `json:"seq"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	ElevationM float64 `json:"elevation_m"`
	DistanceM  float64 `json:"distance_m"`
}

// Position is an interpolated point along the route.
type Position struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	DistanceM      float64 `json:"distance_m"`
	LatestWaypoint int     `json:"latest_waypoint"`
	Finished       bool    `json:"finished"`
}

// Location is the committed end-of-day position of a journey. The most
// recent row is the authoritative current position.
type Location struct {
	JourneyID      string    `json:"journey_id"`
	Date           time.Time `json:"date"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	DistanceM      float64   `json:"distance_m"`
	LatestWaypoint int       `json:"latest_waypoint"`
	Address        string    `json:"address,omitempty"`
	Country        string    `json:"country,omitempty"`
	POI            string    `json:"poi,omitempty"`
	OverviewURL    string    `json:"overview_url,omitempty"`
	DetailURL      string    `json:"detail_url,omitempty"`
	POIPhotoURL    string    `json:"poi_photo_url,omitempty"`
}
