package journey

import (
	"context"
	"errors"
	"time"

	"github.com/eirki/gargbot-3000-sub000/internal/activity"
	"github.com/eirki/gargbot-3000-sub000/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrOngoing         = errors.New("another journey is already ongoing")
	ErrMultipleOngoing = errors.New("multiple ongoing journeys")
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// CreateJourney parses a GPX track and stores the journey with its waypoints.
func (s *Service) CreateJourney(ctx context.Context, origin, destination string, gpxData []byte) (Journey, error) {
	waypoints, err := ParseTrack(gpxData)
	if err != nil {
		return Journey{}, err
	}
	path, err := NewPath(waypoints)
	if err != nil {
		return Journey{}, err
	}

	j := Journey{
		ID:          uuid.NewString(),
		Origin:      origin,
		Destination: destination,
		DistanceM:   path.TotalDistanceM(),
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO journeys (id, origin, destination, distance_m)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, j.ID, j.Origin, j.Destination, j.DistanceM)
	if err := row.Scan(&j.CreatedAt); err != nil {
		return Journey{}, err
	}

	for _, wp := range waypoints {
		_, err := s.db.Exec(ctx, `
			INSERT INTO waypoints (journey_id, seq, lat, lon, elevation_m, distance_m)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, j.ID, wp.Seq, wp.Lat, wp.Lon, wp.ElevationM, wp.DistanceM)
		if err != nil {
			return Journey{}, err
		}
	}
	return j, nil
}

// StartJourney sets the start date. Only one journey may be ongoing.
func (s *Service) StartJourney(ctx context.Context, id string, date time.Time) (Journey, error) {
	if _, ongoing, err := s.Ongoing(ctx); err != nil {
		return Journey{}, err
	} else if ongoing {
		return Journey{}, ErrOngoing
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE journeys SET started_at=$2
		WHERE id=$1 AND started_at IS NULL
	`, id, date)
	if err != nil {
		return Journey{}, err
	}
	if tag.RowsAffected() == 0 {
		return Journey{}, errors.New("journey not found or already started")
	}
	return s.Get(ctx, id)
}

const journeyColumns = `id, origin, destination, distance_m, started_at, finished_at, created_at`

func scanJourney(row pgx.Row) (Journey, error) {
	var j Journey
	var started, finished *time.Time
	if err := row.Scan(&j.ID, &j.Origin, &j.Destination, &j.DistanceM, &started, &finished, &j.CreatedAt); err != nil {
		return Journey{}, err
	}
	if started != nil {
		j.StartedAt = *started
	}
	if finished != nil {
		j.FinishedAt = *finished
	}
	return j, nil
}

func (s *Service) Get(ctx context.Context, id string) (Journey, error) {
	row := s.db.QueryRow(ctx, `SELECT `+journeyColumns+` FROM journeys WHERE id=$1`, id)
	return scanJourney(row)
}

func (s *Service) List(ctx context.Context) ([]Journey, error) {
	rows, err := s.db.Query(ctx, `SELECT `+journeyColumns+` FROM journeys ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var journeys []Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, err
		}
		journeys = append(journeys, j)
	}
	return journeys, nil
}

// Ongoing returns the single started-but-unfinished journey, if any. More
// than one is a structural error.
func (s *Service) Ongoing(ctx context.Context) (Journey, bool, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+journeyColumns+` FROM journeys
		WHERE started_at IS NOT NULL AND finished_at IS NULL
	`)
	if err != nil {
		return Journey{}, false, err
	}
	defer rows.Close()

	var found []Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return Journey{}, false, err
		}
		found = append(found, j)
	}
	switch len(found) {
	case 0:
		return Journey{}, false, nil
	case 1:
		return found[0], true, nil
	default:
		return Journey{}, false, ErrMultipleOngoing
	}
}

func (s *Service) LoadPath(ctx context.Context, journeyID string) (*Path, error) {
	rows, err := s.db.Query(ctx, `
		SELECT seq, lat, lon, COALESCE(elevation_m,0), distance_m
		FROM waypoints WHERE journey_id=$1
		ORDER BY seq
	`, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waypoints []Waypoint
	for rows.Next() {
		wp := Waypoint{JourneyID: journeyID}
		if err := rows.Scan(&wp.Seq, &wp.Lat, &wp.Lon, &wp.ElevationM, &wp.DistanceM); err != nil {
			return nil, err
		}
		waypoints = append(waypoints, wp)
	}
	return NewPath(waypoints)
}

const locationColumns = `journey_id, date, lat, lon, distance_m, latest_waypoint,
		       COALESCE(address,''), COALESCE(country,''), COALESCE(poi,''),
		       COALESCE(overview_url,''), COALESCE(detail_url,''), COALESCE(poi_photo_url,'')`

func scanLocation(row pgx.Row) (Location, error) {
	var loc Location
	err := row.Scan(&loc.JourneyID, &loc.Date, &loc.Lat, &loc.Lon, &loc.DistanceM, &loc.LatestWaypoint,
		&loc.Address, &loc.Country, &loc.POI, &loc.OverviewURL, &loc.DetailURL, &loc.POIPhotoURL)
	return loc, err
}

// MostRecentLocation is the journey's authoritative current position.
func (s *Service) MostRecentLocation(ctx context.Context, journeyID string) (Location, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+locationColumns+`
		FROM locations WHERE journey_id=$1
		ORDER BY date DESC LIMIT 1
	`, journeyID)
	loc, err := scanLocation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, false, nil
	}
	if err != nil {
		return Location{}, false, err
	}
	return loc, true, nil
}

func (s *Service) Locations(ctx context.Context, journeyID string) ([]Location, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+locationColumns+`
		FROM locations WHERE journey_id=$1
		ORDER BY date
	`, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// DayProcessed reports whether a location was already committed for the date.
func (s *Service) DayProcessed(ctx context.Context, q db.Querier, journeyID string, date time.Time) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM locations WHERE journey_id=$1 AND date=$2)
	`, journeyID, date).Scan(&exists)
	return exists, err
}

// RecordSteps stores the day's step rows. Steps are append-only; the caller
// runs this inside the day's transaction.
func (s *Service) RecordSteps(ctx context.Context, q db.Querier, journeyID string, date time.Time, steps []activity.Steps) error {
	for _, st := range steps {
		_, err := q.Exec(ctx, `
			INSERT INTO steps (journey_id, gargling_id, taken_at, amount)
			VALUES ($1,$2,$3,$4)
		`, journeyID, st.GarglingID, date, st.Amount)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) RecordLocation(ctx context.Context, q db.Querier, loc Location) error {
	_, err := q.Exec(ctx, `
		INSERT INTO locations (journey_id, date, lat, lon, distance_m, latest_waypoint,
			address, country, poi, overview_url, detail_url, poi_photo_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, loc.JourneyID, loc.Date, loc.Lat, loc.Lon, loc.DistanceM, loc.LatestWaypoint,
		loc.Address, loc.Country, loc.POI, loc.OverviewURL, loc.DetailURL, loc.POIPhotoURL)
	return err
}

// Finish marks the journey finished. The date is recorded once.
func (s *Service) Finish(ctx context.Context, q db.Querier, journeyID string, date time.Time) error {
	_, err := q.Exec(ctx, `
		UPDATE journeys SET finished_at=$2
		WHERE id=$1 AND finished_at IS NULL
	`, journeyID, date)
	return err
}
