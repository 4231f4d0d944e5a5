// Package update drives the daily journey batch: collect steps, advance the
// position, detect achievements, render charts and compose the day's report.
// It catches up over any number of unprocessed days, committing one day at a
// time.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eirki/gargbot-3000-sub000/internal/achievement"
	"github.com/eirki/gargbot-3000-sub000/internal/activity"
	"github.com/eirki/gargbot-3000-sub000/internal/chart"
	"github.com/eirki/gargbot-3000-sub000/internal/db"
	"github.com/eirki/gargbot-3000-sub000/internal/gargling"
	"github.com/eirki/gargbot-3000-sub000/internal/journey"
	"github.com/eirki/gargbot-3000-sub000/internal/report"
	"github.com/eirki/gargbot-3000-sub000/internal/storage"
	"github.com/eirki/gargbot-3000-sub000/internal/stream"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// errNoData stops the catch-up loop: a day with no steps at all stays
// unprocessed and is retried on the next run.
var errNoData = errors.New("no step data for day")

const (
	chartWidth  = 1000
	chartHeight = 700
)

// GeoLookup resolves geographic context for a position. Both lookups are
// best-effort.
type GeoLookup interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (address, country string, err error)
	NearbyPOI(ctx context.Context, lat, lon float64) (name string, photo []byte, err error)
}

// Poster delivers a composed message to the chat channel.
type Poster interface {
	Post(ctx context.Context, msg report.Message) error
}

type Deps struct {
	Journeys     *journey.Service
	Garglings    *gargling.Service
	Aggregator   *activity.Aggregator
	Achievements *achievement.Engine
	Charts       *storage.Service
	Geo          GeoLookup
	Poster       Poster
	Hub          *stream.Hub
	Channel      string
	Log          *zap.Logger
}

type Runner struct {
	db    db.TxQuerier
	redis *redis.Client
	deps  Deps
	log   *zap.Logger
}

func NewRunner(database db.TxQuerier, redisClient *redis.Client, deps Deps) *Runner {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Runner{db: database, redis: redisClient, deps: deps, log: deps.Log}
}

// RunPendingUpdates processes every unprocessed day of the ongoing journey up
// to and including today, in date order. Each day commits before the next
// begins; a failure aborts the remaining days but leaves committed days
// intact. Already-recorded days are skipped, never reprocessed.
func (r *Runner) RunPendingUpdates(ctx context.Context, today time.Time) ([]report.Message, error) {
	today = dateOnly(today)

	release, ok, err := r.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUpdateRunning
	}
	defer release()

	j, ongoing, err := r.deps.Journeys.Ongoing(ctx)
	if err != nil {
		return nil, err
	}
	if !ongoing {
		return nil, nil
	}

	path, err := r.deps.Journeys.LoadPath(ctx, j.ID)
	if err != nil {
		return nil, err
	}
	prior, err := r.deps.Journeys.Locations(ctx, j.ID)
	if err != nil {
		return nil, err
	}

	start := dateOnly(j.StartedAt)
	if len(prior) > 0 {
		start = dateOnly(prior[len(prior)-1].Date).AddDate(0, 0, 1)
	}

	var messages []report.Message
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		msg, res, err := r.processDay(ctx, j, path, prior, d)
		if errors.Is(err, errNoData) {
			r.log.Info("no step data, stopping catch-up", zap.Time("date", d))
			return messages, nil
		}
		if err != nil {
			r.log.Error("day update failed, aborting remaining days",
				zap.String("journey_id", j.ID), zap.Time("date", d), zap.Error(err))
			return messages, err
		}
		if res.skipped {
			continue
		}
		messages = append(messages, msg)
		prior = append(prior, res.location)
		if res.finished {
			break
		}
	}
	return messages, nil
}

type dayResult struct {
	location journey.Location
	finished bool
	skipped  bool
}

func (r *Runner) processDay(ctx context.Context, j journey.Journey, path *journey.Path, prior []journey.Location, date time.Time) (report.Message, dayResult, error) {
	none := report.Message{}

	processed, err := r.deps.Journeys.DayProcessed(ctx, r.db, j.ID, date)
	if err != nil {
		return none, dayResult{}, err
	}
	if processed {
		return none, dayResult{skipped: true}, nil
	}

	steps, err := r.deps.Aggregator.CollectDay(ctx, date)
	if err != nil {
		return none, dayResult{}, err
	}
	totalSteps := activity.TotalSteps(steps)
	if totalSteps == 0 {
		return none, dayResult{}, errNoData
	}

	prevDist, prevCountry := 0.0, ""
	if len(prior) > 0 {
		last := prior[len(prior)-1]
		prevDist, prevCountry = last.DistanceM, last.Country
	}

	prog, ok, err := journey.Advance(j, path, prevDist, activity.Distance(totalSteps))
	if err != nil {
		return none, dayResult{}, err
	}
	if !ok {
		return none, dayResult{skipped: true}, nil
	}

	address, country, poiName, poiPhoto := r.lookupGeo(ctx, prog.Position)

	garglings := r.garglingsByID(ctx)
	overviewURL, detailURL := r.renderCharts(ctx, j.ID, path, prior, prog, steps, garglings, date)
	poiPhotoURL := r.storeImage(ctx, j.ID, date, "poi", poiPhoto)

	loc := journey.Location{
		JourneyID:      j.ID,
		Date:           date,
		Lat:            prog.Position.Lat,
		Lon:            prog.Position.Lon,
		DistanceM:      prog.EndDistanceM,
		LatestWaypoint: prog.Position.LatestWaypoint,
		Address:        address,
		Country:        country,
		POI:            poiName,
		OverviewURL:    overviewURL,
		DetailURL:      detailURL,
		POIPhotoURL:    poiPhotoURL,
	}

	// All of the day's writes commit together.
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return none, dayResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.deps.Journeys.RecordSteps(ctx, tx, j.ID, date, steps); err != nil {
		return none, dayResult{}, err
	}
	if err := r.deps.Journeys.RecordLocation(ctx, tx, loc); err != nil {
		return none, dayResult{}, err
	}
	if prog.Finished {
		if err := r.deps.Journeys.Finish(ctx, tx, j.ID, date); err != nil {
			return none, dayResult{}, err
		}
	}

	achievementText := ""
	if r.deps.Achievements != nil {
		text, found, err := r.deps.Achievements.New(ctx, tx, j.ID, date)
		if err != nil {
			r.log.Warn("achievement evaluation failed", zap.Error(err))
		} else if found {
			achievementText = text
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return none, dayResult{}, err
	}

	personSteps := make([]report.PersonSteps, 0, len(steps))
	for _, st := range steps {
		personSteps = append(personSteps, report.PersonSteps{
			Name:   displayName(garglings, st.GarglingID),
			Amount: st.Amount,
		})
	}

	msg := report.Compose(r.deps.Channel, report.DayReport{
		Day:                len(prior) + 1,
		Date:               date,
		Origin:             j.Origin,
		Destination:        j.Destination,
		DistanceTodayM:     prog.DayDistanceM,
		DistanceTotalM:     prog.EndDistanceM,
		DistanceRemainingM: remaining(path.TotalDistanceM(), prog.EndDistanceM),
		Steps:              personSteps,
		Achievement:        achievementText,
		Address:            address,
		Country:            country,
		NewCountry:         journey.CountryChanged(prevCountry, country),
		POI:                poiName,
		OverviewURL:        overviewURL,
		DetailURL:          detailURL,
		POIPhotoURL:        poiPhotoURL,
		Finished:           prog.Finished,
	})

	if r.deps.Poster != nil {
		if err := r.deps.Poster.Post(ctx, msg); err != nil {
			r.log.Warn("posting day report failed", zap.Error(err))
		}
	}
	if r.deps.Hub != nil {
		if payload, err := json.Marshal(msg); err == nil {
			r.deps.Hub.Broadcast(j.ID, payload)
		}
	}

	return msg, dayResult{location: loc, finished: prog.Finished}, nil
}

// lookupGeo is best-effort: a failed lookup yields empty context, never a
// failed day.
func (r *Runner) lookupGeo(ctx context.Context, pos journey.Position) (address, country, poiName string, poiPhoto []byte) {
	if r.deps.Geo == nil {
		return "", "", "", nil
	}
	var err error
	address, country, err = r.deps.Geo.ReverseGeocode(ctx, pos.Lat, pos.Lon)
	if err != nil {
		r.log.Warn("reverse geocode failed", zap.Error(err))
		address, country = "", ""
	}
	poiName, poiPhoto, err = r.deps.Geo.NearbyPOI(ctx, pos.Lat, pos.Lon)
	if err != nil {
		r.log.Warn("poi lookup failed", zap.Error(err))
		poiName, poiPhoto = "", nil
	}
	return address, country, poiName, poiPhoto
}

// renderCharts draws the overview and detail maps. Rendering is retried once
// and failure leaves the day without images.
func (r *Runner) renderCharts(ctx context.Context, journeyID string, path *journey.Path, prior []journey.Location, prog journey.DayProgress, steps []activity.Steps, garglings map[int]gargling.Gargling, date time.Time) (overviewURL, detailURL string) {
	traveled := waypointPoints(path.SegmentBetween(0, prog.StartDistanceM))
	todayPts, err := dayPolyline(path, prog)
	if err != nil {
		r.log.Warn("day polyline failed", zap.Error(err))
		return "", ""
	}
	checkpoints := make([]chart.Point, 0, len(prior))
	for _, loc := range prior {
		checkpoints = append(checkpoints, chart.Point{Lat: loc.Lat, Lon: loc.Lon})
	}

	overview, err := renderTwice(func() ([]byte, error) {
		return chart.RenderOverview(traveled, todayPts, checkpoints, chartWidth, chartHeight)
	})
	if err != nil {
		r.log.Warn("overview render failed", zap.Error(err))
	} else {
		overviewURL = r.storeImage(ctx, journeyID, date, "overview", overview)
	}

	contribs := make([]journey.Contribution, 0, len(steps))
	for _, st := range steps {
		contribs = append(contribs, journey.Contribution{
			GarglingID: st.GarglingID,
			DistanceM:  activity.Distance(st.Amount),
		})
	}
	segments, err := journey.ApportionSegments(path, prog.StartDistanceM, contribs)
	if err != nil {
		r.log.Warn("segment apportioning failed", zap.Error(err))
		return overviewURL, ""
	}
	chartSegments := make([]chart.Segment, 0, len(segments))
	for _, seg := range segments {
		points := make([]chart.Point, 0, len(seg.Points))
		for _, p := range seg.Points {
			points = append(points, chart.Point{Lat: p.Lat, Lon: p.Lon})
		}
		g := garglings[seg.GarglingID]
		color := g.ColorHex
		if color == "" {
			color = "#7f8c8d"
		}
		chartSegments = append(chartSegments, chart.Segment{
			Name:     displayName(garglings, seg.GarglingID),
			ColorHex: color,
			Points:   points,
		})
	}

	detail, err := renderTwice(func() ([]byte, error) {
		return chart.RenderDetail(chartSegments, chartWidth, chartHeight)
	})
	if err != nil {
		r.log.Warn("detail render failed", zap.Error(err))
		return overviewURL, ""
	}
	return overviewURL, r.storeImage(ctx, journeyID, date, "detail", detail)
}

func (r *Runner) storeImage(ctx context.Context, journeyID string, date time.Time, kind string, data []byte) string {
	if r.deps.Charts == nil || len(data) == 0 {
		return ""
	}
	url, err := r.deps.Charts.SaveImage(ctx, journeyID, date, kind, data)
	if err != nil {
		r.log.Warn("image upload failed", zap.String("kind", kind), zap.Error(err))
		return ""
	}
	return url
}

func (r *Runner) garglingsByID(ctx context.Context) map[int]gargling.Gargling {
	out := map[int]gargling.Gargling{}
	if r.deps.Garglings == nil {
		return out
	}
	all, err := r.deps.Garglings.All(ctx)
	if err != nil {
		r.log.Warn("gargling directory unavailable", zap.Error(err))
		return out
	}
	for _, g := range all {
		out[g.ID] = g
	}
	return out
}

func displayName(garglings map[int]gargling.Gargling, id int) string {
	if g, ok := garglings[id]; ok && g.FirstName != "" {
		return g.FirstName
	}
	return "gargling"
}

// dayPolyline is the stretch walked today: interpolated start, the waypoints
// crossed, interpolated end.
func dayPolyline(path *journey.Path, prog journey.DayProgress) ([]chart.Point, error) {
	startPos, err := path.LocationAt(prog.StartDistanceM)
	if err != nil {
		return nil, err
	}
	points := []chart.Point{{Lat: startPos.Lat, Lon: startPos.Lon}}
	for _, wp := range path.SegmentBetween(prog.StartDistanceM, prog.EndDistanceM) {
		if wp.DistanceM <= prog.StartDistanceM || wp.DistanceM >= prog.EndDistanceM {
			continue
		}
		points = append(points, chart.Point{Lat: wp.Lat, Lon: wp.Lon})
	}
	points = append(points, chart.Point{Lat: prog.Position.Lat, Lon: prog.Position.Lon})
	return points, nil
}

func waypointPoints(waypoints []journey.Waypoint) []chart.Point {
	out := make([]chart.Point, 0, len(waypoints))
	for _, wp := range waypoints {
		out = append(out, chart.Point{Lat: wp.Lat, Lon: wp.Lon})
	}
	return out
}

func renderTwice(render func() ([]byte, error)) ([]byte, error) {
	data, err := render()
	if err != nil {
		data, err = render()
	}
	return data, err
}

func remaining(total, current float64) float64 {
	if current >= total {
		return 0
	}
	return total - current
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
