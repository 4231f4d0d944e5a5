package update

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eirki/gargbot-3000-sub000/internal/achievement"
	"github.com/eirki/gargbot-3000-sub000/internal/activity"
	"github.com/eirki/gargbot-3000-sub000/internal/gargling"
	"github.com/eirki/gargbot-3000-sub000/internal/journey"
	"github.com/eirki/gargbot-3000-sub000/internal/report"

	"github.com/pashagolub/pgxmock/v3"
	"go.uber.org/zap"
)

func day(n int) time.Time {
	return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC)
}

type stubDirectory struct{}

func (stubDirectory) Enabled(context.Context) ([]gargling.Gargling, error) {
	return []gargling.Gargling{
		{ID: 1, FirstName: "Ask", StepsEnabled: true},
		{ID: 2, FirstName: "Nina", StepsEnabled: true},
	}, nil
}

type stubProvider struct {
	counts map[int]int
}

func (p stubProvider) StepsFor(_ context.Context, garglingID int, _ time.Time) (int, error) {
	return p.counts[garglingID], nil
}

func (p stubProvider) BodyMetricsFor(context.Context, int, time.Time) (activity.BodyMetrics, bool, error) {
	return activity.BodyMetrics{}, false, nil
}

type capturingPoster struct {
	messages []report.Message
	err      error
}

func (p *capturingPoster) Post(_ context.Context, msg report.Message) error {
	p.messages = append(p.messages, msg)
	return p.err
}

func newRunnerMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func newTestRunner(mock pgxmock.PgxPoolIface, counts map[int]int, poster *capturingPoster) *Runner {
	log := zap.NewNop()
	deps := Deps{
		Journeys:     journey.NewService(mock),
		Aggregator:   activity.NewAggregator(stubDirectory{}, stubProvider{counts: counts}, log),
		Achievements: achievement.NewEngine(nil, log),
		Channel:      "#journey",
		Log:          log,
	}
	if poster != nil {
		deps.Poster = poster
	}
	return NewRunner(mock, nil, deps)
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func journeyRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "origin", "destination", "distance_m", "started_at", "finished_at", "created_at"})
}

func waypointRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"seq", "lat", "lon", "elevation_m", "distance_m"}).
		AddRow(0, 60.0, 10.0, 0.0, 0.0).
		AddRow(1, 60.008993, 10.0, 0.0, 1000.0).
		AddRow(2, 60.026980, 10.0, 0.0, 3000.0)
}

func locationRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"journey_id", "date", "lat", "lon", "distance_m", "latest_waypoint",
		"address", "country", "poi", "overview_url", "detail_url", "poi_photo_url"})
}

func expectOngoingJourney(mock pgxmock.PgxPoolIface) {
	started := day(1)
	mock.ExpectQuery(`WHERE started_at IS NOT NULL AND finished_at IS NULL`).
		WillReturnRows(journeyRows().
			AddRow("j1", "Oslo", "Trondheim", 3000.0, &started, nil, started))
	mock.ExpectQuery(`FROM waypoints WHERE journey_id`).
		WithArgs("j1").
		WillReturnRows(waypointRows())
}

func TestRunNoOngoingJourney(t *testing.T) {
	mock := newRunnerMock(t)
	runner := newTestRunner(mock, nil, nil)

	mock.ExpectQuery(`WHERE started_at IS NOT NULL AND finished_at IS NULL`).
		WillReturnRows(journeyRows())

	messages, err := runner.RunPendingUpdates(context.Background(), day(1))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if messages != nil {
		t.Fatalf("expected no messages, got %v", messages)
	}
}

func TestRunCommitsOneDay(t *testing.T) {
	mock := newRunnerMock(t)
	poster := &capturingPoster{}
	runner := newTestRunner(mock, map[int]int{1: 2000, 2: 1000}, poster)

	expectOngoingJourney(mock)
	mock.ExpectQuery(`FROM locations WHERE journey_id`).
		WithArgs("j1").
		WillReturnRows(locationRows())
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("j1", day(1)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO steps`).
		WithArgs("j1", 1, day(1), 2000).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO steps`).
		WithArgs("j1", 2, day(1), 1000).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO locations`).
		WithArgs(anyArgs(12)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`FROM steps WHERE journey_id`).
		WithArgs("j1", day(1)).
		WillReturnRows(pgxmock.NewRows([]string{"taken_at", "gargling_id", "amount"}).
			AddRow(day(1), 1, 2000).
			AddRow(day(1), 2, 1000))
	mock.ExpectCommit()

	messages, err := runner.RunPendingUpdates(context.Background(), day(1))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected one day processed, got %d", len(messages))
	}

	msg := messages[0]
	if msg.Channel != "#journey" {
		t.Fatalf("unexpected channel: %q", msg.Channel)
	}
	if !strings.Contains(msg.Blocks[0].Text, "Day 1 of the journey from Oslo to Trondheim") {
		t.Fatalf("unexpected header: %q", msg.Blocks[0].Text)
	}
	// 3000 steps at 0.75 m each: 2.2 km of 3.0 km total.
	if !strings.Contains(msg.Summary, "2.2 km walked") {
		t.Fatalf("unexpected summary: %q", msg.Summary)
	}
	if len(poster.messages) != 1 {
		t.Fatalf("expected message posted, got %d", len(poster.messages))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunFinishesJourney(t *testing.T) {
	mock := newRunnerMock(t)
	runner := newTestRunner(mock, map[int]int{1: 5000}, nil)

	expectOngoingJourney(mock)
	mock.ExpectQuery(`FROM locations WHERE journey_id`).
		WithArgs(anyArgs(1)...).
		WillReturnRows(locationRows())
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO steps`).
		WithArgs(anyArgs(4)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO locations`).
		WithArgs(anyArgs(12)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE journeys SET finished_at`).
		WithArgs("j1", day(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`FROM steps WHERE journey_id`).
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows([]string{"taken_at", "gargling_id", "amount"}).
			AddRow(day(1), 1, 5000))
	mock.ExpectCommit()

	// Three pending days, but the journey completes on the first one.
	messages, err := runner.RunPendingUpdates(context.Background(), day(3))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected loop to stop at the finish, got %d messages", len(messages))
	}

	text := ""
	for _, blk := range messages[0].Blocks {
		text += blk.Text + "\n"
	}
	if !strings.Contains(text, "🏁 The journey from Oslo to Trondheim is complete!") {
		t.Fatalf("missing finish banner in %q", text)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunResumesAfterLastLocation(t *testing.T) {
	mock := newRunnerMock(t)
	runner := newTestRunner(mock, map[int]int{1: 1000}, nil)

	expectOngoingJourney(mock)
	mock.ExpectQuery(`FROM locations WHERE journey_id`).
		WithArgs(anyArgs(1)...).
		WillReturnRows(locationRows().
			AddRow("j1", day(1), 60.008993, 10.0, 1000.0, 1, "", "Norway", "", "", "", ""))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("j1", day(2)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO steps`).
		WithArgs(anyArgs(4)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO locations`).
		WithArgs(anyArgs(12)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`FROM steps WHERE journey_id`).
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows([]string{"taken_at", "gargling_id", "amount"}).
			AddRow(day(2), 1, 1000))
	mock.ExpectCommit()

	messages, err := runner.RunPendingUpdates(context.Background(), day(2))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %d", len(messages))
	}
	// The committed day 1 location makes this day 2.
	if !strings.Contains(messages[0].Blocks[0].Text, "Day 2 of the journey") {
		t.Fatalf("unexpected header: %q", messages[0].Blocks[0].Text)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunStopsOnMissingData(t *testing.T) {
	mock := newRunnerMock(t)
	runner := newTestRunner(mock, map[int]int{}, nil)

	expectOngoingJourney(mock)
	mock.ExpectQuery(`FROM locations WHERE journey_id`).
		WithArgs(anyArgs(1)...).
		WillReturnRows(locationRows())
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	// No provider data for the day: the day stays unprocessed and the
	// catch-up stops without an error, to be retried next run.
	messages, err := runner.RunPendingUpdates(context.Background(), day(3))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(messages))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunSkipsProcessedDay(t *testing.T) {
	mock := newRunnerMock(t)
	runner := newTestRunner(mock, map[int]int{1: 1000}, nil)

	expectOngoingJourney(mock)
	mock.ExpectQuery(`FROM locations WHERE journey_id`).
		WithArgs(anyArgs(1)...).
		WillReturnRows(locationRows())

	// Day 1 was recorded by a concurrent run whose location row is not in
	// the snapshot; it is skipped, not reprocessed.
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("j1", day(1)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("j1", day(2)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO steps`).
		WithArgs(anyArgs(4)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO locations`).
		WithArgs(anyArgs(12)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`FROM steps WHERE journey_id`).
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows([]string{"taken_at", "gargling_id", "amount"}).
			AddRow(day(2), 1, 1000))
	mock.ExpectCommit()

	messages, err := runner.RunPendingUpdates(context.Background(), day(2))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected one processed day, got %d", len(messages))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunAbortsOnDayFailure(t *testing.T) {
	mock := newRunnerMock(t)
	runner := newTestRunner(mock, map[int]int{1: 1000}, nil)

	expectOngoingJourney(mock)
	mock.ExpectQuery(`FROM locations WHERE journey_id`).
		WithArgs(anyArgs(1)...).
		WillReturnRows(locationRows())
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO steps`).
		WithArgs(anyArgs(4)...).
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	_, err := runner.RunPendingUpdates(context.Background(), day(2))
	if err == nil {
		t.Fatalf("expected error to abort remaining days")
	}
}

func TestRemaining(t *testing.T) {
	if remaining(3000, 1000) != 2000 {
		t.Fatalf("unexpected remaining")
	}
	if remaining(3000, 3500) != 0 {
		t.Fatalf("remaining must not go negative")
	}
}
