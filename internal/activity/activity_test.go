package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eirki/gargbot-3000-sub000/internal/gargling"

	"go.uber.org/zap"
)

type stubDirectory struct {
	garglings []gargling.Gargling
}

func (d stubDirectory) Enabled(_ context.Context) ([]gargling.Gargling, error) {
	return d.garglings, nil
}

type stubProvider struct {
	steps map[int]int
	fail  map[int]bool
}

func (p stubProvider) StepsFor(_ context.Context, garglingID int, _ time.Time) (int, error) {
	if p.fail[garglingID] {
		return 0, errors.New("provider down")
	}
	return p.steps[garglingID], nil
}

func (p stubProvider) BodyMetricsFor(_ context.Context, _ int, _ time.Time) (BodyMetrics, bool, error) {
	return BodyMetrics{}, false, nil
}

func TestCollectDaySortsAndSkips(t *testing.T) {
	dir := stubDirectory{garglings: []gargling.Gargling{
		{ID: 1, FirstName: "Ask"}, {ID: 2, FirstName: "Nina"},
		{ID: 3, FirstName: "Olav"}, {ID: 4, FirstName: "Kari"},
	}}
	prov := stubProvider{
		steps: map[int]int{1: 5000, 2: 12000, 3: 0},
		fail:  map[int]bool{4: true},
	}

	agg := NewAggregator(dir, prov, zap.NewNop())
	steps, err := agg.CollectDay(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("collect day: %v", err)
	}

	// Olav's zero count means no data; Kari's failing provider is skipped.
	if len(steps) != 2 {
		t.Fatalf("expected 2 contributions, got %d", len(steps))
	}
	if steps[0].GarglingID != 2 || steps[1].GarglingID != 1 {
		t.Fatalf("expected descending order, got %+v", steps)
	}
}

func TestCollectDayNilProvider(t *testing.T) {
	dir := stubDirectory{garglings: []gargling.Gargling{{ID: 1}}}
	agg := NewAggregator(dir, nil, zap.NewNop())
	steps, err := agg.CollectDay(context.Background(), time.Now())
	if err != nil || len(steps) != 0 {
		t.Fatalf("expected no contributions: %v %v", steps, err)
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(1000); d != 750 {
		t.Fatalf("expected 750m for 1000 steps, got %v", d)
	}
	if total := TotalSteps([]Steps{{Amount: 100}, {Amount: 250}}); total != 350 {
		t.Fatalf("expected 350, got %d", total)
	}
}
