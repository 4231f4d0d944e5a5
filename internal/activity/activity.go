// Package activity collects daily step counts from the external fitness
// providers and converts them to journey distance.
package activity

import (
	"context"
	"sort"
	"time"

	"github.com/eirki/gargbot-3000-sub000/internal/gargling"

	"go.uber.org/zap"
)

// StrideM is the fixed meters-per-step conversion. Distances are always
// derived from step counts, never stored on their own.
const StrideM = 0.75

// Steps is one person's step count for one day.
type Steps struct {
	GarglingID int `json:"gargling_id"`
	Amount     int `json:"amount"`
}

type BodyMetrics struct {
	WeightKg   float64 `json:"weight_kg"`
	FatPercent float64 `json:"fat_percent"`
}

// Provider is the external step/weight data source for one person. A zero
// step count means the provider had no data for the day.
type Provider interface {
	StepsFor(ctx context.Context, garglingID int, date time.Time) (int, error)
	BodyMetricsFor(ctx context.Context, garglingID int, date time.Time) (BodyMetrics, bool, error)
}

// Directory lists the members with step tracking enabled.
type Directory interface {
	Enabled(ctx context.Context) ([]gargling.Gargling, error)
}

type Aggregator struct {
	directory Directory
	provider  Provider
	log       *zap.Logger
}

func NewAggregator(directory Directory, provider Provider, log *zap.Logger) *Aggregator {
	return &Aggregator{directory: directory, provider: provider, log: log}
}

// CollectDay gathers each enabled person's steps for the date, sorted by
// amount descending. A failing provider call or a zero count drops that
// person from the day; it is no-data, not zero effort.
func (a *Aggregator) CollectDay(ctx context.Context, date time.Time) ([]Steps, error) {
	garglings, err := a.directory.Enabled(ctx)
	if err != nil {
		return nil, err
	}

	var steps []Steps
	for _, g := range garglings {
		if a.provider == nil {
			break
		}
		amount, err := a.provider.StepsFor(ctx, g.ID, date)
		if err != nil {
			a.log.Warn("step provider failed, skipping gargling",
				zap.Int("gargling_id", g.ID), zap.Error(err))
			continue
		}
		if amount <= 0 {
			continue
		}
		steps = append(steps, Steps{GarglingID: g.ID, Amount: amount})
	}

	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].Amount != steps[j].Amount {
			return steps[i].Amount > steps[j].Amount
		}
		return steps[i].GarglingID < steps[j].GarglingID
	})
	return steps, nil
}

// Distance converts a step count to metres travelled.
func Distance(amount int) float64 {
	return float64(amount) * StrideM
}

func TotalSteps(steps []Steps) int {
	total := 0
	for _, st := range steps {
		total += st.Amount
	}
	return total
}
