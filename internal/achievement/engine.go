package achievement

import (
	"context"
	"fmt"
	"time"

	"github.com/eirki/gargbot-3000-sub000/internal/db"
	"github.com/eirki/gargbot-3000-sub000/internal/gargling"

	"go.uber.org/zap"
)

// Directory resolves gargling ids to display names.
type Directory interface {
	Get(ctx context.Context, id int) (gargling.Gargling, error)
}

type Engine struct {
	directory Directory
	log       *zap.Logger
}

func NewEngine(directory Directory, log *zap.Logger) *Engine {
	return &Engine{directory: directory, log: log}
}

// LoadHistory reads the full step series of a journey up to and including
// asOf. Passing the day's transaction as q makes today's rows visible.
func (e *Engine) LoadHistory(ctx context.Context, q db.Querier, journeyID string, asOf time.Time) (History, error) {
	rows, err := q.Query(ctx, `
		SELECT taken_at, gargling_id, amount
		FROM steps WHERE journey_id=$1 AND taken_at <= $2
		ORDER BY taken_at, gargling_id
	`, journeyID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var h History
	for rows.Next() {
		var ds DayStep
		if err := rows.Scan(&ds.Date, &ds.GarglingID, &ds.Amount); err != nil {
			return nil, err
		}
		h = append(h, ds)
	}
	return h, nil
}

// New evaluates the category table in priority order and formats the first
// new or tied record set on the given date. At most one achievement is
// announced per day.
func (e *Engine) New(ctx context.Context, q db.Querier, journeyID string, date time.Time) (string, bool, error) {
	h, err := e.LoadHistory(ctx, q, journeyID, date)
	if err != nil {
		return "", false, err
	}
	for _, cat := range categories {
		rec, ok := cat.eval(h, date)
		if !ok {
			continue
		}
		return FormatNew(cat, rec, e.names(ctx, rec.Holders), e.names(ctx, rec.PrevHolders)), true, nil
	}
	return "", false, nil
}

// Standing is one category's current record in the all-time leaderboard.
type Standing struct {
	Category   string   `json:"category"`
	Desc       string   `json:"desc"`
	Unit       string   `json:"unit"`
	Emoji      string   `json:"emoji"`
	Collective bool     `json:"collective"`
	Holders    []string `json:"holders,omitempty"`
	Value      float64  `json:"value"`
}

// AllAtDate snapshots every category's record holder as of the date. Unlike
// the daily announcement, all categories are listed.
func (e *Engine) AllAtDate(ctx context.Context, q db.Querier, journeyID string, date time.Time) ([]Standing, error) {
	h, err := e.LoadHistory(ctx, q, journeyID, date)
	if err != nil {
		return nil, err
	}
	var standings []Standing
	for _, cat := range categories {
		holders, value, ok := cat.best(h)
		if !ok {
			continue
		}
		standings = append(standings, Standing{
			Category:   cat.Name,
			Desc:       cat.Desc,
			Unit:       cat.Unit,
			Emoji:      cat.Emoji,
			Collective: cat.Collective,
			Holders:    e.names(ctx, holders),
			Value:      value,
		})
	}
	return standings, nil
}

func (e *Engine) names(ctx context.Context, ids []int) []string {
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if e.directory == nil {
			names = append(names, fmt.Sprintf("gargling %d", id))
			continue
		}
		g, err := e.directory.Get(ctx, id)
		if err != nil {
			e.log.Warn("gargling lookup failed", zap.Int("gargling_id", id), zap.Error(err))
			names = append(names, fmt.Sprintf("gargling %d", id))
			continue
		}
		names = append(names, g.FirstName)
	}
	return names
}
