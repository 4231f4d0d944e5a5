package gargling

import (
	"context"

	"github.com/eirki/gargbot-3000-sub000/internal/db"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Get(ctx context.Context, id int) (Gargling, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, first_name, color_hex, steps_enabled
		FROM garglings WHERE id=$1
	`, id)
	var g Gargling
	if err := row.Scan(&g.ID, &g.FirstName, &g.ColorHex, &g.StepsEnabled); err != nil {
		return Gargling{}, err
	}
	return g, nil
}

func (s *Service) All(ctx context.Context) ([]Gargling, error) {
	return s.query(ctx, `
		SELECT id, first_name, color_hex, steps_enabled
		FROM garglings ORDER BY id
	`)
}

// Enabled returns the members whose step provider is connected. Only these
// contribute distance to an ongoing journey.
func (s *Service) Enabled(ctx context.Context) ([]Gargling, error) {
	return s.query(ctx, `
		SELECT id, first_name, color_hex, steps_enabled
		FROM garglings WHERE steps_enabled ORDER BY id
	`)
}

func (s *Service) query(ctx context.Context, sql string) ([]Gargling, error) {
	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var garglings []Gargling
	for rows.Next() {
		var g Gargling
		if err := rows.Scan(&g.ID, &g.FirstName, &g.ColorHex, &g.StepsEnabled); err != nil {
			return nil, err
		}
		garglings = append(garglings, g)
	}
	return garglings, nil
}
