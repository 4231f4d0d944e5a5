// Package report composes the daily journey message. It is pure formatting;
// all lookups happen before composition.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/eirki/gargbot-3000-sub000/internal/activity"
)

// Block is one element of a structured chat message.
type Block struct {
	Type     string `json:"type"` // section, image, context
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	AltText  string `json:"alt_text,omitempty"`
}

// Message is the composed reply for one journey day.
type Message struct {
	Channel string  `json:"channel"`
	Summary string  `json:"summary"`
	Blocks  []Block `json:"blocks"`
}

// PersonSteps is one person's contribution, already resolved to a name.
type PersonSteps struct {
	Name   string
	Amount int
}

// DayReport carries everything the day's message is built from.
type DayReport struct {
	Day                int
	Date               time.Time
	Origin             string
	Destination        string
	DistanceTodayM     float64
	DistanceTotalM     float64
	DistanceRemainingM float64
	Steps              []PersonSteps // descending by amount
	Achievement        string
	Address            string
	Country            string
	NewCountry         bool
	POI                string
	OverviewURL        string
	DetailURL          string
	POIPhotoURL        string
	Finished           bool
}

// Compose assembles the ordered block sequence and a plain-text fallback.
func Compose(channel string, r DayReport) Message {
	var blocks []Block

	blocks = append(blocks, Block{
		Type: "section",
		Text: fmt.Sprintf("*Day %d of the journey from %s to %s*", r.Day, r.Origin, r.Destination),
	})

	if len(r.Steps) > 0 {
		blocks = append(blocks, Block{Type: "section", Text: stepsBreakdown(r.Steps)})
	}

	blocks = append(blocks, Block{
		Type: "section",
		Text: fmt.Sprintf("The group walked %s today, %s down, %s to go.",
			km(r.DistanceTodayM), km(r.DistanceTotalM), km(r.DistanceRemainingM)),
	})

	if r.Achievement != "" {
		blocks = append(blocks, Block{Type: "section", Text: r.Achievement})
	}

	if r.NewCountry && r.Country != "" {
		blocks = append(blocks, Block{
			Type: "section",
			Text: fmt.Sprintf("🗺️ The journey has crossed into %s!", r.Country),
		})
	}

	if r.OverviewURL != "" {
		blocks = append(blocks, Block{Type: "image", ImageURL: r.OverviewURL, AltText: "journey overview"})
	}
	if r.DetailURL != "" {
		blocks = append(blocks, Block{Type: "image", ImageURL: r.DetailURL, AltText: "today's stretch"})
	}

	if ctxLine := locationLine(r); ctxLine != "" {
		blocks = append(blocks, Block{Type: "context", Text: ctxLine})
	}
	if r.POIPhotoURL != "" {
		blocks = append(blocks, Block{Type: "image", ImageURL: r.POIPhotoURL, AltText: r.POI})
	}

	if r.Finished {
		blocks = append(blocks, Block{
			Type: "section",
			Text: fmt.Sprintf("🏁 The journey from %s to %s is complete!", r.Origin, r.Destination),
		})
	}

	return Message{
		Channel: channel,
		Summary: fmt.Sprintf("Day %d: %s walked, %s to go", r.Day, km(r.DistanceTodayM), km(r.DistanceRemainingM)),
		Blocks:  blocks,
	}
}

// stepsBreakdown lists contributors in descending order, with a medal for
// first place and a snail for last.
func stepsBreakdown(steps []PersonSteps) string {
	lines := make([]string, 0, len(steps))
	for i, st := range steps {
		marker := ""
		switch {
		case i == 0:
			marker = "🥇 "
		case i == len(steps)-1:
			marker = "🐌 "
		}
		lines = append(lines, fmt.Sprintf("%s%s: %d steps (%s)", marker, st.Name, st.Amount, km(activity.Distance(st.Amount))))
	}
	return strings.Join(lines, "\n")
}

func locationLine(r DayReport) string {
	var parts []string
	if r.Address != "" {
		parts = append(parts, "You are near "+r.Address)
	} else if r.Country != "" {
		parts = append(parts, "You are in "+r.Country)
	}
	if r.POI != "" {
		parts = append(parts, "📍 "+r.POI)
	}
	return strings.Join(parts, " · ")
}

func km(meters float64) string {
	return fmt.Sprintf("%.1f km", meters/1000)
}
