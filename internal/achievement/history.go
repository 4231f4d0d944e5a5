package achievement

import (
	"sort"
	"time"
)

// DayStep is one person's committed step count for one journey day.
type DayStep struct {
	Date       time.Time
	GarglingID int
	Amount     int
}

// History is the full step series of a journey up to some date, ordered by
// date. All record categories are evaluated over it in memory.
type History []DayStep

func dkey(t time.Time) string {
	return t.Format("2006-01-02")
}

func (h History) onDate(date time.Time) []DayStep {
	key := dkey(date)
	var out []DayStep
	for _, ds := range h {
		if dkey(ds.Date) == key {
			out = append(out, ds)
		}
	}
	return out
}

func (h History) before(date time.Time) History {
	key := dkey(date)
	var out History
	for _, ds := range h {
		if dkey(ds.Date) < key {
			out = append(out, ds)
		}
	}
	return out
}

func (h History) upTo(date time.Time) History {
	key := dkey(date)
	var out History
	for _, ds := range h {
		if dkey(ds.Date) <= key {
			out = append(out, ds)
		}
	}
	return out
}

// dates returns the distinct processed days in ascending order.
func (h History) dates() []time.Time {
	seen := map[string]time.Time{}
	for _, ds := range h {
		seen[dkey(ds.Date)] = ds.Date
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]time.Time, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}

// totals returns the group step total per day, keyed by date string.
func (h History) totals() map[string]int {
	out := map[string]int{}
	for _, ds := range h {
		out[dkey(ds.Date)] += ds.Amount
	}
	return out
}

// amount returns one person's steps on a date, if present.
func (h History) amount(garglingID int, date time.Time) (int, bool) {
	key := dkey(date)
	for _, ds := range h {
		if ds.GarglingID == garglingID && dkey(ds.Date) == key {
			return ds.Amount, true
		}
	}
	return 0, false
}

// leaders returns the set of persons with the day's highest count, per day.
func (h History) leaders() map[string][]int {
	maxima := map[string]int{}
	for _, ds := range h {
		if ds.Amount > maxima[dkey(ds.Date)] {
			maxima[dkey(ds.Date)] = ds.Amount
		}
	}
	out := map[string][]int{}
	for _, ds := range h {
		if ds.Amount == maxima[dkey(ds.Date)] {
			out[dkey(ds.Date)] = append(out[dkey(ds.Date)], ds.GarglingID)
		}
	}
	for _, ids := range out {
		sort.Ints(ids)
	}
	return out
}
