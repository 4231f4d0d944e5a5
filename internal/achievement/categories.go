package achievement

import (
	"sort"
	"time"
)

// Record is the outcome of evaluating one category on one day. PrevValue nil
// with PrevHolders set marks a tie; both nil marks a first occurrence.
type Record struct {
	Holders     []int
	Value       float64
	PrevHolders []int
	PrevValue   *float64
	Tied        bool
}

// Category is one superlative tracked over the journey history. The order of
// the category table is significant: the daily announcement surfaces only the
// first category with a record, so it doubles as the priority order.
type Category struct {
	Name       string
	Desc       string
	Unit       string
	Emoji      string
	Collective bool
	eval       func(h History, asOf time.Time) (Record, bool)
	best       func(h History) ([]int, float64, bool)
}

var categories = []Category{
	{
		Name:  "most_steps_individual",
		Desc:  "most steps taken by one gargling in a day",
		Unit:  "steps",
		Emoji: "🥇",
		eval:  evalIndividualRank(1),
		best:  bestIndividualRank(1),
	},
	{
		Name:  "second_most_steps_individual",
		Desc:  "second-most steps taken by one gargling in a day",
		Unit:  "steps",
		Emoji: "🥈",
		eval:  evalIndividualRank(2),
		best:  bestIndividualRank(2),
	},
	{
		Name:  "third_most_steps_individual",
		Desc:  "third-most steps taken by one gargling in a day",
		Unit:  "steps",
		Emoji: "🥉",
		eval:  evalIndividualRank(3),
		best:  bestIndividualRank(3),
	},
	{
		Name:       "most_steps_collective",
		Desc:       "most steps taken by the group in a day",
		Unit:       "steps",
		Emoji:      "🐾",
		Collective: true,
		eval:       evalCollective,
		best:       bestCollective,
	},
	{
		Name:  "highest_share",
		Desc:  "highest share of the day's steps by one gargling",
		Unit:  "%",
		Emoji: "👑",
		eval:  evalShare,
		best:  bestShare,
	},
	{
		Name:  "biggest_improvement_individual",
		Desc:  "biggest improvement in steps from one day to the next by one gargling",
		Unit:  "steps",
		Emoji: "📈",
		eval:  evalImprovementIndividual,
		best:  bestImprovementIndividual,
	},
	{
		Name:       "biggest_improvement_collective",
		Desc:       "biggest improvement in steps from one day to the next by the group",
		Unit:       "steps",
		Emoji:      "💪",
		Collective: true,
		eval:       evalImprovementCollective,
		best:       bestImprovementCollective,
	},
	{
		Name:  "longest_leader_streak",
		Desc:  "longest streak of consecutive days as step leader",
		Unit:  "days",
		Emoji: "🔥",
		eval:  evalStreak,
		best:  bestStreak,
	},
}

// Categories returns the fixed, ordered record category table.
func Categories() []Category {
	return categories
}

// compare classifies today's candidate value against the historical best:
// first occurrence, new record, tie, or nothing.
func compare(value float64, holders []int, prevHolders []int, prevValue float64, havePrev bool) (Record, bool) {
	rec := Record{Holders: holders, Value: value}
	if !havePrev {
		return rec, true
	}
	if value > prevValue {
		pv := prevValue
		rec.PrevValue = &pv
		rec.PrevHolders = prevHolders
		return rec, true
	}
	if value == prevValue {
		rec.PrevHolders = prevHolders
		rec.Tied = true
		return rec, true
	}
	return Record{}, false
}

// kthBestIndividual finds the k-th highest single-day individual count in h,
// with everyone who achieved that count.
func kthBestIndividual(h History, k int) ([]int, float64, bool) {
	values := make([]int, 0, len(h))
	for _, ds := range h {
		values = append(values, ds.Amount)
	}
	if len(values) < k {
		return nil, 0, false
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))
	v := values[k-1]

	holderSet := map[int]struct{}{}
	for _, ds := range h {
		if ds.Amount == v {
			holderSet[ds.GarglingID] = struct{}{}
		}
	}
	holders := make([]int, 0, len(holderSet))
	for id := range holderSet {
		holders = append(holders, id)
	}
	sort.Ints(holders)
	return holders, float64(v), true
}

func evalIndividualRank(k int) func(h History, asOf time.Time) (Record, bool) {
	return func(h History, asOf time.Time) (Record, bool) {
		today := h.onDate(asOf)
		if len(today) == 0 {
			return Record{}, false
		}
		v := 0
		for _, ds := range today {
			if ds.Amount > v {
				v = ds.Amount
			}
		}
		var holders []int
		for _, ds := range today {
			if ds.Amount == v {
				holders = append(holders, ds.GarglingID)
			}
		}
		sort.Ints(holders)

		prevHolders, prevValue, havePrev := kthBestIndividual(h.before(asOf), k)
		return compare(float64(v), holders, prevHolders, prevValue, havePrev)
	}
}

func bestIndividualRank(k int) func(h History) ([]int, float64, bool) {
	return func(h History) ([]int, float64, bool) {
		return kthBestIndividual(h, k)
	}
}

func evalCollective(h History, asOf time.Time) (Record, bool) {
	today := h.onDate(asOf)
	if len(today) == 0 {
		return Record{}, false
	}
	v := 0
	for _, ds := range today {
		v += ds.Amount
	}

	_, prevValue, havePrev := bestCollective(h.before(asOf))
	return compare(float64(v), nil, nil, prevValue, havePrev)
}

func bestCollective(h History) ([]int, float64, bool) {
	totals := h.totals()
	if len(totals) == 0 {
		return nil, 0, false
	}
	best := 0
	for _, total := range totals {
		if total > best {
			best = total
		}
	}
	return nil, float64(best), true
}

// shareOn computes one day's highest percentage share. Days with a single
// contributor are excluded; a lone walker trivially holds 100%.
func shareOn(day []DayStep) ([]int, float64, bool) {
	if len(day) < 2 {
		return nil, 0, false
	}
	total, max := 0, 0
	for _, ds := range day {
		total += ds.Amount
		if ds.Amount > max {
			max = ds.Amount
		}
	}
	if total == 0 {
		return nil, 0, false
	}
	var holders []int
	for _, ds := range day {
		if ds.Amount == max {
			holders = append(holders, ds.GarglingID)
		}
	}
	sort.Ints(holders)
	return holders, 100 * float64(max) / float64(total), true
}

func evalShare(h History, asOf time.Time) (Record, bool) {
	holders, v, ok := shareOn(h.onDate(asOf))
	if !ok {
		return Record{}, false
	}
	prevHolders, prevValue, havePrev := bestShare(h.before(asOf))
	return compare(v, holders, prevHolders, prevValue, havePrev)
}

func bestShare(h History) ([]int, float64, bool) {
	var bestHolders []int
	best := 0.0
	found := false
	for _, date := range h.dates() {
		holders, v, ok := shareOn(h.onDate(date))
		if !ok {
			continue
		}
		switch {
		case !found || v > best:
			best, bestHolders, found = v, holders, true
		case v == best:
			bestHolders = mergeHolders(bestHolders, holders)
		}
	}
	return bestHolders, best, found
}

// improvementsOn lists each person's step delta versus the previous calendar
// day, for persons present on both days. Only positive deltas count.
func improvementsOn(h History, date time.Time) ([]int, float64, bool) {
	prevDay := date.AddDate(0, 0, -1)
	best := 0
	var holders []int
	for _, ds := range h.onDate(date) {
		before, ok := h.amount(ds.GarglingID, prevDay)
		if !ok {
			continue
		}
		diff := ds.Amount - before
		if diff <= 0 {
			continue
		}
		if diff > best {
			best = diff
			holders = []int{ds.GarglingID}
		} else if diff == best {
			holders = append(holders, ds.GarglingID)
		}
	}
	if best == 0 {
		return nil, 0, false
	}
	sort.Ints(holders)
	return holders, float64(best), true
}

func evalImprovementIndividual(h History, asOf time.Time) (Record, bool) {
	holders, v, ok := improvementsOn(h, asOf)
	if !ok {
		return Record{}, false
	}
	prevHolders, prevValue, havePrev := bestImprovementIndividual(h.before(asOf))
	return compare(v, holders, prevHolders, prevValue, havePrev)
}

func bestImprovementIndividual(h History) ([]int, float64, bool) {
	var bestHolders []int
	best := 0.0
	found := false
	for _, date := range h.dates() {
		holders, v, ok := improvementsOn(h, date)
		if !ok {
			continue
		}
		switch {
		case !found || v > best:
			best, bestHolders, found = v, holders, true
		case v == best:
			bestHolders = mergeHolders(bestHolders, holders)
		}
	}
	return bestHolders, best, found
}

// groupImprovementOn is the group total's delta versus the previous calendar
// day, when both days were processed.
func groupImprovementOn(h History, date time.Time) (float64, bool) {
	totals := h.totals()
	today, okToday := totals[dkey(date)]
	before, okBefore := totals[dkey(date.AddDate(0, 0, -1))]
	if !okToday || !okBefore || today <= before {
		return 0, false
	}
	return float64(today - before), true
}

func evalImprovementCollective(h History, asOf time.Time) (Record, bool) {
	v, ok := groupImprovementOn(h, asOf)
	if !ok {
		return Record{}, false
	}
	_, prevValue, havePrev := bestImprovementCollective(h.before(asOf))
	return compare(v, nil, nil, prevValue, havePrev)
}

func bestImprovementCollective(h History) ([]int, float64, bool) {
	best := 0.0
	found := false
	for _, date := range h.dates() {
		if v, ok := groupImprovementOn(h, date); ok && (!found || v > best) {
			best, found = v, true
		}
	}
	return nil, best, found
}

// streakLengths returns, per date, each leader's streak of consecutive days
// (calendar days) holding first place. A tied day extends the streak of
// everyone in the leading set.
func streakLengths(h History) map[string]map[int]int {
	leaders := h.leaders()
	out := map[string]map[int]int{}
	for _, date := range h.dates() {
		key := dkey(date)
		prevKey := dkey(date.AddDate(0, 0, -1))
		out[key] = map[int]int{}
		for _, id := range leaders[key] {
			length := 1
			if prev, ok := out[prevKey]; ok {
				if n, led := prev[id]; led {
					length = n + 1
				}
			}
			out[key][id] = length
		}
	}
	return out
}

// streakOn is the day's longest streak among its leaders. One-day streaks
// are not worth announcing.
func streakOn(lengths map[string]map[int]int, date time.Time) ([]int, float64, bool) {
	day, ok := lengths[dkey(date)]
	if !ok {
		return nil, 0, false
	}
	best := 0
	var holders []int
	for id, n := range day {
		if n > best {
			best = n
			holders = []int{id}
		} else if n == best {
			holders = append(holders, id)
		}
	}
	if best < 2 {
		return nil, 0, false
	}
	sort.Ints(holders)
	return holders, float64(best), true
}

func evalStreak(h History, asOf time.Time) (Record, bool) {
	lengths := streakLengths(h)
	holders, v, ok := streakOn(lengths, asOf)
	if !ok {
		return Record{}, false
	}
	prevHolders, prevValue, havePrev := bestStreak(h.before(asOf))
	return compare(v, holders, prevHolders, prevValue, havePrev)
}

func bestStreak(h History) ([]int, float64, bool) {
	lengths := streakLengths(h)
	var bestHolders []int
	best := 0.0
	found := false
	for _, date := range h.dates() {
		holders, v, ok := streakOn(lengths, date)
		if !ok {
			continue
		}
		switch {
		case !found || v > best:
			best, bestHolders, found = v, holders, true
		case v == best:
			bestHolders = mergeHolders(bestHolders, holders)
		}
	}
	return bestHolders, best, found
}

func mergeHolders(a, b []int) []int {
	seen := map[int]struct{}{}
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		seen[id] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
