package achievement

import "testing"

func TestFormatNewFirstRecord(t *testing.T) {
	cat := categories[0]
	rec := Record{Holders: []int{1}, Value: 12000}

	got := FormatNew(cat, rec, []string{"Ask"}, nil)
	want := "Ask set the first record for most steps taken by one gargling in a day: 12000 steps 🥇"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatNewBeatsPrevious(t *testing.T) {
	cat := categories[0]
	prev := 12000.0
	rec := Record{Holders: []int{2}, Value: 15000, PrevHolders: []int{1}, PrevValue: &prev}

	got := FormatNew(cat, rec, []string{"Nina"}, []string{"Ask"})
	want := "New record! Nina now holds the record for most steps taken by one gargling in a day: 15000 steps, beating Ask (12000 steps) 🥇"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatNewTie(t *testing.T) {
	cat := categories[0]
	rec := Record{Holders: []int{2}, Value: 17782, PrevHolders: []int{1}, Tied: true}

	got := FormatNew(cat, rec, []string{"Nina"}, []string{"Ask"})
	want := "Nina tied the record for most steps taken by one gargling in a day: 17782 steps, shared with Ask 🥇"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatNewCollectiveSubject(t *testing.T) {
	var collective Category
	for _, cat := range categories {
		if cat.Name == "most_steps_collective" {
			collective = cat
		}
	}
	rec := Record{Value: 40000}

	got := FormatNew(collective, rec, nil, nil)
	want := "The group set the first record for most steps taken by the group in a day: 40000 steps 🐾"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatValuePercent(t *testing.T) {
	if got := formatValue(61.25, "%"); got != "61.2%" {
		t.Fatalf("got %q", got)
	}
	if got := formatValue(12000, "steps"); got != "12000 steps" {
		t.Fatalf("got %q", got)
	}
}

func TestJoinNames(t *testing.T) {
	cases := []struct {
		names []string
		want  string
	}{
		{nil, "someone"},
		{[]string{"Ask"}, "Ask"},
		{[]string{"Ask", "Nina"}, "Ask and Nina"},
		{[]string{"Ask", "Nina", "Per"}, "Ask, Nina and Per"},
	}
	for _, c := range cases {
		if got := joinNames(c.names); got != c.want {
			t.Fatalf("joinNames(%v) = %q, want %q", c.names, got, c.want)
		}
	}
}
