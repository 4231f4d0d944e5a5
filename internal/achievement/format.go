package achievement

import (
	"fmt"
	"strings"
)

// FormatNew renders a record announcement, distinguishing first occurrence,
// new record and tied record, and crediting prior holders when known.
func FormatNew(cat Category, rec Record, holderNames, prevNames []string) string {
	subject := joinNames(holderNames)
	if cat.Collective {
		subject = "The group"
	}
	value := formatValue(rec.Value, cat.Unit)

	switch {
	case rec.Tied:
		if len(prevNames) > 0 {
			return fmt.Sprintf("%s tied the record for %s: %s, shared with %s %s",
				subject, cat.Desc, value, joinNames(prevNames), cat.Emoji)
		}
		return fmt.Sprintf("%s tied the record for %s: %s %s", subject, cat.Desc, value, cat.Emoji)
	case rec.PrevValue != nil:
		prev := formatValue(*rec.PrevValue, cat.Unit)
		if len(prevNames) > 0 {
			return fmt.Sprintf("New record! %s now holds the record for %s: %s, beating %s (%s) %s",
				subject, cat.Desc, value, joinNames(prevNames), prev, cat.Emoji)
		}
		return fmt.Sprintf("New record! %s reached %s for %s, up from %s %s",
			subject, value, cat.Desc, prev, cat.Emoji)
	default:
		return fmt.Sprintf("%s set the first record for %s: %s %s", subject, cat.Desc, value, cat.Emoji)
	}
}

func formatValue(v float64, unit string) string {
	if unit == "%" {
		return fmt.Sprintf("%.1f%%", v)
	}
	return fmt.Sprintf("%d %s", int(v+0.5), unit)
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "someone"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
