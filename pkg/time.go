// Package pkg holds small helpers shared by the HTTP layer and the CLI.
package pkg

import (
	"strconv"
	"strings"
	"time"
)

type durationUnit struct {
	suffix string
	size   time.Duration
}

// largest first
var durationUnits = []durationUnit{
	{"d", 24 * time.Hour},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
}

// SmartDurationFormat renders d compactly for response headers and logs.
// Sub-second values use a single ms, μs or ns unit; longer values keep at
// most the two largest non-zero units, e.g. "1m30s" or "2d3h".
func SmartDurationFormat(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	if d < 0 {
		return "-" + SmartDurationFormat(-d)
	}
	switch {
	case d < time.Microsecond:
		return strconv.FormatInt(d.Nanoseconds(), 10) + "ns"
	case d < time.Millisecond:
		return strconv.FormatInt(d.Microseconds(), 10) + "μs"
	case d < time.Second:
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	}

	var b strings.Builder
	parts := 0
	for _, u := range durationUnits {
		if d < u.size {
			if parts > 0 {
				break
			}
			continue
		}
		b.WriteString(strconv.FormatInt(int64(d/u.size), 10))
		b.WriteString(u.suffix)
		d %= u.size
		parts++
		if parts == 2 || d < time.Second {
			break
		}
	}
	return b.String()
}
