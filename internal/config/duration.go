package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var durationPart = regexp.MustCompile(`(\d+)([dhms])`)

// ParseDuration parses a Go duration, additionally accepting a "d" unit for
// days (e.g. "2d", "1d12h").
func ParseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	matches := durationPart.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	consumed := 0
	var total time.Duration
	for _, m := range matches {
		if m[0] != consumed {
			return 0, fmt.Errorf("invalid duration: %q", s)
		}
		consumed = m[1]

		value, err := strconv.ParseInt(s[m[2]:m[3]], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %q", s)
		}
		unit := time.Second
		switch s[m[4]:m[5]] {
		case "d":
			unit = 24 * time.Hour
		case "h":
			unit = time.Hour
		case "m":
			unit = time.Minute
		}
		total += time.Duration(value) * unit
	}
	if consumed != len(s) {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	return total, nil
}
