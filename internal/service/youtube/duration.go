package youtube

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sosodev/duration"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+)H`)
	minutesPattern = regexp.MustCompile(`(\d+)M`)
	secondsPattern = regexp.MustCompile(`(\d+)S`)
)

// ParseISODuration converts an ISO-8601 duration such as PT1M35S into whole
// seconds. Strings the full parser rejects get a second chance with a plain
// H/M/S scan.
func ParseISODuration(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if d, err := duration.Parse(value); err == nil {
		return int64(d.ToTimeDuration().Seconds()), nil
	}

	var total int64
	matched := false
	for _, part := range []struct {
		pattern *regexp.Regexp
		scale   int64
	}{
		{hoursPattern, 3600},
		{minutesPattern, 60},
		{secondsPattern, 1},
	} {
		m := part.pattern.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		total += n * part.scale
		matched = true
	}

	if total > 0 || (matched && strings.Contains(value, "PT")) {
		return total, nil
	}
	return 0, fmt.Errorf("could not parse duration %q", value)
}
