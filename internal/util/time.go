package util

import "time"

var pacificLocation *time.Location

func init() {
	var err error
	pacificLocation, err = time.LoadLocation("America/Los_Angeles")
	if err != nil {
		pacificLocation = time.FixedZone("PST", -8*60*60)
	}
}

// NextQuotaReset returns the next Pacific midnight after t, when the
// YouTube Data API daily quota is replenished.
func NextQuotaReset(t time.Time) time.Time {
	p := t.In(pacificLocation)
	return time.Date(p.Year(), p.Month(), p.Day()+1, 0, 0, 0, 0, pacificLocation)
}

// FormatDate renders t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
