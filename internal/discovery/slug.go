// Package discovery finds candidate markets: it derives slugs for recurring
// markets, normalizes catalog payloads into MarketRecords, and collapses
// duplicates.
package discovery

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// QuotingZone is the named zone recurring crypto markets are quoted in.
const QuotingZone = "America/New_York"

var quotingLoc = mustLoadLocation(QuotingZone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("discovery: load location %s: %v", name, err))
	}
	return loc
}

// QuotingTime returns the instant whose civil time in the quoting zone is the
// given date and clock. Use it for timestamps that are known to be ET civil
// time rather than UTC.
func QuotingTime(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, quotingLoc)
}

// shortCodes maps asset names to the short codes used by 15-minute slugs.
var shortCodes = map[string]string{
	"bitcoin":  "btc",
	"btc":      "btc",
	"ethereum": "eth",
	"eth":      "eth",
	"solana":   "sol",
	"sol":      "sol",
	"xrp":      "xrp",
}

// ShortCode returns the 15-minute slug prefix for asset. Unknown assets pass
// through lower-cased.
func ShortCode(asset string) string {
	a := strings.ToLower(asset)
	if code, ok := shortCodes[a]; ok {
		return code
	}
	return a
}

// HourlySlug formats the hourly up-or-down slug, e.g.
// "bitcoin-up-or-down-january-31-3pm-et".
func HourlySlug(asset string, t time.Time) string {
	et := t.In(quotingLoc)
	hour := et.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	ampm := "am"
	if et.Hour() >= 12 {
		ampm = "pm"
	}
	return fmt.Sprintf("%s-up-or-down-%s-%d-%d%s-et",
		asset, strings.ToLower(et.Month().String()), et.Day(), hour, ampm)
}

// QuarterHourSlug formats the 15-minute slug after flooring t to a 15-minute
// epoch boundary, e.g. "btc-updown-15m-1767707100".
func QuarterHourSlug(asset string, t time.Time) string {
	return fmt.Sprintf("%s-updown-15m-%d", ShortCode(asset), floorUnix(t, 15*time.Minute))
}

// DailySlug formats the daily slug, e.g. "bitcoin-up-or-down-on-january-31".
func DailySlug(asset string, t time.Time) string {
	et := t.In(quotingLoc)
	return fmt.Sprintf("%s-up-or-down-on-%s-%d",
		asset, strings.ToLower(et.Month().String()), et.Day())
}

// floorUnix floors t to a multiple of step in Unix seconds.
func floorUnix(t time.Time, step time.Duration) int64 {
	sec := t.Unix()
	s := int64(step / time.Second)
	return sec - ((sec%s)+s)%s
}

// Step returns the native granularity of a recurrence class.
func Step(r domain.Recurrence) (time.Duration, error) {
	switch r {
	case domain.RecurrenceHourly:
		return time.Hour, nil
	case domain.RecurrenceQuarter:
		return 15 * time.Minute, nil
	case domain.RecurrenceDaily:
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("discovery: recurrence %q has no slug scheme", r)
	}
}

// SlugFor formats the slug of the recurring market covering t.
func SlugFor(asset string, r domain.Recurrence, t time.Time) (string, error) {
	switch r {
	case domain.RecurrenceHourly:
		return HourlySlug(asset, t), nil
	case domain.RecurrenceQuarter:
		return QuarterHourSlug(asset, t), nil
	case domain.RecurrenceDaily:
		return DailySlug(asset, t), nil
	default:
		return "", fmt.Errorf("discovery: recurrence %q has no slug scheme", r)
	}
}

// Enumerate returns every slug of the given recurring market expected to
// exist in [from, from+horizon), one per native step, in chronological order
// and without duplicates. Hourly and 15-minute enumeration starts at from
// floored to the step. Daily enumeration starts at from itself and advances by
// quoting-zone calendar day, so a DST change never skips or repeats a date.
func Enumerate(asset string, r domain.Recurrence, from time.Time, horizon time.Duration) ([]string, error) {
	step, err := Step(r)
	if err != nil {
		return nil, err
	}
	n := int(horizon / step)
	if n <= 0 {
		return nil, nil
	}

	start := from
	if r != domain.RecurrenceDaily {
		start = time.Unix(floorUnix(from, step), 0).UTC()
	}

	seen := make(map[string]struct{}, n)
	slugs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		at := start.Add(time.Duration(i) * step)
		if r == domain.RecurrenceDaily {
			at = start.In(quotingLoc).AddDate(0, 0, i)
		}
		s, err := SlugFor(asset, r, at)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		slugs = append(slugs, s)
	}
	return slugs, nil
}
