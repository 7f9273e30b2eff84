package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"tripsmith/app/services/planner/internal/engine/brief"
)

var (
	nightsRe   = regexp.MustCompile(`\b(\d{1,2}|[a-z]+)[ -](night|nights|day|days)\b`)
	weeksRe    = regexp.MustCompile(`\b(\d{1,2}|[a-z]+)[ -](week|weeks)\b`)
	isoDateRe  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashRe    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	monthDayRe = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayMonthRe = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// parseDates pulls a date range or a bare duration out of the utterance and
// records the consumed spans so number parsing downstream skips them.
func parseDates(text string, now time.Time, spans *spanSet) (brief.DateRange, bool) {
	var dr brief.DateRange
	found := false

	dates := parseExplicitDates(text, now, spans)
	if len(dates) >= 2 {
		start, end := dates[0], dates[1]
		if end.Before(start) {
			start, end = end, start
		}
		dr.Start, dr.End = &start, &end
		dr = dr.Normalized()
		return dr, dr.Nights > 0
	}
	if len(dates) == 1 {
		start := dates[0]
		dr.Start = &start
		found = true
	}

	if m := nightsRe.FindStringSubmatchIndex(text); m != nil {
		n := parseCount(text[m[2]:m[3]])
		if n > 0 {
			dr.Nights = n
			spans.add(m[0], m[1])
			found = true
		}
	} else if m := weeksRe.FindStringSubmatchIndex(text); m != nil {
		n := parseCount(text[m[2]:m[3]])
		if n > 0 {
			dr.Nights = n * 7
			spans.add(m[0], m[1])
			found = true
		}
	}

	if !found {
		return brief.DateRange{}, false
	}
	return dr.Normalized(), true
}

func parseExplicitDates(text string, now time.Time, spans *spanSet) []time.Time {
	var out []time.Time
	for _, m := range isoDateRe.FindAllStringSubmatchIndex(text, -1) {
		y, _ := strconv.Atoi(text[m[2]:m[3]])
		mo, _ := strconv.Atoi(text[m[4]:m[5]])
		d, _ := strconv.Atoi(text[m[6]:m[7]])
		if mo >= 1 && mo <= 12 && d >= 1 && d <= 31 {
			out = append(out, time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC))
			spans.add(m[0], m[1])
		}
	}
	for _, m := range slashRe.FindAllStringSubmatchIndex(text, -1) {
		// day-first convention
		d, _ := strconv.Atoi(text[m[2]:m[3]])
		mo, _ := strconv.Atoi(text[m[4]:m[5]])
		y, _ := strconv.Atoi(text[m[6]:m[7]])
		if mo >= 1 && mo <= 12 && d >= 1 && d <= 31 {
			out = append(out, time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC))
			spans.add(m[0], m[1])
		}
	}
	for _, m := range monthDayRe.FindAllStringSubmatchIndex(text, -1) {
		mo := monthsByName[text[m[2]:m[3]]]
		d, _ := strconv.Atoi(text[m[4]:m[5]])
		out = append(out, nextOccurrence(mo, d, now))
		spans.add(m[0], m[1])
	}
	for _, m := range dayMonthRe.FindAllStringSubmatchIndex(text, -1) {
		d, _ := strconv.Atoi(text[m[2]:m[3]])
		mo := monthsByName[text[m[4]:m[5]]]
		out = append(out, nextOccurrence(mo, d, now))
		spans.add(m[0], m[1])
	}
	sortTimes(out)
	return out
}

// nextOccurrence resolves a year-less date to its next future occurrence.
func nextOccurrence(mo time.Month, day int, now time.Time) time.Time {
	t := time.Date(now.Year(), mo, day, 0, 0, 0, 0, time.UTC)
	if t.Before(now.Truncate(24 * time.Hour)) {
		t = time.Date(now.Year()+1, mo, day, 0, 0, 0, 0, time.UTC)
	}
	return t
}

func parseCount(tok string) int {
	if n, err := strconv.Atoi(tok); err == nil {
		return n
	}
	return numberWords[strings.TrimSpace(tok)]
}

func sortTimes(ts []time.Time) {
	for i := 0; i < len(ts); i++ {
		for j := i + 1; j < len(ts); j++ {
			if ts[j].Before(ts[i]) {
				ts[i], ts[j] = ts[j], ts[i]
			}
		}
	}
}
