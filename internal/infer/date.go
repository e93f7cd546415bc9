package infer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthNames = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	isoDate      = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	numericDate  = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2,4})\b`)
	monthDayDate = regexp.MustCompile(`(?i)\b` + monthNames + `\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayMonthDate = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthNames + `\b`)
	relativeDate = regexp.MustCompile(`(?i)\b(tomorrow|next\s+(?:week|month|sunday|monday|tuesday|wednesday|thursday|friday|saturday))\b`)
	fillerWords  = regexp.MustCompile(`(?i)\b(on|by|due|date)\b`)
)

type dateMatcher struct {
	re    *regexp.Regexp
	parse func(groups []string, now time.Time) (time.Time, bool)
}

// Tried in order; the first one that yields a real calendar date wins.
var dateMatchers = []dateMatcher{
	{isoDate, parseISO},
	{numericDate, parseNumeric},
	{monthDayDate, func(g []string, now time.Time) (time.Time, bool) { return parseMonthName(g[1], g[2], now) }},
	{dayMonthDate, func(g []string, now time.Time) (time.Time, bool) { return parseMonthName(g[2], g[1], now) }},
	{relativeDate, parseRelative},
}

// ExtractDate finds the first date expression in title. It returns the date,
// the title with the expression and filler words removed, and whether a date
// was found. Without a match the cleaned title is title with collapsed spaces.
func ExtractDate(title string, now time.Time) (time.Time, string, bool) {
	for _, m := range dateMatchers {
		loc := m.re.FindStringSubmatchIndex(title)
		if loc == nil {
			continue
		}
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = title[loc[2*i]:loc[2*i+1]]
			}
		}
		due, ok := m.parse(groups, now)
		if !ok {
			continue
		}
		cleaned := title[:loc[0]] + " " + title[loc[1]:]
		cleaned = fillerWords.ReplaceAllString(cleaned, " ")
		return due, collapse(cleaned), true
	}
	return time.Time{}, collapse(title), false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseISO(g []string, now time.Time) (time.Time, bool) {
	year, _ := strconv.Atoi(g[1])
	month, _ := strconv.Atoi(g[2])
	day, _ := strconv.Atoi(g[3])
	return calendarDate(year, month, day, now.Location())
}

// parseNumeric reads M/D/Y, falling back to D/M/Y when the first number
// cannot be a month.
func parseNumeric(g []string, now time.Time) (time.Time, bool) {
	month, _ := strconv.Atoi(g[1])
	day, _ := strconv.Atoi(g[2])
	year, _ := strconv.Atoi(g[3])
	if year < 100 {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}
	if month > 12 {
		month, day = day, month
	}
	return calendarDate(year, month, day, now.Location())
}

// parseMonthName lands in the current year, or the next one when the day
// has already passed.
func parseMonthName(name, dayText string, now time.Time) (time.Time, bool) {
	month := monthIndex(name)
	day, _ := strconv.Atoi(dayText)
	loc := now.Location()
	d, ok := calendarDate(now.Year(), month, day, loc)
	if !ok {
		return time.Time{}, false
	}
	y, m, dd := now.Date()
	if d.Before(time.Date(y, m, dd, 0, 0, 0, 0, loc)) {
		return calendarDate(now.Year()+1, month, day, loc)
	}
	return d, true
}

func parseRelative(g []string, now time.Time) (time.Time, bool) {
	phrase := collapse(strings.ToLower(g[1]))
	switch phrase {
	case "tomorrow":
		return now.AddDate(0, 0, 1), true
	case "next week":
		return now.AddDate(0, 0, 7), true
	case "next month":
		return now.AddDate(0, 1, 0), true
	}
	name := strings.TrimPrefix(phrase, "next ")
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.ToLower(wd.String()) != name {
			continue
		}
		days := (int(wd) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return now.AddDate(0, 0, days), true
	}
	return time.Time{}, false
}

func monthIndex(name string) int {
	prefix := strings.ToLower(name)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	for m := time.January; m <= time.December; m++ {
		if strings.ToLower(m.String()[:3]) == prefix {
			return int(m)
		}
	}
	return 0
}

// calendarDate rejects dates time.Date would silently normalize, like Feb 30.
func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
