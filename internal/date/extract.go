package date

import (
	"regexp"
	"sort"
	"strconv"
	"time"
	_ "time/tzdata" // zones must resolve on hosts without a zoneinfo database

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
)

// Source formats reported on a Candidate.
const (
	SourceISO      = "iso"
	SourceDayMonth = "numeric-day-month"
)

var (
	isoRe      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dayMonthRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)
)

// Candidate is one explicit date mention found in free text.
type Candidate struct {
	OriginalText   string `json:"originalText"`
	ISODate        string `json:"isoDate"`
	RolledToFuture bool   `json:"rolledToFuture"`
	SourceFormat   string `json:"sourceFormat"`
	Start          int    `json:"start"`
	End            int    `json:"end"`
}

// Date returns the candidate's resolved date.
func (c Candidate) Date() Date {
	return MustParse(c.ISODate)
}

// LoadLocation resolves an IANA zone name. The empty name means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, clierr.Newf(clierr.InvalidTimeZone, "unknown time zone %q", name).
			WithDetails(map[string]any{"time_zone": name})
	}
	return loc, nil
}

// ExtractExplicitDates scans text for ISO dates (YYYY-MM-DD) and numeric
// day/month mentions (D/M, DD/MM) and resolves them to calendar dates.
// Hyphenated pairs such as "2-3" are ranges, not dates.
//
// Day/month mentions take the year of base as observed in timeZone. A
// mention that falls before base's calendar day is moved to the next year
// and, if that lands on a weekend, to the following Monday. ISO matches win
// over any day/month match overlapping the same text. Candidates are
// returned in text order.
func ExtractExplicitDates(text, timeZone string, base time.Time) ([]Candidate, error) {
	loc, err := LoadLocation(timeZone)
	if err != nil {
		return nil, err
	}
	today := Of(base, loc)

	var out []Candidate
	var isoSpans [][2]int

	for _, m := range isoRe.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[0]:m[1]]
		d, err := Parse(raw)
		if err != nil {
			continue
		}
		isoSpans = append(isoSpans, [2]int{m[0], m[1]})
		out = append(out, Candidate{
			OriginalText: raw,
			ISODate:      d.String(),
			SourceFormat: SourceISO,
			Start:        m[0],
			End:          m[1],
		})
	}

	for _, m := range dayMonthRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if overlapsAny(start, end, isoSpans) || partOfLongerDate(text, start, end) {
			continue
		}
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])
		d, rolled, ok := resolveDayMonth(day, month, today)
		if !ok {
			continue
		}
		out = append(out, Candidate{
			OriginalText:   text[start:end],
			ISODate:        d.String(),
			RolledToFuture: rolled,
			SourceFormat:   SourceDayMonth,
			Start:          start,
			End:            end,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// resolveDayMonth places day/month in today's year, rolling forward a year
// when that day has already passed.
func resolveDayMonth(day, month int, today Date) (Date, bool, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false, false
	}
	d, ok := validDate(today.Year(), time.Month(month), day)
	if !ok {
		return Date{}, false, false
	}
	if !d.Before(today) {
		return d, false, true
	}
	d, ok = validDate(today.Year()+1, time.Month(month), day)
	if !ok {
		return Date{}, false, false
	}
	return d.NextBusinessDay(), true, true
}

// validDate rejects combinations like 31/4 that time.Date would normalize.
func validDate(year int, month time.Month, day int) (Date, bool) {
	d := New(year, month, day)
	if d.Month() != month || d.Day() != day {
		return Date{}, false
	}
	return d, true
}

func overlapsAny(start, end int, spans [][2]int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// partOfLongerDate reports whether the match is glued to another separator
// and number, as in "3/10/2025" or "1/3/10".
func partOfLongerDate(text string, start, end int) bool {
	isSep := func(b byte) bool { return b == '/' || b == '-' }
	isDigit := func(b byte) bool { return b >= '0' && b <= '9' }
	if end+1 < len(text) && isSep(text[end]) && isDigit(text[end+1]) {
		return true
	}
	if start >= 2 && isSep(text[start-1]) && isDigit(text[start-2]) {
		return true
	}
	return false
}
