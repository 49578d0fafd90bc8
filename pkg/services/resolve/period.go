package resolve

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/signal-works/pulse/pkg/models/domain"
)

var (
	yyyymmddRe = regexp.MustCompile(`^\d{8}$`)
	yyyymmRe   = regexp.MustCompile(`^\d{6}$`)
	quarterRe  = regexp.MustCompile(`^(\d{4})-?[Qq]([1-4])$`)
	isoWeekRe  = regexp.MustCompile(`^(\d{4})-?[Ww](\d{1,2})$`)
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"2006-1",
	"Jan 2006",
}

// normalizePeriod rewrites recognized period values to canonical strings:
// YYYY-MM-DD when day precision varies across the column, YYYY-MM otherwise.
// Values no format recognizes are left as-is so synthesized sequence keys
// survive.
func normalizePeriod(ds *domain.Dataset, col string) {
	if !ds.HasColumn(col) {
		return
	}
	vals := ds.Column(col)
	times := make([]time.Time, len(vals))
	parsed := make([]bool, len(vals))
	days := make(map[int]struct{})
	anyParsed := false
	for i, v := range vals {
		t, ok := ParsePeriod(v)
		if !ok {
			continue
		}
		times[i] = t
		parsed[i] = true
		days[t.Day()] = struct{}{}
		anyParsed = true
	}
	if !anyParsed {
		return
	}
	layout := "2006-01"
	if len(days) > 1 {
		layout = "2006-01-02"
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		if parsed[i] {
			out[i] = times[i].Format(layout)
		} else {
			out[i] = v
		}
	}
	ds.AddColumn(col, out)
}

// ParsePeriod interprets one cell as a point in time. It accepts time.Time,
// common date strings, quarter and ISO week notations, and spreadsheet
// numerics (YYYYMMDD, YYYYMM, Excel serial days).
func ParsePeriod(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x, true
	case string:
		return parsePeriodString(strings.TrimSpace(x))
	default:
		if f, ok := domain.Float(v); ok {
			return parsePeriodNumber(f)
		}
		return time.Time{}, false
	}
}

// parsePeriodNumber handles spreadsheet style numeric periods: YYYYMMDD,
// YYYYMM and Excel serial days (origin 1899-12-30). The ranges are disjoint
// so classification stays unambiguous.
func parsePeriodNumber(f float64) (time.Time, bool) {
	if f != float64(int64(f)) {
		// fractional values only make sense as serials
		return excelSerial(f)
	}
	n := int64(f)
	if n >= 19000101 && n <= 29991231 {
		if t, err := time.Parse("20060102", strconv.FormatInt(n, 10)); err == nil {
			return t.UTC(), true
		}
	}
	if n >= 190001 && n <= 299912 {
		if t, err := time.Parse("200601", strconv.FormatInt(n, 10)); err == nil {
			return t.UTC(), true
		}
	}
	return excelSerial(f)
}

func excelSerial(f float64) (time.Time, bool) {
	if f <= 0 || f >= 190000 {
		return time.Time{}, false
	}
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(f * 24 * float64(time.Hour))), true
}

func parsePeriodString(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if yyyymmddRe.MatchString(s) {
		if t, err := time.Parse("20060102", s); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	if yyyymmRe.MatchString(s) {
		if t, err := time.Parse("20060102", s+"01"); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	if m := quarterRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		q, _ := strconv.Atoi(m[2])
		return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC), true
	}
	if m := isoWeekRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		return isoWeekStart(year, week), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isoWeekStart returns the Monday of the given ISO week. January 4th always
// falls in week one.
func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	wd := int(jan4.Weekday())
	if wd == 0 {
		wd = 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-wd)
	return week1Monday.AddDate(0, 0, (week-1)*7)
}
