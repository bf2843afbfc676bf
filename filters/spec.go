// Package filters turns the dashboard's categorical selections into an
// ordered set of predicates that can be rendered to SQL or evaluated
// against in-memory trips.
package filters

import (
	"strconv"
	"strings"
)

type DayFilter int

const (
	AnyDay DayFilter = iota
	Weekdays
	Weekends
	SingleDay
)

type TimeFilter int

const (
	AnyTime TimeFilter = iota
	Morning
	Afternoon
	Night
)

// Spec is the normalized form of the day, time and month selections.
// The zero value places no constraint on any dimension.
type Spec struct {
	Day       DayFilter
	DayOfWeek int // 0=Sunday, set when Day == SingleDay
	Time      TimeFilter
	Month     int // 1..12, 0 means any month
}

// Normalize builds a Spec from raw query values. Anything it does not
// recognize, including out-of-range day and month codes, leaves that
// dimension unconstrained.
func Normalize(day, timeOfDay, month string) Spec {
	var s Spec

	switch d := strings.ToLower(strings.TrimSpace(day)); d {
	case "weekday":
		s.Day = Weekdays
	case "weekend":
		s.Day = Weekends
	default:
		if n, ok := parseCode(d, 0, 6); ok {
			s.Day = SingleDay
			s.DayOfWeek = n
		}
	}

	switch strings.ToLower(strings.TrimSpace(timeOfDay)) {
	case "morning":
		s.Time = Morning
	case "afternoon":
		s.Time = Afternoon
	case "night":
		s.Time = Night
	}

	if n, ok := parseCode(strings.TrimSpace(month), 1, 12); ok {
		s.Month = n
	}

	return s
}

// IsEmpty reports whether the spec constrains nothing.
func (s Spec) IsEmpty() bool {
	return s.Day == AnyDay && s.Time == AnyTime && s.Month == 0
}

func parseCode(v string, lo, hi int) (int, bool) {
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

// String renders the spec with the same vocabulary the query parameters use.
func (s Spec) String() string {
	day := "all"
	switch s.Day {
	case Weekdays:
		day = "weekday"
	case Weekends:
		day = "weekend"
	case SingleDay:
		day = strconv.Itoa(s.DayOfWeek)
	}
	tod := [...]string{AnyTime: "all", Morning: "morning", Afternoon: "afternoon", Night: "night"}[s.Time]
	month := "all"
	if s.Month != 0 {
		month = strconv.Itoa(s.Month)
	}
	return "day=" + day + " time=" + tod + " month=" + month
}
