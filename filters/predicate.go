package filters

import (
	"slices"
	"strings"

	"taxi-insights-api/models"
)

// Field is a trip attribute a predicate can test.
type Field int

const (
	PickupDayOfWeek Field = iota
	PickupHour
	PickupMonth
	Distance
	TotalAmount
	PickupZone
	DropoffZone
)

var columns = map[Field]string{
	PickupDayOfWeek: "EXTRACT(DOW FROM tpep_pickup_datetime)",
	PickupHour:      "EXTRACT(HOUR FROM tpep_pickup_datetime)",
	PickupMonth:     "EXTRACT(MONTH FROM tpep_pickup_datetime)",
	Distance:        "trip_distance",
	TotalAmount:     "total_amount",
	PickupZone:      `"PULocationID"`,
	DropoffZone:     `"DOLocationID"`,
}

// Column returns the SQL expression for f.
func (f Field) Column() string { return columns[f] }

func (f Field) integral() bool {
	return f != Distance && f != TotalAmount
}

func (f Field) value(t models.Trip) float64 {
	switch f {
	case PickupDayOfWeek:
		return float64(t.PickupAt.Weekday())
	case PickupHour:
		return float64(t.PickupAt.Hour())
	case PickupMonth:
		return float64(t.PickupAt.Month())
	case Distance:
		return t.Distance
	case TotalAmount:
		return t.TotalAmount
	case PickupZone:
		return float64(t.PickupZone)
	case DropoffZone:
		return float64(t.DropoffZone)
	}
	return 0
}

type Op int

// Operand layout per Op: Eq and Greater take one value, In any number,
// Between, HalfOpen and Wrap take lo and hi. DropoffAfterPickup compares
// the two timestamps and ignores Field.
const (
	OpEq Op = iota
	OpIn
	OpBetween
	OpHalfOpen
	OpWrap
	OpGreater
	OpDropoffAfterPickup
)

// Predicate is a single boolean condition over a trip.
type Predicate struct {
	Op     Op
	Field  Field
	Values []float64
}

func Eq(f Field, v float64) Predicate { return Predicate{Op: OpEq, Field: f, Values: []float64{v}} }

func In(f Field, vs ...float64) Predicate { return Predicate{Op: OpIn, Field: f, Values: vs} }

func Between(f Field, lo, hi float64) Predicate {
	return Predicate{Op: OpBetween, Field: f, Values: []float64{lo, hi}}
}

func HalfOpen(f Field, lo, hi float64) Predicate {
	return Predicate{Op: OpHalfOpen, Field: f, Values: []float64{lo, hi}}
}

// Wrap matches values at or above from, or below to. It expresses ranges
// that cross midnight such as 18:00-05:59.
func Wrap(f Field, from, to float64) Predicate {
	return Predicate{Op: OpWrap, Field: f, Values: []float64{from, to}}
}

func Greater(f Field, v float64) Predicate {
	return Predicate{Op: OpGreater, Field: f, Values: []float64{v}}
}

func DropoffAfterPickup() Predicate { return Predicate{Op: OpDropoffAfterPickup} }

func (p Predicate) Equal(o Predicate) bool {
	if p.Op != o.Op {
		return false
	}
	if p.Op == OpDropoffAfterPickup {
		return true
	}
	return p.Field == o.Field && slices.Equal(p.Values, o.Values)
}

// Match evaluates the predicate against t.
func (p Predicate) Match(t models.Trip) bool {
	if p.Op == OpDropoffAfterPickup {
		return t.DropoffAt.After(t.PickupAt)
	}
	v := p.Field.value(t)
	switch p.Op {
	case OpEq:
		return v == p.Values[0]
	case OpIn:
		return slices.Contains(p.Values, v)
	case OpBetween:
		return v >= p.Values[0] && v <= p.Values[1]
	case OpHalfOpen:
		return v >= p.Values[0] && v < p.Values[1]
	case OpWrap:
		return v >= p.Values[0] || v < p.Values[1]
	case OpGreater:
		return v > p.Values[0]
	}
	return false
}

// SQL renders the predicate with ? placeholders.
func (p Predicate) SQL() (string, []any) {
	if p.Op == OpDropoffAfterPickup {
		return "tpep_dropoff_datetime > tpep_pickup_datetime", nil
	}
	col := p.Field.Column()
	args := p.args()
	switch p.Op {
	case OpEq:
		return col + " = ?", args
	case OpIn:
		return col + " IN ?", []any{args}
	case OpBetween:
		return col + " BETWEEN ? AND ?", args
	case OpHalfOpen:
		return "(" + col + " >= ? AND " + col + " < ?)", args
	case OpWrap:
		return "(" + col + " >= ? OR " + col + " < ?)", args
	case OpGreater:
		return col + " > ?", args
	}
	return "", nil
}

func (p Predicate) args() []any {
	args := make([]any, len(p.Values))
	for i, v := range p.Values {
		if p.Field.integral() {
			args[i] = int(v)
		} else {
			args[i] = v
		}
	}
	return args
}

// Set is an ordered, duplicate-free conjunction of predicates. The zero
// value is the empty set and places no constraint on trips.
type Set struct {
	preds []Predicate
}

// Compile translates spec into predicates, one per constrained dimension
// in day, time, month order, followed by extra.
func Compile(spec Spec, extra ...Predicate) Set {
	var preds []Predicate

	switch spec.Day {
	case Weekends:
		preds = append(preds, In(PickupDayOfWeek, 0, 6))
	case Weekdays:
		preds = append(preds, In(PickupDayOfWeek, 1, 2, 3, 4, 5))
	case SingleDay:
		preds = append(preds, Eq(PickupDayOfWeek, float64(spec.DayOfWeek)))
	}

	switch spec.Time {
	case Morning:
		preds = append(preds, Between(PickupHour, 6, 11))
	case Afternoon:
		preds = append(preds, Between(PickupHour, 12, 17))
	case Night:
		preds = append(preds, Wrap(PickupHour, 18, 6))
	}

	if spec.Month != 0 {
		preds = append(preds, Eq(PickupMonth, float64(spec.Month)))
	}

	return Set{preds: preds}.With(extra...)
}

// With returns a new set with extra appended, skipping predicates already
// present. s is not modified.
func (s Set) With(extra ...Predicate) Set {
	out := Set{preds: slices.Clone(s.preds)}
	for _, p := range extra {
		if !slices.ContainsFunc(out.preds, p.Equal) {
			out.preds = append(out.preds, p)
		}
	}
	return out
}

func (s Set) Len() int { return len(s.preds) }

func (s Set) Predicates() []Predicate { return slices.Clone(s.preds) }

// Match reports whether t satisfies every predicate.
func (s Set) Match(t models.Trip) bool {
	for _, p := range s.preds {
		if !p.Match(t) {
			return false
		}
	}
	return true
}

// Clause is a rendered Set: an AND-joined condition and its arguments.
type Clause struct {
	SQL  string
	Args []any
}

// Empty reports whether the clause is the no-op "no constraint" clause.
func (c Clause) Empty() bool { return c.SQL == "" }

// Where returns the clause prefixed with WHERE, or "" when empty.
func (c Clause) Where() string {
	if c.Empty() {
		return ""
	}
	return "WHERE " + c.SQL
}

// Render joins every predicate with AND. An empty set renders to the
// empty Clause.
func (s Set) Render() Clause {
	if len(s.preds) == 0 {
		return Clause{}
	}
	parts := make([]string, 0, len(s.preds))
	var args []any
	for _, p := range s.preds {
		sql, a := p.SQL()
		parts = append(parts, sql)
		args = append(args, a...)
	}
	return Clause{SQL: strings.Join(parts, " AND "), Args: args}
}
