package xsd

import (
	"regexp"
	"time"
)

// The xsd date/time family. Values are held as time.Time where the lexical
// space maps onto one (date, time, dateTime, dateTimeStamp) and as the
// validated lexical string for the partial Gregorian types and durations.

const (
	dateTimeLayout     = "2006-01-02T15:04:05.999999999Z07:00"
	dateTimeNoTZLayout = "2006-01-02T15:04:05.999999999"
	dateLayout         = "2006-01-02"
	timeLayout         = "15:04:05.999999999Z07:00"
	timeNoTZLayout     = "15:04:05.999999999"
)

// DateTime wraps xsd:dateTime (timezone optional).
type DateTime struct {
	t time.Time
}

// NewDateTime parses the xsd:dateTime lexical space.
func NewDateTime(lexical string) (DateTime, error) {
	if t, err := time.Parse(dateTimeLayout, lexical); err == nil {
		return DateTime{t: t}, nil
	}
	if t, err := time.Parse(dateTimeNoTZLayout, lexical); err == nil {
		return DateTime{t: t}, nil
	}
	return DateTime{}, valueErr("invalid xsd:dateTime %q", lexical)
}

// DateTimeFromRDF parses a dateTime lexical read back from the store.
func DateTimeFromRDF(lexical string) (DateTime, error) { return NewDateTime(lexical) }

// DateTimeFromTime wraps an existing time.Time.
func DateTimeFromTime(t time.Time) DateTime {
	return DateTime{t: t.Round(0)}
}

// DateTimeNow returns the current instant in the local timezone.
func DateTimeNow() DateTime {
	return DateTime{t: time.Now().Round(0)}
}

func (d DateTime) String() string { return d.t.Format(dateTimeLayout) }

// ToRDF returns the typed literal form.
func (d DateTime) ToRDF() string { return `"` + d.String() + `"^^xsd:dateTime` }

// Time returns the native value.
func (d DateTime) Time() time.Time { return d.t }

// Equal compares the instants, not their in-memory representation.
func (d DateTime) Equal(other DateTime) bool { return d.t.Equal(other.t) }

// IsZero reports whether the value is unset.
func (d DateTime) IsZero() bool { return d.t.IsZero() }

// Before reports whether d precedes other.
func (d DateTime) Before(other DateTime) bool { return d.t.Before(other.t) }

// DateTimeStamp wraps xsd:dateTimeStamp, a dateTime whose timezone is
// mandatory.
type DateTimeStamp struct {
	t time.Time
}

// NewDateTimeStamp parses the lexical space and requires a timezone.
func NewDateTimeStamp(lexical string) (DateTimeStamp, error) {
	t, err := time.Parse(dateTimeLayout, lexical)
	if err != nil {
		return DateTimeStamp{}, valueErr("invalid xsd:dateTimeStamp %q", lexical)
	}
	return DateTimeStamp{t: t}, nil
}

// DateTimeStampFromRDF parses a lexical read back from the store.
func DateTimeStampFromRDF(lexical string) (DateTimeStamp, error) {
	return NewDateTimeStamp(lexical)
}

// DateTimeStampNow returns the current instant in the local timezone.
func DateTimeStampNow() DateTimeStamp {
	return DateTimeStamp{t: time.Now().Round(0)}
}

func (d DateTimeStamp) String() string { return d.t.Format(dateTimeLayout) }

// ToRDF returns the typed literal form.
func (d DateTimeStamp) ToRDF() string { return `"` + d.String() + `"^^xsd:dateTimeStamp` }

// Time returns the native value.
func (d DateTimeStamp) Time() time.Time { return d.t }

// Equal compares the instants.
func (d DateTimeStamp) Equal(other DateTimeStamp) bool { return d.t.Equal(other.t) }

// Date wraps xsd:date.
type Date struct {
	t time.Time
}

// NewDate parses the xsd:date lexical space.
func NewDate(lexical string) (Date, error) {
	t, err := time.Parse(dateLayout, lexical)
	if err != nil {
		return Date{}, valueErr("invalid xsd:date %q", lexical)
	}
	return Date{t: t}, nil
}

// DateFromRDF parses a date lexical read back from the store.
func DateFromRDF(lexical string) (Date, error) { return NewDate(lexical) }

func (d Date) String() string { return d.t.Format(dateLayout) }

// ToRDF returns the typed literal form.
func (d Date) ToRDF() string { return `"` + d.String() + `"^^xsd:date` }

// Time returns the native value.
func (d Date) Time() time.Time { return d.t }

// Time wraps xsd:time (timezone optional).
type Time struct {
	t time.Time
}

// NewTime parses the xsd:time lexical space.
func NewTime(lexical string) (Time, error) {
	if t, err := time.Parse(timeLayout, lexical); err == nil {
		return Time{t: t}, nil
	}
	if t, err := time.Parse(timeNoTZLayout, lexical); err == nil {
		return Time{t: t}, nil
	}
	return Time{}, valueErr("invalid xsd:time %q", lexical)
}

// TimeFromRDF parses a time lexical read back from the store.
func TimeFromRDF(lexical string) (Time, error) { return NewTime(lexical) }

func (t Time) String() string { return t.t.Format(timeNoTZLayout) }

// ToRDF returns the typed literal form.
func (t Time) ToRDF() string { return `"` + t.String() + `"^^xsd:time` }

var durationRe = regexp.MustCompile(
	`^-?P(?:\d+Y)?(?:\d+M)?(?:\d+D)?(?:T(?:\d+H)?(?:\d+M)?(?:\d+(?:\.\d+)?S)?)?$`)

// Duration wraps xsd:duration. Because year and month components have no
// fixed length, the value is held in its lexical form.
type Duration string

// NewDuration validates the ISO 8601 duration production.
func NewDuration(lexical string) (Duration, error) {
	if lexical == "" || lexical == "P" || lexical == "-P" || !durationRe.MatchString(lexical) {
		return "", valueErr("invalid xsd:duration %q", lexical)
	}
	return Duration(lexical), nil
}

// DurationFromRDF builds the value without validation.
func DurationFromRDF(lexical string) Duration { return Duration(lexical) }

func (d Duration) String() string { return string(d) }

// ToRDF returns the typed literal form.
func (d Duration) ToRDF() string { return `"` + string(d) + `"^^xsd:duration` }

// The partial Gregorian types carry their validated lexical form.

var gYearRe = regexp.MustCompile(`^-?\d{4,}(Z|[+-]\d{2}:\d{2})?$`)
var gYearMonthRe = regexp.MustCompile(`^-?\d{4,}-(0[1-9]|1[0-2])(Z|[+-]\d{2}:\d{2})?$`)
var gMonthRe = regexp.MustCompile(`^--(0[1-9]|1[0-2])(Z|[+-]\d{2}:\d{2})?$`)
var gDayRe = regexp.MustCompile(`^---(0[1-9]|[12]\d|3[01])(Z|[+-]\d{2}:\d{2})?$`)
var gMonthDayRe = regexp.MustCompile(`^--(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])(Z|[+-]\d{2}:\d{2})?$`)

// GYear wraps xsd:gYear.
type GYear string

// NewGYear validates the gYear production.
func NewGYear(lexical string) (GYear, error) {
	if !gYearRe.MatchString(lexical) {
		return "", valueErr("invalid xsd:gYear %q", lexical)
	}
	return GYear(lexical), nil
}

// GYearFromRDF builds the value without validation.
func GYearFromRDF(lexical string) GYear { return GYear(lexical) }

func (g GYear) String() string { return string(g) }

// ToRDF returns the typed literal form.
func (g GYear) ToRDF() string { return `"` + string(g) + `"^^xsd:gYear` }

// GYearMonth wraps xsd:gYearMonth.
type GYearMonth string

// NewGYearMonth validates the gYearMonth production.
func NewGYearMonth(lexical string) (GYearMonth, error) {
	if !gYearMonthRe.MatchString(lexical) {
		return "", valueErr("invalid xsd:gYearMonth %q", lexical)
	}
	return GYearMonth(lexical), nil
}

// GYearMonthFromRDF builds the value without validation.
func GYearMonthFromRDF(lexical string) GYearMonth { return GYearMonth(lexical) }

func (g GYearMonth) String() string { return string(g) }

// ToRDF returns the typed literal form.
func (g GYearMonth) ToRDF() string { return `"` + string(g) + `"^^xsd:gYearMonth` }

// GMonth wraps xsd:gMonth.
type GMonth string

// NewGMonth validates the gMonth production.
func NewGMonth(lexical string) (GMonth, error) {
	if !gMonthRe.MatchString(lexical) {
		return "", valueErr("invalid xsd:gMonth %q", lexical)
	}
	return GMonth(lexical), nil
}

// GMonthFromRDF builds the value without validation.
func GMonthFromRDF(lexical string) GMonth { return GMonth(lexical) }

func (g GMonth) String() string { return string(g) }

// ToRDF returns the typed literal form.
func (g GMonth) ToRDF() string { return `"` + string(g) + `"^^xsd:gMonth` }

// GDay wraps xsd:gDay.
type GDay string

// NewGDay validates the gDay production.
func NewGDay(lexical string) (GDay, error) {
	if !gDayRe.MatchString(lexical) {
		return "", valueErr("invalid xsd:gDay %q", lexical)
	}
	return GDay(lexical), nil
}

// GDayFromRDF builds the value without validation.
func GDayFromRDF(lexical string) GDay { return GDay(lexical) }

func (g GDay) String() string { return string(g) }

// ToRDF returns the typed literal form.
func (g GDay) ToRDF() string { return `"` + string(g) + `"^^xsd:gDay` }

// GMonthDay wraps xsd:gMonthDay.
type GMonthDay string

// NewGMonthDay validates the gMonthDay production.
func NewGMonthDay(lexical string) (GMonthDay, error) {
	if !gMonthDayRe.MatchString(lexical) {
		return "", valueErr("invalid xsd:gMonthDay %q", lexical)
	}
	return GMonthDay(lexical), nil
}

// GMonthDayFromRDF builds the value without validation.
func GMonthDayFromRDF(lexical string) GMonthDay { return GMonthDay(lexical) }

func (g GMonthDay) String() string { return string(g) }

// ToRDF returns the typed literal form.
func (g GMonthDay) ToRDF() string { return `"` + string(g) + `"^^xsd:gMonthDay` }
