package domain

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"
)

// Float is a nullable float64 that absorbs the feed's loose typing.
// JSON numbers, quoted decimal strings, null, missing keys, and malformed
// values all decode without error; anything unusable becomes a null.
type Float struct {
	Value float64
	Valid bool
}

// NewFloat returns a non-null Float.
func NewFloat(v float64) Float {
	return Float{Value: v, Valid: true}
}

// UnmarshalJSON implements tolerant coercion: coercion failures become a
// missing value, never an error.
func (f *Float) UnmarshalJSON(data []byte) error {
	*f = Float{}
	s := string(bytes.TrimSpace(data))
	if s == "" || s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
		if s == "" {
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*f = Float{Value: v, Valid: true}
	return nil
}

// MarshalJSON renders null for missing values.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f.Value, 'g', -1, 64)), nil
}

// MarshalCSV renders the empty string for missing values.
func (f Float) MarshalCSV() ([]byte, error) {
	if !f.Valid {
		return nil, nil
	}
	return []byte(strconv.FormatFloat(f.Value, 'g', -1, 64)), nil
}

// UnmarshalCSV parses a delimited-file cell, treating blanks and malformed
// numbers as null.
func (f *Float) UnmarshalCSV(data []byte) error {
	*f = Float{}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*f = Float{Value: v, Valid: true}
	return nil
}

// Bool is a nullable boolean with the same tolerance rules as Float.
type Bool struct {
	Value bool
	Valid bool
}

// NewBool returns a non-null Bool.
func NewBool(v bool) Bool {
	return Bool{Value: v, Valid: true}
}

// OrFalse collapses a missing flag to false, the table-build coercion rule.
func (b Bool) OrFalse() bool {
	return b.Valid && b.Value
}

func (b *Bool) UnmarshalJSON(data []byte) error {
	*b = Bool{}
	s := string(bytes.TrimSpace(data))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	switch strings.ToLower(s) {
	case "true":
		*b = Bool{Value: true, Valid: true}
	case "false":
		*b = Bool{Value: false, Valid: true}
	}
	return nil
}

func (b Bool) MarshalJSON() ([]byte, error) {
	if !b.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatBool(b.Value)), nil
}

func (b Bool) MarshalCSV() ([]byte, error) {
	if !b.Valid {
		return nil, nil
	}
	return []byte(strconv.FormatBool(b.Value)), nil
}

func (b *Bool) UnmarshalCSV(data []byte) error {
	*b = Bool{}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return nil
	}
	*b = Bool{Value: v, Valid: true}
	return nil
}

// dateLayouts are the calendar formats the feed and our own delimited files
// use, in the order they are tried.
var dateLayouts = []string{
	DateFormat,
	"2006-01-02 15:04:05",
	"2006-Jan-02 15:04", // NeoWs close_approach_date_full
	time.RFC3339,
}

// Date is a nullable timestamp. Unparseable inputs become null rather than
// an error, matching the numeric coercion rules.
type Date struct {
	Value time.Time
	Valid bool
}

// NewDate returns a non-null Date.
func NewDate(t time.Time) Date {
	return Date{Value: t.UTC(), Valid: true}
}

// ParseFlexibleDate coerces a string into a Date using the known feed
// layouts. Blank or malformed input yields a null Date.
func ParseFlexibleDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Date{Value: t, Valid: true}
		}
	}
	return Date{}
}

func (d Date) format() string {
	if d.Value.Equal(truncateToDate(d.Value)) {
		return d.Value.Format(DateFormat)
	}
	return d.Value.Format("2006-01-02 15:04:05")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.format())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		*d = Date{}
		return nil
	}
	unquoted, err := strconv.Unquote(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = ParseFlexibleDate(unquoted)
	return nil
}

func (d Date) MarshalCSV() ([]byte, error) {
	if !d.Valid {
		return nil, nil
	}
	return []byte(d.format()), nil
}

func (d *Date) UnmarshalCSV(data []byte) error {
	*d = ParseFlexibleDate(string(data))
	return nil
}

// SafeLog10 is the shared rule for derived log columns: null whenever the
// source value is missing or not strictly positive.
func SafeLog10(f Float) Float {
	if !f.Valid || f.Value <= 0 {
		return Float{}
	}
	return Float{Value: math.Log10(f.Value), Valid: true}
}
