// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// DateKind tags which variant a Date holds.
type DateKind string

const (
	// DateRaw is free text that did not parse as a calendar date.
	DateRaw DateKind = "raw"

	// DateParsed is a calendar date.
	DateParsed DateKind = "parsed"

	// DateSentinel is a canonical "no value" phrase.
	DateSentinel DateKind = "sentinel"
)

// DateLayout is the canonical calendar-date layout on disk.
const DateLayout = "2006-01-02"

// NoExpirationDate is the sentinel for every recognized "no expiration"
// phrasing.
const NoExpirationDate = "No expiration date stated"

// Date is a loosely formatted date field after normalization. Consumers
// switch on Kind instead of sniffing the string shape.
type Date struct {
	Kind DateKind
	Time time.Time
	Text string
}

// ParsedDate returns a calendar-date variant.
func ParsedDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Kind: DateParsed, Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// SentinelDate returns a sentinel variant.
func SentinelDate(text string) Date {
	return Date{Kind: DateSentinel, Text: text}
}

// RawDate returns a free-text variant.
func RawDate(text string) Date {
	return Date{Kind: DateRaw, Text: text}
}

// IsParsed reports whether d holds a calendar date.
func (d Date) IsParsed() bool {
	return d.Kind == DateParsed
}

// String renders the date the way it is written to disk.
func (d Date) String() string {
	if d.Kind == DateParsed {
		return d.Time.Format(DateLayout)
	}
	return d.Text
}

// MarshalJSON writes parsed dates as YYYY-MM-DD and every other variant as
// its text.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON reads any JSON string as a raw variant. Callers
// re-normalize to recover the parsed or sentinel kind.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = RawDate("")
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = RawDate(s)
	return nil
}
