// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/propagate/pkg/types"
)

// effectiveLayout is the "Month Day, Year" form the model uses for
// effective dates.
const effectiveLayout = "January 2, 2006"

// timeOfDayMarker flags an effective date with a time-of-day suffix
// (e.g. "March 3, 2025, 12:01 a.m. eastern time").
const timeOfDayMarker = "12:01"

// noExpirationPhrases are the lowercase phrasings canonicalized to
// types.NoExpirationDate.
var noExpirationPhrases = map[string]bool{
	"":                             true,
	"no expiration date stated":    true,
	"no expiration date specified": true,
	"no expiration date is stated": true,
	"no expiration date":           true,
	"not specified":                true,
	"not stated":                   true,
	"none":                         true,
	"none specified":               true,
	"none stated":                  true,
	"n/a":                          true,
}

// EffectiveDate parses a free-text effective date. A time-of-day suffix after
// the year is dropped. Text that does not parse is kept as a raw value.
func EffectiveDate(s string) types.Date {
	text := strings.TrimSpace(s)
	candidate := text
	if strings.Contains(text, timeOfDayMarker) {
		parts := strings.Split(text, ",")
		if len(parts) >= 2 {
			candidate = strings.TrimSpace(parts[0]) + ", " + strings.TrimSpace(parts[1])
		}
	}
	t, err := time.Parse(effectiveLayout, candidate)
	if err != nil {
		return types.RawDate(s)
	}
	return types.ParsedDate(t)
}

// ExpirationDate canonicalizes the "no date stated" phrasings to the
// sentinel, parses ISO calendar dates, and keeps anything else as raw text.
func ExpirationDate(s string) types.Date {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimSuffix(key, ".")
	if noExpirationPhrases[key] {
		return types.SentinelDate(types.NoExpirationDate)
	}
	t, err := time.Parse(types.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return types.RawDate(s)
	}
	return types.ParsedDate(t)
}

// CalendarDate parses a registry-sourced YYYY-MM-DD date. Unlike the
// model-sourced fields, a failure is an error.
func CalendarDate(field, s string) (types.Date, error) {
	t, err := time.Parse(types.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return types.Date{}, fmt.Errorf("%s %q is not a YYYY-MM-DD date: %w", field, s, err)
	}
	return types.ParsedDate(t), nil
}
