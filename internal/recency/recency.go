// Package recency resolves the free-form age hints attached to search
// results. Each source reports age differently: relative phrases
// ("12 hours ago"), ISO-8601 durations ("P2W"), explicit markers
// ("Published 2024-05-20"), or absolute dates ("May 20, 2024").
package recency

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeRe = regexp.MustCompile(`(?i)^(\d+)\s+(minute|hour|day|week|month|year)s?\s+ago$`)

// isoDurationRe covers the date portion plus an optional time portion.
var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

var absoluteLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006-01-02T15:04:05", // Brave page_age, no zone
	time.RFC3339,
}

// Parse resolves a hint to an absolute time relative to now.
// Unparseable input returns ok=false, never an error.
func Parse(hint string, now time.Time) (time.Time, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return time.Time{}, false
	}

	switch strings.ToLower(hint) {
	case "just now", "now", "today":
		return now, true
	case "yesterday":
		return now.AddDate(0, 0, -1), true
	}

	if rest, ok := cutPrefixFold(hint, "published "); ok {
		return parseAbsolute(rest)
	}

	if m := relativeRe.FindStringSubmatch(hint); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		return subtractUnits(now, n, strings.ToLower(m[2])), true
	}

	if d, ok := parseISODuration(hint); ok {
		return now.Add(-d), true
	}

	return parseAbsolute(hint)
}

// Stale reports whether a hint encodes a duration-style age old enough to
// skip before the extraction step: a year or more, or two or more months
// when expressed in months. Anything else, including unparseable hints,
// passes.
func Stale(hint string) bool {
	hint = strings.TrimSpace(hint)
	if m := relativeRe.FindStringSubmatch(hint); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return false
		}
		switch strings.ToLower(m[2]) {
		case "year":
			return n >= 1
		case "month":
			return n >= 2
		}
		return false
	}
	if strings.HasPrefix(hint, "P") {
		if m := isoDurationRe.FindStringSubmatch(hint); m != nil {
			years := atoiDefault(m[1])
			months := atoiDefault(m[2])
			return years >= 1 || months >= 2
		}
	}
	return false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):]), true
	}
	return s, false
}

func parseAbsolute(s string) (time.Time, bool) {
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func subtractUnits(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "minute":
		return now.Add(-time.Duration(n) * time.Minute)
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, -n, 0)
	case "year":
		return now.AddDate(-n, 0, 0)
	}
	return now
}

func parseISODuration(s string) (time.Duration, bool) {
	if !strings.HasPrefix(s, "P") || s == "P" || s == "PT" {
		return 0, false
	}
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	years := atoiDefault(m[1])
	months := atoiDefault(m[2])
	weeks := atoiDefault(m[3])
	days := atoiDefault(m[4])
	hours := atoiDefault(m[5])
	minutes := atoiDefault(m[6])
	seconds := atoiDefault(m[7])

	// Calendar-exact month/year arithmetic is not needed for an age signal.
	totalDays := years*365 + months*30 + weeks*7 + days
	d := time.Duration(totalDays)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	if d == 0 {
		return 0, false
	}
	return d, true
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
