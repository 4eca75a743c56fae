// Package visitlog encodes and decodes the append-only visit history kept
// on every customer record: comma-separated entries of the form
// "2006-01-02 15:04 (tag)". The log is human-readable and human-edited in
// places, so parsing favors preserving entries over rejecting them.
package visitlog

import (
	"strings"
	"time"
)

// TimestampLayout is the minute-precision form entries are written with.
const TimestampLayout = "2006-01-02 15:04"

// Tags written by the lifecycle operations. Visit entries carry the plan
// type label instead.
const (
	TagRegistration = "신규등록"
	TagRenewal      = "재등록"
)

// Entry is one visit log record. When a stored entry could not be parsed,
// Raw holds the original text verbatim and the other fields are zero.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Raw       string
}

// Malformed reports whether the entry was preserved as opaque text.
func (e Entry) Malformed() bool {
	return e.Raw != ""
}

// String renders the entry in stored form.
func (e Entry) String() string {
	if e.Malformed() {
		return e.Raw
	}
	if e.Tag == "" {
		return e.Timestamp.Format(TimestampLayout)
	}
	return e.Timestamp.Format(TimestampLayout) + " (" + e.Tag + ")"
}

// Parse splits a raw log field into entries, oldest first. Malformed
// entries (missing tag parentheses, unparseable date) come back with Raw
// set instead of being dropped.
func Parse(raw string) []Entry {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	entries := make([]Entry, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entries = append(entries, parseOne(part))
	}
	return entries
}

func parseOne(s string) Entry {
	stamp := s
	tag := ""
	if open := strings.LastIndex(s, "("); open >= 0 && strings.HasSuffix(s, ")") {
		stamp = strings.TrimSpace(s[:open])
		tag = strings.TrimSpace(s[open+1 : len(s)-1])
	}
	ts, err := time.Parse(TimestampLayout, stamp)
	if err != nil {
		// Older rows sometimes carry a date without the time part.
		ts, err = time.Parse("2006-01-02", stamp)
	}
	if err != nil {
		return Entry{Raw: s}
	}
	return Entry{Timestamp: ts, Tag: tag}
}

// Append returns the log with one entry added at the end. Entries are never
// removed or reordered.
func Append(raw string, e Entry) string {
	formatted := e.String()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return formatted
	}
	return raw + ", " + formatted
}

// HasEntryOnDate reports whether any parsed entry falls on the given
// calendar day. Malformed entries are checked by substring against the
// date's stored form, matching how the original log was scanned.
func HasEntryOnDate(raw string, date time.Time) bool {
	day := date.Format("2006-01-02")
	for _, e := range Parse(raw) {
		if e.Malformed() {
			if strings.Contains(e.Raw, day) {
				return true
			}
			continue
		}
		if e.Timestamp.Format("2006-01-02") == day {
			return true
		}
	}
	return false
}

// HasTagOnDate reports whether an entry with the given tag exists on the
// given calendar day. Used for the per-slot same-day duplicate policy.
func HasTagOnDate(raw string, tag string, date time.Time) bool {
	day := date.Format("2006-01-02")
	for _, e := range Parse(raw) {
		if e.Malformed() {
			continue
		}
		if e.Tag == tag && e.Timestamp.Format("2006-01-02") == day {
			return true
		}
	}
	return false
}
