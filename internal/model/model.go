package model

import (
	"time"
	// Record time zones are IANA names; containers often ship without a zone database.
	_ "time/tzdata"
)

// localLayout reads timestamps without an offset. Fractional seconds are
// accepted by time.Parse even though the layout omits them.
const localLayout = "2006-01-02T15:04:05"

// SourceRecord is the reduced form of a Notion page. Only the fields the
// reconciler reads are kept; everything else upstream is discarded.
type SourceRecord struct {
	// ID is the Notion page id, immutable and assigned by Notion.
	ID string

	Name   *string
	Course *string

	// Date is the lexical date value: "2024-03-01" for date-only pages,
	// an RFC 3339 timestamp otherwise. When the page carries a range, the
	// end is kept.
	Date *string
	// TimeZone is the IANA zone Notion attaches to a timed date whose
	// lexical form carries no UTC offset.
	TimeZone *string

	Status *string
}

// EventTime is either an all-day Date ("YYYY-MM-DD") or a timed DateTime
// (RFC 3339). Exactly one is set on a well-formed event.
type EventTime struct {
	Date     string
	DateTime string
	// TimeZone qualifies DateTime when it has no offset.
	TimeZone string
}

// AllDay reports whether t is a date-only value.
func (t EventTime) AllDay() bool {
	return t.Date != ""
}

// String returns whichever of Date or DateTime is set.
func (t EventTime) String() string {
	if t.Date != "" {
		return t.Date
	}
	return t.DateTime
}

// Instant parses DateTime. Values without an offset are read in TimeZone,
// or UTC when no zone is given.
func (t EventTime) Instant() (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
		return ts, nil
	}
	loc := time.UTC
	if t.TimeZone != "" {
		l, err := time.LoadLocation(t.TimeZone)
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}
	return time.ParseInLocation(localLayout, t.DateTime, loc)
}

// Day parses Date.
func (t EventTime) Day() (time.Time, error) {
	return time.Parse(time.DateOnly, t.Date)
}

// TargetEvent is a calendar event managed by the reconciler. Description
// carries the originating SourceRecord.ID and is the only link back.
type TargetEvent struct {
	ID          string
	Title       string
	Description string

	// Start and End are always equal: events are point markers.
	Start EventTime
	End   EventTime
}

// RecordQuery filters the records fetched from the source store.
type RecordQuery struct {
	// Categories restricts records to those whose category property is
	// one of these values. Empty means no category restriction.
	Categories []string
}

// Str returns a pointer to s, or nil if s is empty.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
