// Package ics renders the desired calendar as an iCalendar feed, so the
// schedule can be subscribed to without Google Calendar access.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "notioncal/internal/log"
	"notioncal/internal/model"
)

const DefaultProdID = "-//notioncal//notioncal//EN"

// UIDSuffix qualifies record ids into globally unique UIDs.
const UIDSuffix = "@notioncal"

// Export renders events as a VCALENDAR with one VEVENT each. All-day events
// use VALUE=DATE; timed events are written in UTC. Events without a
// parseable time are logged and left out.
func Export(events []model.TargetEvent, prodID string) string {
	if prodID == "" {
		prodID = DefaultProdID
	}
	cal := ical.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetMethod(ical.MethodPublish)

	stamp := time.Now().UTC()
	for _, ev := range events {
		if err := addEvent(cal, ev, stamp); err != nil {
			appLog.Warn("ics export: event skipped", "record_id", ev.Description, "error", err)
		}
	}
	return cal.Serialize()
}

// addEvent writes ev as a VEVENT. Only the start is read: events are
// point markers. An all-day event ends the following day (DTEND is
// exclusive); a timed event has no DTEND, which makes it instantaneous.
func addEvent(cal *ical.Calendar, ev model.TargetEvent, stamp time.Time) error {
	var (
		start time.Time
		err   error
	)
	allDay := ev.Start.AllDay()
	if allDay {
		start, err = ev.Start.Day()
	} else {
		start, err = ev.Start.Instant()
	}
	if err != nil {
		return err
	}

	ve := cal.AddEvent(ev.Description + UIDSuffix)
	ve.SetDtStampTime(stamp)
	ve.SetSummary(ev.Title)
	ve.SetDescription(ev.Description)
	if allDay {
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(start.AddDate(0, 0, 1))
	} else {
		ve.SetStartAt(start.UTC())
	}
	return nil
}
