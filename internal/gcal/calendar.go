// Package gcal adapts the Google Calendar API to the reconciler's event
// store: paginated listing plus insert, update and delete of events.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	apperrors "notioncal/internal/errors"
	appLog "notioncal/internal/log"
	"notioncal/internal/model"
)

const listPageSize = 250

// Calendar is one Google calendar accessed through the API.
type Calendar struct {
	svc        *calendar.Service
	calendarID string
}

// New creates a Calendar for calendarID ("primary" for the account's own
// calendar). opts carry authentication; see ClientOptions.
func New(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Calendar, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Calendar{svc: svc, calendarID: calendarID}, nil
}

// ID returns the calendar id.
func (c *Calendar) ID() string {
	return c.calendarID
}

// EventPages returns a lazy sequence over the calendar's events, one API
// page at a time. Cancelled instances are skipped. Iteration stops at the
// first error, which is yielded with a nil slice.
func (c *Calendar) EventPages(ctx context.Context) iter.Seq2[[]model.TargetEvent, error] {
	return func(yield func([]model.TargetEvent, error) bool) {
		token := ""
		for {
			call := c.svc.Events.List(c.calendarID).MaxResults(listPageSize).Context(ctx)
			if token != "" {
				call = call.PageToken(token)
			}
			res, err := call.Do()
			if err != nil {
				yield(nil, wrapErr(err, "events.list"))
				return
			}

			page := make([]model.TargetEvent, 0, len(res.Items))
			for _, item := range res.Items {
				if item.Status == "cancelled" {
					continue
				}
				page = append(page, fromAPI(item))
			}
			if !yield(page, nil) {
				return
			}
			if res.NextPageToken == "" {
				return
			}
			token = res.NextPageToken
		}
	}
}

// Events collects every page of EventPages.
func (c *Calendar) Events(ctx context.Context) ([]model.TargetEvent, error) {
	var out []model.TargetEvent
	for page, err := range c.EventPages(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	appLog.Debug("gcal events fetched", "calendar", c.calendarID, "events", len(out))
	return out, nil
}

// Insert creates ev and returns it with the id assigned by Google.
func (c *Calendar) Insert(ctx context.Context, ev model.TargetEvent) (model.TargetEvent, error) {
	created, err := c.svc.Events.Insert(c.calendarID, toAPI(ev)).Context(ctx).Do()
	if err != nil {
		return model.TargetEvent{}, wrapErr(err, "events.insert")
	}
	return fromAPI(created), nil
}

// Update replaces the title, description, start and end of event ev.ID.
func (c *Calendar) Update(ctx context.Context, ev model.TargetEvent) error {
	if ev.ID == "" {
		return errors.New("gcal: update requires an event id")
	}
	if _, err := c.svc.Events.Update(c.calendarID, ev.ID, toAPI(ev)).Context(ctx).Do(); err != nil {
		return wrapErr(err, "events.update")
	}
	return nil
}

// Delete removes event id. An event that is already gone is not an error.
func (c *Calendar) Delete(ctx context.Context, id string) error {
	err := c.svc.Events.Delete(c.calendarID, id).Context(ctx).Do()
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusGone {
		appLog.Debug("gcal event already deleted", "calendar", c.calendarID, "event_id", id)
		return nil
	}
	return wrapErr(err, "events.delete")
}

func toAPI(ev model.TargetEvent) *calendar.Event {
	return &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       toAPITime(ev.Start),
		End:         toAPITime(ev.End),
	}
}

func toAPITime(t model.EventTime) *calendar.EventDateTime {
	if t.Date != "" {
		return &calendar.EventDateTime{Date: t.Date}
	}
	return &calendar.EventDateTime{DateTime: t.DateTime, TimeZone: t.TimeZone}
}

func fromAPI(e *calendar.Event) model.TargetEvent {
	return model.TargetEvent{
		ID:          e.Id,
		Title:       e.Summary,
		Description: e.Description,
		Start:       fromAPITime(e.Start),
		End:         fromAPITime(e.End),
	}
}

func fromAPITime(t *calendar.EventDateTime) model.EventTime {
	if t == nil {
		return model.EventTime{}
	}
	return model.EventTime{Date: t.Date, DateTime: t.DateTime, TimeZone: t.TimeZone}
}

// wrapErr converts googleapi errors to APIError so callers can match the
// shared sentinels.
func wrapErr(err error, endpoint string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		code := ""
		if len(gerr.Errors) > 0 {
			code = gerr.Errors[0].Reason
		}
		return &apperrors.APIError{
			Service:    "gcal",
			StatusCode: gerr.Code,
			Code:       code,
			Message:    gerr.Message,
			Endpoint:   endpoint,
			Err:        err,
		}
	}
	return fmt.Errorf("gcal %s: %w", endpoint, err)
}
