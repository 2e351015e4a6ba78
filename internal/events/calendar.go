package events

import (
	"bytes"
	"fmt"
	"net/url"
	"time"

	ics "github.com/arran4/golang-ical"
)

// DefaultDuration applies to events without an explicit end.
const DefaultDuration = 2 * time.Hour

const icsStamp = "20060102T150405Z"

// Ends returns the end of the event, falling back to DefaultDuration.
func (e Event) Ends() time.Time {
	if e.EndsAt != nil {
		return *e.EndsAt
	}
	return e.StartsAt.Add(DefaultDuration)
}

// ExportICS renders the event as an iCalendar document with reminders one
// day and one hour before the start.
func ExportICS(e Event, now time.Time) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Campus Events//EN")
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")

	ev := cal.AddEvent(fmt.Sprintf("event-%d@campusevents", e.ID))
	ev.SetDtStampTime(now)
	ev.SetCreatedTime(e.CreatedAt)
	ev.SetModifiedAt(e.UpdatedAt)
	ev.SetStartAt(e.StartsAt)
	ev.SetEndAt(e.Ends())
	ev.SetSummary(e.Title)
	ev.SetDescription(e.Description)
	ev.SetLocation(e.Venue())
	if e.RegistrationLink != "" {
		ev.SetURL(e.RegistrationLink)
	}
	ev.SetStatus(ics.ObjectStatusConfirmed)
	ev.SetTimeTransparency(ics.TransparencyOpaque)
	ev.SetClass(ics.ClassificationPublic)
	ev.SetSequence(0)

	day := ev.AddAlarm()
	day.SetAction(ics.ActionDisplay)
	day.AddProperty("TRIGGER;VALUE=DURATION", "-P1D")
	day.SetDescription(fmt.Sprintf("Reminder: %s (tomorrow)", e.Title))

	hour := ev.AddAlarm()
	hour.SetAction(ics.ActionDisplay)
	hour.AddProperty("TRIGGER;VALUE=DURATION", "-PT1H")
	hour.SetDescription(fmt.Sprintf("Reminder: %s (in one hour)", e.Title))

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// CalendarLinks are "add to calendar" URLs for hosted calendars.
type CalendarLinks struct {
	Google  string `json:"google"`
	Outlook string `json:"outlook"`
	ICS     string `json:"ics"`
}

// Links builds the Google and Outlook compose URLs. icsURL is the public
// location of the event's .ics export.
func Links(e Event, icsURL string) CalendarLinks {
	start, end := e.StartsAt.UTC(), e.Ends().UTC()

	google := url.Values{}
	google.Set("action", "TEMPLATE")
	google.Set("text", e.Title)
	google.Set("details", e.Description)
	google.Set("location", e.Venue())
	google.Set("dates", start.Format(icsStamp)+"/"+end.Format(icsStamp))

	outlook := url.Values{}
	outlook.Set("subject", e.Title)
	outlook.Set("body", e.Description)
	outlook.Set("location", e.Venue())
	outlook.Set("startdt", start.Format(time.RFC3339))
	outlook.Set("enddt", end.Format(time.RFC3339))

	return CalendarLinks{
		Google:  "https://calendar.google.com/calendar/render?" + google.Encode(),
		Outlook: "https://outlook.office.com/calendar/action/compose?" + outlook.Encode(),
		ICS:     icsURL,
	}
}
