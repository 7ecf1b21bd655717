// Package calendar renders add-to-calendar artifacts for an event.
package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/felicity-connect/backend/internal/domain"
)

const stampLayout = "20060102T150405Z"

// GoogleLink builds a Google Calendar template URL.
func GoogleLink(event domain.Event) string {
	values := url.Values{}
	values.Set("action", "TEMPLATE")
	values.Set("text", event.Name)
	values.Set("details", event.Description)
	values.Set("dates", stamp(event.StartDate)+"/"+stamp(event.EndDate))

	return "https://calendar.google.com/calendar/render?" + values.Encode()
}

// OutlookLink builds an Outlook web deep link.
func OutlookLink(event domain.Event) string {
	values := url.Values{}
	values.Set("subject", event.Name)
	values.Set("body", event.Description)
	values.Set("startdt", event.StartDate.UTC().Format(time.RFC3339))
	values.Set("enddt", event.EndDate.UTC().Format(time.RFC3339))
	values.Set("path", "/calendar/action/compose")

	return "https://outlook.live.com/calendar/0/deeplink/compose?" + values.Encode()
}

// ICS renders a minimal single-event iCalendar file.
func ICS(event domain.Event) string {
	var b strings.Builder

	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//Felicity Connect//Events//EN\r\n")
	b.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(&b, "UID:event-%d@felicity-connect\r\n", event.ID)
	fmt.Fprintf(&b, "DTSTAMP:%s\r\n", stamp(time.Now()))
	fmt.Fprintf(&b, "DTSTART:%s\r\n", stamp(event.StartDate))
	fmt.Fprintf(&b, "DTEND:%s\r\n", stamp(event.EndDate))
	fmt.Fprintf(&b, "SUMMARY:%s\r\n", escape(event.Name))
	if event.Description != "" {
		fmt.Fprintf(&b, "DESCRIPTION:%s\r\n", escape(event.Description))
	}
	b.WriteString("END:VEVENT\r\n")
	b.WriteString("END:VCALENDAR\r\n")

	return b.String()
}

func stamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

func escape(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)

	return replacer.Replace(s)
}
