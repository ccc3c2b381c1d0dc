package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "weekplan/internal/log"
)

var (
	ErrEmptyFeed   = errors.New("empty calendar feed")
	ErrHTMLFeed    = errors.New("feed URL returned an HTML page, not a calendar")
	ErrNotCalendar = errors.New("feed does not start with BEGIN:VCALENDAR")
)

// Event is the normalized form of one VEVENT.
type Event struct {
	UID      string
	Summary  string
	Location string
	Start    time.Time
	End      time.Time
	AllDay   bool
}

// Parse parses a feed body into events. A document that is not a
// calendar fails as a whole; single events missing UID or DTSTART, or
// with unreadable times, are logged and skipped.
func Parse(src Source, body []byte) ([]Event, error) {
	if err := validate(body); err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", appLog.RedactURL(src.URL))
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	events := make([]Event, 0)
	skipped := 0
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			skipped++
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", perr.Error())
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "id", src.ID, "url", appLog.RedactURL(src.URL), "event_count", len(events), "skipped", skipped)
	return events, nil
}

func validate(body []byte) error {
	head := bytes.TrimSpace(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")))
	if len(head) == 0 {
		return ErrEmptyFeed
	}
	if len(head) > 64 {
		head = head[:64]
	}
	lower := strings.ToLower(string(head))
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return ErrHTMLFeed
	}
	if !strings.HasPrefix(strings.ToUpper(string(head)), "BEGIN:VCALENDAR") {
		return ErrNotCalendar
	}
	return nil
}

func parseVEvent(ve *ical.VEvent) (Event, error) {
	var out Event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, fmt.Errorf("event %s: missing DTSTART", out.UID)
	}
	out.AllDay = isDateOnly(dtStart)

	var err error
	if out.AllDay {
		out.Start, err = ve.GetAllDayStartAt()
	} else {
		out.Start, err = ve.GetStartAt()
	}
	if err != nil {
		return out, fmt.Errorf("event %s: %w", out.UID, err)
	}

	out.End, err = eventEnd(ve, out.Start, out.AllDay)
	if err != nil {
		return out, fmt.Errorf("event %s: %w", out.UID, err)
	}
	return out, nil
}

// eventEnd takes DTEND, else DTSTART plus DURATION, else the RFC 5545
// default: one day for a DATE start, zero length for a DATE-TIME start.
func eventEnd(ve *ical.VEvent, start time.Time, allDay bool) (time.Time, error) {
	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		if allDay {
			return ve.GetAllDayEndAt()
		}
		return ve.GetEndAt()
	}
	if p := ve.GetProperty(ical.ComponentPropertyDuration); p != nil {
		d, err := parseDuration(p.Value)
		if err != nil {
			return time.Time{}, err
		}
		return d.addTo(start), nil
	}
	if allDay {
		return start.AddDate(0, 0, 1), nil
	}
	return start, nil
}

// duration is an RFC 5545 dur-value. Days and weeks are nominal and
// follow the wall clock; the time part is exact.
type duration struct {
	days  int
	clock time.Duration
}

func (d duration) addTo(t time.Time) time.Time {
	return t.AddDate(0, 0, d.days).Add(d.clock)
}

var errBadDuration = errors.New("invalid DURATION")

// parseDuration reads values like "PT1H30M", "P1D", "-P2W" or "P1DT12H".
func parseDuration(v string) (duration, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	sign := 1
	switch {
	case strings.HasPrefix(s, "-"):
		sign, s = -1, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return duration{}, fmt.Errorf("%w: %q", errBadDuration, v)
	}
	s = s[1:]

	var d duration
	inTime, timeParts := false, 0
	n, digits := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int(r-'0')
			digits++
			continue
		case r == 'T' && !inTime && digits == 0:
			inTime = true
			continue
		}
		if digits == 0 {
			return duration{}, fmt.Errorf("%w: %q", errBadDuration, v)
		}
		switch {
		case r == 'W' && !inTime:
			d.days += 7 * n
		case r == 'D' && !inTime:
			d.days += n
		case r == 'H' && inTime:
			d.clock += time.Duration(n) * time.Hour
			timeParts++
		case r == 'M' && inTime:
			d.clock += time.Duration(n) * time.Minute
			timeParts++
		case r == 'S' && inTime:
			d.clock += time.Duration(n) * time.Second
			timeParts++
		default:
			return duration{}, fmt.Errorf("%w: %q", errBadDuration, v)
		}
		n, digits = 0, 0
	}
	if digits != 0 || (inTime && timeParts == 0) {
		return duration{}, fmt.Errorf("%w: %q", errBadDuration, v)
	}
	d.days *= sign
	d.clock *= time.Duration(sign)
	return d, nil
}

// isDateOnly detects VALUE=DATE or a YYYYMMDD value without a time part.
func isDateOnly(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}
