package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidClock = errors.New("invalid HH:MM time")

// ParseClock parses "HH:MM" into minutes since midnight. Hours above 23 are
// accepted because relocation may legitimately produce them.
func ParseClock(clock string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return hh*60 + mm, nil
}

// FormatClock renders minutes since midnight as zero padded "HH:MM".
// There is no day rollover: 24:15 stays 24:15.
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidClock reports whether s is a canonical 24h "HH:MM" value.
func ValidClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	m, err := ParseClock(s)
	return err == nil && m < 24*60
}

// EndAfter returns start plus the given number of minutes.
func EndAfter(start string, minutes int) (string, error) {
	s, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	return FormatClock(s + minutes), nil
}

// Duration returns end minus start in minutes. Local tasks never have a
// negative span; the store rejects them.
func (s Slot) Duration() (int, error) {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return 0, err
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// Placement is the result of moving a task: where and when it now sits.
type Placement struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Relocate moves a slot to newDate at newStart and keeps its duration.
// A move is distinct from a resize: only the start is chosen, the end
// follows.
func Relocate(s Slot, newDate, newStart string) (Placement, error) {
	dur, err := s.Duration()
	if err != nil {
		return Placement{}, err
	}
	end, err := EndAfter(newStart, dur)
	if err != nil {
		return Placement{}, err
	}
	return Placement{Date: newDate, StartTime: newStart, EndTime: end}, nil
}
