package model

import (
	"encoding/json"
	"time"
)

// DefaultCategory is the catch-all template category.
const DefaultCategory = "general"

// Slot holds the fields every task carries, local or imported.
// StartTime == EndTime marks an all-day task.
type Slot struct {
	Date        string `json:"date"`      // YYYY-MM-DD, local calendar date
	StartTime   string `json:"startTime"` // HH:MM, 24h, zero padded
	EndTime     string `json:"endTime"`   // HH:MM
	Description string `json:"description"`
}

// AllDay reports whether the slot uses the all-day sentinel.
func (s Slot) AllDay() bool {
	return s.StartTime == s.EndTime
}

// Task is either a LocalTask or an ImportedTask. Consumers switch on the
// concrete type; there is no other implementation.
type Task interface {
	TaskID() string
	Fields() Slot
	isTask()
}

// LocalTask is owned by the user and lives in one (year, week) bucket.
type LocalTask struct {
	ID string `json:"id"`
	Slot
	// TemplateID records which template produced the task. It is lineage
	// only and may point at a deleted template.
	TemplateID string `json:"templateId,omitempty"`
}

func (t LocalTask) TaskID() string { return t.ID }
func (t LocalTask) Fields() Slot   { return t.Slot }
func (LocalTask) isTask()          {}

// ImportedTask is materialized from a calendar feed and replaced wholesale
// on every sync of its source.
type ImportedTask struct {
	Slot
	SourceID        string `json:"sourceId"`
	OriginalEventID string `json:"originalEventId"` // feed UID
	Location        string `json:"location,omitempty"`
}

// TaskID is the derived composite id, never stored.
func (t ImportedTask) TaskID() string { return EncodeImportedID(t.SourceID, t.OriginalEventID) }
func (t ImportedTask) Fields() Slot   { return t.Slot }
func (ImportedTask) isTask()          {}

// MarshalJSON writes the persisted shape, which carries isImported:true.
func (t ImportedTask) MarshalJSON() ([]byte, error) {
	type plain ImportedTask
	return json.Marshal(struct {
		plain
		IsImported bool `json:"isImported"`
	}{plain(t), true})
}

// TaskTemplate is a reusable blueprint for local tasks.
type TaskTemplate struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DefaultDuration int       `json:"defaultDuration"` // minutes, > 0
	Category        string    `json:"category"`
	Color           string    `json:"color,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UsageCount      int       `json:"usageCount"`
}

// CalendarSource is a subscription to one public iCalendar feed.
type CalendarSource struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Name       string     `json:"name"`
	AddedAt    time.Time  `json:"addedAt"`
	LastSynced *time.Time `json:"lastSynced,omitempty"`
	Color      string     `json:"color,omitempty"`
}

// WeeklyAgenda is the persisted bucket for one ISO week.
type WeeklyAgenda struct {
	Year  int         `json:"year"`
	Week  int         `json:"week"`
	Tasks []LocalTask `json:"tasks"`
}

// TaskView is the flat JSON projection of a Task used by the HTTP API and
// the CLI. IsImported is the discriminant for "editable" vs "resynced".
type TaskView struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	Description     string `json:"description"`
	TemplateID      string `json:"templateId,omitempty"`
	Location        string `json:"location,omitempty"`
	IsImported      bool   `json:"isImported,omitempty"`
	SourceID        string `json:"sourceId,omitempty"`
	OriginalEventID string `json:"originalEventId,omitempty"`
}

// View flattens a Task.
func View(t Task) TaskView {
	s := t.Fields()
	v := TaskView{
		ID:          t.TaskID(),
		Date:        s.Date,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Description: s.Description,
	}
	switch tt := t.(type) {
	case LocalTask:
		v.TemplateID = tt.TemplateID
	case ImportedTask:
		v.IsImported = true
		v.Location = tt.Location
		v.SourceID = tt.SourceID
		v.OriginalEventID = tt.OriginalEventID
	}
	return v
}
