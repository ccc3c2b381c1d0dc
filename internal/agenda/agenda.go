// Package agenda merges local and imported tasks into day and week views
// and turns a week view into the export renderer's input.
package agenda

import (
	"sort"
	"time"

	"weekplan/internal/model"
	"weekplan/internal/render"
	"weekplan/internal/weekdate"
)

// LocalSource is the part of the task store the aggregator reads.
type LocalSource interface {
	TasksForDate(year, week int, dateKey string) []model.LocalTask
}

// ImportedSource is the part of the calendar engine the aggregator reads.
type ImportedSource interface {
	TasksForDate(dateKey string) []model.ImportedTask
}

type Aggregator struct {
	local    LocalSource
	imported ImportedSource
}

func NewAggregator(local LocalSource, imported ImportedSource) *Aggregator {
	return &Aggregator{local: local, imported: imported}
}

// MergedTasksForDate returns local tasks followed by imported ones, stable
// sorted by start time. Zero padded HH:MM sorts correctly as a string.
func (a *Aggregator) MergedTasksForDate(year, week int, dateKey string) []model.Task {
	local := a.local.TasksForDate(year, week, dateKey)
	imported := a.imported.TasksForDate(dateKey)

	out := make([]model.Task, 0, len(local)+len(imported))
	for _, t := range local {
		out = append(out, t)
	}
	for _, t := range imported {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Fields().StartTime < out[j].Fields().StartTime
	})
	return out
}

// Day is one calendar day of a week view.
type Day struct {
	Date  time.Time
	Key   string
	Tasks []model.Task
}

// WeekView holds the seven merged days of one ISO week, Monday first.
type WeekView struct {
	Year int
	Week int
	Days [7]Day
}

func (a *Aggregator) Week(year, week int) WeekView {
	v := WeekView{Year: year, Week: week}
	for i, d := range weekdate.WeekDates(year, week) {
		key := weekdate.DateKey(d)
		v.Days[i] = Day{Date: d, Key: key, Tasks: a.MergedTasksForDate(year, week, key)}
	}
	return v
}

// Descriptor converts the view into renderer input. Labels follow locale;
// time ranges are passed raw and normalized by the layout.
func (v WeekView) Descriptor(locale render.Locale) render.Week {
	lb := render.LabelsFor(locale)
	out := render.Week{Year: v.Year, ISOWeek: v.Week}
	for i, d := range v.Days {
		day := render.Day{
			DateLabel: weekdate.ShortDate(d.Date),
			DayAbbrev: lb.DayAbbrev[i],
			DayName:   lb.DayName[i],
			Tasks:     make([]render.TaskRow, 0, len(d.Tasks)),
		}
		for _, t := range d.Tasks {
			s := t.Fields()
			day.Tasks = append(day.Tasks, render.TaskRow{
				TimeRange:   s.StartTime + " - " + s.EndTime,
				Description: s.Description,
			})
		}
		out.Days[i] = day
	}
	return out
}

// Views flattens the tasks of a day for JSON output.
func (d Day) Views() []model.TaskView {
	out := make([]model.TaskView, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		out = append(out, model.View(t))
	}
	return out
}
