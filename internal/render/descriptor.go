// Package render lays out a week as a fixed-width mobile document and
// rasterizes it into an export image.
package render

// TaskRow is one task as it appears on a day card. TimeRange is the raw
// upstream label ("09:00 - 10:00", "09:00-10:00Uhr", ...) and is
// normalized during layout.
type TaskRow struct {
	TimeRange   string `json:"timeRange"`
	Description string `json:"description"`
}

// Day is one card of the export. Days are always Monday first.
type Day struct {
	DateLabel string    `json:"dateLabel"` // DD.MM
	DayAbbrev string    `json:"dayAbbrev"` // Mo, Di, ... or Mon, Tue, ...
	DayName   string    `json:"dayName"`   // Montag, ... or Monday, ...
	Tasks     []TaskRow `json:"tasks"`
}

// Week is the renderer input, built from the aggregated week view.
type Week struct {
	Year    int    `json:"year"`
	ISOWeek int    `json:"isoWeek"`
	Days    [7]Day `json:"days"`
}

// Verse is the optional quote printed under the week.
type Verse struct {
	Text      string `json:"text"`
	Reference string `json:"reference"`
}

type Locale string

const (
	LocaleDE Locale = "de"
	LocaleEN Locale = "en"
)

// ParseLocale falls back to German for anything it does not know.
func ParseLocale(s string) Locale {
	if Locale(s) == LocaleEN {
		return LocaleEN
	}
	return LocaleDE
}

// AllDayLabel replaces the time of tasks whose start equals their end.
const AllDayLabel = "All-Day"

// Labels holds the localized strings of the export.
type Labels struct {
	Title     string
	WeekLabel string // fmt pattern taking the ISO week
	Free      string
	DayAbbrev [7]string
	DayName   [7]string
}

var labels = map[Locale]Labels{
	LocaleDE: {
		Title:     "Wochenprogramm",
		WeekLabel: "Kalenderwoche %d",
		Free:      "Frei",
		DayAbbrev: [7]string{"Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"},
		DayName:   [7]string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag", "Sonntag"},
	},
	LocaleEN: {
		Title:     "Weekly Schedule",
		WeekLabel: "Calendar week %d",
		Free:      "Free",
		DayAbbrev: [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		DayName:   [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
	},
}

func LabelsFor(l Locale) Labels {
	return labels[ParseLocale(string(l))]
}
