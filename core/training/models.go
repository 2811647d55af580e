package training

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
)

const (
	MinIntensity     = 1
	MaxIntensity     = 5
	DefaultIntensity = 3
)

// ActivityType is an activity tag together with its display label.
type ActivityType struct {
	Tag   string `json:"tag"`
	Label string `json:"label"`
}

// ActivityTypes lists every tag a session can be logged with.
var ActivityTypes = []ActivityType{
	{Tag: "running", Label: "Running"},
	{Tag: "basketball", Label: "Basketball"},
	{Tag: "football", Label: "Football"},
	{Tag: "volleyball", Label: "Volleyball"},
	{Tag: "hockey", Label: "Hockey"},
	{Tag: "handball", Label: "Handball"},
	{Tag: "bikeSports", Label: "Bike Sports"},
	{Tag: "gym", Label: "Gym"},
	{Tag: "yoga", Label: "Yoga"},
	{Tag: "swimming", Label: "Swimming"},
	{Tag: "climbing", Label: "Climbing"},
	{Tag: "trekking", Label: "Trekking"},
	{Tag: "pilates", Label: "Pilates"},
	{Tag: "dance", Label: "Dance"},
	{Tag: "combatSports", Label: "Combat Sports"},
	{Tag: "surfing", Label: "Surfing"},
	{Tag: "raquetSports", Label: "Raquet Sports"},
	{Tag: "skating", Label: "Skating"},
	{Tag: "walking", Label: "Walking"},
}

// IsActivityType reports whether tag is a known activity tag.
func IsActivityType(tag string) bool {
	for _, at := range ActivityTypes {
		if at.Tag == tag {
			return true
		}
	}
	return false
}

// ActivityLabel returns the display label of tag, or tag itself when it is unknown.
func ActivityLabel(tag string) string {
	for _, at := range ActivityTypes {
		if at.Tag == tag {
			return at.Label
		}
	}
	return tag
}

// Session is one logged exercise record for one student on one date.
type Session struct {
	ID           string      `json:"id"`
	StudentID    string      `json:"student_id"`
	GroupID      null.String `json:"group_id"`
	Date         string      `json:"date"` // YYYY-MM-DD
	ActivityType string      `json:"activity_type"`
	Duration     int         `json:"duration"`  // minutes
	Intensity    int         `json:"intensity"` // enjoyment: 1..5
	Notes        null.String `json:"notes"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
}

// LogSession contains the information a student provides when logging a day of exercise.
type LogSession struct {
	Date         string `json:"date" validate:"required,isodate"`
	ActivityType string `json:"activity_type" validate:"required,activity"`
	Duration     int    `json:"duration"`
	Intensity    int    `json:"intensity"`
	Notes        string `json:"notes"`
}

// Clean clamps duration to >= 0 and intensity to 1..5 (0 means not provided), and trims text fields.
func (ls *LogSession) Clean() {
	ls.Date = core.CleanString(ls.Date)
	ls.ActivityType = core.CleanString(ls.ActivityType)
	ls.Notes = core.CleanString(ls.Notes)

	if ls.Duration < 0 {
		ls.Duration = 0
	}
	switch {
	case ls.Intensity == 0:
		ls.Intensity = DefaultIntensity
	case ls.Intensity < MinIntensity:
		ls.Intensity = MinIntensity
	case ls.Intensity > MaxIntensity:
		ls.Intensity = MaxIntensity
	}
}

func (ls *LogSession) Validate(validate *validator.Validate) error {
	ls.Clean()
	return validate.Struct(ls)
}

// QueryFilter selects sessions; every non-empty field is AND-ed.
type QueryFilter struct {
	StudentIDs    []string
	GroupIDs      []string
	ActivityTypes []string
	DateFrom      string // inclusive, YYYY-MM-DD
	DateTo        string // inclusive, YYYY-MM-DD
}

func (qf *QueryFilter) IsEmpty() bool {
	return len(qf.StudentIDs) == 0 && len(qf.GroupIDs) == 0 && len(qf.ActivityTypes) == 0 &&
		qf.DateFrom == "" && qf.DateTo == ""
}

// ByDateDesc is the default ordering of sessions: most recent first.
var ByDateDesc = []core.DBOrdering{{Field: "date"}, {Field: "created_at"}}

// OrderingFields are the session fields a query can be ordered by.
var OrderingFields = []string{"date", "created_at", "duration", "intensity", "activity_type"}

// CleanOrdering drops orderings on unknown fields.
func CleanOrdering(ordering []core.DBOrdering) []core.DBOrdering {
	return core.CleanOrdering(ordering, OrderingFields)
}
