package models

import "time"

// RawRecord holds one data row of the export exactly as read, before any
// parsing. Line is the 1-based physical line in the source file.
type RawRecord struct {
	Line          int
	TimestampText string
	EventText     string
}

// EventRecord is the normalized event ready for storage and display.
// Description is nil when the event text carries no " -" separator.
type EventRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Description *string   `json:"description"`
	Actor       string    `json:"actor"`
}

// DescriptionText returns the description or "" when absent.
func (e EventRecord) DescriptionText() string {
	if e.Description == nil {
		return ""
	}
	return *e.Description
}

// ActorCount is one row of the grouped count-by-actor query.
type ActorCount struct {
	Actor string `json:"actor"`
	Count int    `json:"count"`
}

// Dataset is the single table owned by an analysis session. A new load
// replaces it wholesale.
type Dataset struct {
	LoadID      string
	Source      string
	LoadedAt    time.Time
	RowsRead    int
	Events      []EventRecord
	ActorCounts []ActorCount
}

// DateRange spans the timestamps of a dataset. Valid is false when the
// dataset is empty and Min/Max are meaningless.
type DateRange struct {
	Min   time.Time `json:"min"`
	Max   time.Time `json:"max"`
	Valid bool      `json:"valid"`
}

// Summary holds everything the dashboard renders for one request.
type Summary struct {
	LoadID             string        `json:"load_id"`
	Source             string        `json:"source"`
	TotalEvents        int           `json:"total_events"`
	UniqueDescriptions []string      `json:"unique_descriptions"`
	UniqueActors       []string      `json:"unique_actors"`
	Range              DateRange     `json:"range"`
	From               *time.Time    `json:"from,omitempty"`
	To                 *time.Time    `json:"to,omitempty"`
	Filtered           []EventRecord `json:"filtered"`
	ActorCounts        []ActorCount  `json:"actor_counts"`
	HourHistogram      [24]int       `json:"hour_histogram"`
}
