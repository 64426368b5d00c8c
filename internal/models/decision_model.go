package models

import "time"

type CascadeStrategy string

const (
	StrategyEmptyDay  CascadeStrategy = "empty_day"
	StrategyLeastBusy CascadeStrategy = "least_busy"
	StrategyDefault   CascadeStrategy = "default"
)

type ConflictAnalysis struct {
	ExistingTimes []string `json:"existing_times"`
	SlotIndex     int      `json:"slot_index"`
	Slot          string   `json:"slot"`
	Conflicts     int      `json:"conflicts"`
	Reason        string   `json:"reason"`
	RolledOver    bool     `json:"rolled_over"`
}

type CascadeDecision struct {
	Day                int              `json:"day"`
	Date               string           `json:"date"`
	CurrentTopicsOnDay int              `json:"current_topics_on_day"`
	NewLevel           int              `json:"new_level"`
	Action             string           `json:"action"`
	Strategy           CascadeStrategy  `json:"strategy"`
	WindowSize         int              `json:"window_size"`
	StartDay           int              `json:"start_day"`
	OptimalTimeSlot    time.Time        `json:"optimal_time_slot"`
	ConflictAnalysis   ConflictAnalysis `json:"conflict_analysis"`
	Source             DataSource       `json:"source"`
}
