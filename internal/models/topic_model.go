package models

import "time"

type GroupingKind string

const (
	GroupingExplicit GroupingKind = "explicit"
	GroupingInferred GroupingKind = "inferred"
)

// GroupingKey records how a topic was identified: by an upstream campaign id
// or by time proximity.
type GroupingKey struct {
	Kind       GroupingKind  `json:"kind"`
	CampaignID string        `json:"campaign_id,omitempty"`
	Window     time.Duration `json:"window,omitempty"`
}

// TopicGroup is one piece of content posted to one or more platforms.
type TopicGroup struct {
	Topic     string      `json:"topic"`
	PostTime  time.Time   `json:"post_time"`
	Platforms []string    `json:"platforms"`
	PostCount int         `json:"post_count"`
	PostIDs   []string    `json:"post_ids"`
	Key       GroupingKey `json:"key"`
}
