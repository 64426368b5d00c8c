package models

import "time"

type ProviderStatus string

const (
	ProviderStatusPending   ProviderStatus = "pending"
	ProviderStatusPublished ProviderStatus = "published"
	ProviderStatusFailed    ProviderStatus = "failed"
)

// Provider is one network a scheduled post is delivered to.
type Provider struct {
	Network string         `json:"network"`
	Status  ProviderStatus `json:"status"`
}

// ScheduledPost is a post record read from the external calendar. It is never
// mutated by the scheduler.
type ScheduledPost struct {
	ID                  string     `json:"id"`
	PublicationDateTime time.Time  `json:"publication_date_time"`
	Text                string     `json:"text"`
	Providers           []Provider `json:"providers"`
	CampaignID          string     `json:"campaign_id,omitempty"`
}

// HasTime reports whether the post carries a usable publication instant.
func (p ScheduledPost) HasTime() bool {
	return !p.PublicationDateTime.IsZero()
}

// Networks returns the provider networks in the order they were listed.
func (p ScheduledPost) Networks() []string {
	networks := make([]string, 0, len(p.Providers))
	for _, pr := range p.Providers {
		if pr.Network != "" {
			networks = append(networks, pr.Network)
		}
	}
	return networks
}
