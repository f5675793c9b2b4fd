package domain

import (
	"errors"
	"time"
)

// ErrCampaignNotFound is returned when no campaign owns a short code
var ErrCampaignNotFound = errors.New("campaign not found")

// Campaign is an outreach campaign reachable through a short link
type Campaign struct {
	ID           string     `json:"id" firestore:"-" gorm:"primaryKey"`
	Name         string     `json:"name,omitempty" firestore:"name,omitempty"`
	ShortCode    string     `json:"shortCode" firestore:"shortCode" gorm:"uniqueIndex"`
	TargetURL    string     `json:"targetUrl,omitempty" firestore:"targetUrl,omitempty"`
	Clicks       int64      `json:"clicks" firestore:"clicks" gorm:"default:0"`
	LastClickAt  *time.Time `json:"lastClickAt,omitempty" firestore:"lastClickAt,omitempty"`
	LastReferrer *string    `json:"lastReferrer,omitempty" firestore:"lastReferrer"`
	CreatedAt    time.Time  `json:"createdAt" firestore:"createdAt,omitempty"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
