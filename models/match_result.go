package models

import "time"

// MatchResult is written once when a match finishes and never updated.
type MatchResult struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	MatchID   string    `json:"match_id" gorm:"type:uuid;not null;uniqueIndex"`
	Winner1ID string    `json:"winner1_id" gorm:"not null"`
	Winner2ID string    `json:"winner2_id" gorm:"not null"`
	Loser1ID  string    `json:"loser1_id" gorm:"not null"`
	Loser2ID  string    `json:"loser2_id" gorm:"not null"`
	Confirmed bool      `json:"confirmed" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	Match *MatchRequest `json:"match,omitempty" gorm:"foreignKey:MatchID"`
}
