package models

import "time"

type MatchType string

const (
	MatchTypeSingle MatchType = "single"
	MatchTypeDouble MatchType = "double"
)

// Valid reports whether t is one of the supported match types.
func (t MatchType) Valid() bool {
	return t == MatchTypeSingle || t == MatchTypeDouble
}

// RosterSize is the number of distinct players a full match of this type holds.
func (t MatchType) RosterSize() int {
	if t == MatchTypeDouble {
		return 4
	}
	return 2
}

type MatchStatus string

// pending → pending_confirmation → scheduled | cancelled
const (
	MatchStatusPending             MatchStatus = "pending"
	MatchStatusPendingConfirmation MatchStatus = "pending_confirmation"
	MatchStatusScheduled           MatchStatus = "scheduled"
	MatchStatusCancelled           MatchStatus = "cancelled"
)

// Terminal statuses are never re-paired.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusScheduled || s == MatchStatusCancelled
}

// MatchRequest is one side's request to play.
type MatchRequest struct {
	ID          string      `json:"id" gorm:"primaryKey;type:uuid"`
	BookingID   *string     `json:"booking_id,omitempty" gorm:"type:uuid;index"`
	MatchType   MatchType   `json:"match_type" gorm:"type:varchar(16);not null;index"`
	CreatedByID string      `json:"created_by_id" gorm:"type:uuid;not null;index"`
	PartnerID   *string     `json:"partner_id,omitempty" gorm:"type:uuid;index"`
	Status      MatchStatus `json:"status" gorm:"type:varchar(32);not null;default:'pending';index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Booking *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
}

// Involves reports whether userID is the creator or the partner.
func (m MatchRequest) Involves(userID string) bool {
	if m.CreatedByID == userID {
		return true
	}
	return m.PartnerID != nil && *m.PartnerID == userID
}

// Players returns creator and partner (when set), in that order.
func (m MatchRequest) Players() []string {
	players := []string{m.CreatedByID}
	if m.PartnerID != nil && *m.PartnerID != "" {
		players = append(players, *m.PartnerID)
	}
	return players
}
