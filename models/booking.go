package models

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Venue owns one or more courts.
type Venue struct {
	ID       string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name     string  `json:"name" gorm:"not null"`
	Location string  `json:"location"`
	Courts   []Court `json:"courts,omitempty" gorm:"foreignKey:VenueID"`

	Timestamps
}

type Court struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	VenueID      string `json:"venue_id" gorm:"type:uuid;not null;index"`
	Name         string `json:"name"`
	PricePerHour int64  `json:"price_per_hour"` // minor units

	Timestamps
}

// Booking is a reserved court slot. The match engine only ever reads it.
type Booking struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CourtID   string    `json:"court_id" gorm:"index"`
	UserID    string    `json:"user_id" gorm:"index"`
	StartTime time.Time `json:"start_time" gorm:"index"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status" gorm:"index;default:'pending'"` // pending | confirmed | cancelled

	Timestamps
}
