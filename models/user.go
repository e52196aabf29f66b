package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// User is the player profile as far as matchmaking and ranking care about it.
type User struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name       string `json:"name"`
	Email      string `gorm:"uniqueIndex" json:"email,omitempty"`
	RankPoints int    `json:"rank_points" gorm:"not null;default:0;check:rank_points >= 0"`
	Rank       string `json:"rank" gorm:"not null;default:'Beginner 01'"` // tier label, e.g. "Intermediate 02"
	RankCode   string `json:"rank_code" gorm:"default:'beginner-01'"`

	GamesPlayed  int          `json:"games_played" gorm:"default:0"`
	GamesWon     int          `json:"games_won" gorm:"default:0"`
	Achievements Achievements `json:"achievements" gorm:"type:jsonb;default:'[]'"`

	Timestamps
}

// Achievements is an ordered, append-only list stored as a JSON array.
type Achievements []string

// Has reports whether the list already contains name.
func (a Achievements) Has(name string) bool {
	for _, v := range a {
		if v == name {
			return true
		}
	}
	return false
}

func (a Achievements) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Achievements) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = Achievements{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("achievements: unsupported column type")
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
