package repositories

import (
	"context"
	"errors"

	"matchverse/models"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleStatus means a conditional status update lost against a concurrent writer.
	ErrStaleStatus = errors.New("match request status changed concurrently")
	// ErrDuplicate is returned when an insert hits a unique index.
	ErrDuplicate = errors.New("record already exists")
)

// MatchRequestFilter narrows FindMatchRequests. Zero values are ignored.
type MatchRequestFilter struct {
	Statuses  []models.MatchStatus
	MatchType models.MatchType

	BookingID     *string
	BookingIsNull bool
	HasBooking    bool

	// ParticipantID matches the creator or the partner.
	ParticipantID string
	// ExcludeParticipantID drops requests the user created or partners in.
	ExcludeParticipantID string
	ExcludeIDs           []string

	Limit int
}

// Store is the persistence boundary used by the match and ranking services.
type Store interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error

	FindBooking(ctx context.Context, id string) (*models.Booking, error)

	CreateMatchRequest(ctx context.Context, req *models.MatchRequest) error
	FindMatchRequest(ctx context.Context, id string) (*models.MatchRequest, error)
	FindMatchRequests(ctx context.Context, filter MatchRequestFilter) ([]models.MatchRequest, error)
	UpdateMatchRequest(ctx context.Context, id string, fields map[string]interface{}) error
	UpdateMatchRequests(ctx context.Context, ids []string, fields map[string]interface{}) error
	// PairMatchRequests moves both requests to pending_confirmation, but only
	// if each row still has the status carried by its argument.
	PairMatchRequests(ctx context.Context, a, b models.MatchRequest) error
	CountMatchRequestsByStatus(ctx context.Context) (map[models.MatchStatus]int64, error)

	CreateMatchResult(ctx context.Context, result *models.MatchResult) error
	FindMatchResultByMatch(ctx context.Context, matchID string) (*models.MatchResult, error)
}
