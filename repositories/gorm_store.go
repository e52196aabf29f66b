package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"matchverse/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the store translates.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// GormStore implements Store on top of a relational database.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Migrate creates or updates every table the service owns.
func (s *GormStore) Migrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Venue{},
		&models.Court{},
		&models.Booking{},
		&models.MatchRequest{},
		&models.MatchResult{},
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) FindBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.DB.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

func (s *GormStore) CreateMatchRequest(ctx context.Context, req *models.MatchRequest) error {
	return s.DB.WithContext(ctx).Omit("Booking").Create(req).Error
}

func (s *GormStore) FindMatchRequest(ctx context.Context, id string) (*models.MatchRequest, error) {
	var req models.MatchRequest
	if err := s.DB.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (s *GormStore) FindMatchRequests(ctx context.Context, filter MatchRequestFilter) ([]models.MatchRequest, error) {
	query := s.DB.WithContext(ctx).Model(&models.MatchRequest{})

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.MatchType != "" {
		query = query.Where("match_type = ?", filter.MatchType)
	}
	switch {
	case filter.BookingID != nil:
		query = query.Where("booking_id = ?", *filter.BookingID)
	case filter.BookingIsNull:
		query = query.Where("booking_id IS NULL")
	case filter.HasBooking:
		query = query.Where("booking_id IS NOT NULL")
	}
	if filter.ParticipantID != "" {
		query = query.Where("(created_by_id = ? OR partner_id = ?)", filter.ParticipantID, filter.ParticipantID)
	}
	if filter.ExcludeParticipantID != "" {
		query = query.Where("created_by_id <> ? AND (partner_id IS NULL OR partner_id <> ?)",
			filter.ExcludeParticipantID, filter.ExcludeParticipantID)
	}
	if len(filter.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", filter.ExcludeIDs)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var requests []models.MatchRequest
	if err := query.Order("created_at ASC, id ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *GormStore) UpdateMatchRequest(ctx context.Context, id string, fields map[string]interface{}) error {
	res := s.DB.WithContext(ctx).Model(&models.MatchRequest{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) UpdateMatchRequests(ctx context.Context, ids []string, fields map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Model(&models.MatchRequest{}).Where("id IN ?", ids).Updates(fields).Error
}

// PairMatchRequests moves a and b to pending_confirmation if both still hold
// the status they were read with. Rows are locked in id order, so two
// callers pairing the same requests from opposite sides cannot deadlock.
func (s *GormStore) PairMatchRequests(ctx context.Context, a, b models.MatchRequest) error {
	pair := []models.MatchRequest{a, b}
	sort.Slice(pair, func(i, j int) bool { return pair[i].ID < pair[j].ID })

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, req := range pair {
			res := tx.Model(&models.MatchRequest{}).
				Where("id = ? AND status = ?", req.ID, req.Status).
				Update("status", models.MatchStatusPendingConfirmation)
			if res.Error != nil {
				return fmt.Errorf("pair %s: %w", req.ID, res.Error)
			}
			if res.RowsAffected != 1 {
				return ErrStaleStatus
			}
		}
		return nil
	})

	switch pgCode(err) {
	case pgDeadlockDetected, pgSerializationFailure:
		return ErrStaleStatus
	}
	return err
}

func (s *GormStore) CountMatchRequestsByStatus(ctx context.Context) (map[models.MatchStatus]int64, error) {
	var rows []struct {
		Status models.MatchStatus
		Count  int64
	}
	err := s.DB.WithContext(ctx).Model(&models.MatchRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.MatchStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *GormStore) CreateMatchResult(ctx context.Context, result *models.MatchResult) error {
	return duplicate(s.DB.WithContext(ctx).Omit("Match").Create(result).Error)
}

func (s *GormStore) FindMatchResultByMatch(ctx context.Context, matchID string) (*models.MatchResult, error) {
	var result models.MatchResult
	if err := s.DB.WithContext(ctx).First(&result, "match_id = ?", matchID).Error; err != nil {
		return nil, notFound(err)
	}
	return &result, nil
}
