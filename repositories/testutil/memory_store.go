package testutil

import (
	"context"
	"sync"
	"time"

	"matchverse/models"
	"matchverse/repositories"
)

// MemoryStore is an in-process Store used by service and handler tests.
// Enumeration order is insertion order, like created_at ordering in the database.
type MemoryStore struct {
	mu sync.Mutex

	Users    map[string]*models.User
	Bookings map[string]*models.Booking

	requests map[string]*models.MatchRequest
	order    []string
	results  map[string]*models.MatchResult

	// UserWrites counts UpdateUser calls.
	UserWrites int
	// FailUserUpdate makes UpdateUser fail for the given id.
	FailUserUpdate map[string]error
}

var _ repositories.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Users:          map[string]*models.User{},
		Bookings:       map[string]*models.Booking{},
		requests:       map[string]*models.MatchRequest{},
		results:        map[string]*models.MatchResult{},
		FailUserUpdate: map[string]error{},
	}
}

// AddUser seeds a user with the given points.
func (m *MemoryStore) AddUser(id string, points int) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: id, Name: id, RankPoints: points, Rank: "Beginner 01", Achievements: models.Achievements{}}
	m.Users[id] = u
	return u
}

// AddBooking seeds a booking and returns its id.
func (m *MemoryStore) AddBooking(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Bookings[id] = &models.Booking{ID: id, Status: models.BookingStatusConfirmed}
	return id
}

// Request returns a copy of the stored request, or nil.
func (m *MemoryStore) Request(id string) *models.MatchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

// Results returns every stored result.
func (m *MemoryStore) Results() []models.MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.MatchResult, 0, len(m.results))
	for _, r := range m.results {
		out = append(out, *r)
	}
	return out
}

func (m *MemoryStore) FindUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	cp.Achievements = append(models.Achievements{}, u.Achievements...)
	return &cp, nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailUserUpdate[id]; err != nil {
		return err
	}
	u, ok := m.Users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	m.UserWrites++
	for k, v := range fields {
		switch k {
		case "rank_points":
			u.RankPoints = v.(int)
		case "rank":
			u.Rank = v.(string)
		case "rank_code":
			u.RankCode = v.(string)
		case "games_played":
			u.GamesPlayed = v.(int)
		case "games_won":
			u.GamesWon = v.(int)
		case "achievements":
			u.Achievements = append(models.Achievements{}, v.(models.Achievements)...)
		}
	}
	return nil
}

func (m *MemoryStore) FindBooking(_ context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Bookings[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) CreateMatchRequest(_ context.Context, req *models.MatchRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	req.CreatedAt, req.UpdatedAt = now, now
	cp := *req
	m.requests[req.ID] = &cp
	m.order = append(m.order, req.ID)
	return nil
}

func (m *MemoryStore) FindMatchRequest(_ context.Context, id string) (*models.MatchRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) FindMatchRequests(_ context.Context, f repositories.MatchRequestFilter) ([]models.MatchRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	excluded := map[string]bool{}
	for _, id := range f.ExcludeIDs {
		excluded[id] = true
	}

	var out []models.MatchRequest
	for _, id := range m.order {
		r := m.requests[id]
		if excluded[r.ID] {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, r.Status) {
			continue
		}
		if f.MatchType != "" && r.MatchType != f.MatchType {
			continue
		}
		switch {
		case f.BookingID != nil:
			if r.BookingID == nil || *r.BookingID != *f.BookingID {
				continue
			}
		case f.BookingIsNull:
			if r.BookingID != nil {
				continue
			}
		case f.HasBooking:
			if r.BookingID == nil {
				continue
			}
		}
		if f.ParticipantID != "" && !r.Involves(f.ParticipantID) {
			continue
		}
		if f.ExcludeParticipantID != "" && r.Involves(f.ExcludeParticipantID) {
			continue
		}
		out = append(out, *r)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func hasStatus(statuses []models.MatchStatus, s models.MatchStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func (m *MemoryStore) applyRequestFields(r *models.MatchRequest, fields map[string]interface{}) {
	for k, v := range fields {
		if k == "status" {
			r.Status = v.(models.MatchStatus)
		}
	}
	r.UpdatedAt = time.Now()
}

func (m *MemoryStore) UpdateMatchRequest(_ context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return repositories.ErrNotFound
	}
	m.applyRequestFields(r, fields)
	return nil
}

func (m *MemoryStore) UpdateMatchRequests(_ context.Context, ids []string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if r, ok := m.requests[id]; ok {
			m.applyRequestFields(r, fields)
		}
	}
	return nil
}

func (m *MemoryStore) PairMatchRequests(_ context.Context, a, b models.MatchRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ra, okA := m.requests[a.ID]
	rb, okB := m.requests[b.ID]
	if !okA || !okB || ra.Status != a.Status || rb.Status != b.Status {
		return repositories.ErrStaleStatus
	}
	ra.Status = models.MatchStatusPendingConfirmation
	rb.Status = models.MatchStatusPendingConfirmation
	return nil
}

func (m *MemoryStore) CountMatchRequestsByStatus(_ context.Context) (map[models.MatchStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.MatchStatus]int64{}
	for _, r := range m.requests {
		counts[r.Status]++
	}
	return counts, nil
}

func (m *MemoryStore) CreateMatchResult(_ context.Context, result *models.MatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[result.MatchID]; ok {
		return repositories.ErrDuplicate
	}
	result.CreatedAt = time.Now()
	cp := *result
	m.results[result.MatchID] = &cp
	return nil
}

func (m *MemoryStore) FindMatchResultByMatch(_ context.Context, matchID string) (*models.MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[matchID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *r
	return &cp, nil
}
