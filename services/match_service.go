package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"matchverse/models"
	"matchverse/repositories"

	"github.com/google/uuid"
)

// Number of times a pairing is retried after losing a status race.
const maxPairAttempts = 3

// MatchService creates match requests, pairs them and handles accept/decline.
type MatchService struct {
	Store repositories.Store
}

func NewMatchService(store repositories.Store) *MatchService {
	return &MatchService{Store: store}
}

// CreateMatchRequestInput is the body of POST /match/request.
type CreateMatchRequestInput struct {
	BookingID   *string          `json:"booking_id"`
	MatchType   models.MatchType `json:"match_type"`
	CreatedByID string           `json:"created_by_id"`
	PartnerID   *string          `json:"partner_id"`
}

// JoinMatchInput is the body of the join endpoints.
type JoinMatchInput struct {
	RequestID string  `json:"request_id"`
	UserID    string  `json:"user_id"`
	PartnerID *string `json:"partner_id"`
}

// AcceptMatchResult reports the state of both sides after AcceptMatch.
type AcceptMatchResult struct {
	Message string               `json:"message"`
	Request *models.MatchRequest `json:"request"`
	Sibling *models.MatchRequest `json:"sibling"`
	// Repaired is set when a decline let the sibling find a new opponent.
	Repaired *models.MatchRequest `json:"repaired_with,omitempty"`
}

// MatchedUsers is both sides of a pairing.
type MatchedUsers struct {
	Request  models.MatchRequest `json:"request"`
	Opponent models.MatchRequest `json:"opponent"`
	Players  []string            `json:"players"`
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func (s *MatchService) findRequest(ctx context.Context, id string) (*models.MatchRequest, error) {
	req, err := s.Store.FindMatchRequest(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Entity: "match request", ID: id}
		}
		return nil, fmt.Errorf("load match request %s: %w", id, err)
	}
	return req, nil
}

func validatePartner(matchType models.MatchType, userID string, partnerID *string) error {
	switch matchType {
	case models.MatchTypeDouble:
		if partnerID == nil {
			return validationf("partner_id is required for a double match")
		}
		if *partnerID == userID {
			return validationf("partner_id must be different from the requesting user")
		}
	case models.MatchTypeSingle:
		if partnerID != nil {
			return validationf("partner_id is not allowed for a single match")
		}
	default:
		return validationf("match_type must be %q or %q", models.MatchTypeSingle, models.MatchTypeDouble)
	}
	return nil
}

// CreateMatchRequest stores a new pending request and immediately tries to
// pair it. The returned request carries whatever status it ended up with.
func (s *MatchService) CreateMatchRequest(ctx context.Context, in CreateMatchRequestInput) (*models.MatchRequest, error) {
	in.BookingID = emptyToNil(in.BookingID)
	in.PartnerID = emptyToNil(in.PartnerID)

	if in.CreatedByID == "" {
		return nil, validationf("created_by_id is required")
	}
	if !in.MatchType.Valid() {
		return nil, validationf("match_type must be %q or %q", models.MatchTypeSingle, models.MatchTypeDouble)
	}
	if err := validatePartner(in.MatchType, in.CreatedByID, in.PartnerID); err != nil {
		return nil, err
	}

	if in.BookingID != nil {
		if _, err := s.Store.FindBooking(ctx, *in.BookingID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, &NotFoundError{Entity: "booking", ID: *in.BookingID}
			}
			return nil, fmt.Errorf("load booking %s: %w", *in.BookingID, err)
		}
	}

	req := &models.MatchRequest{
		ID:          uuid.NewString(),
		BookingID:   in.BookingID,
		MatchType:   in.MatchType,
		CreatedByID: in.CreatedByID,
		PartnerID:   in.PartnerID,
		Status:      models.MatchStatusPending,
	}
	if err := s.Store.CreateMatchRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create match request: %w", err)
	}
	log.Printf("[MatchService] %s request %s created by %s", req.MatchType, req.ID, req.CreatedByID)

	if _, err := s.TryMatchRequest(ctx, *req); err != nil {
		return nil, err
	}
	return s.findRequest(ctx, req.ID)
}

// TryMatchRequest looks for the first other pending request of the same type
// and moves both to pending_confirmation. It returns the opponent, or nil when
// nothing was available.
func (s *MatchService) TryMatchRequest(ctx context.Context, req models.MatchRequest) (*models.MatchRequest, error) {
	for attempt := 0; attempt < maxPairAttempts; attempt++ {
		if req.Status.Terminal() {
			return nil, nil
		}

		candidates, err := s.Store.FindMatchRequests(ctx, repositories.MatchRequestFilter{
			Statuses:   []models.MatchStatus{models.MatchStatusPending},
			MatchType:  req.MatchType,
			ExcludeIDs: []string{req.ID},
			Limit:      1,
		})
		if err != nil {
			return nil, fmt.Errorf("search pending requests: %w", err)
		}
		if len(candidates) == 0 {
			return nil, nil
		}
		opponent := candidates[0]

		err = s.Store.PairMatchRequests(ctx, req, opponent)
		if err == nil {
			log.Printf("🤝 [MatchService] paired %s with %s (%s)", req.ID, opponent.ID, req.MatchType)
			opponent.Status = models.MatchStatusPendingConfirmation
			return &opponent, nil
		}
		if !errors.Is(err, repositories.ErrStaleStatus) {
			return nil, fmt.Errorf("pair %s with %s: %w", req.ID, opponent.ID, err)
		}

		// Someone else moved one of the two rows. Start over from fresh state.
		current, err := s.findRequest(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if current.Status != req.Status {
			return nil, nil
		}
		req = *current
	}

	log.Printf("[MatchService] gave up pairing %s after %d attempts", req.ID, maxPairAttempts)
	return nil, nil
}

// findSibling returns the other pending_confirmation request on the same booking.
func (s *MatchService) findSibling(ctx context.Context, req models.MatchRequest, statuses ...models.MatchStatus) (*models.MatchRequest, error) {
	filter := repositories.MatchRequestFilter{
		Statuses:   statuses,
		BookingID:  req.BookingID,
		ExcludeIDs: []string{req.ID},
		Limit:      1,
	}
	if req.BookingID == nil {
		filter.BookingIsNull = true
	}

	siblings, err := s.Store.FindMatchRequests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search paired request for %s: %w", req.ID, err)
	}
	if len(siblings) == 0 {
		return nil, &NotFoundError{Entity: "paired match request for", ID: req.ID}
	}
	return &siblings[0], nil
}

// AcceptMatch records a participant's answer. Accepting schedules both sides;
// declining cancels the caller's request and sends the sibling back to pairing.
func (s *MatchService) AcceptMatch(ctx context.Context, requestID, userID string, accepted bool) (*AcceptMatchResult, error) {
	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.MatchStatusPendingConfirmation {
		return nil, validationf("match request %s is %s, not awaiting confirmation", req.ID, req.Status)
	}
	if !req.Involves(userID) {
		return nil, &AuthorizationError{UserID: userID, Action: "answer match request " + req.ID}
	}

	sibling, err := s.findSibling(ctx, *req, models.MatchStatusPendingConfirmation)
	if err != nil {
		return nil, err
	}

	if accepted {
		if err := s.Store.UpdateMatchRequests(ctx, []string{req.ID, sibling.ID}, map[string]interface{}{
			"status": models.MatchStatusScheduled,
		}); err != nil {
			return nil, fmt.Errorf("schedule %s and %s: %w", req.ID, sibling.ID, err)
		}
		req.Status = models.MatchStatusScheduled
		sibling.Status = models.MatchStatusScheduled
		log.Printf("✅ [MatchService] %s accepted by %s, %s and %s scheduled", req.ID, userID, req.ID, sibling.ID)
		return &AcceptMatchResult{Message: "Match scheduled", Request: req, Sibling: sibling}, nil
	}

	if err := s.Store.UpdateMatchRequest(ctx, req.ID, map[string]interface{}{
		"status": models.MatchStatusCancelled,
	}); err != nil {
		return nil, fmt.Errorf("cancel %s: %w", req.ID, err)
	}
	req.Status = models.MatchStatusCancelled
	log.Printf("[MatchService] %s declined by %s, re-pairing %s", req.ID, userID, sibling.ID)

	repaired, err := s.TryMatchRequest(ctx, *sibling)
	if err != nil {
		return nil, err
	}
	if repaired != nil {
		sibling.Status = models.MatchStatusPendingConfirmation
	}
	return &AcceptMatchResult{Message: "Match declined", Request: req, Sibling: sibling, Repaired: repaired}, nil
}

// ListPending returns every request still waiting for an opponent.
func (s *MatchService) ListPending(ctx context.Context) ([]models.MatchRequest, error) {
	return s.Store.FindMatchRequests(ctx, repositories.MatchRequestFilter{
		Statuses: []models.MatchStatus{models.MatchStatusPending},
	})
}

// ListMatched returns requests that have been paired, confirmed or not.
func (s *MatchService) ListMatched(ctx context.Context) ([]models.MatchRequest, error) {
	return s.Store.FindMatchRequests(ctx, repositories.MatchRequestFilter{
		Statuses: []models.MatchStatus{models.MatchStatusPendingConfirmation, models.MatchStatusScheduled},
	})
}

func (s *MatchService) ListPendingConfirmationForUser(ctx context.Context, userID string) ([]models.MatchRequest, error) {
	return s.Store.FindMatchRequests(ctx, repositories.MatchRequestFilter{
		Statuses:      []models.MatchStatus{models.MatchStatusPendingConfirmation},
		ParticipantID: userID,
	})
}

func (s *MatchService) ListScheduledForUser(ctx context.Context, userID string) ([]models.MatchRequest, error) {
	return s.Store.FindMatchRequests(ctx, repositories.MatchRequestFilter{
		Statuses:      []models.MatchStatus{models.MatchStatusScheduled},
		ParticipantID: userID,
	})
}

// ListAvailable returns booked, pending requests of matchType that userID
// neither created nor partners in.
func (s *MatchService) ListAvailable(ctx context.Context, userID string, matchType models.MatchType) ([]models.MatchRequest, error) {
	if !matchType.Valid() {
		return nil, validationf("match_type must be %q or %q", models.MatchTypeSingle, models.MatchTypeDouble)
	}
	return s.Store.FindMatchRequests(ctx, repositories.MatchRequestFilter{
		Statuses:             []models.MatchStatus{models.MatchStatusPending},
		MatchType:            matchType,
		HasBooking:           true,
		ExcludeParticipantID: userID,
	})
}

// GetMatchedUsers returns the request identified by matchID together with
// the opposing request on the same booking.
func (s *MatchService) GetMatchedUsers(ctx context.Context, matchID string) (*MatchedUsers, error) {
	req, err := s.findRequest(ctx, matchID)
	if err != nil {
		return nil, err
	}
	opponent, err := s.findSibling(ctx, *req, models.MatchStatusPendingConfirmation, models.MatchStatusScheduled)
	if err != nil {
		return nil, err
	}
	return &MatchedUsers{
		Request:  *req,
		Opponent: *opponent,
		Players:  append(req.Players(), opponent.Players()...),
	}, nil
}

// JoinMatch joins an open double request with the caller and their partner.
func (s *MatchService) JoinMatch(ctx context.Context, in JoinMatchInput) (*models.MatchRequest, error) {
	return s.join(ctx, in, models.MatchTypeDouble)
}

// JoinSingles joins an open single request.
func (s *MatchService) JoinSingles(ctx context.Context, in JoinMatchInput) (*models.MatchRequest, error) {
	return s.join(ctx, in, models.MatchTypeSingle)
}

func (s *MatchService) join(ctx context.Context, in JoinMatchInput, matchType models.MatchType) (*models.MatchRequest, error) {
	in.PartnerID = emptyToNil(in.PartnerID)
	if in.RequestID == "" || in.UserID == "" {
		return nil, validationf("request_id and user_id are required")
	}

	target, err := s.findRequest(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if target.MatchType != matchType {
		return nil, validationf("match request %s is a %s match", target.ID, target.MatchType)
	}
	if target.Status != models.MatchStatusPending {
		return nil, validationf("match request %s is no longer open", target.ID)
	}
	if target.BookingID == nil {
		return nil, validationf("match request %s has no booking to join", target.ID)
	}
	if target.Involves(in.UserID) {
		return nil, validationf("cannot join a match request you created or belong to")
	}
	if err := validatePartner(matchType, in.UserID, in.PartnerID); err != nil {
		return nil, err
	}

	group, err := s.Store.FindMatchRequests(ctx, repositories.MatchRequestFilter{
		Statuses:  []models.MatchStatus{models.MatchStatusPending},
		BookingID: target.BookingID,
	})
	if err != nil {
		return nil, fmt.Errorf("load roster for booking %s: %w", *target.BookingID, err)
	}
	roster := map[string]bool{}
	for _, r := range group {
		for _, p := range r.Players() {
			roster[p] = true
		}
	}

	joiners := []string{in.UserID}
	if in.PartnerID != nil {
		joiners = append(joiners, *in.PartnerID)
	}
	for _, j := range joiners {
		if roster[j] {
			return nil, validationf("user %s is already part of this match", j)
		}
	}
	if len(roster)+len(joiners) > matchType.RosterSize() {
		return nil, validationf("match is full (%d players max)", matchType.RosterSize())
	}

	joined := &models.MatchRequest{
		ID:          uuid.NewString(),
		BookingID:   target.BookingID,
		MatchType:   matchType,
		CreatedByID: in.UserID,
		PartnerID:   in.PartnerID,
		Status:      models.MatchStatusPending,
	}
	if err := s.Store.CreateMatchRequest(ctx, joined); err != nil {
		return nil, fmt.Errorf("create joining request: %w", err)
	}
	log.Printf("[MatchService] %s joined %s with request %s", in.UserID, target.ID, joined.ID)

	err = s.Store.PairMatchRequests(ctx, *target, *joined)
	switch {
	case err == nil:
		log.Printf("🤝 [MatchService] paired %s with %s (join)", target.ID, joined.ID)
	case errors.Is(err, repositories.ErrStaleStatus):
		// Target was taken meanwhile; the joiner falls back to the open pool.
		if _, err := s.TryMatchRequest(ctx, *joined); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("pair %s with %s: %w", target.ID, joined.ID, err)
	}

	return s.findRequest(ctx, joined.ID)
}

// PoolCounts returns the number of requests per status.
func (s *MatchService) PoolCounts(ctx context.Context) (map[models.MatchStatus]int64, error) {
	return s.Store.CountMatchRequestsByStatus(ctx)
}
