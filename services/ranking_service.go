package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"matchverse/models"
	"matchverse/repositories"

	"github.com/gosimple/slug"
)

// pointBracket holds the deltas applied to a player whose points are >= LowerBound.
type pointBracket struct {
	LowerBound int
	WinDelta   int
	LossDelta  int
}

// Ordered by LowerBound; the last bracket is open-ended.
var pointBrackets = []pointBracket{
	{0, 125, -50},
	{500, 100, -75},
	{1000, 100, -100},
	{1500, 50, -100},
	{2000, 50, -125},
	{2500, 25, -125},
	{3000, 25, -135},
	{3500, 20, -135},
	{4000, 20, -250},
}

type rankTier struct {
	LowerBound int
	Label      string
}

// Tiers cover [0, 4500). Above that a player keeps whatever label they had.
var rankTiers = []rankTier{
	{0, "Beginner 01"},
	{500, "Beginner 02"},
	{1000, "Beginner 03"},
	{1500, "Intermediate 01"},
	{2000, "Intermediate 02"},
	{2500, "Intermediate 03"},
	{3000, "Expert 01"},
	{3500, "Expert 02"},
	{4000, "Expert 03"},
}

const tierCeiling = 4500

// DefaultRankTier is the label new players start with.
const DefaultRankTier = "Beginner 01"

// CalculatePointDelta returns the rank point change for a player currently
// holding rankPoints after a win or a loss.
func CalculatePointDelta(rankPoints int, isWinner bool) int {
	b := pointBrackets[0]
	for _, candidate := range pointBrackets {
		if rankPoints < candidate.LowerBound {
			break
		}
		b = candidate
	}
	if isWinner {
		return b.WinDelta
	}
	return b.LossDelta
}

// RankTierFor maps a point total to its tier label. Totals at or above the
// last tier's upper bound keep current.
func RankTierFor(rankPoints int, current string) string {
	if rankPoints >= tierCeiling {
		return current
	}
	label := rankTiers[0].Label
	for _, t := range rankTiers {
		if rankPoints < t.LowerBound {
			break
		}
		label = t.Label
	}
	return label
}

// RankCode is the URL-safe form of a tier label ("Expert 02" → "expert-02").
func RankCode(label string) string {
	return slug.Make(label)
}

type RankingService struct {
	Store repositories.Store
}

func NewRankingService(store repositories.Store) *RankingService {
	return &RankingService{Store: store}
}

// UpdateUserPoints applies one match outcome to a user's points and tier.
func (s *RankingService) UpdateUserPoints(ctx context.Context, userID string, isWinner bool) (*models.User, error) {
	user, err := s.Store.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: userID}
		}
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	delta := CalculatePointDelta(user.RankPoints, isWinner)
	newPoints := user.RankPoints + delta
	if newPoints < 0 {
		return nil, &InsufficientPointsError{UserID: userID, Current: user.RankPoints, Delta: delta}
	}

	tier := RankTierFor(newPoints, user.Rank)
	if err := s.Store.UpdateUser(ctx, userID, map[string]interface{}{
		"rank_points": newPoints,
		"rank":        tier,
		"rank_code":   RankCode(tier),
	}); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: userID}
		}
		return nil, fmt.Errorf("save points for %s: %w", userID, err)
	}

	log.Printf("[Ranking] %s: %d → %d (%+d), tier %q", userID, user.RankPoints, newPoints, delta, tier)

	user.RankPoints = newPoints
	user.Rank = tier
	user.RankCode = RankCode(tier)
	return user, nil
}

// UpdateUserRanking updates both winners then both losers, in order.
// Updates are not rolled back: if a later one fails, earlier ones stay applied.
func (s *RankingService) UpdateUserRanking(ctx context.Context, winner1ID, winner2ID, loser1ID, loser2ID string) error {
	steps := []struct {
		userID   string
		isWinner bool
	}{
		{winner1ID, true},
		{winner2ID, true},
		{loser1ID, false},
		{loser2ID, false},
	}
	for _, step := range steps {
		if _, err := s.UpdateUserPoints(ctx, step.userID, step.isWinner); err != nil {
			log.Printf("[Ranking] update stopped at %s: %v", step.userID, err)
			return err
		}
	}
	return nil
}
