package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"matchverse/models"
	"matchverse/repositories"
)

const (
	AchievementPlayed10 = "Played 10 games"
	AchievementWon5     = "Won 5 games"
)

// achievementTrigger fires when a counter becomes exactly Count.
type achievementTrigger struct {
	Name    string
	Counter func(u *models.User) int
	Count   int
}

var achievementTriggers = []achievementTrigger{
	{AchievementPlayed10, func(u *models.User) int { return u.GamesPlayed }, 10},
	{AchievementWon5, func(u *models.User) int { return u.GamesWon }, 5},
}

type AchievementService struct {
	Store repositories.Store
}

func NewAchievementService(store repositories.Store) *AchievementService {
	return &AchievementService{Store: store}
}

// RecordGameOutcome bumps the game counters and returns the achievement list
// after any newly earned entries were appended.
func (s *AchievementService) RecordGameOutcome(ctx context.Context, userID string, isWinner bool) ([]string, error) {
	user, err := s.Store.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: userID}
		}
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	user.GamesPlayed++
	if isWinner {
		user.GamesWon++
	}

	achievements := append(models.Achievements{}, user.Achievements...)
	for _, trigger := range achievementTriggers {
		if trigger.Counter(user) == trigger.Count && !achievements.Has(trigger.Name) {
			achievements = append(achievements, trigger.Name)
			log.Printf("🎖️ [Achievements] %s earned %q", userID, trigger.Name)
		}
	}

	if err := s.Store.UpdateUser(ctx, userID, map[string]interface{}{
		"games_played": user.GamesPlayed,
		"games_won":    user.GamesWon,
		"achievements": achievements,
	}); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: userID}
		}
		return nil, fmt.Errorf("save achievements for %s: %w", userID, err)
	}

	return achievements, nil
}
