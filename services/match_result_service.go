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

// ResultArchiver stores a copy of a finished result outside the database.
type ResultArchiver interface {
	ArchiveMatchResult(ctx context.Context, result *models.MatchResult) error
}

type MatchResultService struct {
	Store        repositories.Store
	Ranking      *RankingService
	Achievements *AchievementService
	// Archive is optional.
	Archive ResultArchiver
}

// MatchResultServiceDeps is the dependency list for the result service.
type MatchResultServiceDeps struct {
	Store        repositories.Store
	Ranking      *RankingService
	Achievements *AchievementService
	Archive      ResultArchiver
}

func NewMatchResultService(deps *MatchResultServiceDeps) *MatchResultService {
	return &MatchResultService{
		Store:        deps.Store,
		Ranking:      deps.Ranking,
		Achievements: deps.Achievements,
		Archive:      deps.Archive,
	}
}

// SubmitWinnersInput is the body of POST /match-result/submit-winners/:matchId.
type SubmitWinnersInput struct {
	Winner1ID string `json:"winner1_id"`
	Winner2ID string `json:"winner2_id"`
}

// SubmitMatchWinners finalizes a match. Losers are the match request's
// players (creator, partner) minus the two winners; exactly two must remain.
func (s *MatchResultService) SubmitMatchWinners(ctx context.Context, matchID, winner1ID, winner2ID string) (string, error) {
	if winner1ID == "" || winner2ID == "" {
		return "", validationf("winner1_id and winner2_id are required")
	}

	match, err := s.Store.FindMatchRequest(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", &NotFoundError{Entity: "match", ID: matchID}
		}
		return "", fmt.Errorf("load match %s: %w", matchID, err)
	}

	var losers []string
	for _, p := range match.Players() {
		if p != winner1ID && p != winner2ID {
			losers = append(losers, p)
		}
	}
	if len(losers) != 2 {
		return "", validationf("exactly two losers required, got %d", len(losers))
	}

	if _, err := s.Store.FindMatchResultByMatch(ctx, matchID); err == nil {
		return "", validationf("result for match %s was already submitted", matchID)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", fmt.Errorf("check existing result for %s: %w", matchID, err)
	}

	result := &models.MatchResult{
		ID:        uuid.NewString(),
		MatchID:   matchID,
		Winner1ID: winner1ID,
		Winner2ID: winner2ID,
		Loser1ID:  losers[0],
		Loser2ID:  losers[1],
		Confirmed: true,
	}
	if err := s.Store.CreateMatchResult(ctx, result); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return "", validationf("result for match %s was already submitted", matchID)
		}
		return "", fmt.Errorf("save result for %s: %w", matchID, err)
	}

	if err := s.Ranking.UpdateUserRanking(ctx, result.Winner1ID, result.Winner2ID, result.Loser1ID, result.Loser2ID); err != nil {
		return "", err
	}

	if s.Achievements != nil {
		outcomes := []struct {
			userID   string
			isWinner bool
		}{
			{result.Winner1ID, true},
			{result.Winner2ID, true},
			{result.Loser1ID, false},
			{result.Loser2ID, false},
		}
		for _, o := range outcomes {
			if _, err := s.Achievements.RecordGameOutcome(ctx, o.userID, o.isWinner); err != nil {
				return "", err
			}
		}
	}

	if s.Archive != nil {
		if err := s.Archive.ArchiveMatchResult(ctx, result); err != nil {
			log.Printf("[MatchResult] archive of %s failed: %v", result.ID, err)
		}
	}

	log.Printf("🏆 [MatchResult] match %s confirmed", matchID)
	return fmt.Sprintf("Match %s confirmed. Winners: %s, %s. Losers: %s, %s.",
		matchID, result.Winner1ID, result.Winner2ID, result.Loser1ID, result.Loser2ID), nil
}
