package services

import (
	"context"
	"errors"
	"testing"

	"matchverse/models"
	"matchverse/repositories"
	"matchverse/repositories/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeArchive struct {
	archived []*models.MatchResult
	err      error
}

func (f *fakeArchive) ArchiveMatchResult(_ context.Context, result *models.MatchResult) error {
	f.archived = append(f.archived, result)
	return f.err
}

type resultFixture struct {
	svc     *MatchResultService
	store   *testutil.MemoryStore
	archive *fakeArchive
	matchID string
}

// newResultFixture stores a double request created by c1 with partner c2
// and seeds c1, c2, o1, o2.
func newResultFixture(t *testing.T) *resultFixture {
	t.Helper()
	store := testutil.NewMemoryStore()
	store.AddUser("c1", 4100)
	store.AddUser("c2", 600)
	store.AddUser("o1", 400)
	store.AddUser("o2", 2000)

	req := &models.MatchRequest{
		ID:          "m1",
		MatchType:   models.MatchTypeDouble,
		CreatedByID: "c1",
		PartnerID:   strPtr("c2"),
		Status:      models.MatchStatusScheduled,
	}
	require.NoError(t, store.CreateMatchRequest(context.Background(), req))

	archive := &fakeArchive{}
	svc := NewMatchResultService(&MatchResultServiceDeps{
		Store:        store,
		Ranking:      NewRankingService(store),
		Achievements: NewAchievementService(store),
		Archive:      archive,
	})
	return &resultFixture{svc: svc, store: store, archive: archive, matchID: req.ID}
}

func TestSubmitMatchWinners(t *testing.T) {
	f := newResultFixture(t)

	summary, err := f.svc.SubmitMatchWinners(context.Background(), f.matchID, "o1", "o2")

	require.NoError(t, err)
	assert.Equal(t, "Match m1 confirmed. Winners: o1, o2. Losers: c1, c2.", summary)

	results := f.store.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Loser1ID)
	assert.Equal(t, "c2", results[0].Loser2ID)
	assert.True(t, results[0].Confirmed)

	assert.Equal(t, 525, f.store.Users["o1"].RankPoints)
	assert.Equal(t, "Beginner 02", f.store.Users["o1"].Rank)
	assert.Equal(t, 2050, f.store.Users["o2"].RankPoints)
	assert.Equal(t, 3850, f.store.Users["c1"].RankPoints)
	assert.Equal(t, "Expert 02", f.store.Users["c1"].Rank)
	assert.Equal(t, 525, f.store.Users["c2"].RankPoints)

	for _, id := range []string{"o1", "o2", "c1", "c2"} {
		assert.Equal(t, 1, f.store.Users[id].GamesPlayed, id)
	}
	assert.Equal(t, 1, f.store.Users["o1"].GamesWon)
	assert.Zero(t, f.store.Users["c1"].GamesWon)

	require.Len(t, f.archive.archived, 1)
	assert.Equal(t, "m1", f.archive.archived[0].MatchID)
}

// Winners drawn from the request's own pair leave fewer than two losers.
func TestSubmitMatchWinnersFromRequestPair(t *testing.T) {
	f := newResultFixture(t)

	_, err := f.svc.SubmitMatchWinners(context.Background(), f.matchID, "c1", "o1")

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "exactly two losers required, got 1")
	assert.Empty(t, f.store.Results())
	assert.Zero(t, f.store.UserWrites)
}

func TestSubmitMatchWinnersSingles(t *testing.T) {
	f := newResultFixture(t)
	require.NoError(t, f.store.CreateMatchRequest(context.Background(), &models.MatchRequest{
		ID: "s1", MatchType: models.MatchTypeSingle, CreatedByID: "c1", Status: models.MatchStatusScheduled,
	}))

	_, err := f.svc.SubmitMatchWinners(context.Background(), "s1", "o1", "o2")

	assert.True(t, IsValidation(err))
}

func TestSubmitMatchWinnersErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missingWinner", func(t *testing.T) {
		f := newResultFixture(t)
		_, err := f.svc.SubmitMatchWinners(ctx, f.matchID, "o1", "")
		assert.True(t, IsValidation(err))
	})

	t.Run("unknownMatch", func(t *testing.T) {
		f := newResultFixture(t)
		_, err := f.svc.SubmitMatchWinners(ctx, "nope", "o1", "o2")
		assert.True(t, IsNotFound(err))
	})

	t.Run("alreadySubmitted", func(t *testing.T) {
		f := newResultFixture(t)
		_, err := f.svc.SubmitMatchWinners(ctx, f.matchID, "o1", "o2")
		require.NoError(t, err)

		_, err = f.svc.SubmitMatchWinners(ctx, f.matchID, "o1", "o2")

		assert.True(t, IsValidation(err))
		assert.Equal(t, 525, f.store.Users["o1"].RankPoints)
	})
}

func TestSubmitMatchWinnersRankingFailureKeepsResult(t *testing.T) {
	f := newResultFixture(t)
	f.store.Users["c1"].RankPoints = 40

	_, err := f.svc.SubmitMatchWinners(context.Background(), f.matchID, "o1", "o2")

	require.Error(t, err)
	assert.True(t, IsInsufficientPoints(err))
	assert.Len(t, f.store.Results(), 1)
	assert.Equal(t, 525, f.store.Users["o1"].RankPoints)
	assert.Equal(t, 600, f.store.Users["c2"].RankPoints)
	assert.Empty(t, f.archive.archived)
}

func TestSubmitMatchWinnersArchiveFailureIsIgnored(t *testing.T) {
	f := newResultFixture(t)
	f.archive.err = errors.New("bucket unavailable")

	_, err := f.svc.SubmitMatchWinners(context.Background(), f.matchID, "o1", "o2")

	assert.NoError(t, err)
	assert.Len(t, f.archive.archived, 1)
}

func TestSubmitMatchWinnersWithoutOptionalServices(t *testing.T) {
	f := newResultFixture(t)
	svc := NewMatchResultService(&MatchResultServiceDeps{Store: f.store, Ranking: NewRankingService(f.store)})

	_, err := svc.SubmitMatchWinners(context.Background(), f.matchID, "o1", "o2")

	require.NoError(t, err)
	assert.Zero(t, f.store.Users["o1"].GamesPlayed)
}

// A concurrent submission can pass the existence check and then hit the
// unique index on match_id.
func TestSubmitMatchWinnersLosesInsertRace(t *testing.T) {
	store := new(testutil.MockStore)
	store.On("FindMatchRequest", mock.Anything, "m1").Return(&models.MatchRequest{
		ID: "m1", MatchType: models.MatchTypeDouble, CreatedByID: "c1", PartnerID: strPtr("c2"),
	}, nil)
	store.On("FindMatchResultByMatch", mock.Anything, "m1").Return(nil, repositories.ErrNotFound)
	store.On("CreateMatchResult", mock.Anything, mock.Anything).Return(repositories.ErrDuplicate)

	svc := NewMatchResultService(&MatchResultServiceDeps{Store: store, Ranking: NewRankingService(store)})
	_, err := svc.SubmitMatchWinners(context.Background(), "m1", "o1", "o2")

	require.Error(t, err)
	assert.True(t, IsValidation(err), "got %v", err)
	assert.Contains(t, err.Error(), "already submitted")
	store.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	testutil.VerifyAllMocks(t, store)
}
