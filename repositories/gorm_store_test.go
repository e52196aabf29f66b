package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"matchverse/models"
	"matchverse/repositories"
	"matchverse/repositories/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testID returns a fixed uuid so ordering by id is predictable.
func testID(n int) string {
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
}

func strPtr(s string) *string { return &s }

func seedBookings(t *testing.T, db *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, db.Create(&models.Booking{ID: id, Status: models.BookingStatusConfirmed}).Error)
	}
}

func TestNewGormStore(t *testing.T) {
	store := repositories.NewGormStore(&gorm.DB{})
	assert.NotNil(t, store)
}

func TestGormStoreUsers(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	ctx := context.Background()
	store := repositories.NewGormStore(db)
	userID := testID(1)
	require.NoError(t, db.Create(&models.User{ID: userID, Name: "Ana", Email: "ana@example.com", RankPoints: 400, Rank: "Beginner 01"}).Error)

	require.NoError(t, store.UpdateUser(ctx, userID, map[string]interface{}{
		"rank_points":  525,
		"rank":         "Beginner 02",
		"achievements": models.Achievements{"Played 10 games"},
	}))

	user, err := store.FindUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 525, user.RankPoints)
	assert.Equal(t, "Beginner 02", user.Rank)
	assert.Equal(t, models.Achievements{"Played 10 games"}, user.Achievements)

	_, err = store.FindUser(ctx, testID(99))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, store.UpdateUser(ctx, testID(99), map[string]interface{}{"rank": "x"}), repositories.ErrNotFound)

	_, err = store.FindBooking(ctx, testID(99))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestFindMatchRequests(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	ctx := context.Background()
	store := repositories.NewGormStore(db)
	b1, b2 := testID(101), testID(102)
	seedBookings(t, db, b1, b2)

	base := time.Date(2026, time.May, 1, 18, 0, 0, 0, time.UTC)
	r1, r2, r3, r4, r5, r7 := testID(1), testID(2), testID(3), testID(4), testID(5), testID(7)
	u := func(n int) string { return testID(200 + n) }

	// r7 is inserted first but shares r1's created_at; id breaks the tie.
	seed := []models.MatchRequest{
		{ID: r7, MatchType: models.MatchTypeDouble, BookingID: &b2, CreatedByID: u(7), PartnerID: strPtr(u(8)), Status: models.MatchStatusCancelled, CreatedAt: base},
		{ID: r1, MatchType: models.MatchTypeSingle, BookingID: &b1, CreatedByID: u(1), Status: models.MatchStatusPending, CreatedAt: base},
		{ID: r2, MatchType: models.MatchTypeDouble, BookingID: &b1, CreatedByID: u(2), PartnerID: strPtr(u(3)), Status: models.MatchStatusPending, CreatedAt: base.Add(time.Minute)},
		{ID: r3, MatchType: models.MatchTypeSingle, CreatedByID: u(4), Status: models.MatchStatusPendingConfirmation, CreatedAt: base.Add(2 * time.Minute)},
		{ID: r4, MatchType: models.MatchTypeSingle, BookingID: &b2, CreatedByID: u(5), Status: models.MatchStatusScheduled, CreatedAt: base.Add(3 * time.Minute)},
		{ID: r5, MatchType: models.MatchTypeDouble, CreatedByID: u(6), PartnerID: strPtr(u(1)), Status: models.MatchStatusPending, CreatedAt: base.Add(4 * time.Minute)},
	}
	for i := range seed {
		require.NoError(t, store.CreateMatchRequest(ctx, &seed[i]))
	}

	tests := []struct {
		name   string
		filter repositories.MatchRequestFilter
		want   []string
	}{
		{"all", repositories.MatchRequestFilter{}, []string{r1, r7, r2, r3, r4, r5}},
		{"statuses", repositories.MatchRequestFilter{Statuses: []models.MatchStatus{models.MatchStatusPending}}, []string{r1, r2, r5}},
		{"matchType", repositories.MatchRequestFilter{MatchType: models.MatchTypeSingle}, []string{r1, r3, r4}},
		{"bookingID", repositories.MatchRequestFilter{BookingID: &b1}, []string{r1, r2}},
		{"bookingIsNull", repositories.MatchRequestFilter{BookingIsNull: true}, []string{r3, r5}},
		{"hasBooking", repositories.MatchRequestFilter{HasBooking: true}, []string{r1, r7, r2, r4}},
		{"participantCreatorOrPartner", repositories.MatchRequestFilter{ParticipantID: u(1)}, []string{r1, r5}},
		{"excludeParticipantKeepsNullPartner", repositories.MatchRequestFilter{ExcludeParticipantID: u(1)}, []string{r7, r2, r3, r4}},
		{"excludeParticipantAsPartner", repositories.MatchRequestFilter{ExcludeParticipantID: u(3)}, []string{r1, r7, r3, r4, r5}},
		{"excludeIDs", repositories.MatchRequestFilter{ExcludeIDs: []string{r1, r2}}, []string{r7, r3, r4, r5}},
		{"limit", repositories.MatchRequestFilter{Limit: 2}, []string{r1, r7}},
		{"pairingQuery", repositories.MatchRequestFilter{
			Statuses:   []models.MatchStatus{models.MatchStatusPending},
			MatchType:  models.MatchTypeDouble,
			ExcludeIDs: []string{r5},
			Limit:      1,
		}, []string{r2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindMatchRequests(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func newPendingPair(t *testing.T, store *repositories.GormStore, first, second string) (models.MatchRequest, models.MatchRequest) {
	t.Helper()
	ctx := context.Background()
	a := models.MatchRequest{ID: first, MatchType: models.MatchTypeSingle, CreatedByID: testID(300), Status: models.MatchStatusPending}
	b := models.MatchRequest{ID: second, MatchType: models.MatchTypeSingle, CreatedByID: testID(301), Status: models.MatchStatusPending}
	require.NoError(t, store.CreateMatchRequest(ctx, &a))
	require.NoError(t, store.CreateMatchRequest(ctx, &b))
	return a, b
}

func TestPairMatchRequests(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	ctx := context.Background()
	store := repositories.NewGormStore(db)

	a, b := newPendingPair(t, store, testID(1), testID(2))
	require.NoError(t, store.PairMatchRequests(ctx, b, a))

	for _, id := range []string{a.ID, b.ID} {
		got, err := store.FindMatchRequest(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusPendingConfirmation, got.Status)
	}

	// a was read as pending but is pending_confirmation now. c sorts first,
	// so its update has already run when a's fails.
	c, _ := newPendingPair(t, store, testID(0), testID(4))
	err := store.PairMatchRequests(ctx, c, a)
	assert.ErrorIs(t, err, repositories.ErrStaleStatus)

	got, err := store.FindMatchRequest(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, got.Status, "first update must roll back")
}

// Two callers pairing the same requests from opposite sides: one wins, the
// other sees a stale status instead of a deadlock error.
func TestPairMatchRequestsConcurrentOppositeOrder(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	ctx := context.Background()
	store := repositories.NewGormStore(db)

	for round := 0; round < 10; round++ {
		x, y := newPendingPair(t, store, testID(1000+2*round), testID(1001+2*round))

		var wg sync.WaitGroup
		start := make(chan struct{})
		errs := make([]error, 2)
		for i, args := range [][2]models.MatchRequest{{x, y}, {y, x}} {
			wg.Add(1)
			go func(i int, a, b models.MatchRequest) {
				defer wg.Done()
				<-start
				errs[i] = store.PairMatchRequests(ctx, a, b)
			}(i, args[0], args[1])
		}
		close(start)
		wg.Wait()

		var won, stale int
		for _, err := range errs {
			switch {
			case err == nil:
				won++
			case assert.ErrorIs(t, err, repositories.ErrStaleStatus):
				stale++
			}
		}
		assert.Equal(t, 1, won, "round %d", round)
		assert.Equal(t, 1, stale, "round %d", round)
	}
}

func TestUpdateMatchRequests(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	ctx := context.Background()
	store := repositories.NewGormStore(db)
	a, b := newPendingPair(t, store, testID(1), testID(2))

	require.NoError(t, store.UpdateMatchRequests(ctx, []string{a.ID, b.ID}, map[string]interface{}{
		"status": models.MatchStatusScheduled,
	}))
	require.NoError(t, store.UpdateMatchRequest(ctx, a.ID, map[string]interface{}{
		"status": models.MatchStatusCancelled,
	}))
	assert.ErrorIs(t, store.UpdateMatchRequest(ctx, testID(9), map[string]interface{}{
		"status": models.MatchStatusCancelled,
	}), repositories.ErrNotFound)

	counts, err := store.CountMatchRequestsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.MatchStatus]int64{
		models.MatchStatusCancelled: 1,
		models.MatchStatusScheduled: 1,
	}, counts)

	_, err = store.FindMatchRequest(ctx, testID(9))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestMatchResults(t *testing.T) {
	db, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	ctx := context.Background()
	store := repositories.NewGormStore(db)
	match, _ := newPendingPair(t, store, testID(1), testID(2))

	result := &models.MatchResult{
		ID: testID(50), MatchID: match.ID,
		Winner1ID: "w1", Winner2ID: "w2", Loser1ID: "l1", Loser2ID: "l2",
		Confirmed: true,
	}
	require.NoError(t, store.CreateMatchResult(ctx, result))

	got, err := store.FindMatchResultByMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, got.ID)
	assert.True(t, got.Confirmed)

	again := *result
	again.ID = testID(51)
	assert.ErrorIs(t, store.CreateMatchResult(ctx, &again), repositories.ErrDuplicate)

	_, err = store.FindMatchResultByMatch(ctx, testID(2))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
