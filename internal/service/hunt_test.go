package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bounty-tracker/internal/achievement"
	"bounty-tracker/internal/config"
	"bounty-tracker/internal/model"
)

type huntFixture struct {
	store   *memStore
	svc     *HuntService
	awards  *recordingAwarder
	values  *recordingInvalidator
	creator *model.User
}

func newHuntFixture(t *testing.T, maxActive int) *huntFixture {
	t.Helper()
	m := newMemStore()
	f := &huntFixture{
		store:   m,
		awards:  &recordingAwarder{},
		values:  &recordingInvalidator{},
		creator: m.addUser("creator", model.UserStats{}),
	}
	f.svc = NewHuntService(memBounties{m}, memHunters{m}, memUsers{m}, f.values, f.awards,
		config.BountyConfig{MaxActiveHunts: maxActive})
	return f
}

func (f *huntFixture) bounty(target string, status model.BountyStatus) *model.Bounty {
	return f.store.addBounty(target, f.creator.ID, status, time.Now().Add(time.Hour))
}

func TestJoin_FiresHuntJoined(t *testing.T) {
	f := newHuntFixture(t, 3)
	hunter := f.store.addUser("hunter", model.UserStats{HuntsJoined: 4})
	b := f.bounty("rat", model.BountyActive)
	f.awards.reply = []string{"Hunter Initiate"}

	res, err := f.svc.Join(context.Background(), b.ID, hunter.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, res.Participation.BountyID)
	assert.Equal(t, []string{"Hunter Initiate"}, res.Achievements)

	require.Len(t, f.awards.events, 1)
	ev, ok := f.awards.events[0].(achievement.HuntJoined)
	require.True(t, ok)
	assert.Equal(t, hunter.ID, ev.UserID)
	assert.Equal(t, int64(5), ev.TotalHuntsJoined)

	assert.Equal(t, []string{"rat"}, f.values.targets)
	assert.Equal(t, int64(5), f.store.stats(hunter.ID).HuntsJoined)
}

func TestJoin_Rejections(t *testing.T) {
	f := newHuntFixture(t, 3)
	hunter := f.store.addUser("hunter", model.UserStats{})
	ctx := context.Background()

	closed := f.bounty("rat", model.BountyCompleted)
	_, err := f.svc.Join(ctx, closed.ID, hunter.ID)
	assert.ErrorIs(t, err, ErrBountyNotActive)

	open := f.bounty("rat", model.BountyActive)
	_, err = f.svc.Join(ctx, open.ID, hunter.ID)
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, open.ID, hunter.ID)
	assert.ErrorIs(t, err, ErrAlreadyHunting)

	_, err = f.svc.Join(ctx, f.creator.ID, hunter.ID)
	assert.ErrorIs(t, err, ErrBountyNotFound)

	// Only the successful join fired an event.
	assert.Len(t, f.awards.events, 1)
}

func TestJoin_ActiveHuntLimit(t *testing.T) {
	f := newHuntFixture(t, 3)
	hunter := f.store.addUser("hunter", model.UserStats{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Join(ctx, f.bounty("rat", model.BountyActive).ID, hunter.ID)
		require.NoError(t, err)
	}
	ok, err := f.svc.CanJoin(ctx, hunter.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	fourth := f.bounty("rat", model.BountyActive)
	_, err = f.svc.Join(ctx, fourth.ID, hunter.ID)
	assert.ErrorIs(t, err, ErrHuntLimitReached)

	// Hunts on closed bounties do not count toward the limit.
	f.store.addHunt(f.bounty("old", model.BountyExpired).ID, hunter.ID, time.Now())
	hunts, err := f.svc.ActiveHunts(ctx, hunter.ID)
	require.NoError(t, err)
	assert.Len(t, hunts, 3)
}

func TestJoin_ConcurrentRespectsLimit(t *testing.T) {
	f := newHuntFixture(t, 2)
	hunter := f.store.addUser("hunter", model.UserStats{})

	const bounties = 6
	var wg sync.WaitGroup
	errs := make([]error, bounties)
	wg.Add(bounties)
	for i := 0; i < bounties; i++ {
		b := f.bounty("rat", model.BountyActive)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Join(context.Background(), b.ID, hunter.ID)
		}(i)
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
			continue
		}
		assert.ErrorIs(t, err, ErrHuntLimitReached)
	}
	assert.Equal(t, 2, joined)
}

func TestJoin_CounterFailureSkipsEvent(t *testing.T) {
	f := newHuntFixture(t, 3)
	hunter := f.store.addUser("hunter", model.UserStats{})
	b := f.bounty("rat", model.BountyActive)
	f.store.setFail("IncrementCounter", true)

	res, err := f.svc.Join(context.Background(), b.ID, hunter.ID)
	require.NoError(t, err)
	assert.NotNil(t, res.Participation)
	assert.Empty(t, f.awards.events)
}

func TestLeave(t *testing.T) {
	f := newHuntFixture(t, 3)
	hunter := f.store.addUser("hunter", model.UserStats{})
	b := f.bounty("rat", model.BountyActive)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Leave(ctx, b.ID, hunter.ID), ErrNotHunting)

	_, err := f.svc.Join(ctx, b.ID, hunter.ID)
	require.NoError(t, err)
	n, err := f.svc.HunterCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, f.svc.Leave(ctx, b.ID, hunter.ID))
	hunting, err := f.svc.IsHunting(ctx, b.ID, hunter.ID)
	require.NoError(t, err)
	assert.False(t, hunting)
	assert.Equal(t, []string{"rat", "rat"}, f.values.targets)
}
