package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bounty-tracker/internal/achievement"
	"bounty-tracker/internal/model"
	"bounty-tracker/internal/repository"
)

var errStoreDown = errors.New("store unavailable")

type huntKey struct {
	bounty uuid.UUID
	hunter uuid.UUID
}

// memStore is an in-memory stand-in for every repository. Setting an entry
// in fail makes the named method return errStoreDown.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*model.User
	bounties map[uuid.UUID]*model.Bounty
	hunts    map[huntKey]time.Time
	claims   map[uuid.UUID]*model.Claim
	catalog  []*model.Achievement
	earned   map[uuid.UUID]map[uuid.UUID]time.Time
	fail     map[string]bool
	calls    map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*model.User),
		bounties: make(map[uuid.UUID]*model.Bounty),
		hunts:    make(map[huntKey]time.Time),
		claims:   make(map[uuid.UUID]*model.Claim),
		earned:   make(map[uuid.UUID]map[uuid.UUID]time.Time),
		fail:     make(map[string]bool),
		calls:    make(map[string]int),
	}
}

func (m *memStore) enter(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
	if m.fail[method] {
		return errStoreDown
	}
	return nil
}

func (m *memStore) setFail(method string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[method] = fail
}

func (m *memStore) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *memStore) addUser(name string, stats model.UserStats) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{ID: uuid.New(), Username: name, GameRole: model.GameRoleBountyHunter, UserStats: stats, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addBounty(target string, creator uuid.UUID, status model.BountyStatus, expiresAt time.Time) *model.Bounty {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &model.Bounty{ID: uuid.New(), TargetGamertag: target, CreatedBy: creator, Status: status, CreatedAt: time.Now(), ExpiresAt: expiresAt}
	m.bounties[b.ID] = b
	return b
}

func (m *memStore) addHunt(bountyID, hunterID uuid.UUID, joinedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hunts[huntKey{bountyID, hunterID}] = joinedAt
}

func (m *memStore) seedCatalog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = nil
	for _, s := range achievement.SeedCatalog {
		m.catalog = append(m.catalog, seedToAchievement(s))
	}
	achievement.SortCatalog(m.catalog)
}

func seedToAchievement(s achievement.Seed) *model.Achievement {
	color := s.BadgeColor
	return &model.Achievement{
		ID:               uuid.New(),
		Name:             s.Name,
		Description:      s.Description,
		Icon:             s.Icon,
		Category:         s.Category,
		RequirementType:  s.RequirementType,
		RequirementValue: achievement.Int64(s.RequirementValue),
		BadgeColor:       &color,
		Rarity:           s.Rarity,
		PointsReward:     s.PointsReward,
		CreatedAt:        time.Now(),
	}
}

func (m *memStore) stats(id uuid.UUID) model.UserStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].UserStats
}

func (m *memStore) userCopy(id uuid.UUID) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// UserStore

type memUsers struct{ *memStore }

func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if err := m.enter("GetUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userCopy(id)
}

func (m memUsers) GetStats(_ context.Context, id uuid.UUID) (model.UserStats, error) {
	if err := m.enter("GetStats"); err != nil {
		return model.UserStats{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.userCopy(id)
	if err != nil {
		return model.UserStats{}, err
	}
	return u.UserStats, nil
}

func (m memUsers) IncrementCounter(_ context.Context, id uuid.UUID, counter model.Counter, delta int64) (int64, error) {
	if err := m.enter("IncrementCounter"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	return incrementStat(&u.UserStats, counter, delta)
}

func incrementStat(s *model.UserStats, counter model.Counter, delta int64) (int64, error) {
	var field *int64
	switch counter {
	case model.CounterTotalPoints:
		field = &s.TotalPoints
	case model.CounterBountiesCompleted:
		field = &s.BountiesCompleted
	case model.CounterBountiesCreated:
		field = &s.BountiesCreated
	case model.CounterHuntsJoined:
		field = &s.HuntsJoined
	case model.CounterAchievementsEarned:
		field = &s.AchievementsEarned
	case model.CounterKillCount:
		field = &s.KillCount
	default:
		return 0, repository.ErrInvalidCounter
	}
	*field += delta
	return *field, nil
}

func (m memUsers) sortedUsers(less func(a, b *model.User) bool, limit int) []*model.User {
	users := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return less(users[i], users[j]) })
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users
}

func byPoints(a, b *model.User) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	return a.ID.String() < b.ID.String()
}

func (m memUsers) TopByPoints(_ context.Context, limit int) ([]*model.User, error) {
	if err := m.enter("TopByPoints"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedUsers(byPoints, limit), nil
}

func (m memUsers) TopKillers(_ context.Context, limit int) ([]*model.User, error) {
	if err := m.enter("TopKillers"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedUsers(func(a, b *model.User) bool {
		if a.KillCount != b.KillCount {
			return a.KillCount > b.KillCount
		}
		return a.ID.String() < b.ID.String()
	}, limit), nil
}

func (m memUsers) LeaderboardRank(_ context.Context, id uuid.UUID) (int, error) {
	if err := m.enter("LeaderboardRank"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.sortedUsers(byPoints, 0) {
		if u.ID == id {
			return i + 1, nil
		}
	}
	return 0, repository.ErrUserNotFound
}

// BountyStore

type memBounties struct{ *memStore }

func (m memBounties) Create(_ context.Context, b *model.Bounty) (*model.Bounty, error) {
	if err := m.enter("CreateBounty"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[b.CreatedBy]; !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *b
	cp.ID = uuid.New()
	cp.Status = model.BountyActive
	cp.CreatedAt = time.Now()
	m.bounties[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m memBounties) GetByID(_ context.Context, id uuid.UUID) (*model.Bounty, error) {
	if err := m.enter("GetBounty"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bounties[id]
	if !ok {
		return nil, repository.ErrBountyNotFound
	}
	cp := *b
	return &cp, nil
}

func (m memBounties) active() []*model.Bounty {
	var out []*model.Bounty
	for _, b := range m.bounties {
		if b.Status == model.BountyActive {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (m memBounties) ListActive(_ context.Context) ([]*model.Bounty, error) {
	if err := m.enter("ListActive"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active(), nil
}

func (m memBounties) ActiveTargets(_ context.Context) ([]*model.MostWanted, error) {
	if err := m.enter("ActiveTargets"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	byTarget := make(map[string]*model.MostWanted)
	hunters := make(map[string]map[uuid.UUID]struct{})
	for _, b := range m.active() {
		mw, ok := byTarget[b.TargetGamertag]
		if !ok {
			mw = &model.MostWanted{TargetGamertag: b.TargetGamertag}
			byTarget[b.TargetGamertag] = mw
			hunters[b.TargetGamertag] = make(map[uuid.UUID]struct{})
		}
		mw.BountyCount++
		for k := range m.hunts {
			if k.bounty == b.ID {
				hunters[b.TargetGamertag][k.hunter] = struct{}{}
			}
		}
	}

	out := make([]*model.MostWanted, 0, len(byTarget))
	for target, mw := range byTarget {
		mw.HunterCount = len(hunters[target])
		out = append(out, mw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetGamertag < out[j].TargetGamertag })
	return out, nil
}

func (m memBounties) ExpireDue(_ context.Context, now time.Time) ([]*model.Bounty, error) {
	if err := m.enter("ExpireDue"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Bounty
	for _, b := range m.bounties {
		if b.Status == model.BountyActive && b.ExpiresAt.Before(now) {
			b.Status = model.BountyExpired
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memBounties) Extend(_ context.Context, id uuid.UUID, d time.Duration) (*model.Bounty, error) {
	if err := m.enter("Extend"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bounties[id]
	if !ok {
		return nil, repository.ErrBountyNotFound
	}
	if b.Status != model.BountyActive {
		return nil, repository.ErrBountyNotActive
	}
	b.ExpiresAt = b.ExpiresAt.Add(d)
	cp := *b
	return &cp, nil
}

// HunterStore

type memHunters struct{ *memStore }

func (m memHunters) Join(_ context.Context, bountyID, hunterID uuid.UUID) (*model.HunterParticipation, error) {
	if err := m.enter("Join"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bounties[bountyID]; !ok {
		return nil, repository.ErrBountyNotFound
	}
	k := huntKey{bountyID, hunterID}
	if _, ok := m.hunts[k]; ok {
		return nil, repository.ErrAlreadyHunting
	}
	now := time.Now()
	m.hunts[k] = now
	return &model.HunterParticipation{BountyID: bountyID, HunterID: hunterID, JoinedAt: now}, nil
}

func (m memHunters) Leave(_ context.Context, bountyID, hunterID uuid.UUID) error {
	if err := m.enter("Leave"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := huntKey{bountyID, hunterID}
	if _, ok := m.hunts[k]; !ok {
		return repository.ErrNotHunting
	}
	delete(m.hunts, k)
	return nil
}

func (m memHunters) IsHunting(_ context.Context, bountyID, hunterID uuid.UUID) (bool, error) {
	if err := m.enter("IsHunting"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.hunts[huntKey{bountyID, hunterID}]
	return ok, nil
}

func (m memHunters) JoinedAt(_ context.Context, bountyID, hunterID uuid.UUID) (time.Time, error) {
	if err := m.enter("JoinedAt"); err != nil {
		return time.Time{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.hunts[huntKey{bountyID, hunterID}]
	if !ok {
		return time.Time{}, repository.ErrNotHunting
	}
	return t, nil
}

func (m memHunters) CountForBounty(_ context.Context, bountyID uuid.UUID) (int, error) {
	if err := m.enter("CountForBounty"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.hunts {
		if k.bounty == bountyID {
			n++
		}
	}
	return n, nil
}

func (m memHunters) activeFor(hunterID uuid.UUID) []*model.Bounty {
	var out []*model.Bounty
	for k := range m.hunts {
		if k.hunter != hunterID {
			continue
		}
		if b, ok := m.bounties[k.bounty]; ok && b.Status == model.BountyActive {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

func (m memHunters) CountActiveForHunter(_ context.Context, hunterID uuid.UUID) (int, error) {
	if err := m.enter("CountActiveForHunter"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activeFor(hunterID)), nil
}

func (m memHunters) ActiveHunterIDsForTarget(_ context.Context, target string) ([]uuid.UUID, error) {
	if err := m.enter("ActiveHunterIDsForTarget"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for k := range m.hunts {
		b, ok := m.bounties[k.bounty]
		if !ok || b.Status != model.BountyActive || b.TargetGamertag != target {
			continue
		}
		if _, dup := seen[k.hunter]; dup {
			continue
		}
		seen[k.hunter] = struct{}{}
		ids = append(ids, k.hunter)
	}
	return ids, nil
}

func (m memHunters) ActiveHunts(_ context.Context, hunterID uuid.UUID) ([]*model.Bounty, error) {
	if err := m.enter("ActiveHunts"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeFor(hunterID), nil
}

// ClaimStore

type memClaims struct{ *memStore }

func (m memClaims) Create(_ context.Context, bountyID, hunterID uuid.UUID, screenshotURL string) (*model.Claim, error) {
	if err := m.enter("CreateClaim"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &model.Claim{
		ID:                 uuid.New(),
		BountyID:           bountyID,
		HunterID:           hunterID,
		ScreenshotURL:      screenshotURL,
		VerificationStatus: model.ClaimPending,
		ClaimedAt:          time.Now(),
	}
	m.claims[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m memClaims) GetByID(_ context.Context, id uuid.UUID) (*model.Claim, error) {
	if err := m.enter("GetClaim"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, repository.ErrClaimNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memClaims) ListPending(_ context.Context, limit int) ([]*model.Claim, error) {
	if err := m.enter("ListPending"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Claim
	for _, c := range m.claims {
		if c.VerificationStatus == model.ClaimPending {
			cp := *c
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memClaims) pending(id uuid.UUID) (*model.Claim, error) {
	c, ok := m.claims[id]
	if !ok {
		return nil, repository.ErrClaimNotFound
	}
	if c.VerificationStatus != model.ClaimPending {
		return nil, repository.ErrClaimNotPending
	}
	return c, nil
}

func (m memClaims) Approve(_ context.Context, claimID, adminID uuid.UUID, points int64) (*model.Claim, error) {
	if err := m.enter("Approve"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.pending(claimID)
	if err != nil {
		return nil, err
	}
	b := m.bounties[c.BountyID]
	if b == nil || b.Status != model.BountyActive {
		return nil, repository.ErrBountyNotActive
	}
	u, ok := m.users[c.HunterID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	now := time.Now()
	b.Status = model.BountyCompleted
	u.TotalPoints += points
	u.BountiesCompleted++
	c.VerificationStatus = model.ClaimApproved
	c.VerifiedBy = &adminID
	c.PointsAwarded = points
	c.VerifiedAt = &now
	cp := *c
	return &cp, nil
}

func (m memClaims) Reject(_ context.Context, claimID, adminID uuid.UUID, reason string) (*model.Claim, error) {
	if err := m.enter("Reject"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.pending(claimID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	c.VerificationStatus = model.ClaimRejected
	c.VerifiedBy = &adminID
	c.RejectionReason = &reason
	c.VerifiedAt = &now
	cp := *c
	return &cp, nil
}

func (m memClaims) CountApprovedSince(_ context.Context, hunterID uuid.UUID, since time.Time) (int64, error) {
	if err := m.enter("CountApprovedSince"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.claims {
		if c.HunterID == hunterID && c.VerificationStatus == model.ClaimApproved &&
			c.VerifiedAt != nil && !c.VerifiedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// AchievementStore

type memAchievements struct{ *memStore }

func (m memAchievements) SeedCatalog(_ context.Context, seeds []achievement.Seed) (int, error) {
	if err := m.enter("SeedCatalog"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make(map[string]bool, len(m.catalog))
	for _, a := range m.catalog {
		names[a.Name] = true
	}
	n := 0
	for _, s := range seeds {
		if names[s.Name] {
			continue
		}
		names[s.Name] = true
		m.catalog = append(m.catalog, seedToAchievement(s))
		n++
	}
	achievement.SortCatalog(m.catalog)
	return n, nil
}

func (m memAchievements) ListCatalog(_ context.Context) ([]*model.Achievement, error) {
	if err := m.enter("ListCatalog"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Achievement(nil), m.catalog...), nil
}

func (m memAchievements) EarnedIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if err := m.enter("EarnedIDs"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id := range m.earned[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

// Award mirrors the unique-constraint no-op of the real store.
func (m memAchievements) Award(_ context.Context, userID uuid.UUID, a *model.Achievement) (bool, error) {
	if err := m.enter("Award"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, repository.ErrUserNotFound
	}
	if m.earned[userID] == nil {
		m.earned[userID] = make(map[uuid.UUID]time.Time)
	}
	if _, dup := m.earned[userID][a.ID]; dup {
		return false, nil
	}
	m.earned[userID][a.ID] = time.Now()
	u.TotalPoints += a.PointsReward
	u.AchievementsEarned++
	return true, nil
}

func (m memAchievements) userAchievements(filter func(uuid.UUID) bool) []*model.UserAchievement {
	byID := make(map[uuid.UUID]*model.Achievement, len(m.catalog))
	for _, a := range m.catalog {
		byID[a.ID] = a
	}
	var out []*model.UserAchievement
	for userID, earned := range m.earned {
		if !filter(userID) {
			continue
		}
		for achID, at := range earned {
			out = append(out, &model.UserAchievement{
				ID:            uuid.New(),
				UserID:        userID,
				AchievementID: achID,
				EarnedAt:      at,
				Achievement:   byID[achID],
				Username:      m.users[userID].Username,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EarnedAt.After(out[j].EarnedAt) })
	return out
}

func (m memAchievements) ListForUser(_ context.Context, userID uuid.UUID) ([]*model.UserAchievement, error) {
	if err := m.enter("ListForUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userAchievements(func(id uuid.UUID) bool { return id == userID }), nil
}

func (m memAchievements) Recent(_ context.Context, limit int) ([]*model.UserAchievement, error) {
	if err := m.enter("Recent"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.userAchievements(func(uuid.UUID) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recordingAwarder captures events instead of evaluating them.
type recordingAwarder struct {
	mu     sync.Mutex
	events []achievement.Event
	reply  []string
}

func (r *recordingAwarder) CheckAndAward(_ context.Context, ev achievement.Event) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.reply
}

func (r *recordingAwarder) kinds() []achievement.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]achievement.EventType, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind()
	}
	return kinds
}

// recordingInvalidator captures invalidated targets.
type recordingInvalidator struct {
	mu      sync.Mutex
	targets []string
}

func (r *recordingInvalidator) Invalidate(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, target)
}
