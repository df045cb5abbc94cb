package game

import (
	"context"
	"sort"
	"sync"

	"prodbot/internal/store"
)

// memStore is an in-memory Store with the same clamping and upsert
// behavior as the Postgres implementation.
type memStore struct {
	mu       sync.Mutex
	tokens   map[int64]int64
	points   map[int64]*store.PointRecord
	settings map[string]string
	wallets  map[int64]string
}

func newMemStore() *memStore {
	return &memStore{
		tokens:   make(map[int64]int64),
		points:   make(map[int64]*store.PointRecord),
		settings: make(map[string]string),
		wallets:  make(map[int64]string),
	}
}

func (m *memStore) TokenBalance(_ context.Context, userID int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.tokens[userID]
	return balance, ok, nil
}

func (m *memStore) AddTokens(_ context.Context, userID, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] += amount
	return m.tokens[userID], nil
}

func (m *memStore) RemoveTokens(_ context.Context, userID, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.tokens[userID] - amount
	if next < 0 {
		next = 0
	}
	m.tokens[userID] = next
	return next, nil
}

func (m *memStore) TransferTokens(_ context.Context, winnerID, loserID, amount int64) (store.TransferResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out store.TransferResult
	m.tokens[winnerID] += amount
	before := m.tokens[loserID]
	if before < amount {
		out.Shortfall = amount - before
	}
	next := before - amount
	if next < 0 {
		next = 0
	}
	m.tokens[loserID] = next
	out.WinnerBalance = m.tokens[winnerID]
	out.LoserBalance = next
	return out, nil
}

func (m *memStore) TopTokens(_ context.Context, n int) ([]store.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]store.LeaderboardEntry, 0, len(m.tokens))
	for id, balance := range m.tokens {
		if balance > 0 {
			entries = append(entries, store.LeaderboardEntry{UserID: id, Score: balance})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (m *memStore) PointRecord(_ context.Context, userID int64) (store.PointRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.points[userID]
	if !ok {
		return store.PointRecord{}, false, nil
	}
	return *rec, true, nil
}

func (m *memStore) AddPoints(_ context.Context, userID, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.pointRecordLocked(userID)
	rec.Score += amount
	return rec.Score, nil
}

func (m *memStore) RemovePoints(_ context.Context, userID, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.pointRecordLocked(userID)
	rec.Score -= amount
	if rec.Score < 0 {
		rec.Score = 0
	}
	return rec.Score, nil
}

func (m *memStore) SetPointScore(_ context.Context, userID, score int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pointRecordLocked(userID).Score = score
	return nil
}

func (m *memStore) ListPointRecords(_ context.Context) ([]store.PointRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.PointRecord, 0, len(m.points))
	for _, rec := range m.points {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memStore) TopPoints(_ context.Context, n int) ([]store.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]store.LeaderboardEntry, 0, len(m.points))
	for id, rec := range m.points {
		if rec.Score > 0 {
			entries = append(entries, store.LeaderboardEntry{UserID: id, Score: rec.Score})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (m *memStore) IncrementSeasonsPlayed(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var affected int64
	for _, rec := range m.points {
		if rec.Score > 0 {
			rec.SeasonsPlayed++
			affected++
		}
	}
	return affected, nil
}

func (m *memStore) IncrementTopFinishes(_ context.Context, userIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		m.pointRecordLocked(id).Top30Finishes++
	}
	return nil
}

func (m *memStore) ZeroPointScores(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.points {
		rec.Score = 0
	}
	return nil
}

func (m *memStore) Setting(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *memStore) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *memStore) Wallet(_ context.Context, userID int64) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr, ok := m.wallets[userID]
	return addr, ok, nil
}

func (m *memStore) InsertWallet(_ context.Context, userID int64, address string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.wallets[userID]; exists {
		return false, nil
	}
	m.wallets[userID] = address
	return true, nil
}

func (m *memStore) UpdateWallet(_ context.Context, userID int64, address string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.wallets[userID]; !exists {
		return false, nil
	}
	m.wallets[userID] = address
	return true, nil
}

func (m *memStore) pointRecordLocked(userID int64) *store.PointRecord {
	rec, ok := m.points[userID]
	if !ok {
		rec = &store.PointRecord{UserID: userID}
		m.points[userID] = rec
	}
	return rec
}

func newTestService() (*Service, *memStore) {
	st := newMemStore()
	return NewService(st, nil, nil), st
}
