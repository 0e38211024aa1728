package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Memory is an in-process Sink used when no database is configured.
type Memory struct {
	mu     sync.Mutex
	nextID int
	games  map[string][]Game
	stats  map[string]Stats
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		games: make(map[string][]Game),
		stats: make(map[string]Stats),
		now:   time.Now,
	}
}

func (m *Memory) SaveGame(ctx context.Context, userID string, g GameSummary) (Game, error) {
	if err := validate(userID, g); err != nil {
		return Game{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	game := Game{
		ID:          strconv.Itoa(m.nextID),
		UserID:      userID,
		CreatedAt:   m.now().UTC(),
		GameSummary: g,
	}
	game.Moves = slices.Clone(g.Moves)
	m.games[userID] = append(m.games[userID], game)

	st, ok := m.stats[userID]
	if !ok {
		st = NewStats()
	}
	m.stats[userID] = st.Record(g.Result)
	return game, nil
}

// UserGames returns the newest games first.
func (m *Memory) UserGames(ctx context.Context, userID string, limit int) ([]Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	games := m.games[userID]
	out := make([]Game, 0, len(games))
	for i := len(games) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, games[i])
	}
	return out, nil
}

func (m *Memory) Stats(ctx context.Context, userID string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[userID]
	if !ok {
		return Stats{}, ErrNotFound
	}
	return st, nil
}

// Leaderboard orders users by rating, then by user id.
func (m *Memory) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	m.mu.Lock()
	users := maps.Keys(m.stats)
	out := make([]Standing, 0, len(users))
	for _, id := range users {
		out = append(out, Standing{UserID: id, Stats: m.stats[id]})
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b Standing) bool {
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.UserID < b.UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
