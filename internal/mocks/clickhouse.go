package mocks

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
)

// MockADPSource stands in for the ClickHouse ADP aggregation in development.
// Each sync nudges every base ADP by a deterministic drift so the board
// visibly moves without an analytics cluster.
type MockADPSource struct {
	mu    sync.Mutex
	base  map[string]float64
	round int
}

// NewMockADPSource creates a mock source seeded from base (playerID to ADP)
func NewMockADPSource(base map[string]float64) *MockADPSource {
	logger.Info("Using MOCK ClickHouse ADP source for local development", "players", len(base))

	cp := make(map[string]float64, len(base))
	for id, adp := range base {
		cp[id] = adp
	}
	return &MockADPSource{base: cp}
}

// GetADP returns the current mock ADP for one player
func (m *MockADPSource) GetADP(_ context.Context, playerID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	base, ok := m.base[playerID]
	if !ok {
		return 0, nil
	}
	return drift(playerID, base, m.round), nil
}

// GetAllADP returns the current mock ADP for every player
func (m *MockADPSource) GetAllADP(_ context.Context) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]float64, len(m.base))
	for id, base := range m.base {
		out[id] = drift(id, base, m.round)
	}
	return out, nil
}

// SyncADP advances the drift and pushes the new values
func (m *MockADPSource) SyncADP(ctx context.Context, update func(map[string]float64) error) error {
	m.mu.Lock()
	m.round++
	m.mu.Unlock()

	adp, err := m.GetAllADP(ctx)
	if err != nil {
		return err
	}
	if err := update(adp); err != nil {
		return err
	}
	logger.Debug("Mock ClickHouse: synced ADP", "players", len(adp))
	return nil
}

// Ping always succeeds
func (m *MockADPSource) Ping(context.Context) error { return nil }

// Close is a no-op for mock client
func (m *MockADPSource) Close() error { return nil }

// drift moves base by at most ±5% of itself, fixed for a given id and round
func drift(id string, base float64, round int) float64 {
	if round == 0 {
		return base
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	_, _ = h.Write([]byte{byte(round)})
	frac := float64(h.Sum32()%1001)/1000.0 - 0.5 // [-0.5, 0.5]
	v := base + base*0.1*frac
	if v < 1 {
		v = 1
	}
	return v
}
