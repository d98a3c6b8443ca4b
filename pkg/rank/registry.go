package rank

import (
	"fmt"
	"sort"
	"sync"
)

// Registry resolves ranks against the system catalog plus any ranks created
// at runtime. System ranks always win a lookup; a created rank cannot shadow
// one. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	created map[string]Rank
}

// NewRegistry returns a registry holding only the system catalog.
func NewRegistry() *Registry {
	return &Registry{created: make(map[string]Rank)}
}

// Lookup resolves a rank ID to its definition.
func (r *Registry) Lookup(rankID string) (Rank, bool) {
	if sys, ok := SystemRank(rankID); ok {
		return sys, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	created, ok := r.created[rankID]
	return created, ok
}

// Create synthesizes and registers a new non-system rank.
func (r *Registry) Create(in CreateRankInput) (Rank, error) {
	if in.Name == "" {
		return Rank{}, fmt.Errorf("rank name is required")
	}
	if in.Level < 0 {
		return Rank{}, fmt.Errorf("rank level must not be negative")
	}
	if in.Level == AdminLevel {
		return Rank{}, fmt.Errorf("level %d is reserved for the administrator rank", AdminLevel)
	}

	created := CreateRank(in)

	r.mu.Lock()
	r.created[created.ID] = created
	r.mu.Unlock()

	return created, nil
}

// All returns every known rank, system first, ordered by level then name.
func (r *Registry) All() []Rank {
	ranks := SystemRanks()

	r.mu.RLock()
	for _, created := range r.created {
		ranks = append(ranks, created)
	}
	r.mu.RUnlock()

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Level != ranks[j].Level {
			return ranks[i].Level < ranks[j].Level
		}
		return ranks[i].Name < ranks[j].Name
	})
	return ranks
}
