package workflow

import "sync"

// Store is the session-scoped map from finding index to ItemState. Each
// finding's state is read and written atomically; Update runs its function
// under the lock so read-modify-write never interleaves.
type Store struct {
	mu    sync.Mutex
	items map[int]ItemState
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{items: make(map[int]ItemState)}
}

// Get returns the state for index. Unknown indices are idle.
func (s *Store) Get(index int) ItemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(index)
}

// Set replaces the state for index.
func (s *Store) Set(index int, state ItemState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.FindingIndex = index
	s.items[index] = state.clone()
}

// Update applies fn to the current state and stores the result.
func (s *Store) Update(index int, fn func(ItemState) ItemState) ItemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.getLocked(index))
	next.FindingIndex = index
	s.items[index] = next.clone()
	return next.clone()
}

// Snapshot copies every stored state.
func (s *Store) Snapshot() map[int]ItemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]ItemState, len(s.items))
	for k, v := range s.items {
		out[k] = v.clone()
	}
	return out
}

func (s *Store) getLocked(index int) ItemState {
	state, ok := s.items[index]
	if !ok {
		return ItemState{FindingIndex: index, Status: StatusIdle}
	}
	return state.clone()
}
