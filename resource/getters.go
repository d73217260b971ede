package resource

// Items returns a copy of the collection.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get looks id up in the collection.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

func (s *Store[T]) Detail() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.detail == nil {
		var zero T
		return zero, false
	}
	return *s.detail, true
}

// ClearDetail empties the detail slot, as when navigating away from a record.
func (s *Store[T]) ClearDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detail = nil
}

func (s *Store[T]) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *Store[T]) Pagination() *Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pagination == nil {
		return nil
	}
	p := *s.pagination
	return &p
}

// Query is the query of the latest FetchList, after defaults and page reset.
func (s *Store[T]) Query() Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query.Clone()
}

// LastApplied is the query of the latest successful FetchList.
func (s *Store[T]) LastApplied() (Query, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastApplied == nil {
		return Query{}, false
	}
	return s.lastApplied.Clone(), true
}

func (s *Store[T]) Loading(op Op) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[op] > 0
}

func (s *Store[T]) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.loading {
		if n > 0 {
			return true
		}
	}
	return false
}

// Err is the message of the last failed operation, or "".
func (s *Store[T]) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// ReplaceItems sets the collection and total directly, for domain listings
// served by endpoints without a standard envelope.
func (s *Store[T]) ReplaceItems(items []T, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items == nil {
		items = []T{}
	}
	s.items = items
	s.total = max(0, total)
}

// PatchItems applies fn to every record in place and returns how many it changed.
// The detail slot is patched too when fn changes it.
func (s *Store[T]) PatchItems(fn func(item *T) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for i := range s.items {
		if fn(&s.items[i]) {
			changed++
		}
	}
	if s.detail != nil {
		d := *s.detail
		if fn(&d) {
			s.detail = &d
		}
	}
	return changed
}
