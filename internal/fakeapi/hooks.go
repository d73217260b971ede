package fakeapi

import (
	"time"
)

// The methods below drive the backend from tests and local tooling.

// ExpireAccessTokens revokes every access token issued so far. Refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.lock.Lock()
	s.generation++
	s.lock.Unlock()
}

// FailRefresh makes the refresh endpoint reject every request while on is true.
func (s *Server) FailRefresh(on bool) {
	s.failRefresh.Store(on)
}

// SetRefreshDelay holds each refresh request for d before answering.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.refreshDelay.Store(int64(d))
}

func (s *Server) LoginCalls() int64 {
	return s.loginCalls.Load()
}

func (s *Server) RefreshCalls() int64 {
	return s.refreshCalls.Load()
}

// Emails returns a copy of every message accepted so far.
func (s *Server) Emails() []SentEmail {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]SentEmail(nil), s.emails...)
}

// Seed inserts records into a collection without validation and returns their ids.
func (s *Server) Seed(name string, records ...map[string]any) []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		copied := make(record, len(rec))
		for k, v := range rec {
			copied[k] = v
		}
		ids = append(ids, str(c.insert(copied)[c.idField]))
	}
	return ids
}

// Record returns a copy of one stored record.
func (s *Server) Record(name, id string) (map[string]any, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, false
	}
	i := c.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return public(c.items[i]), true
}

// Count returns the number of records in a collection.
func (s *Server) Count(name string) int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.items)
	}
	return 0
}

// POD returns the stored proof-of-delivery file for an invoice.
func (s *Server) POD(invoiceID string) ([]byte, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	pod, ok := s.pods[invoiceID]
	return pod.data, ok
}
