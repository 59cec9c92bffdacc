package core

import (
	"sync"
	"time"

	"book-catalogue/internal/core/model"
)

// State is the application state the loader writes and the query layer
// reads. Readers always get copies.
type State struct {
	mu       sync.RWMutex
	records  model.Collection
	genres   []string
	load     model.LoadState
	source   model.LoadSource
	report   model.CollectionReport
	message  model.StatusMessage
	loadedAt time.Time
}

// Snapshot is a consistent read-only view of State.
type Snapshot struct {
	Records  model.Collection
	Genres   []string
	Load     model.LoadState
	Source   model.LoadSource
	Report   model.CollectionReport
	Message  model.StatusMessage
	LoadedAt time.Time
}

func NewState() *State {
	return &State{load: model.StateIdle}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep := s.report
	rep.Records = nil
	rep.Errors = append([]string(nil), s.report.Errors...)
	return Snapshot{
		Records:  append(model.Collection(nil), s.records...),
		Genres:   append([]string(nil), s.genres...),
		Load:     s.load,
		Source:   s.source,
		Report:   rep,
		Message:  s.message,
		LoadedAt: s.loadedAt,
	}
}

func (s *State) LoadState() model.LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load
}

func (s *State) Source() model.LoadSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *State) Records() model.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(model.Collection(nil), s.records...)
}

// adopt replaces the active collection. Last writer wins.
func (s *State) adopt(rep model.CollectionReport, src model.LoadSource, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = rep.Records
	s.genres = Genres(rep.Records)
	s.report = rep
	s.source = src
	s.loadedAt = at
}

func (s *State) transition(to model.LoadState) model.LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.load
	s.load = to
	return from
}

func (s *State) setMessage(m model.StatusMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = m
}
