// Package chainstate holds in-memory bridge trackers (relay chain
// finality, parachain heads, inbound message lanes), an in-memory
// reward ledger, and a dispatcher that executes bridge calls
// against them. Trackers can be persisted through a Backend.
package chainstate

import (
	"fmt"
	"sync"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface checks.
var (
	_ relayrefund.RelayChainFinality = (*State)(nil)
	_ relayrefund.ParachainFinality  = (*State)(nil)
	_ relayrefund.MessageLanes       = (*State)(nil)
)

// Trackers is the complete tracker state.
type Trackers struct {
	// Nil until the relay chain tracker is initialized.
	Best  *types.Header
	Paras map[types.ParaID]types.ParaInfo
	Lanes map[types.LaneID]types.InboundLaneData
}

// NewTrackers returns empty trackers.
func NewTrackers() Trackers {
	return Trackers{
		Paras: make(map[types.ParaID]types.ParaInfo),
		Lanes: make(map[types.LaneID]types.InboundLaneData),
	}
}

// Clone returns a deep copy.
func (t Trackers) Clone() Trackers {
	out := NewTrackers()
	if t.Best != nil {
		h := *t.Best
		out.Best = &h
	}
	for k, v := range t.Paras {
		out.Paras[k] = v
	}
	for k, v := range t.Lanes {
		out.Lanes[k] = v.Clone()
	}
	return out
}

// Backend stores trackers between restarts.
type Backend interface {
	// LoadTrackers returns false if nothing was ever saved.
	LoadTrackers() (Trackers, bool, error)
	SaveTrackers(Trackers) error
}

// State is the bridge tracker state. Reads see the last completed
// dispatch.
type State struct {
	mu      sync.RWMutex
	cur     Trackers
	backend Backend
}

// New creates an empty in-memory state. The relay chain tracker
// starts uninitialized.
func New() *State {
	return &State{cur: NewTrackers()}
}

// Open creates a state persisted through backend and reports whether
// backend already held trackers. Every successful dispatch is saved.
func Open(backend Backend) (*State, bool, error) {
	t, found, err := backend.LoadTrackers()
	if err != nil {
		return nil, false, fmt.Errorf("load trackers: %w", err)
	}
	s := &State{cur: NewTrackers(), backend: backend}
	if found {
		s.cur = t.Clone()
	}
	return s, found, nil
}

// Persist saves the current trackers. A state without a backend has
// nothing to do.
func (s *State) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.save()
}

func (s *State) save() error {
	if s.backend == nil {
		return nil
	}
	if err := s.backend.SaveTrackers(s.cur.Clone()); err != nil {
		return fmt.Errorf("save trackers: %w", err)
	}
	return nil
}

// BestFinalizedNumber returns the number of the best finalized relay
// chain header.
func (s *State) BestFinalizedNumber() (types.BlockNumber, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur.Best == nil {
		return 0, false
	}
	return s.cur.Best.Number, true
}

// BestParachainInfo returns what is known about the parachain head.
func (s *State) BestParachainInfo(id types.ParaID) (types.ParaInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.cur.Paras[id]
	return info, ok
}

// InboundLaneData returns a copy of the inbound lane.
func (s *State) InboundLaneData(lane types.LaneID) types.InboundLaneData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Lanes[lane].Clone()
}

// SetBestFinalized initializes or overrides the relay chain tracker.
func (s *State) SetBestFinalized(header types.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Best = &header
}

// SetParaInfo overrides what is known about a parachain.
func (s *State) SetParaInfo(id types.ParaID, info types.ParaInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Paras[id] = info
}

// SetInboundLane overrides an inbound lane.
func (s *State) SetInboundLane(lane types.LaneID, data types.InboundLaneData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Lanes[lane] = data.Clone()
}
