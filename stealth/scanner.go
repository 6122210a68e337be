// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stealth

import (
	"sync"

	log "github.com/luxfi/log"
)

// Scanner is a stateful, host-side helper that walks a batch of published
// stealth records on behalf of one viewer and reports which ones are theirs.
// It exists outside the pure Component D primitives (Generate/Scan) the same
// way the teacher's ThresholdClient wraps a stateless protocol package with a
// logger and running counters; nothing in the verification path depends on
// it.
type Scanner struct {
	log log.Logger

	mu      sync.Mutex
	scanned uint64
	matched uint64
}

// NewScanner builds a Scanner. A nil logger is valid and means "don't log";
// callers that don't care about diagnostics can pass log.NewTestLogger or
// nil interchangeably.
func NewScanner(logger log.Logger) *Scanner {
	return &Scanner{log: logger}
}

// Match pairs a matched Record with the tag scalar recovered from it.
type Match struct {
	Record *Record
	Tag    *Scalar
}

// ScanBatch runs Scan against every record in turn, logging a debug line per
// miss and an info line per hit if a logger was supplied, and accumulating
// running totals retrievable via Stats.
func (s *Scanner) ScanBatch(records []*Record, viewSecret *Scalar, spendPub *Point) []Match {
	var matches []Match
	for _, r := range records {
		tag, err := Scan(r, viewSecret, spendPub)
		s.mu.Lock()
		s.scanned++
		s.mu.Unlock()

		if err != nil {
			if s.log != nil {
				s.log.Debug("stealth record did not match viewer")
			}
			continue
		}

		s.mu.Lock()
		s.matched++
		s.mu.Unlock()
		if s.log != nil {
			s.log.Info("stealth record matched viewer")
		}
		matches = append(matches, Match{Record: r, Tag: tag})
	}
	return matches
}

// Stats reports how many records this Scanner has examined and matched
// across all calls to ScanBatch.
func (s *Scanner) Stats() (scanned, matched uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanned, s.matched
}
