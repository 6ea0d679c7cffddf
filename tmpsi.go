// Package tmpsi computes multi-party private set intersections over
// Paillier-encrypted Garbled Bloom Filters.
//
// Every contributing party turns its set into a filter whose members carry
// fresh encryptions of 1. The reference party queries each of its elements
// against every filter and runs secure comparisons on the encrypted shares,
// so that only the final membership verdict is ever decrypted. A strict
// round keeps the elements held by all contributors; a threshold round keeps
// those held by at least a given number of them.
//
// All parties live in the same process; a Session plays every role.
package tmpsi

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/niclabs/tmpsi/compare"
	"github.com/niclabs/tmpsi/gbf"
	"github.com/niclabs/tmpsi/logging"
	"github.com/niclabs/tmpsi/paillier"
)

// Party is a contributing party. ID and Version identify its set for the
// filter cache; an empty ID disables caching for the party.
type Party struct {
	ID       string
	Version  uint64
	Elements []*big.Int
}

// Stats describes the last round run by a Session.
type Stats struct {
	Mode          Mode
	Parties       int
	Elements      int
	Threshold     int
	FiltersBuilt  int
	FiltersCached int
	HelperQueries uint64
	Intersection  int
	Duration      time.Duration
}

// Session runs intersection rounds under one key pair. Rounds on the same
// Session are serialized.
type Session struct {
	cfg       Config
	kp        *paillier.KeyPair
	helper    *compare.KeyHolder
	initiator *compare.Initiator
	cache     *FilterCache
	logger    logging.Logger

	round   sync.Mutex
	statsMu sync.Mutex
	stats   Stats
}

// NewSession generates a fresh key pair of cfg.KeyBits bits and returns a
// Session around it.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	kp, err := paillier.GenerateKeyPair(cfg.KeyBits, cfg.RandSource)
	if err != nil {
		return nil, fmt.Errorf("tmpsi: generating key pair: %w", err)
	}
	return newSession(cfg, kp), nil
}

// NewSessionWithKeys returns a Session that reuses kp. cfg.KeyBits is
// replaced by the size of kp; cfg.Lambda defaults to
// gbf.DefaultLambdaFor(kp.PublicKey).
func NewSessionWithKeys(cfg Config, kp *paillier.KeyPair) (*Session, error) {
	if kp == nil || kp.PublicKey == nil || kp.PrivateKey == nil {
		return nil, fmt.Errorf("%w: incomplete key pair", ErrInvalidArgument)
	}
	if !kp.PublicKey.Compatible(kp.PrivateKey.PublicKey) {
		return nil, fmt.Errorf("%w: key pair halves do not match", paillier.ErrIncompatibleKey)
	}
	cfg.KeyBits = kp.PublicKey.BitLen()
	if cfg.Lambda == 0 {
		cfg.Lambda = gbf.DefaultLambdaFor(kp.PublicKey)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newSession(cfg.withDefaults(), kp), nil
}

func newSession(cfg Config, kp *paillier.KeyPair) *Session {
	helper := compare.NewKeyHolder(kp.PrivateKey)
	s := &Session{
		cfg:       cfg,
		kp:        kp,
		helper:    helper,
		initiator: compare.NewInitiator(kp.PublicKey, helper),
		logger:    cfg.Logger.With("component", "tmpsi"),
	}
	if cfg.CacheFilters {
		s.cache = NewFilterCache()
	}
	return s
}

// PublicKey returns the session key under which filters are built.
func (s *Session) PublicKey() *paillier.PublicKey {
	return s.kp.PublicKey
}

// Cache returns the filter cache, or nil if caching is off.
func (s *Session) Cache() *FilterCache {
	return s.cache
}

// Stats returns the statistics of the last finished round.
func (s *Session) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// Config returns the session configuration with defaults applied.
func (s *Session) Config() Config {
	return s.cfg
}
