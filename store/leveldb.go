// Package store persists the reward ledger and the bridge trackers
// in one LevelDB database, each under its own key prefix.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/blockberries/relayrefund"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface check.
var _ relayrefund.RewardLedger = (*LevelDBLedger)(nil)

const rewardKeyPrefix = "reward:"

// LevelDBLedger is a RewardLedger persisted in LevelDB. Keys are
// "reward:" || relayer || lane, values big-endian balances.
type LevelDBLedger struct {
	// Serializes read-modify-write of a balance.
	mu sync.Mutex
	db *leveldb.DB
}

// OpenLevelDBLedger opens (or creates) a ledger database at path.
func OpenLevelDBLedger(path string) (*LevelDBLedger, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("leveldb ledger path required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve leveldb ledger path: %w", err)
	}
	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb ledger: %w", err)
	}
	return &LevelDBLedger{db: db}, nil
}

// NewMemLevelDBLedger creates a ledger on in-memory LevelDB storage.
func NewMemLevelDBLedger() (*LevelDBLedger, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open in-memory leveldb ledger: %w", err)
	}
	return &LevelDBLedger{db: db}, nil
}

// Close releases the underlying LevelDB resources.
func (l *LevelDBLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RegisterRelayerReward adds amount to the relayer's balance on lane.
// Zero amounts are ignored; balances saturate.
func (l *LevelDBLedger) RegisterRelayerReward(lane types.LaneID, relayer types.AccountID, amount types.Balance) error {
	if amount == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := rewardKey(relayer, lane)
	cur, _, err := l.get(key)
	if err != nil {
		return err
	}
	next := uint64(math.MaxUint64)
	if uint64(cur) <= math.MaxUint64-uint64(amount) {
		next = uint64(cur) + uint64(amount)
	}
	var val [8]byte
	binary.BigEndian.PutUint64(val[:], next)
	if err := l.db.Put(key, val[:], &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("store reward: %w", err)
	}
	return nil
}

// RelayerReward returns the relayer's balance on lane.
func (l *LevelDBLedger) RelayerReward(relayer types.AccountID, lane types.LaneID) (types.Balance, bool, error) {
	return l.get(rewardKey(relayer, lane))
}

// Entry is one ledger balance.
type Entry struct {
	Relayer types.AccountID
	Lane    types.LaneID
	Reward  types.Balance
}

// Entries returns every balance, ordered by relayer then lane.
func (l *LevelDBLedger) Entries() ([]Entry, error) {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(rewardKeyPrefix)), nil)
	defer iter.Release()

	var out []Entry
	for iter.Next() {
		key := iter.Key()[len(rewardKeyPrefix):]
		if len(key) != 32+4 || len(iter.Value()) != 8 {
			return nil, fmt.Errorf("corrupt reward entry %x", iter.Key())
		}
		var e Entry
		copy(e.Relayer[:], key[:32])
		copy(e.Lane[:], key[32:])
		e.Reward = types.Balance(binary.BigEndian.Uint64(iter.Value()))
		out = append(out, e)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate rewards: %w", err)
	}
	return out, nil
}

func (l *LevelDBLedger) get(key []byte) (types.Balance, bool, error) {
	val, err := l.db.Get(key, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("load reward: %w", err)
	}
	if len(val) != 8 {
		return 0, false, fmt.Errorf("corrupt reward value of %d bytes", len(val))
	}
	return types.Balance(binary.BigEndian.Uint64(val)), true, nil
}

func rewardKey(relayer types.AccountID, lane types.LaneID) []byte {
	key := make([]byte, 0, len(rewardKeyPrefix)+len(relayer)+len(lane))
	key = append(key, rewardKeyPrefix...)
	key = append(key, relayer[:]...)
	key = append(key, lane[:]...)
	return key
}
