package store

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/blockberries/relayrefund/chainstate"
	"github.com/blockberries/relayrefund/types"
)

// Compile-time interface check.
var _ chainstate.Backend = (*TrackerStore)(nil)

const (
	trackerKeyPrefix = "tracker:"
	bestKey          = trackerKeyPrefix + "best"
	paraKeyPrefix    = trackerKeyPrefix + "para:"
	laneKeyPrefix    = trackerKeyPrefix + "lane:"
)

// TrackerStore persists bridge trackers in the ledger's database,
// under the "tracker:" prefix. Values are cramberry encoded.
type TrackerStore struct {
	db *leveldb.DB
}

// Trackers returns the tracker store sharing l's database.
func (l *LevelDBLedger) Trackers() *TrackerStore {
	return &TrackerStore{db: l.db}
}

// LoadTrackers reads every stored tracker. It returns false if the
// database holds none.
func (s *TrackerStore) LoadTrackers() (chainstate.Trackers, bool, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(trackerKeyPrefix)), nil)
	defer iter.Release()

	t := chainstate.NewTrackers()
	found := false
	for iter.Next() {
		found = true
		key, val := iter.Key(), iter.Value()
		switch {
		case string(key) == bestKey:
			var h types.Header
			if err := cramberry.Unmarshal(val, &h); err != nil {
				return t, false, fmt.Errorf("decode best header: %w", err)
			}
			t.Best = &h
		case bytes.HasPrefix(key, []byte(paraKeyPrefix)):
			id := key[len(paraKeyPrefix):]
			if len(id) != 4 {
				return t, false, fmt.Errorf("corrupt parachain key %x", key)
			}
			var info types.ParaInfo
			if err := cramberry.Unmarshal(val, &info); err != nil {
				return t, false, fmt.Errorf("decode parachain %x: %w", id, err)
			}
			t.Paras[types.ParaID(binary.BigEndian.Uint32(id))] = info
		case bytes.HasPrefix(key, []byte(laneKeyPrefix)):
			var lane types.LaneID
			if len(key)-len(laneKeyPrefix) != len(lane) {
				return t, false, fmt.Errorf("corrupt lane key %x", key)
			}
			copy(lane[:], key[len(laneKeyPrefix):])
			var data types.InboundLaneData
			if err := cramberry.Unmarshal(val, &data); err != nil {
				return t, false, fmt.Errorf("decode lane %s: %w", lane, err)
			}
			t.Lanes[lane] = data
		default:
			return t, false, fmt.Errorf("unknown tracker key %q", key)
		}
	}
	if err := iter.Error(); err != nil {
		return t, false, fmt.Errorf("iterate trackers: %w", err)
	}
	return t, found, nil
}

// SaveTrackers writes t in one synced batch. Trackers never forget a
// parachain or lane, so nothing is deleted.
func (s *TrackerStore) SaveTrackers(t chainstate.Trackers) error {
	batch := new(leveldb.Batch)
	if t.Best != nil {
		val, err := cramberry.Marshal(*t.Best)
		if err != nil {
			return fmt.Errorf("encode best header: %w", err)
		}
		batch.Put([]byte(bestKey), val)
	}
	for id, info := range t.Paras {
		val, err := cramberry.Marshal(info)
		if err != nil {
			return fmt.Errorf("encode parachain %d: %w", id, err)
		}
		batch.Put(paraKey(id), val)
	}
	for lane, data := range t.Lanes {
		val, err := cramberry.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode lane %s: %w", lane, err)
		}
		batch.Put(laneKey(lane), val)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("write trackers: %w", err)
	}
	return nil
}

func paraKey(id types.ParaID) []byte {
	key := make([]byte, len(paraKeyPrefix)+4)
	copy(key, paraKeyPrefix)
	binary.BigEndian.PutUint32(key[len(paraKeyPrefix):], uint32(id))
	return key
}

func laneKey(lane types.LaneID) []byte {
	key := make([]byte, 0, len(laneKeyPrefix)+len(lane))
	key = append(key, laneKeyPrefix...)
	return append(key, lane[:]...)
}
