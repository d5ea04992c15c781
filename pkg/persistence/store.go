package persistence

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/shardctl/controller/pkg/shard"
	"github.com/shardctl/controller/pkg/shardtypes"
)

var (
	bucketGenerations = []byte("generations")
	bucketShards      = []byte("shards")
	bucketObserved    = []byte("observed")
)

// Store is a BoltDB-backed implementation of shard.Persistence plus the
// per-shard identity/policy/config and observed-state storage the
// controller needs to rebuild its in-memory state at startup.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the database file under dataDir and
// ensures every bucket this package needs exists.
func Open(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "shardctl.db")

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open persistence store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketGenerations, bucketShards, bucketObserved} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func generationKey(id shardtypes.TenantShardId) []byte {
	return []byte(id.String())
}

// IncrementGeneration implements shard.Persistence: it atomically reads
// the shard's last durable generation, writes current+1, and returns it.
// A shard never seen before starts from generation 0.
func (s *Store) IncrementGeneration(_ context.Context, id shardtypes.TenantShardId) (shardtypes.Generation, error) {
	var next shardtypes.Generation
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketGenerations)
		key := generationKey(id)

		var current shardtypes.Generation
		if data := b.Get(key); data != nil {
			current = shardtypes.Generation(binary.BigEndian.Uint32(data))
		}
		next = current + 1

		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(next))
		return b.Put(key, buf)
	})
	if err != nil {
		return 0, fmt.Errorf("increment generation for %s: %w", id, err)
	}
	return next, nil
}

// LastGeneration reads the most recently recorded generation for id
// without advancing it, for use at startup before any reconcile has run.
func (s *Store) LastGeneration(id shardtypes.TenantShardId) (shardtypes.Generation, bool, error) {
	var gen shardtypes.Generation
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketGenerations)
		data := b.Get(generationKey(id))
		if data == nil {
			return nil
		}
		found = true
		gen = shardtypes.Generation(binary.BigEndian.Uint32(data))
		return nil
	})
	return gen, found, err
}

// shardRecord is the durable form of a shard's identity, geometry,
// placement policy, and tenant configuration - everything needed to
// recreate a TenantShard at startup, short of its Observed state. Id is
// carried in the value (not just the key) so ListShards never has to
// reparse a TenantShardId back out of its string form.
type shardRecord struct {
	Id     shardtypes.TenantShardId
	Shard  shardtypes.ShardIdentity
	Policy shardtypes.PlacementPolicy
	Config shardtypes.TenantConfig
}

func shardKey(id shardtypes.TenantShardId) []byte {
	return []byte(id.String())
}

// SaveShard persists a shard's geometry, placement policy, and tenant
// configuration, overwriting whatever was previously recorded for id.
func (s *Store) SaveShard(id shardtypes.TenantShardId, identity shardtypes.ShardIdentity, policy shardtypes.PlacementPolicy, cfg shardtypes.TenantConfig) error {
	data, err := json.Marshal(shardRecord{Id: id, Shard: identity, Policy: policy, Config: cfg})
	if err != nil {
		return fmt.Errorf("marshal shard record for %s: %w", id, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketShards).Put(shardKey(id), data)
	})
}

// LoadShard reads back a shard's geometry, placement policy, and tenant
// configuration.
func (s *Store) LoadShard(id shardtypes.TenantShardId) (shardtypes.ShardIdentity, shardtypes.PlacementPolicy, shardtypes.TenantConfig, bool, error) {
	var rec shardRecord
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketShards).Get(shardKey(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	return rec.Shard, rec.Policy, rec.Config, found, err
}

// ListShards returns every shard id with a persisted record.
func (s *Store) ListShards() ([]shardtypes.TenantShardId, error) {
	var ids []shardtypes.TenantShardId
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketShards)
		return b.ForEach(func(_, v []byte) error {
			var rec shardRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			ids = append(ids, rec.Id)
			return nil
		})
	})
	return ids, err
}

// SaveObserved persists a shard's observed node-configuration state, so a
// restarted controller can seed IntentState from it via
// shard.TenantShard.IntentFromObserved rather than starting blind.
func (s *Store) SaveObserved(id shardtypes.TenantShardId, observed shard.ObservedState) error {
	data, err := json.Marshal(observed.Locations)
	if err != nil {
		return fmt.Errorf("marshal observed state for %s: %w", id, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketObserved).Put(shardKey(id), data)
	})
}

// LoadObserved reads back a shard's last-persisted observed state.
func (s *Store) LoadObserved(id shardtypes.TenantShardId) (shard.ObservedState, bool, error) {
	observed := shard.NewObservedState()
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketObserved).Get(shardKey(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &observed.Locations)
	})
	return observed, found, err
}
