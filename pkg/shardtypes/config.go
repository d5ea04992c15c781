package shardtypes

// TenantConfig is an opaque configuration blob shared by all shards of a
// tenant and passed through unmodified to page servers. It is stored as a
// serialized document rather than parsed fields so that this module never
// needs to understand its contents - only compare them for equality when
// deciding whether a shard is dirty.
type TenantConfig struct {
	Raw string
}

// LocationConfigMode is the mode a page server should run a shard's
// location in.
type LocationConfigMode string

const (
	AttachedSingle LocationConfigMode = "AttachedSingle"
	AttachedMulti  LocationConfigMode = "AttachedMulti"
	AttachedStale  LocationConfigMode = "AttachedStale"
	SecondaryMode  LocationConfigMode = "Secondary"
	Detached       LocationConfigMode = "Detached"
)

// LocationConfig is what a page server should be told to run for a shard.
// It deliberately holds only comparable fields (no pointers, slices, or
// maps) so that two independently constructed values can be compared with
// == - this is exactly what TenantShard.dirty relies on.
type LocationConfig struct {
	Mode LocationConfigMode

	// Generation is only meaningful when HasGeneration is true (attached
	// modes). Secondary and Detached locations carry no generation.
	Generation    Generation
	HasGeneration bool

	Shard  ShardIdentity
	Config TenantConfig
}

// AttachedLocationConf derives the wanted LocationConfig for a shard's
// attached role. This is a pure, deterministic function of its arguments:
// called twice with the same inputs it returns equal values.
func AttachedLocationConf(generation Generation, shard ShardIdentity, cfg TenantConfig) LocationConfig {
	return LocationConfig{
		Mode:          AttachedSingle,
		Generation:    generation,
		HasGeneration: true,
		Shard:         shard,
		Config:        cfg,
	}
}

// AttachedMultiLocationConf is the attached-role wanted configuration for
// shards whose policy admits more than one concurrently-attached location
// during a migration. The core itself never selects this mode (the data
// model invariant is "at most one attached"); it exists so callers deriving
// a Reconciler worker's wanted attached configuration have a concrete
// AttachedMulti value to reach for during a migration window.
func AttachedMultiLocationConf(generation Generation, shard ShardIdentity, cfg TenantConfig) LocationConfig {
	c := AttachedLocationConf(generation, shard, cfg)
	c.Mode = AttachedMulti
	return c
}

// SecondaryLocationConf derives the wanted LocationConfig for a shard's
// secondary role. No generation is carried: secondary locations are
// reconciled based on content, not fenced.
func SecondaryLocationConf(shard ShardIdentity, cfg TenantConfig) LocationConfig {
	return LocationConfig{
		Mode:   SecondaryMode,
		Shard:  shard,
		Config: cfg,
	}
}
