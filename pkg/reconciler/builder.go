package reconciler

import "github.com/shardctl/controller/pkg/shard"

// Builder implements shard.ReconcilerBuilder, constructing a Worker bound
// to a fixed PageServerClient and AddressBook for every reconcile attempt.
type Builder struct {
	client PageServerClient
	nodes  AddressBook
}

// NewBuilder returns a Builder that hands every spawned Worker the same
// client and address book.
func NewBuilder(client PageServerClient, nodes AddressBook) *Builder {
	return &Builder{client: client, nodes: nodes}
}

// Build implements shard.ReconcilerBuilder.
func (b *Builder) Build(snapshot shard.ReconcileSnapshot) shard.ReconcilerWorker {
	return NewWorker(snapshot, b.client, b.nodes)
}
