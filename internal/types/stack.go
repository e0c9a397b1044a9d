package types

import "time"

// Edge wraps a ResolvedEdge with a stable id so it can be individually
// shadowed (deleted) across immutable stack layers without needing a
// full-edge equality comparison.
type Edge struct {
	ID    string
	Value ResolvedEdge
}

// DurablePartition groups the edges whose source file belongs to a
// vendored/dependency package, indexed by source file for fast
// per-file replacement on reindex.
type DurablePartition struct {
	PackageKey string
	ByFile     map[string][]ResolvedEdge
}

// NewDurablePartition creates an empty partition for packageKey.
func NewDurablePartition(packageKey string) *DurablePartition {
	return &DurablePartition{PackageKey: packageKey, ByFile: make(map[string][]ResolvedEdge)}
}

// AllEdges returns every edge in the partition, grouped by file with each
// file's edges in insertion order; the order of the files is not defined.
func (p *DurablePartition) AllEdges() []ResolvedEdge {
	var out []ResolvedEdge
	for _, edges := range p.ByFile {
		out = append(out, edges...)
	}
	return out
}

// VolatilePartition holds the single project call graph of user-code
// edges, replaced wholesale on reindex of any non-durable file.
type VolatilePartition struct {
	ByFile map[string][]ResolvedEdge
}

// NewVolatilePartition creates an empty volatile partition.
func NewVolatilePartition() *VolatilePartition {
	return &VolatilePartition{ByFile: make(map[string][]ResolvedEdge)}
}

func (p *VolatilePartition) AllEdges() []ResolvedEdge {
	var out []ResolvedEdge
	for _, edges := range p.ByFile {
		out = append(out, edges...)
	}
	return out
}

// PartitionedIndex is the durability-partitioned view over the whole
// project's resolved call edges (spec.md §3/§4.5).
type PartitionedIndex struct {
	Durable  map[string]*DurablePartition
	Volatile *VolatilePartition
}

func NewPartitionedIndex() *PartitionedIndex {
	return &PartitionedIndex{
		Durable:  make(map[string]*DurablePartition),
		Volatile: NewVolatilePartition(),
	}
}

// ImmutableStack is one layer of the stacked call-graph database
// (spec.md §3/§4.7). Deletions shadow ancestor edges by id; only the
// topmost stack in a chain ever receives new edges or deletions.
type ImmutableStack struct {
	ID        string
	Parent    *ImmutableStack
	CreatedAt time.Time
	Edges     []Edge
	Deletions map[string]struct{}
}

// NewStack creates a root or forked stack. parent may be nil for a root.
func NewStack(id string, parent *ImmutableStack) *ImmutableStack {
	return &ImmutableStack{
		ID:        id,
		Parent:    parent,
		CreatedAt: time.Now(),
		Deletions: make(map[string]struct{}),
	}
}
