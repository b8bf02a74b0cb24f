// Package types holds the data model shared across the sync pipeline:
// the article record harvested from the remote source, and the two
// persisted maps (Lock, ArtifactIndex) that track sync state between
// ticks.
package types

// Article is a single document harvested from the remote help center.
// Body is HTML as harvested, and Markdown after the render stage.
// StagedPath and ArtifactID are transient, populated during one tick.
type Article struct {
	ID         int64
	Name       string
	Body       string
	StagedPath string
	ArtifactID string
}

// ContentHash is a lowercase hex SHA-256 digest of an article's body.
type ContentHash string

// Lock is the persisted snapshot of the last successfully synced state:
// source article id to content hash.
type Lock map[int64]ContentHash

// ArtifactIndex maps a source article id to the id it was assigned in
// the external artifact store.
type ArtifactIndex map[int64]string

// DiffResult partitions two Locks into disjoint id sets. Unchanged ids
// are implicit: present in both with equal hashes.
type DiffResult struct {
	New     []int64
	Updated []int64
	Deleted []int64
}
