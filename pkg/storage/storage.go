package storage

import (
	"context"
	"iter"

	"discover-release/pkg/common"
)

// EntrySeq is a lazy sequence of object entries. Iteration follows provider
// pagination transparently; a non-nil error terminates the sequence. The
// sequence holds no position of its own and can be re-invoked from the start.
type EntrySeq = iter.Seq2[ObjectEntry, error]

// ReleaseStore is the object-storage contract the migration engine runs
// against. Implementations must be safe for concurrent use.
type ReleaseStore interface {
	ProviderName() common.Provider

	// IsVersioned reports whether the bucket retains historical object
	// versions. Probed at most once per bucket per run; implementations cache
	// the answer.
	IsVersioned(ctx context.Context, bucket string) (bool, error)

	// List enumerates every entry under prefix in the bucket. With versioned
	// set, every historical version and delete marker is included.
	List(ctx context.Context, bucket, prefix string, versioned bool) EntrySeq

	// Copy moves one entry server-side into destBucket and verifies the
	// destination object against the entry's listing-time metadata before
	// reporting it durable.
	Copy(ctx context.Context, srcBucket string, entry ObjectEntry, destBucket string) (CopyResult, error)

	// Remove deletes exactly the entry's (key, version) from the bucket.
	// Removing an already-absent entry is success.
	Remove(ctx context.Context, bucket string, entry ObjectEntry) (RemoveResult, error)

	// PutManifest uploads the release results document.
	PutManifest(ctx context.Context, bucket, key string, body []byte) error

	Close() error
}
