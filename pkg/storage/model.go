package storage

import "strings"

// ObjectEntry is one unit of migration work: a single key on a plain bucket,
// or a single version of a key on a version-enabled bucket. Identity is the
// (Key, VersionID) pair.
type ObjectEntry struct {
	Key       string
	VersionID string

	// A delete marker has no content to copy; removing it from the source is
	// the whole job for that entry.
	IsDeleteMarker bool

	// Source metadata recorded at listing time. The copier verifies the
	// destination object against these values before the entry may be
	// deleted from the source.
	Size int64
	ETag string
}

// Ref renders the entry identity for logs and failure reports.
func (e ObjectEntry) Ref() string {
	if e.VersionID == "" {
		return e.Key
	}
	return e.Key + "@" + e.VersionID
}

type CopyDisposition int

const (
	// Copied: the object was copied server-side and the destination verified.
	Copied CopyDisposition = iota
	// AlreadyPresent: the destination already held an identical object.
	AlreadyPresent
	// SourceMissing: the source object vanished before it could be copied,
	// typically because a previous partial run already moved it.
	SourceMissing
)

type CopyResult struct {
	Disposition   CopyDisposition
	DestVersionID string
	DestETag      string
}

type RemoveResult struct {
	// Removed is false when the entry was already absent from the source.
	Removed bool
}

// NormalizeETag strips the quoting S3 wraps around ETag header values.
func NormalizeETag(etag string) string {
	return strings.Trim(etag, `"`)
}

// IsMultipartETag reports whether an ETag came from a multipart upload.
// Multipart ETags do not survive a server-side copy, so they cannot be
// compared across buckets and verification falls back to size.
func IsMultipartETag(etag string) bool {
	return strings.Contains(etag, "-")
}
