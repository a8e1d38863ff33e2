package storage

import "io"

// Backend is the interface that wraps the basic byte store operations.
// Objects are addressed by the owner/bucket/object triple.
type Backend interface {
	// Name returns the name of the backend implementation.
	Name() string

	// Reader returns a ReadCloser of the stored bytes.
	Reader(owner, bucket, object string) (io.ReadCloser, error)
	// Writer returns a Writer of the stored bytes.
	// Nothing is visible under the object's name until Commit.
	Writer(owner, bucket, object string) (Writer, error)

	// Exist returns true if the object is present in the store.
	Exist(owner, bucket, object string) bool
	// Size returns the size of the stored bytes.
	Size(owner, bucket, object string) (int64, error)

	// Remove deletes the given object.
	Remove(owner, bucket, object string) error
	// UsedBytes sums the sizes of everything stored under the owner.
	UsedBytes(owner string) (int64, error)

	// Cleanup cleans useless artifacts in storage.
	Cleanup() error
}

// A Writer stages an object upload.
// Exactly one of Commit or Abort terminates it.
type Writer interface {
	io.Writer

	// Commit durably publishes the staged content as a full replace.
	// Readers never observe a partial write.
	Commit() error
	// Abort discards the staged content. Any previous version of the
	// object is left untouched.
	Abort() error
}
