package service

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/covestore/cove/internal/model"
	"github.com/covestore/cove/internal/storage"
	"github.com/pkg/errors"
)

// An ObjectDownloader streams stored bytes unmodified.
type ObjectDownloader struct {
	storage    storage.Backend
	credential *model.Credential
	bucket     *model.Bucket
	key        string
}

// NewObjectDownloader returns a new ObjectDownloader.
func NewObjectDownloader(storage storage.Backend, credential *model.Credential, bucket *model.Bucket, key string) *ObjectDownloader {
	return &ObjectDownloader{
		storage:    storage,
		credential: credential,
		bucket:     bucket,
		key:        key,
	}
}

// Stream returns a reader of the stored bytes.
func (s *ObjectDownloader) Stream() (io.ReadCloser, error) {
	return s.storage.Reader(s.credential.ID, s.bucket.Name, s.key)
}

// Size returns the size of the stored bytes.
func (s *ObjectDownloader) Size() (int64, error) {
	return s.storage.Size(s.credential.ID, s.bucket.Name, s.key)
}

// Fingerprint recomputes the digest from the stored bytes.
// Fingerprints are derived, never stored.
func (s *ObjectDownloader) Fingerprint() (string, error) {
	r, err := s.Stream()
	if err != nil {
		return "", errors.Wrap(err, "ObjectDownloader")
	}
	defer r.Close()

	h := sha256.New()
	if _, err = io.Copy(h, r); err != nil {
		return "", errors.Wrap(err, "ObjectDownloader")
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
