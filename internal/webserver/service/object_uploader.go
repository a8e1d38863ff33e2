package service

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/covestore/cove/internal/model"
	"github.com/covestore/cove/internal/quota"
	"github.com/covestore/cove/internal/storage"
	"github.com/pkg/errors"
)

// An ObjectUploader performs quota-checked uploads.
// The write is a full replace, quota ends up reflecting only the new content.
type ObjectUploader struct {
	ledger     *quota.Ledger
	storage    storage.Backend
	credential *model.Credential
	bucket     *model.Bucket

	size        int64
	fingerprint string
}

// NewObjectUploader returns a new ObjectUploader.
func NewObjectUploader(ledger *quota.Ledger, storage storage.Backend, credential *model.Credential, bucket *model.Bucket) *ObjectUploader {
	return &ObjectUploader{
		ledger:     ledger,
		storage:    storage,
		credential: credential,
		bucket:     bucket,
	}
}

// Upload reserves quota, durably writes the content and computes its fingerprint.
// The reservation is rolled back and the staged bytes discarded if the write
// does not complete, so readers never observe a partial object.
//
// A replace reserves the full new size before refunding the old one. The
// owner is transiently charged for both versions and a replace shrinking an
// object can still be rejected when both sizes together overshoot the limit.
func (s *ObjectUploader) Upload(key string, r io.Reader) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "ObjectUploader read")
	}
	size := int64(len(content))

	// Size of the object being replaced, refunded once the new content is live.
	var replaced int64
	if s.storage.Exist(s.credential.ID, s.bucket.Name, key) {
		replaced, err = s.storage.Size(s.credential.ID, s.bucket.Name, key)
		if err != nil {
			return errors.Wrap(err, "ObjectUploader stat")
		}
	}

	if err = s.ledger.Reserve(s.credential.ID, size); err != nil {
		return err
	}

	w, err := s.storage.Writer(s.credential.ID, s.bucket.Name, key)
	if err != nil {
		s.ledger.Release(s.credential.ID, size)
		return errors.Wrap(err, "ObjectUploader storage")
	}

	h := sha256.New()
	mw := io.MultiWriter(h, w)

	if _, err = mw.Write(content); err != nil {
		w.Abort()
		s.ledger.Release(s.credential.ID, size)
		return errors.Wrap(err, "ObjectUploader write")
	}

	if err = w.Commit(); err != nil {
		s.ledger.Release(s.credential.ID, size)
		return errors.Wrap(err, "ObjectUploader write")
	}

	if replaced > 0 {
		if err = s.ledger.Release(s.credential.ID, replaced); err != nil {
			return errors.Wrap(err, "ObjectUploader")
		}
	}

	s.size = size
	s.fingerprint = hex.EncodeToString(h.Sum(nil))
	return nil
}

// Size returns the size of the uploaded content.
func (s *ObjectUploader) Size() int64 {
	return s.size
}

// Fingerprint returns the digest of the uploaded content.
func (s *ObjectUploader) Fingerprint() string {
	return s.fingerprint
}
