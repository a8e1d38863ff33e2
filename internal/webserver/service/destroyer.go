package service

import (
	"github.com/covestore/cove/internal/model"
	"github.com/covestore/cove/internal/quota"
	"github.com/covestore/cove/internal/storage"
	"github.com/pkg/errors"
)

// An ObjectDestroyer removes an object from storage and refunds its quota.
type ObjectDestroyer struct {
	ledger     *quota.Ledger
	storage    storage.Backend
	credential *model.Credential
	bucket     *model.Bucket
	key        string
}

// NewObjectDestroyer returns a new ObjectDestroyer.
func NewObjectDestroyer(ledger *quota.Ledger, storage storage.Backend, credential *model.Credential, bucket *model.Bucket, key string) *ObjectDestroyer {
	return &ObjectDestroyer{
		ledger:     ledger,
		storage:    storage,
		credential: credential,
		bucket:     bucket,
		key:        key,
	}
}

// Destroy removes the stored bytes then releases the owner's quota.
// A release failure after removal leaves the counter too high until
// the reconciliation sweep catches up.
func (s *ObjectDestroyer) Destroy() error {
	size, err := s.storage.Size(s.credential.ID, s.bucket.Name, s.key)
	if err != nil {
		return errors.Wrap(err, "ObjectDestroyer stat")
	}

	if err = s.storage.Remove(s.credential.ID, s.bucket.Name, s.key); err != nil {
		return errors.Wrap(err, "ObjectDestroyer storage")
	}

	err = s.ledger.Release(s.credential.ID, size)
	return errors.Wrap(err, "ObjectDestroyer ledger")
}
