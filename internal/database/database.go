package database

import (
	"github.com/covestore/cove/internal/model"
)

type (
	// A Client can interacts with the database.
	Client interface {
		// Save inserts or updates the entry in database with the given model.
		Save(m model.Model) error
		// Delete deletes the entry in database with the given model.
		Delete(m model.Model) error
		// Close the database.
		Close() error
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool

		CredentialInteraction
		BucketInteraction
	}

	// A CredentialInteraction defines all the methods used to interact with a credential record.
	CredentialInteraction interface {
		ListCredentials() ([]*model.Credential, error)
		FindCredential(id string) (*model.Credential, error)
		FindCredentialByAccessKey(key string) (*model.Credential, error)
	}

	// A BucketInteraction defines all the methods used to interact with a bucket record.
	BucketInteraction interface {
		FindBucketByName(ownerID, name string) (*model.Bucket, error)
		ListBuckets(ownerID string) ([]*model.Bucket, error)
	}
)
