package model

// A Bucket scopes object keys under a single owning credential.
// The (OwnerID, Name) pair is unique. Buckets are never renamed.
type Bucket struct {
	Base `json:",inline" storm:"inline"`

	OwnerID string `json:"owner_id" storm:"index"`
	Name    string `json:"name"     storm:"index"`
}
