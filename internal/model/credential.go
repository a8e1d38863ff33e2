package model

// A Plan determines the storage allowance granted to a credential.
type Plan string

// The supported plans.
const (
	PlanStarter  Plan = "starter"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

// A Credential is the root of a tenant's namespace.
// It is the unit of authentication and quota accounting.
type Credential struct {
	Base `json:",inline" storm:"inline"`

	AccessKey string `json:"access_key" storm:"unique"`
	// SecretKey is only transmitted once, when the credential is issued.
	SecretKey string `json:"secret_key"`
	Plan      Plan   `json:"plan"`
	BytesUsed int64  `json:"bytes_used"`
}
