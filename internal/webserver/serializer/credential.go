package serializer

import (
	"github.com/covestore/cove/internal/model"
)

// Credential returns the serialized form of the given model.
// The secret is part of it, provisioning is the only place rendering it.
func Credential(credential *model.Credential) map[string]interface{} {
	return map[string]interface{}{
		"access_key": credential.AccessKey,
		"secret_key": credential.SecretKey,
		"plan":       credential.Plan,
		"bytes_used": credential.BytesUsed,
	}
}
