// shared/models/identity.go
package models

import "time"

// IdentityMapping records which canonical ID a user supplied identifier resolved to.
type IdentityMapping struct {
	Identifier string    `bson:"_id"`
	CFToolsID  string    `bson:"cftools_id"`
	ResolvedAt time.Time `bson:"resolved_at"`
}
