// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// IdentityUserTable represents the 'identity.user' table
type IdentityUserTable struct {
	Table        string
	ID           string
	Name         string
	Tier         string
	PasswordHash string
	CreatedAt    string
}

// IdentityUser is the schema definition for identity.user
var IdentityUser = IdentityUserTable{
	Table:        `identity."user"`,
	ID:           "id",
	Name:         "name",
	Tier:         "tier",
	PasswordHash: "passwordhash",
	CreatedAt:    "createdat",
}

// IdentityGroupTable represents the 'identity.group' table
type IdentityGroupTable struct {
	Table     string
	ID        string
	Name      string
	CreatedAt string
}

// IdentityGroup is the schema definition for identity.group
var IdentityGroup = IdentityGroupTable{
	Table:     `identity."group"`,
	ID:        "id",
	Name:      "name",
	CreatedAt: "createdat",
}

// IdentityMembershipTable represents the 'identity.membership' table
type IdentityMembershipTable struct {
	Table   string
	UserID  string
	GroupID string
}

// IdentityMembership is the schema definition for identity.membership
var IdentityMembership = IdentityMembershipTable{
	Table:   "identity.membership",
	UserID:  "userid",
	GroupID: "groupid",
}
