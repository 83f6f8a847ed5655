package domain

import "time"

// Role enumerates the five organizational levels, top down.
type Role string

const (
	RoleSystemOwner Role = "SYSTEM_OWNER"
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleAdmin       Role = "ADMIN"
	RoleItPerson    Role = "IT_PERSON"
	RoleUser        Role = "USER"
)

// Roles lists every known role. Useful for exhaustive iteration.
var Roles = []Role{RoleSystemOwner, RoleSuperAdmin, RoleAdmin, RoleItPerson, RoleUser}

// Valid reports whether the role is one of the five known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemOwner, RoleSuperAdmin, RoleAdmin, RoleItPerson, RoleUser:
		return true
	}
	return false
}

// BusinessType sizes a super admin tenant and fixes its account quota.
type BusinessType string

const (
	BusinessSmall  BusinessType = "SMALL_BUSINESS"
	BusinessMedium BusinessType = "MEDIUM_BUSINESS"
	BusinessLarge  BusinessType = "LARGE_BUSINESS"
)

// AccountLimits maps each business type to its fixed account quota.
// Client-supplied limits are always overwritten from this table.
var AccountLimits = map[BusinessType]int{
	BusinessSmall:  300,
	BusinessMedium: 700,
	BusinessLarge:  3000,
}

// LimitForBusinessType resolves the quota for a business type.
func LimitForBusinessType(bt BusinessType) (int, bool) {
	limit, ok := AccountLimits[bt]
	return limit, ok
}

// Account is the aggregate for every principal in the hierarchy.
// The four chain pointers are append-only: set once at creation from
// the creator's own chain, never rewritten afterwards.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	Location     string
	CreatedBy    *string
	Chain        OwnerChain
	BusinessType *BusinessType
	AccountLimit *int
	ExpiryDate   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether a time-boxed super admin account is past
// its expiry. Other roles never expire.
func (a *Account) Expired(now time.Time) bool {
	if a.Role != RoleSuperAdmin || a.ExpiryDate == nil {
		return false
	}
	return now.After(*a.ExpiryDate)
}
