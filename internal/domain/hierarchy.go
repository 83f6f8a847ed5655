package domain

// OwnerChain holds the four hierarchy pointers of an account: for each
// managing role, the id of the nearest ancestor of that role in the
// chain that created the account, or nil when no such ancestor exists.
type OwnerChain struct {
	SystemOwnerID *string
	SuperAdminID  *string
	AdminID       *string
	ItPersonID    *string
}

// Slot returns the chain pointer for the given role. RoleUser has no
// slot; accounts never point at a user.
func (c OwnerChain) Slot(role Role) *string {
	switch role {
	case RoleSystemOwner:
		return c.SystemOwnerID
	case RoleSuperAdmin:
		return c.SuperAdminID
	case RoleAdmin:
		return c.AdminID
	case RoleItPerson:
		return c.ItPersonID
	}
	return nil
}

// Contains reports whether id occupies any of the four slots.
func (c OwnerChain) Contains(id string) bool {
	for _, slot := range []*string{c.SystemOwnerID, c.SuperAdminID, c.AdminID, c.ItPersonID} {
		if slot != nil && *slot == id {
			return true
		}
	}
	return false
}

// ChildChain computes the chain for an account provisioned by creator:
// the creator's own pointers with the creator inserted at the slot
// matching the creator's role. Pure; the only place chains are built.
func ChildChain(creator *Account) OwnerChain {
	chain := creator.Chain
	id := creator.ID
	switch creator.Role {
	case RoleSystemOwner:
		chain.SystemOwnerID = &id
	case RoleSuperAdmin:
		chain.SuperAdminID = &id
	case RoleAdmin:
		chain.AdminID = &id
	case RoleItPerson:
		chain.ItPersonID = &id
	}
	return chain
}

// Owns answers the single hierarchy query: does ancestor own
// descendant. True when the descendant's slot for the ancestor's role
// carries the ancestor's id, or when ancestor and descendant are the
// same account (self is in its own scope).
func Owns(ancestor, descendant *Account) bool {
	if ancestor.ID == descendant.ID {
		return true
	}
	slot := descendant.Chain.Slot(ancestor.Role)
	return slot != nil && *slot == ancestor.ID
}
