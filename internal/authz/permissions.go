// Package authz holds the stateless permission tables of the
// organizational hierarchy. Every function here is pure: no I/O, no
// clock, no store. Callers combine these predicates with the ownership
// check from the domain package; they never replace them.
package authz

import "github.com/spec-kit/helpdesk-service/internal/domain"

// creationTable fixes which role may provision which. Any pair absent
// from the table is denied.
var creationTable = map[domain.Role][]domain.Role{
	domain.RoleSystemOwner: {domain.RoleSuperAdmin},
	domain.RoleSuperAdmin:  {domain.RoleAdmin},
	domain.RoleAdmin:       {domain.RoleItPerson, domain.RoleUser},
	domain.RoleItPerson:    {domain.RoleUser},
}

// managementTable fixes which role may update or deactivate which.
// Membership here is necessary but not sufficient: the manager must
// also own the target through the hierarchy chain, except when an
// account updates itself.
var managementTable = map[domain.Role][]domain.Role{
	domain.RoleSystemOwner: {domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleItPerson, domain.RoleUser},
	domain.RoleSuperAdmin:  {domain.RoleAdmin, domain.RoleItPerson, domain.RoleUser},
	domain.RoleAdmin:       {domain.RoleItPerson, domain.RoleUser},
	domain.RoleItPerson:    {domain.RoleUser},
}

func contains(roles []domain.Role, target domain.Role) bool {
	for _, r := range roles {
		if r == target {
			return true
		}
	}
	return false
}

// CanCreate reports whether creatorRole may provision targetRole.
func CanCreate(creatorRole, targetRole domain.Role) bool {
	return contains(creationTable[creatorRole], targetRole)
}

// CanManage reports whether managerRole may update or deactivate
// accounts of targetRole.
func CanManage(managerRole, targetRole domain.Role) bool {
	return contains(managementTable[managerRole], targetRole)
}

// CanViewTickets reports whether the role sees tickets beyond its own.
// Users only ever see tickets they created, via a separate rule.
func CanViewTickets(role domain.Role) bool {
	switch role {
	case domain.RoleSystemOwner, domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleItPerson:
		return true
	}
	return false
}

// CanCloseTickets mirrors CanViewTickets. The ticket service applies
// a stricter IT-person-only rule on the solved transition itself; this
// predicate is kept for callers gating close UI affordances.
func CanCloseTickets(role domain.Role) bool {
	return CanViewTickets(role)
}
