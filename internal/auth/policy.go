package auth

import "guestlist/internal/models"

// Authorize is the single authorization decision for admin access to
// event-scoped resources: the caller must be an admin of at least minRole
// (lower is more powerful), and unless it is the super-admin, the resource
// must belong to the caller's own event. Every handler goes through this
// instead of re-deriving the rule.
func Authorize(caller models.Identity, resourceEventID int64, minRole models.AdminRole) bool {
	if !caller.IsAdmin() {
		return false
	}
	if caller.Role > minRole {
		return false
	}
	if caller.IsSuperAdmin() {
		return true
	}
	return caller.EventID == resourceEventID
}

// AuthorizeOwner decides inviter access to an owned resource: inviters may
// only touch rows they own.
func AuthorizeOwner(caller models.Identity, ownerUserID int64) bool {
	return caller.Kind == models.IdentityUser && caller.ID == ownerUserID
}
