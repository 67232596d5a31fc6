package auth

// Identity is the verified caller of a request.
type Identity struct {
	UserID string
	OrgID  string
}

// WorkspaceID returns the tenant scope: the organization when the caller acts
// within one, otherwise the caller's personal id.
func (i Identity) WorkspaceID() string {
	if i.OrgID != "" {
		return i.OrgID
	}
	return i.UserID
}

// IdentityFromClaims maps verified token claims to an Identity.
func IdentityFromClaims(c *Claims) Identity {
	if c == nil {
		return Identity{}
	}
	return Identity{UserID: c.Subject, OrgID: c.OrgID}
}
