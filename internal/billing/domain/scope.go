package domain

import "github.com/google/uuid"

// Scope limits a dashboard query to one branch, or to all branches for a
// privileged caller.
type Scope struct {
	branchID *uuid.UUID
}

// AllBranches returns the privileged scope covering every branch.
func AllBranches() Scope {
	return Scope{}
}

// BranchScope returns the scope of a single branch.
func BranchScope(branchID uuid.UUID) Scope {
	return Scope{branchID: &branchID}
}

// IsAll reports whether the scope covers every branch.
func (s Scope) IsAll() bool {
	return s.branchID == nil
}

// BranchID returns the branch the scope is limited to. Only meaningful when
// IsAll is false.
func (s Scope) BranchID() uuid.UUID {
	if s.branchID == nil {
		return uuid.Nil
	}
	return *s.branchID
}

// CacheKey derives the summary cache key for the scope.
func (s Scope) CacheKey() string {
	if s.IsAll() {
		return "dashboard:all"
	}
	return "dashboard:" + s.branchID.String()
}
