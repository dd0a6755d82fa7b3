package project

import (
	"collabhub/internal/auth"
)

// Snapshot is the membership state of one project, loaded fresh per request.
// Authorization decisions are never cached across calls, so a just-accepted
// member gets chat access on their next request.
type Snapshot struct {
	ProjectID int
	OwnerID   int
	MemberIDs []int
}

func (s Snapshot) hasMember(studentID int) bool {
	for _, id := range s.MemberIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// IsOwner reports whether the principal created the project.
func IsOwner(p *auth.Principal, s Snapshot) bool {
	return p != nil && p.StudentID == s.OwnerID
}

// IsTeamMember treats the owner as an implicit member; the owner never has a
// membership row of their own.
func IsTeamMember(p *auth.Principal, s Snapshot) bool {
	if p == nil {
		return false
	}
	return IsOwner(p, s) || s.hasMember(p.StudentID)
}

// CanApply holds for authenticated outsiders. A previous applicant is not
// pre-filtered here; the application workflow rejects duplicates through the
// storage-layer uniqueness constraint.
func CanApply(p *auth.Principal, s Snapshot) bool {
	return p != nil && !IsTeamMember(p, s)
}

func CanViewChat(p *auth.Principal, s Snapshot) bool {
	return IsTeamMember(p, s)
}

func CanPostMessage(p *auth.Principal, s Snapshot) bool {
	return IsTeamMember(p, s)
}

func CanManageApplications(p *auth.Principal, s Snapshot) bool {
	return IsOwner(p, s)
}

func CanAdminDelete(p *auth.Principal) bool {
	return p.IsAdmin()
}
