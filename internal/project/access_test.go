package project

import (
	"testing"

	"collabhub/internal/auth"
	"collabhub/internal/student"

	"github.com/stretchr/testify/assert"
)

func principal(id int) *auth.Principal {
	return &auth.Principal{StudentID: id, Role: student.RoleStudent}
}

func admin(id int) *auth.Principal {
	return &auth.Principal{StudentID: id, Role: student.RoleAdmin}
}

func TestAccessPredicates(t *testing.T) {
	snapshot := Snapshot{
		ProjectID: 1,
		OwnerID:   10,
		MemberIDs: []int{20, 30},
	}

	owner := principal(10)
	member := principal(20)
	outsider := principal(40)
	var guest *auth.Principal

	t.Run("IsOwner", func(t *testing.T) {
		assert.True(t, IsOwner(owner, snapshot))
		assert.False(t, IsOwner(member, snapshot))
		assert.False(t, IsOwner(outsider, snapshot))
		assert.False(t, IsOwner(guest, snapshot))
	})

	t.Run("IsTeamMember", func(t *testing.T) {
		assert.True(t, IsTeamMember(owner, snapshot), "owner is an implicit member")
		assert.True(t, IsTeamMember(member, snapshot))
		assert.False(t, IsTeamMember(outsider, snapshot))
		assert.False(t, IsTeamMember(guest, snapshot))
	})

	t.Run("CanApply", func(t *testing.T) {
		assert.False(t, CanApply(owner, snapshot))
		assert.False(t, CanApply(member, snapshot))
		assert.True(t, CanApply(outsider, snapshot))
		assert.False(t, CanApply(guest, snapshot))
	})

	t.Run("ChatFollowsMembership", func(t *testing.T) {
		for _, p := range []*auth.Principal{owner, member, outsider, guest} {
			assert.Equal(t, IsTeamMember(p, snapshot), CanViewChat(p, snapshot))
			assert.Equal(t, IsTeamMember(p, snapshot), CanPostMessage(p, snapshot))
			// View and post access never diverge.
			assert.Equal(t, CanViewChat(p, snapshot), CanPostMessage(p, snapshot))
		}
	})

	t.Run("CanManageApplications", func(t *testing.T) {
		assert.True(t, CanManageApplications(owner, snapshot))
		assert.False(t, CanManageApplications(member, snapshot))
		assert.False(t, CanManageApplications(outsider, snapshot))
		assert.False(t, CanManageApplications(guest, snapshot))
	})

	t.Run("CanAdminDelete", func(t *testing.T) {
		assert.True(t, CanAdminDelete(admin(99)))
		assert.False(t, CanAdminDelete(owner), "ownership does not grant admin delete")
		assert.False(t, CanAdminDelete(guest))
	})

	t.Run("AdminRoleGrantsNoTeamAccess", func(t *testing.T) {
		a := admin(99)
		assert.False(t, IsTeamMember(a, snapshot))
		assert.False(t, CanViewChat(a, snapshot))
		assert.False(t, CanManageApplications(a, snapshot))
	})
}
