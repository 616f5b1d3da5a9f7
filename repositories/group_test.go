package repositories

import (
	"testing"

	"chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func Test_Create_Group_Enrolls_Creator(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t))

	// When a user creates a group
	group, err := repository.Create("devops", "on-call chatter", "alice")
	req.NoError(err)
	req.NotEmpty(group.ID)
	req.Equal("devops", group.Name)
	req.Equal("alice", group.CreatedBy)
	req.False(group.CreatedAt.IsZero())

	// Then the creator is already a member
	member, err := repository.IsMember(group.ID, "alice")
	req.NoError(err)
	req.True(member)
}

func Test_Get_Group_Roundtrip(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t))

	created, err := repository.Create("devops", "on-call chatter", "alice")
	req.NoError(err)

	fetched, err := repository.Get(created.ID)
	req.NoError(err)
	req.Equal(created.ID, fetched.ID)
	req.Equal(created.Name, fetched.Name)
	req.Equal(created.Description, fetched.Description)
	req.Equal(created.CreatedBy, fetched.CreatedBy)
}

func Test_Get_Unknown_Group(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t))

	_, err := repository.Get("nope")
	req.ErrorIs(err, errors.ErrGroupNotFound)
}

func Test_Membership_Lifecycle(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t))

	group, err := repository.Create("devops", "", "alice")
	req.NoError(err)

	// Given bob joins
	req.NoError(repository.AddMember(group.ID, "bob"))
	member, err := repository.IsMember(group.ID, "bob")
	req.NoError(err)
	req.True(member)

	// Re-joining is idempotent
	req.NoError(repository.AddMember(group.ID, "bob"))

	// When bob leaves
	req.NoError(repository.RemoveMember(group.ID, "bob"))
	member, err = repository.IsMember(group.ID, "bob")
	req.NoError(err)
	req.False(member)
}

func Test_AddMember_Unknown_Group(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t))

	err := repository.AddMember("nope", "bob")
	req.ErrorIs(err, errors.ErrGroupNotFound)
}

func Test_GroupsOf_Lists_Only_Own_Memberships(t *testing.T) {
	req := require.New(t)
	repository := NewGroupRepository(openTestDB(t))

	devops, err := repository.Create("devops", "", "alice")
	req.NoError(err)
	gaming, err := repository.Create("gaming", "", "bob")
	req.NoError(err)
	req.NoError(repository.AddMember(gaming.ID, "alice"))

	groups, err := repository.GroupsOf("alice")
	req.NoError(err)
	req.Len(groups, 2)
	ids := []string{groups[0].ID, groups[1].ID}
	req.ElementsMatch([]string{devops.ID, gaming.ID}, ids)

	groups, err = repository.GroupsOf("bob")
	req.NoError(err)
	req.Len(groups, 1)
	req.Equal(gaming.ID, groups[0].ID)

	groups, err = repository.GroupsOf("mallory")
	req.NoError(err)
	req.Empty(groups)
}
