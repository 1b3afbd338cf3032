package campaigns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	apperr "github.com/greyhelm/tablekeep/internal/errors"
)

type InMemoryRepoTestSuite struct {
	suite.Suite
	ctx  context.Context
	repo Repository
}

func (s *InMemoryRepoTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = NewInMemoryRepository()
}

func TestInMemoryRepoTestSuite(t *testing.T) {
	suite.Run(t, new(InMemoryRepoTestSuite))
}

func (s *InMemoryRepoTestSuite) TestSetAndGetMember() {
	member := &Member{
		CampaignID: "camp-1",
		UserID:     "user-1",
		Role:       RoleGM,
		JoinedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.repo.SetMember(s.ctx, member))

	loaded, err := s.repo.GetMember(s.ctx, "camp-1", "user-1")
	s.Require().NoError(err)
	s.Equal(RoleGM, loaded.Role)

	// Replacing updates the role
	member.Role = RolePlayer
	s.Require().NoError(s.repo.SetMember(s.ctx, member))

	loaded, err = s.repo.GetMember(s.ctx, "camp-1", "user-1")
	s.Require().NoError(err)
	s.Equal(RolePlayer, loaded.Role)
}

func (s *InMemoryRepoTestSuite) TestSetMemberValidation() {
	s.Error(s.repo.SetMember(s.ctx, nil))
	s.Error(s.repo.SetMember(s.ctx, &Member{CampaignID: "", UserID: "user-1", Role: RoleOwner}))
	s.Error(s.repo.SetMember(s.ctx, &Member{CampaignID: "camp-1", UserID: "user-1", Role: "wizard"}))
}

func (s *InMemoryRepoTestSuite) TestGetMemberNotFound() {
	_, err := s.repo.GetMember(s.ctx, "camp-1", "stranger")
	s.True(apperr.IsNotFound(err))
}

func (s *InMemoryRepoTestSuite) TestGetMemberReturnsCopy() {
	s.Require().NoError(s.repo.SetMember(s.ctx, &Member{CampaignID: "camp-1", UserID: "user-1", Role: RoleOwner}))

	loaded, err := s.repo.GetMember(s.ctx, "camp-1", "user-1")
	s.Require().NoError(err)
	loaded.Role = RolePlayer

	again, err := s.repo.GetMember(s.ctx, "camp-1", "user-1")
	s.Require().NoError(err)
	s.Equal(RoleOwner, again.Role)
}

func (s *InMemoryRepoTestSuite) TestRemoveMember() {
	s.Require().NoError(s.repo.SetMember(s.ctx, &Member{CampaignID: "camp-1", UserID: "user-1", Role: RolePlayer}))

	s.Require().NoError(s.repo.RemoveMember(s.ctx, "camp-1", "user-1"))

	_, err := s.repo.GetMember(s.ctx, "camp-1", "user-1")
	s.True(apperr.IsNotFound(err))

	s.True(apperr.IsNotFound(s.repo.RemoveMember(s.ctx, "camp-1", "user-1")))
}

func (s *InMemoryRepoTestSuite) TestListMembers() {
	s.Require().NoError(s.repo.SetMember(s.ctx, &Member{CampaignID: "camp-1", UserID: "user-1", Role: RoleOwner}))
	s.Require().NoError(s.repo.SetMember(s.ctx, &Member{CampaignID: "camp-1", UserID: "user-2", Role: RolePlayer}))
	s.Require().NoError(s.repo.SetMember(s.ctx, &Member{CampaignID: "camp-2", UserID: "user-3", Role: RoleOwner}))

	members, err := s.repo.ListMembers(s.ctx, "camp-1")
	s.Require().NoError(err)
	s.Len(members, 2)

	empty, err := s.repo.ListMembers(s.ctx, "camp-9")
	s.Require().NoError(err)
	s.Empty(empty)
}
