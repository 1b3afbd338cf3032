package encounters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/greyhelm/tablekeep/internal/domain/combat"
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

func (s *InMemoryRepoTestSuite) TestCreateAndGet() {
	enc := combat.NewEncounter("enc-1", "camp-1", "Goblin Ambush", "gm-1")

	s.Require().NoError(s.repo.Create(s.ctx, enc))
	s.Equal(1, enc.Version)

	loaded, err := s.repo.Get(s.ctx, "enc-1")
	s.Require().NoError(err)
	s.Equal("Goblin Ambush", loaded.Name)
	s.Equal(combat.EncounterStatusDraft, loaded.Status)
	s.Equal(1, loaded.Version)
}

func (s *InMemoryRepoTestSuite) TestCreateDuplicate() {
	enc := combat.NewEncounter("enc-1", "camp-1", "Goblin Ambush", "gm-1")
	s.Require().NoError(s.repo.Create(s.ctx, enc))

	err := s.repo.Create(s.ctx, combat.NewEncounter("enc-1", "camp-1", "Again", "gm-1"))
	s.Equal(apperr.CodeAlreadyExists, apperr.GetCode(err))
}

func (s *InMemoryRepoTestSuite) TestCreateValidation() {
	s.Error(s.repo.Create(s.ctx, nil))
	s.Error(s.repo.Create(s.ctx, combat.NewEncounter("", "camp-1", "No ID", "gm-1")))
}

func (s *InMemoryRepoTestSuite) TestGetNotFound() {
	_, err := s.repo.Get(s.ctx, "missing")
	s.True(apperr.IsNotFound(err))
}

func (s *InMemoryRepoTestSuite) TestGetReturnsIsolatedCopy() {
	enc := combat.NewEncounter("enc-1", "camp-1", "Goblin Ambush", "gm-1")
	s.Require().NoError(s.repo.Create(s.ctx, enc))

	first, err := s.repo.Get(s.ctx, "enc-1")
	s.Require().NoError(err)
	first.Name = "Mutated"

	second, err := s.repo.Get(s.ctx, "enc-1")
	s.Require().NoError(err)
	s.Equal("Goblin Ambush", second.Name)
}

func (s *InMemoryRepoTestSuite) TestSaveBumpsVersion() {
	enc := combat.NewEncounter("enc-1", "camp-1", "Goblin Ambush", "gm-1")
	s.Require().NoError(s.repo.Create(s.ctx, enc))

	loaded, err := s.repo.Get(s.ctx, "enc-1")
	s.Require().NoError(err)

	loaded.Name = "Goblin Ambush II"
	s.Require().NoError(s.repo.Save(s.ctx, loaded))
	s.Equal(2, loaded.Version)

	reloaded, err := s.repo.Get(s.ctx, "enc-1")
	s.Require().NoError(err)
	s.Equal("Goblin Ambush II", reloaded.Name)
	s.Equal(2, reloaded.Version)
}

func (s *InMemoryRepoTestSuite) TestSaveStaleVersionConflicts() {
	enc := combat.NewEncounter("enc-1", "camp-1", "Goblin Ambush", "gm-1")
	s.Require().NoError(s.repo.Create(s.ctx, enc))

	first, err := s.repo.Get(s.ctx, "enc-1")
	s.Require().NoError(err)
	second, err := s.repo.Get(s.ctx, "enc-1")
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Save(s.ctx, first))

	err = s.repo.Save(s.ctx, second)
	s.True(apperr.IsConflict(err))
}

func (s *InMemoryRepoTestSuite) TestSaveNotFound() {
	err := s.repo.Save(s.ctx, combat.NewEncounter("missing", "camp-1", "Ghost", "gm-1"))
	s.True(apperr.IsNotFound(err))
}

func (s *InMemoryRepoTestSuite) TestDelete() {
	enc := combat.NewEncounter("enc-1", "camp-1", "Goblin Ambush", "gm-1")
	s.Require().NoError(s.repo.Create(s.ctx, enc))

	s.Require().NoError(s.repo.Delete(s.ctx, "enc-1"))

	_, err := s.repo.Get(s.ctx, "enc-1")
	s.True(apperr.IsNotFound(err))

	listed, err := s.repo.ListByCampaign(s.ctx, "camp-1")
	s.Require().NoError(err)
	s.Empty(listed)

	s.True(apperr.IsNotFound(s.repo.Delete(s.ctx, "enc-1")))
}

func (s *InMemoryRepoTestSuite) TestListByCampaign() {
	s.Require().NoError(s.repo.Create(s.ctx, combat.NewEncounter("enc-1", "camp-1", "First", "gm-1")))
	s.Require().NoError(s.repo.Create(s.ctx, combat.NewEncounter("enc-2", "camp-1", "Second", "gm-1")))
	s.Require().NoError(s.repo.Create(s.ctx, combat.NewEncounter("enc-3", "camp-2", "Other", "gm-2")))

	listed, err := s.repo.ListByCampaign(s.ctx, "camp-1")
	s.Require().NoError(err)
	s.Len(listed, 2)

	empty, err := s.repo.ListByCampaign(s.ctx, "camp-9")
	s.Require().NoError(err)
	s.Empty(empty)
}
