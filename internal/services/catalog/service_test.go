package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcoot/soddle/internal/dependencies/mocks"
	"github.com/mcoot/soddle/internal/model"
	"github.com/stretchr/testify/suite"
)

type ServiceSuite struct {
	suite.Suite
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.service = New(s.random)
	s.ctx = context.Background()
}

func (s *ServiceSuite) writeFile(content string) string {
	path := filepath.Join(s.T().TempDir(), "profiles.json")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ServiceSuite) TestIsNotLoadedByDefault() {
	s.False(s.service.IsLoaded())
	s.Equal(0, s.service.Count())

	_, err := s.service.Random()
	s.ErrorIs(err, model.ErrCatalogNotLoaded)
}

func (s *ServiceSuite) TestLoadFromFile() {
	path := s.writeFile(`[
		{"id": "kol-1", "name": "Ansem", "age": 30, "country": "US", "pfp_type": "human", "account_creation": 1500000000, "followers": 612000, "ecosystem": "Solana"},
		{"id": "kol-2", "name": "Cobie", "age": 35, "country": "UK", "pfp_type": "human, cartoon", "account_creation": 1300000000, "followers_label": "over 5M", "ecosystem": "Ethereum"}
	]`)

	err := s.service.LoadFromFile(s.ctx, path)
	s.Require().NoError(err)
	s.True(s.service.IsLoaded())
	s.Equal(2, s.service.Count())

	p, err := s.service.Get("kol-1")
	s.Require().NoError(err)
	s.Equal("Ansem", p.Name)
	s.Equal(int64(612000), p.Followers)

	p, err = s.service.Get("kol-2")
	s.Require().NoError(err)
	s.Equal(int64(5_000_000), p.Followers)
	s.Equal("human, cartoon", p.PfpType)
}

func (s *ServiceSuite) TestLoadFromFileMissing() {
	err := s.service.LoadFromFile(s.ctx, filepath.Join(s.T().TempDir(), "missing.json"))
	s.Error(err)
	s.False(s.service.IsLoaded())
}

func (s *ServiceSuite) TestLoadFromFileMalformed() {
	err := s.service.LoadFromFile(s.ctx, s.writeFile(`{"not": "an array"}`))
	s.Error(err)
}

func (s *ServiceSuite) TestLoadRejectsDuplicateIDs() {
	err := s.service.LoadProfiles([]model.Profile{{ID: "a"}, {ID: "a"}})
	s.ErrorIs(err, model.ErrInvalidInput)

	err = s.service.LoadProfiles([]model.Profile{{Name: "no id"}})
	s.ErrorIs(err, model.ErrInvalidInput)
}

func (s *ServiceSuite) TestRandomUsesInjectedSource() {
	s.Require().NoError(s.service.LoadProfiles([]model.Profile{{ID: "a"}, {ID: "b"}, {ID: "c"}}))
	s.random.QueueIntn(2, 4)

	p, err := s.service.Random()
	s.Require().NoError(err)
	s.Equal(model.ProfileID("c"), p.ID)

	p, err = s.service.Random()
	s.Require().NoError(err)
	s.Equal(model.ProfileID("b"), p.ID)
}

func (s *ServiceSuite) TestGetUnknown() {
	s.Require().NoError(s.service.LoadProfiles([]model.Profile{{ID: "a"}}))
	_, err := s.service.Get("zzz")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *ServiceSuite) TestFollowersFromLabel() {
	cases := map[string]int64{
		"over 5M": 5_000_000,
		"3-5M":    4_000_000,
		"1-3M":    2_000_000,
		"500k-1M": 750_000,
		"0-500k":  250_000,
		"":        250_000,
	}
	for label, want := range cases {
		s.Equal(want, FollowersFromLabel(label), label)
	}
}
