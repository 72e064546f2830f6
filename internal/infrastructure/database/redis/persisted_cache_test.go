package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/LitFed/internal/config"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LitFed/pkg/types/common"
)

type PersistedCacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  *PersistedDOICache
}

func (s *PersistedCacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = &Client{rdb: db, logger: logging.NewNopLogger()}
	s.cache = NewPersistedDOICache(s.client, config.RedisConfig{
		KeyPrefix:  "test:",
		DefaultTTL: time.Minute,
	}, logging.NewNopLogger())
}

func (s *PersistedCacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *PersistedCacheTestSuite) TestGetMissOnAbsentKey() {
	s.mock.ExpectExists("test:persisted:r-1").SetVal(0)

	dois, ok, err := s.cache.GetPersistedDOIs(context.Background(), common.ID("r-1"))
	s.Require().NoError(err)
	s.False(ok)
	s.Nil(dois)
}

func (s *PersistedCacheTestSuite) TestGetHitFiltersEmptyMarker() {
	s.mock.ExpectExists("test:persisted:r-1").SetVal(1)
	s.mock.ExpectSMembers("test:persisted:r-1").SetVal([]string{emptyMarker, "D1", "D2"})

	dois, ok, err := s.cache.GetPersistedDOIs(context.Background(), common.ID("r-1"))
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(map[string]struct{}{"D1": {}, "D2": {}}, dois)
}

func (s *PersistedCacheTestSuite) TestGetHitEmptySet() {
	s.mock.ExpectExists("test:persisted:r-1").SetVal(1)
	s.mock.ExpectSMembers("test:persisted:r-1").SetVal([]string{emptyMarker})

	dois, ok, err := s.cache.GetPersistedDOIs(context.Background(), common.ID("r-1"))
	s.Require().NoError(err)
	s.True(ok)
	s.Empty(dois)
}

func (s *PersistedCacheTestSuite) TestSetReplacesSet() {
	s.mock.ExpectTxPipeline()
	s.mock.ExpectDel("test:persisted:r-1").SetVal(1)
	s.mock.ExpectSAdd("test:persisted:r-1", emptyMarker, "D1").SetVal(2)
	s.mock.ExpectExpire("test:persisted:r-1", time.Minute).SetVal(true)
	s.mock.ExpectTxPipelineExec()

	err := s.cache.SetPersistedDOIs(context.Background(), common.ID("r-1"),
		map[string]struct{}{"D1": {}})
	s.Require().NoError(err)
}

func (s *PersistedCacheTestSuite) TestAddSkipsAbsentSet() {
	s.mock.ExpectExists("test:persisted:r-1").SetVal(0)

	err := s.cache.AddPersistedDOIs(context.Background(), common.ID("r-1"), []string{"D9"})
	s.Require().NoError(err)
}

func (s *PersistedCacheTestSuite) TestAddExtendsCachedSet() {
	s.mock.ExpectExists("test:persisted:r-1").SetVal(1)
	s.mock.ExpectTxPipeline()
	s.mock.ExpectSAdd("test:persisted:r-1", "D9").SetVal(1)
	s.mock.ExpectExpire("test:persisted:r-1", time.Minute).SetVal(true)
	s.mock.ExpectTxPipelineExec()

	err := s.cache.AddPersistedDOIs(context.Background(), common.ID("r-1"), []string{"D9"})
	s.Require().NoError(err)
}

func (s *PersistedCacheTestSuite) TestAddNoDOIsIsNoop() {
	err := s.cache.AddPersistedDOIs(context.Background(), common.ID("r-1"), nil)
	s.Require().NoError(err)
}

func (s *PersistedCacheTestSuite) TestInvalidate() {
	s.mock.ExpectDel("test:persisted:r-1").SetVal(1)

	err := s.cache.InvalidateReview(context.Background(), common.ID("r-1"))
	s.Require().NoError(err)
}

func TestPersistedCacheTestSuite(t *testing.T) {
	suite.Run(t, new(PersistedCacheTestSuite))
}
