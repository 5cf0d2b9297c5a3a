package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisRepoTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	repo   Repo
}

func (s *RedisRepoTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	repo, err := NewRedis(&RedisConfig{
		RedisClient: s.client,
		SessionTTL:  time.Hour,
	})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *RedisRepoTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepoTestSuite))
}

func (s *RedisRepoTestSuite) TestCreateGetDelete() {
	session, err := s.repo.Create(context.Background(), testUser, testCreds)
	s.Require().NoError(err)
	s.Require().NotEmpty(session.Token)

	stored, err := s.repo.Get(context.Background(), session.Token)
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(testUser, stored.User)
	s.Equal(testCreds.AccessToken, stored.Credentials.AccessToken)

	s.Require().NoError(s.repo.Delete(context.Background(), session.Token))

	stored, err = s.repo.Get(context.Background(), session.Token)
	s.Require().NoError(err)
	s.Nil(stored)
}

func (s *RedisRepoTestSuite) TestGetAbsent() {
	stored, err := s.repo.Get(context.Background(), "no-such-token")
	s.Require().NoError(err)
	s.Nil(stored)
}

func (s *RedisRepoTestSuite) TestSessionExpires() {
	session, err := s.repo.Create(context.Background(), testUser, testCreds)
	s.Require().NoError(err)

	s.mr.FastForward(2 * time.Hour)

	stored, err := s.repo.Get(context.Background(), session.Token)
	s.Require().NoError(err)
	s.Nil(stored)
}
