package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"book_story_service/internal/member/domain"
	"book_story_service/pkg/database"
	"book_story_service/pkg/encrypt"
	"book_story_service/pkg/logger"
	token "book_story_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMemberRepo Mock MemberRepo
type MockMemberRepo struct {
	mock.Mock
}

func (m *MockMemberRepo) CreateMember(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}
func (m *MockMemberRepo) UpdateMemberStatus(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}
func (m *MockMemberRepo) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	args := m.Called(ctx, memberQuery)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRedisRepo Mock RedisRepository for any value type
type MockRedisRepo[T any] struct {
	mock.Mock
}

func (m *MockRedisRepo[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockRedisRepo[T]) Get(ctx context.Context, key string) (T, error) {
	args := m.Called(ctx, key)
	if v, ok := args.Get(0).(T); ok {
		return v, args.Error(1)
	}
	var zero T
	return zero, args.Error(1)
}

func (m *MockRedisRepo[T]) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockRedisRepo[T]) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

func (m *MockRedisRepo[T]) GetTTL(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

// MockMailQueue Mock MailQueue
type MockMailQueue struct {
	mock.Mock
}

func (m *MockMailQueue) Publish(ctx context.Context, job domain.MailJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

type memberMocks struct {
	members  *MockMemberRepo
	sessions *MockRedisRepo[domain.MemberSession]
	links    *MockRedisRepo[domain.LoginLink]
	mail     *MockMailQueue
}

func (m memberMocks) assert(t *testing.T) {
	m.members.AssertExpectations(t)
	m.sessions.AssertExpectations(t)
	m.links.AssertExpectations(t)
	m.mail.AssertExpectations(t)
}

func newTestUseCase() (*memberUseCase, memberMocks) {
	logger.SetNewNop()
	m := memberMocks{
		members:  new(MockMemberRepo),
		sessions: new(MockRedisRepo[domain.MemberSession]),
		links:    new(MockRedisRepo[domain.LoginLink]),
		mail:     new(MockMailQueue),
	}
	uc := NewMemberUseCase(m.members, time.Hour, m.sessions, m.links, m.mail, LinkSettings{
		TTL:       15 * time.Minute,
		PublicURL: "https://books.example/verify",
	}).(*memberUseCase)
	uc.newSecret = func() string { return "secret-1" }
	return uc, m
}

func TestMemberUseCase_RequestLoginLink(t *testing.T) {
	ctx := context.Background()
	email := "alice@x.com"

	t.Run("first request creates the member", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.members.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, domain.ErrMemberNotFound).Once()
		m.members.On("CreateMember", ctx, mock.MatchedBy(func(mb *domain.Member) bool {
			return mb.Email == email && mb.MemberID != "" && mb.Status == domain.MemberStatusOffLine
		})).Return(nil).Once()
		m.links.On("Set", ctx, "login_link:alice@x.com", mock.MatchedBy(func(l domain.LoginLink) bool {
			return l.Email == email && encrypt.CheckSecret(l.SecretHash, "secret-1") == nil
		}), 15*time.Minute).Return(nil).Once()
		m.mail.On("Publish", ctx, mock.MatchedBy(func(job domain.MailJob) bool {
			return job.Email == email && job.Link == "https://books.example/verify?email=alice%40x.com&token=secret-1"
		})).Return(nil).Once()

		err := uc.RequestLoginLink(ctx, "  Alice@X.com ")

		assert.NoError(t, err)
		m.assert(t)
	})

	t.Run("existing member keeps its id", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.members.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(&domain.Member{ID: 1, MemberID: "m-1", Email: email}, nil).Once()
		m.links.On("Set", ctx, "login_link:alice@x.com", mock.Anything, 15*time.Minute).Return(nil).Once()
		m.mail.On("Publish", ctx, mock.Anything).Return(nil).Once()

		assert.NoError(t, uc.RequestLoginLink(ctx, email))
		m.members.AssertNotCalled(t, "CreateMember", mock.Anything, mock.Anything)
		m.assert(t)
	})

	t.Run("invalid email", func(t *testing.T) {
		uc, m := newTestUseCase()

		err := uc.RequestLoginLink(ctx, "not-an-email")

		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
		m.assert(t)
	})

	t.Run("banned member", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.members.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(&domain.Member{MemberID: "m-1", Email: email, Status: domain.MemberStatusBan}, nil).Once()

		err := uc.RequestLoginLink(ctx, email)

		assert.ErrorIs(t, err, domain.ErrMemberBlocked)
		m.assert(t)
	})

	t.Run("queue failure", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.members.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(&domain.Member{MemberID: "m-1", Email: email}, nil).Once()
		m.links.On("Set", ctx, "login_link:alice@x.com", mock.Anything, 15*time.Minute).Return(nil).Once()
		m.mail.On("Publish", ctx, mock.Anything).Return(errors.New("channel closed")).Once()

		err := uc.RequestLoginLink(ctx, email)

		assert.EqualError(t, err, "channel closed")
		m.assert(t)
	})

	t.Run("db error", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.members.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).Return(nil, errors.New("db error")).Once()

		err := uc.RequestLoginLink(ctx, email)

		assert.EqualError(t, err, "db error")
		m.assert(t)
	})
}

func TestMemberUseCase_VerifyLoginLink(t *testing.T) {
	ctx := context.Background()
	email := "alice@x.com"
	hashed, err := encrypt.HashSecret("secret-1")
	require.NoError(t, err)
	pending := domain.LoginLink{Email: email, SecretHash: hashed, ExpiredAt: time.Now().Add(time.Minute)}

	t.Run("valid link opens a session", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.links.On("Get", ctx, "login_link:alice@x.com").Return(pending, nil).Once()
		m.links.On("Del", ctx, "login_link:alice@x.com").Return(nil).Once()
		m.members.On("FindByMember", ctx, &domain.MemberQuery{Email: &email}).
			Return(&domain.Member{ID: 1, MemberID: "m-1", Email: email}, nil).Once()
		m.sessions.On("Set", ctx, "session:m-1", mock.MatchedBy(func(s domain.MemberSession) bool {
			return s.MemberID == "m-1" && s.Email == email && s.Token != ""
		}), time.Hour).Return(nil).Once()
		m.members.On("UpdateMemberStatus", ctx, mock.MatchedBy(func(mb *domain.Member) bool {
			return mb.MemberID == "m-1" && mb.Status == domain.MemberStatusOnLine
		})).Return(nil).Once()

		tok, err := uc.VerifyLoginLink(ctx, email, "secret-1")

		require.NoError(t, err)
		claims, err := token.ParseJWT(tok)
		require.NoError(t, err)
		assert.Equal(t, email, claims.Email)
		assert.Equal(t, "m-1", claims.MemberID)
		m.assert(t)
	})

	t.Run("wrong secret keeps the link", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.links.On("Get", ctx, "login_link:alice@x.com").Return(pending, nil).Once()

		_, err := uc.VerifyLoginLink(ctx, email, "guess")

		assert.ErrorIs(t, err, domain.ErrInvalidLink)
		m.links.AssertNotCalled(t, "Del", mock.Anything, mock.Anything)
		m.assert(t)
	})

	t.Run("used or unknown link", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.links.On("Get", ctx, "login_link:alice@x.com").Return(nil, database.ErrNotFound).Once()

		_, err := uc.VerifyLoginLink(ctx, email, "secret-1")

		assert.ErrorIs(t, err, domain.ErrInvalidLink)
		m.assert(t)
	})

	t.Run("expired link", func(t *testing.T) {
		uc, m := newTestUseCase()
		expired := pending
		expired.ExpiredAt = time.Now().Add(-time.Second)
		m.links.On("Get", ctx, "login_link:alice@x.com").Return(expired, nil).Once()

		_, err := uc.VerifyLoginLink(ctx, email, "secret-1")

		assert.ErrorIs(t, err, domain.ErrInvalidLink)
		m.assert(t)
	})

	t.Run("missing parameters", func(t *testing.T) {
		uc, m := newTestUseCase()

		_, err := uc.VerifyLoginLink(ctx, "", "secret-1")

		assert.ErrorIs(t, err, domain.ErrInvalidLink)
		m.assert(t)
	})
}

func TestMemberUseCase_Session(t *testing.T) {
	ctx := context.Background()
	tok, err := token.GenerateJWT("m-1", "alice@x.com", string(token.RoleMember), "test")
	require.NoError(t, err)

	t.Run("logout drops the session", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.sessions.On("Del", ctx, "session:m-1").Return(nil).Once()
		m.members.On("UpdateMemberStatus", ctx, &domain.Member{MemberID: "m-1", Status: domain.MemberStatusOffLine}).Return(nil).Once()

		assert.NoError(t, uc.Logout(ctx, tok))
		m.assert(t)
	})

	t.Run("logout with a bad token", func(t *testing.T) {
		uc, m := newTestUseCase()

		assert.ErrorIs(t, uc.Logout(ctx, "bad"), token.ErrInvalidToken)
		m.assert(t)
	})

	t.Run("timeout check", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.sessions.On("GetTTL", ctx, "session:m-1").Return(30, nil).Once()
		m.sessions.On("GetTTL", ctx, "session:m-1").Return(0, nil).Once()

		expired, err := uc.CheckSessionTimeout(ctx, tok)
		require.NoError(t, err)
		assert.False(t, expired)

		expired, err = uc.CheckSessionTimeout(ctx, tok)
		require.NoError(t, err)
		assert.True(t, expired)
		m.assert(t)
	})

	t.Run("reconnect extends the session", func(t *testing.T) {
		uc, m := newTestUseCase()
		old := domain.MemberSession{Token: tok, MemberID: "m-1", ExpiredAt: time.Now().Add(time.Minute)}
		m.sessions.On("Get", ctx, "session:m-1").Return(old, nil).Once()
		m.sessions.On("Set", ctx, "session:m-1", mock.MatchedBy(func(s domain.MemberSession) bool {
			return s.ExpiredAt.After(time.Now().Add(50*time.Minute))
		}), time.Hour).Return(nil).Once()

		assert.NoError(t, uc.ReconnectSession(ctx, tok))
		m.assert(t)
	})

	t.Run("reconnect after expiry", func(t *testing.T) {
		uc, m := newTestUseCase()
		m.sessions.On("Get", ctx, "session:m-1").Return(nil, database.ErrNotFound).Once()

		assert.ErrorIs(t, uc.ReconnectSession(ctx, tok), domain.ErrSessionExpired)
		m.assert(t)
	})
}
