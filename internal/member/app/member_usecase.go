package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"book_story_service/internal/member/domain"
	"book_story_service/internal/member/repository"
	"book_story_service/pkg/config"
	"book_story_service/pkg/database"
	"book_story_service/pkg/encrypt"
	"book_story_service/pkg/logger"
	token "book_story_service/pkg/token"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemberUseCase 這裡封裝了對外提供的應用服務
type MemberUseCase interface {
	RequestLoginLink(ctx context.Context, email string) error
	VerifyLoginLink(ctx context.Context, email, secret string) (string, error)
	FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error)
	Logout(ctx context.Context, token string) error
	ForceLogout(ctx context.Context, memberID string) error
	CheckSessionTimeout(ctx context.Context, token string) (bool, error)
	ReconnectSession(ctx context.Context, token string) error
}

// LinkSettings sign-in link lifetime and where it points to
type LinkSettings struct {
	TTL       time.Duration
	PublicURL string
}

type memberUseCase struct {
	memberRepo repository.MemberRepository
	sessionTTL time.Duration
	redisRepo  database.RedisRepository[domain.MemberSession]
	linkRepo   database.RedisRepository[domain.LoginLink]
	mailQueue  repository.MailQueue
	link       LinkSettings
	validate   *validator.Validate
	newSecret  func() string
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(memberRepo repository.MemberRepository,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.MemberSession],
	linkRepo database.RedisRepository[domain.LoginLink],
	mailQueue repository.MailQueue,
	link LinkSettings,
) MemberUseCase {
	return &memberUseCase{
		memberRepo: memberRepo,
		sessionTTL: sessionTTL,
		redisRepo:  redisRepo,
		linkRepo:   linkRepo,
		mailQueue:  mailQueue,
		link:       link,
		validate:   validator.New(),
		newSecret:  uuid.NewString,
	}
}

func loginLinkKey(email string) string {
	return "login_link:" + email
}

func sessionKey(memberID string) string {
	return "session:" + memberID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestLoginLink creates the member on first use and queues a one-time sign-in link.
// A newer request replaces any pending link for the same email.
func (m *memberUseCase) RequestLoginLink(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := m.validate.Var(email, "required,email"); err != nil {
		return domain.ErrInvalidEmail
	}

	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	switch {
	case errors.Is(err, domain.ErrMemberNotFound):
		member = &domain.Member{
			MemberID: uuid.New().String(),
			Email:    email,
			Status:   domain.MemberStatusOffLine,
		}
		if err := m.memberRepo.CreateMember(ctx, member); err != nil {
			return err
		}
		logger.Log.Info("member created", zap.String("member_id", member.MemberID))
	case err != nil:
		return err
	}

	if !member.CanSignIn() {
		return domain.ErrMemberBlocked
	}

	secret := m.newSecret()
	hashed, err := encrypt.HashSecret(secret)
	if err != nil {
		return err
	}

	expiredAt := time.Now().Add(m.link.TTL)
	if err := m.linkRepo.Set(ctx, loginLinkKey(email), domain.LoginLink{
		Email:      email,
		SecretHash: hashed,
		ExpiredAt:  expiredAt,
	}, m.link.TTL); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("email", email)
	q.Set("token", secret)
	job := domain.MailJob{
		Email:     email,
		Link:      m.link.PublicURL + "?" + q.Encode(),
		ExpiredAt: expiredAt,
	}
	if err := m.mailQueue.Publish(ctx, job); err != nil {
		logger.Log.Error("queue sign-in mail failed", zap.String("email", email), zap.Error(err))
		return err
	}
	return nil
}

// VerifyLoginLink burns the link and opens a session, returning its JWT
func (m *memberUseCase) VerifyLoginLink(ctx context.Context, email, secret string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || secret == "" {
		return "", domain.ErrInvalidLink
	}

	link, err := m.linkRepo.Get(ctx, loginLinkKey(email))
	if errors.Is(err, database.ErrNotFound) {
		return "", domain.ErrInvalidLink
	} else if err != nil {
		return "", err
	}
	if time.Now().After(link.ExpiredAt) || encrypt.CheckSecret(link.SecretHash, secret) != nil {
		return "", domain.ErrInvalidLink
	}
	if err := m.linkRepo.Del(ctx, loginLinkKey(email)); err != nil {
		return "", err
	}

	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		return "", err
	}
	if !member.CanSignIn() {
		return "", domain.ErrMemberBlocked
	}

	t, err := token.GenerateJWT(member.MemberID, member.Email, string(token.RoleMember), config.EnvConfig.MemberService)
	if err != nil {
		return "", err
	}

	now := time.Now()
	session := domain.MemberSession{
		Token:        t,
		MemberID:     member.MemberID,
		Email:        member.Email,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(m.sessionTTL),
	}
	if err := m.redisRepo.Set(ctx, sessionKey(member.MemberID), session, m.sessionTTL); err != nil {
		return "", err
	}

	member.Status = domain.MemberStatusOnLine
	if err := m.memberRepo.UpdateMemberStatus(ctx, member); err != nil {
		return "", err
	}
	return t, nil
}

// FindMember 用條件來尋找使用者
func (m *memberUseCase) FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error) {
	return m.memberRepo.FindByMember(ctx, param)
}

// Logout
func (m *memberUseCase) Logout(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		logger.Log.Error("Logout err", zap.Error(err))
		return err
	}
	logger.Log.Debug("logout", zap.String("member token info", fmt.Sprintf("%v", tokenInfo)))
	return m.ForceLogout(ctx, tokenInfo.MemberID)
}

// ForceLogout 直接把該 memberID 的 session 清除
func (m *memberUseCase) ForceLogout(ctx context.Context, memberID string) error {
	if err := m.redisRepo.Del(ctx, sessionKey(memberID)); err != nil {
		logger.Log.Warn("drop session failed", zap.String("member_id", memberID), zap.Error(err))
	}

	return m.memberRepo.UpdateMemberStatus(ctx, &domain.Member{
		MemberID: memberID,
		Status:   domain.MemberStatusOffLine,
	})
}

// CheckSessionTimeout reports true when the session behind t is gone
func (m *memberUseCase) CheckSessionTimeout(ctx context.Context, t string) (bool, error) {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		return true, err
	}

	ttl, err := m.redisRepo.GetTTL(ctx, sessionKey(tokenInfo.MemberID))
	if err != nil {
		return true, err
	}
	return ttl <= 0, nil
}

// ReconnectSession extends the session and records the activity
func (m *memberUseCase) ReconnectSession(ctx context.Context, t string) error {
	tokenInfo, err := token.ParseJWT(t)
	if err != nil {
		return err
	}

	key := sessionKey(tokenInfo.MemberID)
	session, err := m.redisRepo.Get(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return domain.ErrSessionExpired
	} else if err != nil {
		return err
	}

	now := time.Now()
	session.LastActivity = now
	session.ExpiredAt = now.Add(m.sessionTTL)
	return m.redisRepo.Set(ctx, key, session, m.sessionTTL)
}
