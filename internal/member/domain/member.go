package domain

import (
	"errors"
	"time"
)

// MemberStatus 用來表示使用者狀態
type MemberStatus int

// 状态: 0=offline, 1=online, 2=ban ,3=delete
const (
	// MemberStatusOffLine 使用者離線
	MemberStatusOffLine MemberStatus = iota
	// MemberStatusOnLine 使用者在線
	MemberStatusOnLine
	// MemberStatusBan 使用者被封鎖
	MemberStatusBan
	// MemberStatusDelete 使用者已刪除
	MemberStatusDelete
)

var (
	// ErrMemberNotFound no member matches the query
	ErrMemberNotFound = errors.New("no member found with given criteria")
	// ErrInvalidEmail the address cannot receive a sign-in link
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidLink the sign-in link is unknown, expired or already used
	ErrInvalidLink = errors.New("invalid or expired sign-in link")
	// ErrMemberBlocked banned and deleted members cannot sign in
	ErrMemberBlocked = errors.New("member is blocked")
	// ErrSessionExpired the session behind the token is gone
	ErrSessionExpired = errors.New("session expired")
)

// Member 用來表示使用者
type Member struct {
	ID        int64
	MemberID  string
	Email     string
	Status    MemberStatus
	CreatedAt time.Time
}

// CanSignIn reports whether the member may receive a session
func (m *Member) CanSignIn() bool {
	return m.Status == MemberStatusOffLine || m.Status == MemberStatusOnLine
}

// MemberSession 用來表示使用者的 Session
type MemberSession struct {
	Token        string    `json:"Token"`
	MemberID     string    `json:"MemberID"`
	Email        string    `json:"Email"`
	CreatedAt    time.Time `json:"CreatedAt"`
	LastActivity time.Time `json:"LastActivity"`
	ExpiredAt    time.Time `json:"ExpiredAt"`
}

// IsExpired 檢查 Session 是否已過期
func (s *MemberSession) IsExpired() bool {
	return time.Now().After(s.ExpiredAt)
}

// LoginLink is a pending one-time sign-in link. Only the bcrypt hash of the secret is kept.
type LoginLink struct {
	Email      string    `json:"Email"`
	SecretHash string    `json:"SecretHash"`
	ExpiredAt  time.Time `json:"ExpiredAt"`
}

// MailJob is queued for the mailer worker
type MailJob struct {
	Email     string    `json:"email"`
	Link      string    `json:"link"`
	ExpiredAt time.Time `json:"expired_at"`
}

// MemberQuery join conditions are used to query members
type MemberQuery struct {
	ID       *int64  `db:"id"`
	MemberID *string `db:"member_id"`
	Email    *string `db:"email"`
}
