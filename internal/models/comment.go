package models

import (
	"fmt"
	"time"
)

// CommentStatus represents the moderation state of a comment.
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)

// Comment length bounds, in runes.
const (
	MinCommentLength  = 2
	MaxCommentLength  = 1000
	MaxNicknameLength = 50
)

// AdminNickname is the fixed display identity for replies posted by the
// site owner through the moderation console.
const AdminNickname = "Author"

// Comment represents a comment on an article
type Comment struct {
	ID        int64         `json:"id" db:"id"`
	ArticleID int64         `json:"article_id" db:"article_id"`
	ParentID  *int64        `json:"parent_id,omitempty" db:"parent_id"`
	Content   string        `json:"content" db:"content"`
	Nickname  string        `json:"nickname,omitempty" db:"nickname"`
	Status    CommentStatus `json:"status" db:"status"`
	IsPrivate bool          `json:"is_private" db:"is_private"`
	IPAddress string        `json:"-" db:"ip_address"`
	Location  string        `json:"location,omitempty" db:"location"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	Replies   []*Comment    `json:"replies,omitempty" db:"-"`
}

// IsRoot reports whether the comment anchors its own thread.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// DisplayName returns the nickname, or an anonymized identifier derived
// from the comment's id when none was given.
func (c *Comment) DisplayName() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return fmt.Sprintf("Visitor-%04d", c.ID%10000)
}

// ModerationAction is an admin moderation verb.
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionDelete  ModerationAction = "delete"
)

// ValidActions defines allowed moderation actions
var ValidActions = map[ModerationAction]bool{
	ActionApprove: true,
	ActionReject:  true,
	ActionDelete:  true,
}
