package models

import (
	"time"
)

// Permission controls how an article's full content may be viewed.
type Permission string

const (
	PermissionPublic Permission = "public"
	PermissionVerify Permission = "verify"
)

// ArticleStatus represents the publication state of an article.
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticlePublished ArticleStatus = "published"
)

// Article represents a blog article
type Article struct {
	ID             int64         `json:"id" db:"id"`
	Title          string        `json:"title" db:"title"`
	Content        string        `json:"content,omitempty" db:"content"`
	Summary        string        `json:"summary,omitempty" db:"summary"`
	Author         string        `json:"author,omitempty" db:"author"`
	Status         ArticleStatus `json:"status" db:"status"`
	Permission     Permission    `json:"permission" db:"permission"`
	VerifyQuestion string        `json:"verify_question,omitempty" db:"verify_question"`
	// Stored in plain text: the gate is a soft content nudge, not an
	// authentication boundary.
	VerifyAnswer  string    `json:"-" db:"verify_answer"`
	AllowComments bool      `json:"allow_comments" db:"allow_comments"`
	IsTop         bool      `json:"is_top" db:"is_top"`
	ViewCount     int       `json:"view_count" db:"view_count"`
	LikeCount     int       `json:"like_count" db:"like_count"`
	CommentsCount int       `json:"comments_count" db:"comments_count"`
	Tags          []Tag     `json:"tags" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// IsGated reports whether viewing full content requires answering the
// verification question first.
func (a *Article) IsGated() bool {
	return a.Permission == PermissionVerify
}

// IsPublished reports whether the article is publicly visible at all.
func (a *Article) IsPublished() bool {
	return a.Status == ArticlePublished
}

// Tag represents an article tag
type Tag struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Color        string    `json:"color" db:"color"`
	ArticleCount int       `json:"article_count" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Time range filters accepted by article listings.
const (
	RangeAll     = "all"
	RangeWeek    = "week"
	RangeMonth   = "month"
	RangeQuarter = "quarter"
	RangeYear    = "year"
	RangeCustom  = "custom"
)

// ArticleFilter narrows public article listings
type ArticleFilter struct {
	Query      string // title substring search
	TimeRange  string // all, week, month, quarter, year, custom
	CustomDate string // YYYY, YYYYMM or YYYYMMDD when TimeRange is custom
	Tag        string // tag name
	Permission string // all, public, verify
	Page       int
	PerPage    int
}
