package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment with a nil ParentCommentID is a top-level comment on its post.
type Comment struct {
	ID              uuid.UUID
	Content         string
	UserID          string
	PostID          uuid.UUID
	ParentCommentID *uuid.UUID
	CreatedAt       time.Time
}

func (c Comment) IsReply() bool { return c.ParentCommentID != nil }

type CreateCommentReq struct {
	Content         string     `json:"content" validate:"required,notblank,max=500"`
	PostID          uuid.UUID  `json:"blog_post_id" validate:"required"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id"`
}

// UpdateCommentReq is the only document a comment patch may touch.
type UpdateCommentReq struct {
	Content string `json:"content" validate:"required,notblank,max=500"`
}

type CommentView struct {
	ID              uuid.UUID     `json:"id"`
	Content         string        `json:"content"`
	CreatedAt       time.Time     `json:"created_at"`
	UserID          string        `json:"user_id"`
	PostID          uuid.UUID     `json:"blog_post_id"`
	ParentCommentID *uuid.UUID    `json:"parent_comment_id,omitempty"`
	LikeCount       int           `json:"like_count"`
	Likes           []LikeView    `json:"likes"`
	Replies         []CommentView `json:"replies"`
}
