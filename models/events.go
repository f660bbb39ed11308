package models

import "github.com/google/uuid"

const (
	SubjectPostCreated    = "blog.post.created"
	SubjectPostUpdated    = "blog.post.updated"
	SubjectPostDeleted    = "blog.post.deleted"
	SubjectCommentCreated = "blog.comment.created"
	SubjectCommentDeleted = "blog.comment.deleted"
	SubjectLikeToggled    = "blog.like.toggled"
)

type PostCreated struct {
	PostID   uuid.UUID `json:"post_id"`
	UserID   string    `json:"user_id"`
	Title    string    `json:"title"`
	Category Category  `json:"category"`
}

type PostUpdated struct {
	PostID uuid.UUID `json:"post_id"`
	UserID string    `json:"user_id"`
}

type PostDeleted struct {
	PostID uuid.UUID `json:"post_id"`
	UserID string    `json:"user_id"`
}

type CommentCreated struct {
	CommentID       uuid.UUID  `json:"comment_id"`
	PostID          uuid.UUID  `json:"post_id"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id,omitempty"`
	UserID          string     `json:"user_id"`
}

type CommentDeleted struct {
	CommentID uuid.UUID `json:"comment_id"`
	PostID    uuid.UUID `json:"post_id"`
	Removed   int       `json:"removed"`
}

type LikeToggled struct {
	UserID     string     `json:"user_id"`
	TargetType TargetKind `json:"target_type"`
	TargetID   uuid.UUID  `json:"target_id"`
	Liked      bool       `json:"liked"`
}
