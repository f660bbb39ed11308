package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// LikeTarget is exactly one of a post or a comment.
type LikeTarget struct {
	Kind TargetKind
	ID   uuid.UUID
}

// NewLikeTarget returns false unless exactly one id is supplied.
func NewLikeTarget(postID, commentID *uuid.UUID) (LikeTarget, bool) {
	switch {
	case postID != nil && commentID == nil:
		return LikeTarget{Kind: TargetPost, ID: *postID}, true
	case commentID != nil && postID == nil:
		return LikeTarget{Kind: TargetComment, ID: *commentID}, true
	default:
		return LikeTarget{}, false
	}
}

func (t LikeTarget) PostID() *uuid.UUID {
	if t.Kind != TargetPost {
		return nil
	}
	id := t.ID
	return &id
}

func (t LikeTarget) CommentID() *uuid.UUID {
	if t.Kind != TargetComment {
		return nil
	}
	id := t.ID
	return &id
}

func (t LikeTarget) String() string { return fmt.Sprintf("%s:%s", t.Kind, t.ID) }

type Like struct {
	ID        uuid.UUID
	UserID    string
	Target    LikeTarget
	CreatedAt time.Time
}

type ToggleLikeReq struct {
	PostID    *uuid.UUID `json:"blog_post_id"`
	CommentID *uuid.UUID `json:"comment_id"`
}

type LikeView struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
