package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  Category  `json:"category"`
	UserID    string    `json:"user_id"`
	ImageURLs []string  `json:"image_urls"`
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatePostReq is used for both create and full-replacement update.
type CreatePostReq struct {
	Title     string   `json:"title" validate:"required,notblank,min=3,max=200"`
	Content   string   `json:"content" validate:"required,notblank,min=10"`
	Category  Category `json:"category" validate:"required,category"`
	Tags      []string `json:"tags" validate:"max=5"`
	ImageURLs []string `json:"image_urls" validate:"max=8"`
}

type UpdatePostReq = CreatePostReq

// ListPostsQuery mirrors the permissive listing parameters: unknown field
// names are ignored rather than rejected.
type ListPostsQuery struct {
	FilterOn    string `form:"filterOn"`
	FilterQuery string `form:"filterQuery"`
	SortBy      string `form:"sortBy"`
	IsAscending *bool  `form:"isAscending"`
}

// PostFilter is the normalized form of ListPostsQuery handed to storage.
type PostFilter struct {
	TitleContains string
	SortByCreated bool
	Ascending     bool
}

type PostView struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Category  Category      `json:"category"`
	UserID    string        `json:"user_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Tags      []TagView     `json:"tags"`
	ImageURLs []string      `json:"image_urls"`
	LikeCount int           `json:"like_count"`
	Likes     []LikeView    `json:"likes"`
	Comments  []CommentView `json:"comments"`
}

type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	PageNumber int `json:"page_number"`
	PageSize   int `json:"page_size"`
}

// PostDocument is the shape stored in the search index.
type PostDocument struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

type SearchHit struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}
