package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"blog-api/models"
)

// TxManager runs fn inside one transaction; repositories pick the
// transaction up from the context they are given.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Lookups return (nil, nil) when the row does not exist.

type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, f models.PostFilter) ([]models.Post, error)
	ListByCategory(ctx context.Context, c models.Category, offset, limit int) ([]models.Post, int, error)
	ListByTag(ctx context.Context, tag string) ([]models.Post, error)
	ReplaceTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error
	LogActivity(ctx context.Context, action string, postID uuid.UUID) error
}

type TagRepository interface {
	FindByName(ctx context.Context, name string) (*models.Tag, error)
	// Create inserts t or, when the name already exists, loads the stored id into t.
	Create(ctx context.Context, t *models.Tag) error
}

type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ExistsInPost(ctx context.Context, id, postID uuid.UUID) (bool, error)
	ListTopLevel(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
	ListReplies(ctx context.Context, parentIDs []uuid.UUID) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) error
	// ThreadIDs returns id and all its descendants, deepest first.
	ThreadIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	// IDsByPost returns every comment of the post, deepest first.
	IDsByPost(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LikeRepository interface {
	// LockTarget serializes toggles of the same (user, target) pair until the
	// surrounding transaction ends.
	LockTarget(ctx context.Context, userID string, t models.LikeTarget) error
	Find(ctx context.Context, userID string, t models.LikeTarget) (*models.Like, error)
	Create(ctx context.Context, l *models.Like) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTargets(ctx context.Context, kind models.TargetKind, ids []uuid.UUID) ([]models.Like, error)
	DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []uuid.UUID) error
}

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, val string) error
	Del(ctx context.Context, key string) error
	// SetIfEqual writes key only while guardKey still holds guard. An absent
	// guardKey reads as "".
	SetIfEqual(ctx context.Context, key, val, guardKey, guard string) error
}

type Indexer interface {
	IndexPost(ctx context.Context, doc models.PostDocument) error
	DeletePost(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]models.SearchHit, error)
	Related(ctx context.Context, tags []string, excludeID string, size int) ([]models.SearchHit, error)
}

type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

// Deps groups the collaborators shared by every service. Cache, Search,
// Events and Now are optional.
type Deps struct {
	Tx       TxManager
	Posts    PostRepository
	Comments CommentRepository
	Likes    LikeRepository
	Tags     TagRepository

	Cache  Cache
	Search Indexer
	Events Publisher
	Now    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = noopCache{}
	}
	if d.Search == nil {
		d.Search = noopIndexer{}
	}
	if d.Events == nil {
		d.Events = noopPublisher{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, error) { return "", errCacheMiss }
func (noopCache) Set(context.Context, string, string) error   { return nil }
func (noopCache) Del(context.Context, string) error           { return nil }
func (noopCache) SetIfEqual(context.Context, string, string, string, string) error {
	return nil
}

type noopIndexer struct{}

func (noopIndexer) IndexPost(context.Context, models.PostDocument) error { return nil }
func (noopIndexer) DeletePost(context.Context, string) error             { return nil }
func (noopIndexer) Search(context.Context, string, int) ([]models.SearchHit, error) {
	return []models.SearchHit{}, nil
}
func (noopIndexer) Related(context.Context, []string, string, int) ([]models.SearchHit, error) {
	return []models.SearchHit{}, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }
