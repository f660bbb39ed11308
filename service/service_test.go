package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/apperror"
	"blog-api/models"
	"blog-api/repository/memory"
	"blog-api/service"
)

type recordedEvent struct {
	Subject string
	Event   any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(_ context.Context, subject string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Subject: subject, Event: event})
	return nil
}

func (p *fakePublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Subject)
	}
	return out
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	// beforeGuardedSet runs once, before the next SetIfEqual checks its guard.
	beforeGuardedSet func()
}

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", fmt.Errorf("miss")
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key, val string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
	return nil
}

func (c *mapCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) SetIfEqual(_ context.Context, key, val, guardKey, guard string) error {
	c.mu.Lock()
	hook := c.beforeGuardedSet
	c.beforeGuardedSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data[guardKey] != guard {
		return nil
	}
	c.data[key] = val
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type fakeIndexer struct {
	mu      sync.Mutex
	docs    map[string]models.PostDocument
	related []string
}

func (f *fakeIndexer) IndexPost(_ context.Context, doc models.PostDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndexer) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeIndexer) Search(_ context.Context, q string, size int) ([]models.SearchHit, error) {
	return []models.SearchHit{{ID: "hit", Title: q, Score: float64(size)}}, nil
}

func (f *fakeIndexer) Related(_ context.Context, tags []string, excludeID string, _ int) ([]models.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.related = tags
	return []models.SearchHit{{ID: "other-than-" + excludeID}}, nil
}

type env struct {
	store    *memory.Store
	cache    *mapCache
	events   *fakePublisher
	index    *fakeIndexer
	posts    *service.PostService
	comments *service.CommentService
	likes    *service.LikeService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	e := &env{
		store:  store,
		cache:  &mapCache{data: map[string]string{}},
		events: &fakePublisher{},
		index:  &fakeIndexer{docs: map[string]models.PostDocument{}},
	}
	deps := service.Deps{
		Tx:       store,
		Posts:    store.Posts(),
		Comments: store.Comments(),
		Likes:    store.Likes(),
		Tags:     store.Tags(),
		Cache:    e.cache,
		Search:   e.index,
		Events:   e.events,
		Now: func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		},
	}
	e.posts = service.NewPostService(deps)
	e.comments = service.NewCommentService(deps)
	e.likes = service.NewLikeService(deps)
	return e
}

func postReq(title string, tags ...string) models.CreatePostReq {
	return models.CreatePostReq{
		Title:    title,
		Content:  "some long enough content",
		Category: models.CategoryTechnology,
		Tags:     tags,
	}
}

func (e *env) mustPost(t *testing.T, owner string, req models.CreatePostReq) *models.PostView {
	t.Helper()
	v, err := e.posts.Create(context.Background(), req, owner)
	require.NoError(t, err)
	return v
}

func (e *env) mustComment(t *testing.T, owner string, postID uuid.UUID, parent *uuid.UUID, content string) *models.CommentView {
	t.Helper()
	v, err := e.comments.Create(context.Background(), models.CreateCommentReq{
		Content: content, PostID: postID, ParentCommentID: parent,
	}, owner)
	require.NoError(t, err)
	return v
}

func assertKind(t *testing.T, err error, k apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, k, apperror.KindOf(err), "error: %v", err)
}
