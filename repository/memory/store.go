// Package memory provides an in-memory implementation of the repositories.
// It keeps the relational constraints of the Postgres schema (unique likes,
// unique tag names, restricted deletes) so services behave the same on both.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"blog-api/models"
)

var (
	ErrDuplicate  = errors.New("memory: duplicate key")
	ErrForeignKey = errors.New("memory: foreign key violation")
)

type ActivityLog struct {
	Action string
	PostID uuid.UUID
}

type row[T any] struct {
	val T
	seq int
}

type state struct {
	seq       int
	posts     map[uuid.UUID]row[models.Post]
	postTags  map[uuid.UUID][]uuid.UUID
	tags      map[uuid.UUID]models.Tag
	tagByName map[string]uuid.UUID
	comments  map[uuid.UUID]row[models.Comment]
	likes     map[uuid.UUID]row[models.Like]
	activity  []ActivityLog
}

func newState() state {
	return state{
		posts:     map[uuid.UUID]row[models.Post]{},
		postTags:  map[uuid.UUID][]uuid.UUID{},
		tags:      map[uuid.UUID]models.Tag{},
		tagByName: map[string]uuid.UUID{},
		comments:  map[uuid.UUID]row[models.Comment]{},
		likes:     map[uuid.UUID]row[models.Like]{},
	}
}

func (s state) clone() state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.posts {
		c.posts[k] = v
	}
	for k, v := range s.postTags {
		c.postTags[k] = append([]uuid.UUID(nil), v...)
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.tagByName {
		c.tagByName[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	for k, v := range s.likes {
		c.likes[k] = v
	}
	c.activity = append([]ActivityLog(nil), s.activity...)
	return c
}

// Store holds every table. Transactions are serialized with each other and
// with standalone writes, and roll back by restoring a snapshot taken when
// they began.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   state
}

func New() *Store {
	return &Store{st: newState()}
}

type txKey struct{}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.st.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// lock takes the write lock. Outside a transaction it also waits on txMu so
// a rollback cannot erase a write that was committed while it was open.
func (s *Store) lock(ctx context.Context) (unlock func()) {
	if ctx.Value(txKey{}) != nil {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *Store) Posts() *PostRepo       { return &PostRepo{s: s} }
func (s *Store) Comments() *CommentRepo { return &CommentRepo{s: s} }
func (s *Store) Likes() *LikeRepo       { return &LikeRepo{s: s} }
func (s *Store) Tags() *TagRepo         { return &TagRepo{s: s} }

// Activity returns a copy of the activity log, oldest first.
func (s *Store) Activity() []ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ActivityLog(nil), s.st.activity...)
}

func (s *Store) nextSeq() int {
	s.st.seq++
	return s.st.seq
}

// ---- posts ----

type PostRepo struct{ s *Store }

func (r *PostRepo) Create(ctx context.Context, p *models.Post) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.posts[p.ID]; ok {
		return ErrDuplicate
	}
	stored := *p
	stored.Tags = nil
	stored.ImageURLs = append([]string{}, p.ImageURLs...)
	r.s.st.posts[p.ID] = row[models.Post]{val: stored, seq: r.s.nextSeq()}
	return nil
}

func (r *PostRepo) Update(ctx context.Context, p *models.Post) error {
	defer r.s.lock(ctx)()
	cur, ok := r.s.st.posts[p.ID]
	if !ok {
		return nil
	}
	cur.val.Title = p.Title
	cur.val.Content = p.Content
	cur.val.Category = p.Category
	cur.val.ImageURLs = append([]string{}, p.ImageURLs...)
	cur.val.UpdatedAt = p.UpdatedAt
	r.s.st.posts[p.ID] = cur
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()
	for _, c := range r.s.st.comments {
		if c.val.PostID == id {
			return fmt.Errorf("%w: comments reference post %s", ErrForeignKey, id)
		}
	}
	for _, l := range r.s.st.likes {
		if l.val.Target.Kind == models.TargetPost && l.val.Target.ID == id {
			return fmt.Errorf("%w: likes reference post %s", ErrForeignKey, id)
		}
	}
	delete(r.s.st.posts, id)
	delete(r.s.st.postTags, id)
	return nil
}

func (r *PostRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.st.posts[id]
	if !ok {
		return nil, nil
	}
	out := r.hydrate(p.val)
	return &out, nil
}

func (r *PostRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.st.posts[id]
	return ok, nil
}

func (r *PostRepo) List(_ context.Context, f models.PostFilter) ([]models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	needle := strings.ToLower(f.TitleContains)
	rows := r.filter(func(p models.Post) bool {
		return needle == "" || strings.Contains(strings.ToLower(p.Title), needle)
	})
	sortPosts(rows, f.SortByCreated && f.Ascending)
	return r.hydrateAll(rows), nil
}

func (r *PostRepo) ListByCategory(_ context.Context, c models.Category, offset, limit int) ([]models.Post, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := r.filter(func(p models.Post) bool { return p.Category == c })
	sortPosts(rows, false)
	total := len(rows)
	if offset >= total {
		return []models.Post{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return r.hydrateAll(rows[offset:end]), total, nil
}

func (r *PostRepo) ListByTag(_ context.Context, tag string) ([]models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tagID, ok := r.s.st.tagByName[tag]
	if !ok {
		return []models.Post{}, nil
	}
	rows := r.filter(func(p models.Post) bool {
		for _, id := range r.s.st.postTags[p.ID] {
			if id == tagID {
				return true
			}
		}
		return false
	})
	sortPosts(rows, false)
	return r.hydrateAll(rows), nil
}

func (r *PostRepo) ReplaceTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.posts[postID]; !ok {
		return fmt.Errorf("%w: post %s", ErrForeignKey, postID)
	}
	for _, id := range tagIDs {
		if _, ok := r.s.st.tags[id]; !ok {
			return fmt.Errorf("%w: tag %s", ErrForeignKey, id)
		}
	}
	r.s.st.postTags[postID] = append([]uuid.UUID(nil), tagIDs...)
	return nil
}

func (r *PostRepo) LogActivity(ctx context.Context, action string, postID uuid.UUID) error {
	defer r.s.lock(ctx)()
	r.s.st.activity = append(r.s.st.activity, ActivityLog{Action: action, PostID: postID})
	return nil
}

func (r *PostRepo) filter(keep func(models.Post) bool) []row[models.Post] {
	out := make([]row[models.Post], 0)
	for _, p := range r.s.st.posts {
		if keep(p.val) {
			out = append(out, p)
		}
	}
	return out
}

func (r *PostRepo) hydrate(p models.Post) models.Post {
	p.ImageURLs = append([]string{}, p.ImageURLs...)
	p.Tags = make([]models.Tag, 0, len(r.s.st.postTags[p.ID]))
	for _, id := range r.s.st.postTags[p.ID] {
		p.Tags = append(p.Tags, r.s.st.tags[id])
	}
	return p
}

func (r *PostRepo) hydrateAll(rows []row[models.Post]) []models.Post {
	out := make([]models.Post, 0, len(rows))
	for _, p := range rows {
		out = append(out, r.hydrate(p.val))
	}
	return out
}

func sortPosts(rows []row[models.Post], asc bool) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.val.CreatedAt.Equal(b.val.CreatedAt) {
			if asc {
				return a.val.CreatedAt.Before(b.val.CreatedAt)
			}
			return a.val.CreatedAt.After(b.val.CreatedAt)
		}
		if asc {
			return a.seq < b.seq
		}
		return a.seq > b.seq
	})
}

// ---- tags ----

type TagRepo struct{ s *Store }

func (r *TagRepo) FindByName(_ context.Context, name string) (*models.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.st.tagByName[name]
	if !ok {
		return nil, nil
	}
	t := r.s.st.tags[id]
	return &t, nil
}

func (r *TagRepo) Create(ctx context.Context, t *models.Tag) error {
	defer r.s.lock(ctx)()
	if id, ok := r.s.st.tagByName[t.Name]; ok {
		t.ID = id
		return nil
	}
	r.s.st.tags[t.ID] = *t
	r.s.st.tagByName[t.Name] = t.ID
	return nil
}

// ---- comments ----

type CommentRepo struct{ s *Store }

func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.posts[c.PostID]; !ok {
		return fmt.Errorf("%w: post %s", ErrForeignKey, c.PostID)
	}
	if c.ParentCommentID != nil {
		if _, ok := r.s.st.comments[*c.ParentCommentID]; !ok {
			return fmt.Errorf("%w: comment %s", ErrForeignKey, *c.ParentCommentID)
		}
	}
	if _, ok := r.s.st.comments[c.ID]; ok {
		return ErrDuplicate
	}
	r.s.st.comments[c.ID] = row[models.Comment]{val: *c, seq: r.s.nextSeq()}
	return nil
}

func (r *CommentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.st.comments[id]
	if !ok {
		return nil, nil
	}
	out := c.val
	return &out, nil
}

func (r *CommentRepo) ExistsInPost(_ context.Context, id, postID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.st.comments[id]
	return ok && c.val.PostID == postID, nil
}

func (r *CommentRepo) ListTopLevel(_ context.Context, postID uuid.UUID) ([]models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.collect(func(c models.Comment) bool {
		return c.PostID == postID && c.ParentCommentID == nil
	}), nil
}

func (r *CommentRepo) ListReplies(_ context.Context, parentIDs []uuid.UUID) ([]models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	parents := idSet(parentIDs)
	return r.collect(func(c models.Comment) bool {
		if c.ParentCommentID == nil {
			return false
		}
		_, ok := parents[*c.ParentCommentID]
		return ok
	}), nil
}

func (r *CommentRepo) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.st.comments[id]
	if !ok {
		return nil
	}
	c.val.Content = content
	r.s.st.comments[id] = c
	return nil
}

func (r *CommentRepo) ThreadIDs(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.st.comments[id]; !ok {
		return []uuid.UUID{}, nil
	}
	return r.deepestFirst([]uuid.UUID{id}), nil
}

func (r *CommentRepo) IDsByPost(_ context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	roots := r.collect(func(c models.Comment) bool {
		return c.PostID == postID && c.ParentCommentID == nil
	})
	ids := make([]uuid.UUID, 0, len(roots))
	for _, c := range roots {
		ids = append(ids, c.ID)
	}
	return r.deepestFirst(ids), nil
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()
	for _, c := range r.s.st.comments {
		if c.val.ParentCommentID != nil && *c.val.ParentCommentID == id {
			return fmt.Errorf("%w: replies reference comment %s", ErrForeignKey, id)
		}
	}
	for _, l := range r.s.st.likes {
		if l.val.Target.Kind == models.TargetComment && l.val.Target.ID == id {
			return fmt.Errorf("%w: likes reference comment %s", ErrForeignKey, id)
		}
	}
	delete(r.s.st.comments, id)
	return nil
}

// deepestFirst walks the reply tree breadth-first from roots and returns the
// levels in reverse, so children always precede their parents.
func (r *CommentRepo) deepestFirst(roots []uuid.UUID) []uuid.UUID {
	var levels [][]uuid.UUID
	for level := roots; len(level) > 0; {
		levels = append(levels, level)
		parents := idSet(level)
		var next []uuid.UUID
		for _, c := range r.s.st.comments {
			if c.val.ParentCommentID == nil {
				continue
			}
			if _, ok := parents[*c.val.ParentCommentID]; ok {
				next = append(next, c.val.ID)
			}
		}
		level = next
	}
	out := make([]uuid.UUID, 0)
	for i := len(levels) - 1; i >= 0; i-- {
		out = append(out, levels[i]...)
	}
	return out
}

func (r *CommentRepo) collect(keep func(models.Comment) bool) []models.Comment {
	rows := make([]row[models.Comment], 0)
	for _, c := range r.s.st.comments {
		if keep(c.val) {
			rows = append(rows, c)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].val.CreatedAt.Equal(rows[j].val.CreatedAt) {
			return rows[i].val.CreatedAt.Before(rows[j].val.CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})
	out := make([]models.Comment, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.val)
	}
	return out
}

// ---- likes ----

type LikeRepo struct{ s *Store }

// LockTarget is a no-op: transactions on the store are already serialized.
func (r *LikeRepo) LockTarget(context.Context, string, models.LikeTarget) error { return nil }

func (r *LikeRepo) Find(_ context.Context, userID string, t models.LikeTarget) (*models.Like, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.st.likes {
		if l.val.UserID == userID && l.val.Target == t {
			out := l.val
			return &out, nil
		}
	}
	return nil, nil
}

func (r *LikeRepo) Create(ctx context.Context, l *models.Like) error {
	defer r.s.lock(ctx)()
	switch l.Target.Kind {
	case models.TargetPost:
		if _, ok := r.s.st.posts[l.Target.ID]; !ok {
			return fmt.Errorf("%w: post %s", ErrForeignKey, l.Target.ID)
		}
	case models.TargetComment:
		if _, ok := r.s.st.comments[l.Target.ID]; !ok {
			return fmt.Errorf("%w: comment %s", ErrForeignKey, l.Target.ID)
		}
	}
	for _, existing := range r.s.st.likes {
		if existing.val.UserID == l.UserID && existing.val.Target == l.Target {
			return ErrDuplicate
		}
	}
	r.s.st.likes[l.ID] = row[models.Like]{val: *l, seq: r.s.nextSeq()}
	return nil
}

func (r *LikeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()
	delete(r.s.st.likes, id)
	return nil
}

func (r *LikeRepo) ListByTargets(_ context.Context, kind models.TargetKind, ids []uuid.UUID) ([]models.Like, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	want := idSet(ids)
	rows := make([]row[models.Like], 0)
	for _, l := range r.s.st.likes {
		if l.val.Target.Kind != kind {
			continue
		}
		if _, ok := want[l.val.Target.ID]; ok {
			rows = append(rows, l)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]models.Like, 0, len(rows))
	for _, l := range rows {
		out = append(out, l.val)
	}
	return out, nil
}

func (r *LikeRepo) DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []uuid.UUID) error {
	defer r.s.lock(ctx)()
	want := idSet(ids)
	for id, l := range r.s.st.likes {
		if l.val.Target.Kind != kind {
			continue
		}
		if _, ok := want[l.val.Target.ID]; ok {
			delete(r.s.st.likes, id)
		}
	}
	return nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	m := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
