package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/apperror"
	"blog-api/models"
)

func TestCreatePost(t *testing.T) {
	e := newEnv(t)
	req := postReq("Hello Go", "go", " GO ", "backend")
	req.ImageURLs = []string{"https://cdn.example.com/a.png", "https://cdn.example.com/a.png", "http://x.io/b.JPG"}

	v := e.mustPost(t, "alice", req)

	assert.Equal(t, "alice", v.UserID)
	assert.Equal(t, []string{"https://cdn.example.com/a.png", "http://x.io/b.JPG"}, v.ImageURLs)
	require.Len(t, v.Tags, 2)
	assert.Equal(t, "GO", v.Tags[0].Name)
	assert.Equal(t, "BACKEND", v.Tags[1].Name)
	assert.Empty(t, v.Comments)
	assert.NotNil(t, v.Comments)
	assert.Equal(t, 0, v.LikeCount)

	assert.Contains(t, e.index.docs, v.ID.String())
	assert.Equal(t, []string{models.SubjectPostCreated}, e.events.subjects())
	require.Len(t, e.store.Activity(), 1)
	assert.Equal(t, "create_post", e.store.Activity()[0].Action)
}

func TestCreatePostValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := map[string]func(r *models.CreatePostReq){
		"short title":     func(r *models.CreatePostReq) { r.Title = "ab" },
		"short content":   func(r *models.CreatePostReq) { r.Content = "too short" },
		"blank title":     func(r *models.CreatePostReq) { r.Title = "     " },
		"blank content":   func(r *models.CreatePostReq) { r.Content = strings.Repeat(" ", 13) },
		"bad category":    func(r *models.CreatePostReq) { r.Category = "Gardening" },
		"too many tags":   func(r *models.CreatePostReq) { r.Tags = []string{"a", "b", "c", "d", "e", "f"} },
		"too many images": func(r *models.CreatePostReq) { r.ImageURLs = make([]string, 9) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := postReq("Valid title")
			mutate(&req)
			_, err := e.posts.Create(ctx, req, "alice")
			assertKind(t, err, apperror.KindInvalidArgument)
		})
	}

	t.Run("invalid image url is listed", func(t *testing.T) {
		req := postReq("Valid title")
		req.ImageURLs = []string{"https://ok.com/a.png", "ftp://bad.com/b.png", "https://ok.com/doc.pdf"}
		_, err := e.posts.Create(ctx, req, "alice")
		assertKind(t, err, apperror.KindInvalidArgument)
		assert.Contains(t, err.Error(), "ftp://bad.com/b.png")
		assert.Contains(t, err.Error(), "https://ok.com/doc.pdf")
		assert.NotContains(t, err.Error(), "https://ok.com/a.png")
	})

	assert.Empty(t, e.store.Activity(), "failed creates must not leave activity rows")
}

func TestGetPostUsesCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustPost(t, "alice", postReq("Cached post"))

	_, err := e.posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, e.cache.has("post:"+p.ID.String()))

	e.mustComment(t, "bob", p.ID, nil, "first!")
	assert.False(t, e.cache.has("post:"+p.ID.String()), "comment create must invalidate the post view")

	v, err := e.posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, v.Comments, 1)
	assert.Equal(t, "first!", v.Comments[0].Content)

	_, err = e.posts.GetByID(ctx, uuid.New())
	assertKind(t, err, apperror.KindNotFound)
}

func TestGetPostSkipsFillAfterConcurrentWrite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustPost(t, "alice", postReq("Racy post"))

	// The comment lands after GetByID loaded the post but before it fills
	// the cache, so the loaded view is already stale.
	e.cache.beforeGuardedSet = func() { e.mustComment(t, "bob", p.ID, nil, "late") }
	v, err := e.posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, v.Comments)
	assert.False(t, e.cache.has("post:"+p.ID.String()), "a stale view must not be cached")

	v, err = e.posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, v.Comments, 1)
	assert.Equal(t, "late", v.Comments[0].Content)
	assert.True(t, e.cache.has("post:"+p.ID.String()))
}

func TestUpdatePostReplacesTagsAndImages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := postReq("Original", "A", "B")
	req.ImageURLs = []string{"https://img.io/1.png"}
	p := e.mustPost(t, "alice", req)

	upd := postReq("Rewritten", "b", "C")
	upd.Category = models.CategoryScience
	v, err := e.posts.Update(ctx, p.ID, upd, "alice")
	require.NoError(t, err)

	assert.Equal(t, "Rewritten", v.Title)
	assert.Equal(t, models.CategoryScience, v.Category)
	names := []string{}
	for _, tg := range v.Tags {
		names = append(names, tg.Name)
	}
	assert.Equal(t, []string{"B", "C"}, names)
	assert.Empty(t, v.ImageURLs)
	assert.Equal(t, p.CreatedAt, v.CreatedAt)
	assert.True(t, v.UpdatedAt.After(p.UpdatedAt))

	// B keeps its identity across the replacement.
	assert.Equal(t, p.Tags[1].ID, v.Tags[0].ID)
}

func TestUpdatePostOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustPost(t, "alice", postReq("Alice post"))

	_, err := e.posts.Update(ctx, p.ID, postReq("Hijacked"), "mallory")
	assertKind(t, err, apperror.KindForbidden)
	assert.Equal(t, "Access denied", apperror.PublicMessage(err))

	_, err = e.posts.Update(ctx, uuid.New(), postReq("Whatever"), "alice")
	assertKind(t, err, apperror.KindNotFound)

	// Existence is checked before validation and ownership.
	_, err = e.posts.Update(ctx, uuid.New(), models.CreatePostReq{}, "mallory")
	assertKind(t, err, apperror.KindNotFound)
}

func TestDeletePostCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustPost(t, "alice", postReq("Doomed"))
	root := e.mustComment(t, "bob", p.ID, nil, "root")
	reply := e.mustComment(t, "carol", p.ID, &root.ID, "reply")
	e.mustComment(t, "dave", p.ID, &reply.ID, "nested reply")

	_, err := e.likes.Toggle(ctx, "bob", models.ToggleLikeReq{PostID: &p.ID})
	require.NoError(t, err)
	_, err = e.likes.Toggle(ctx, "alice", models.ToggleLikeReq{CommentID: &reply.ID})
	require.NoError(t, err)

	err = e.posts.Delete(ctx, p.ID, "bob")
	assertKind(t, err, apperror.KindForbidden)

	require.NoError(t, e.posts.Delete(ctx, p.ID, "alice"))

	_, err = e.posts.GetByID(ctx, p.ID)
	assertKind(t, err, apperror.KindNotFound)
	_, err = e.comments.GetByID(ctx, reply.ID)
	assertKind(t, err, apperror.KindNotFound)
	assert.NotContains(t, e.index.docs, p.ID.String())

	acts := e.store.Activity()
	assert.Equal(t, "delete_post", acts[len(acts)-1].Action)

	err = e.posts.Delete(ctx, p.ID, "alice")
	assertKind(t, err, apperror.KindNotFound)
}

func TestListAllFilterAndSort(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.mustPost(t, "u", postReq("Learning Go"))
	e.mustPost(t, "u", postReq("Rust notes"))
	e.mustPost(t, "u", postReq("More GOLANG tips"))

	all, err := e.posts.ListAll(ctx, models.ListPostsQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "More GOLANG tips", all[0].Title, "default order is newest first")
	assert.Empty(t, all[0].Comments)

	asc := true
	filtered, err := e.posts.ListAll(ctx, models.ListPostsQuery{
		FilterOn: "Title", FilterQuery: "go", SortBy: "createdAt", IsAscending: &asc,
	})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "Learning Go", filtered[0].Title)
	assert.Equal(t, "More GOLANG tips", filtered[1].Title)

	desc := false
	filtered, err = e.posts.ListAll(ctx, models.ListPostsQuery{SortBy: "created_at", IsAscending: &desc})
	require.NoError(t, err)
	assert.Equal(t, "More GOLANG tips", filtered[0].Title)

	ignored, err := e.posts.ListAll(ctx, models.ListPostsQuery{FilterOn: "author", FilterQuery: "x", SortBy: "popularity"})
	require.NoError(t, err)
	assert.Len(t, ignored, 3)
}

func TestListByCategoryPaging(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := 1; i <= 25; i++ {
		e.mustPost(t, "u", postReq(fmt.Sprintf("Tech post %02d", i)))
	}
	other := postReq("Travel diary")
	other.Category = models.CategoryTravel
	e.mustPost(t, "u", other)

	page, err := e.posts.ListByCategory(ctx, "technology", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.TotalCount)
	assert.Equal(t, 2, page.PageNumber)
	assert.Equal(t, 10, page.PageSize)
	require.Len(t, page.Items, 10)
	// Newest first: page 2 holds the 11th..20th newest.
	assert.Equal(t, "Tech post 15", page.Items[0].Title)
	assert.Equal(t, "Tech post 06", page.Items[9].Title)

	page, err = e.posts.ListByCategory(ctx, "Technology", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, 10, page.PageSize)

	page, err = e.posts.ListByCategory(ctx, "Technology", 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, page.PageSize)
	assert.Len(t, page.Items, 25)

	page, err = e.posts.ListByCategory(ctx, "Technology", 9, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 25, page.TotalCount)

	_, err = e.posts.ListByCategory(ctx, "Knitting", 1, 10)
	assertKind(t, err, apperror.KindInvalidArgument)
}

func TestListByTagAndImages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := postReq("Tagged", "Go")
	req.ImageURLs = []string{"https://img.io/x.webp"}
	p := e.mustPost(t, "u", req)
	e.mustPost(t, "u", postReq("Untagged"))

	posts, err := e.posts.ListByTag(ctx, " go ")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, p.ID, posts[0].ID)

	posts, err = e.posts.ListByTag(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, posts)

	_, err = e.posts.ListByTag(ctx, "  ")
	assertKind(t, err, apperror.KindInvalidArgument)

	imgs, err := e.posts.GetImages(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.io/x.webp"}, imgs)

	_, err = e.posts.GetImages(ctx, uuid.New())
	assertKind(t, err, apperror.KindNotFound)
}

func TestSearchAndRelated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustPost(t, "u", postReq("Tagged", "go", "db"))
	bare := e.mustPost(t, "u", postReq("No tags here"))

	_, err := e.posts.Search(ctx, "   ", 10)
	assertKind(t, err, apperror.KindInvalidArgument)

	hits, err := e.posts.Search(ctx, "golang", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, float64(10), hits[0].Score, "size defaults to 10")

	hits, err = e.posts.Related(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"GO", "DB"}, e.index.related)
	assert.Equal(t, "other-than-"+p.ID.String(), hits[0].ID)

	hits, err = e.posts.Related(ctx, bare.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = e.posts.Related(ctx, uuid.New(), 5)
	assertKind(t, err, apperror.KindNotFound)
}
