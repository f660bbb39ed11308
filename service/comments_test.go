package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/apperror"
	"blog-api/models"
)

func TestCreateComment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustPost(t, "alice", postReq("Post one"))
	other := e.mustPost(t, "alice", postReq("Post two"))

	root := e.mustComment(t, "bob", p.ID, nil, "hello")
	assert.Equal(t, "bob", root.UserID)
	assert.Nil(t, root.ParentCommentID)
	assert.NotNil(t, root.Replies)

	reply := e.mustComment(t, "carol", p.ID, &root.ID, "hi back")
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, root.ID, *reply.ParentCommentID)

	_, err := e.comments.Create(ctx, models.CreateCommentReq{Content: "x", PostID: uuid.New()}, "bob")
	assertKind(t, err, apperror.KindNotFound)

	_, err = e.comments.Create(ctx, models.CreateCommentReq{Content: "   ", PostID: p.ID}, "bob")
	assertKind(t, err, apperror.KindInvalidArgument)
	assert.Contains(t, err.Error(), "content must not be blank")

	// A parent that lives on another post is treated as missing.
	_, err = e.comments.Create(ctx, models.CreateCommentReq{
		Content: "cross post", PostID: other.ID, ParentCommentID: &root.ID,
	}, "bob")
	assertKind(t, err, apperror.KindNotFound)
	assert.Contains(t, err.Error(), "parent comment")

	missing := uuid.New()
	_, err = e.comments.Create(ctx, models.CreateCommentReq{
		Content: "orphan", PostID: p.ID, ParentCommentID: &missing,
	}, "bob")
	assertKind(t, err, apperror.KindNotFound)

	_, err = e.comments.Create(ctx, models.CreateCommentReq{Content: "", PostID: p.ID}, "bob")
	assertKind(t, err, apperror.KindInvalidArgument)

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	_, err = e.comments.Create(ctx, models.CreateCommentReq{Content: string(long), PostID: p.ID}, "bob")
	assertKind(t, err, apperror.KindInvalidArgument)

	assert.Contains(t, e.events.subjects(), models.SubjectCommentCreated)
}

func TestGetCommentMaterializesOneLevel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustPost(t, "alice", postReq("Threaded"))
	root := e.mustComment(t, "bob", p.ID, nil, "root")
	r1 := e.mustComment(t, "carol", p.ID, &root.ID, "reply one")
	e.mustComment(t, "dave", p.ID, &root.ID, "reply two")
	e.mustComment(t, "erin", p.ID, &r1.ID, "grandchild")

	_, err := e.likes.Toggle(ctx, "alice", models.ToggleLikeReq{CommentID: &r1.ID})
	require.NoError(t, err)
	_, err = e.likes.Toggle(ctx, "alice", models.ToggleLikeReq{CommentID: &root.ID})
	require.NoError(t, err)

	v, err := e.comments.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.LikeCount)
	require.Len(t, v.Replies, 2)
	assert.Equal(t, "reply one", v.Replies[0].Content)
	assert.Equal(t, 1, v.Replies[0].LikeCount)
	assert.Empty(t, v.Replies[0].Replies, "replies are materialized one level deep")

	child, err := e.comments.GetByID(ctx, r1.ID)
	require.NoError(t, err)
	require.Len(t, child.Replies, 1)
	assert.Equal(t, "grandchild", child.Replies[0].Content)

	_, err = e.comments.GetByID(ctx, uuid.New())
	assertKind(t, err, apperror.KindNotFound)
}

func TestListCommentsForPost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustPost(t, "alice", postReq("Discussed"))

	_, err := e.comments.ListForPost(ctx, p.ID)
	assertKind(t, err, apperror.KindNotFound)

	_, err = e.comments.ListForPost(ctx, uuid.New())
	assertKind(t, err, apperror.KindNotFound)

	first := e.mustComment(t, "bob", p.ID, nil, "first")
	e.mustComment(t, "carol", p.ID, nil, "second")
	e.mustComment(t, "dave", p.ID, &first.ID, "reply")

	list, err := e.comments.ListForPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "second", list[1].Content)
	require.Len(t, list[0].Replies, 1)
	assert.Empty(t, list[1].Replies)
}

func TestUpdateCommentPatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustPost(t, "alice", postReq("Patched"))
	c := e.mustComment(t, "bob", p.ID, nil, "typo")

	v, err := e.comments.Update(ctx, c.ID, []byte(`[{"op":"replace","path":"/content","value":"fixed"}]`), "bob")
	require.NoError(t, err)
	assert.Equal(t, "fixed", v.Content)
	assert.Equal(t, c.CreatedAt, v.CreatedAt)

	cases := map[string]string{
		"malformed":     `{"op":"replace"}`,
		"unknown field": `[{"op":"add","path":"/user_id","value":"mallory"}]`,
		"bad path":      `[{"op":"replace","path":"/missing","value":"x"}]`,
		"removes":       `[{"op":"remove","path":"/content"}]`,
		"empty":         `[{"op":"replace","path":"/content","value":""}]`,
		"blank":         `[{"op":"replace","path":"/content","value":" \t "}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.comments.Update(ctx, c.ID, []byte(doc), "bob")
			assertKind(t, err, apperror.KindInvalidArgument)
		})
	}

	_, err = e.comments.Update(ctx, c.ID, []byte(`[{"op":"replace","path":"/content","value":"mine now"}]`), "mallory")
	assertKind(t, err, apperror.KindForbidden)

	_, err = e.comments.Update(ctx, uuid.New(), []byte(`[]`), "bob")
	assertKind(t, err, apperror.KindNotFound)

	got, err := e.comments.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.Content)
}

func TestDeleteCommentCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.mustPost(t, "alice", postReq("Cascade"))
	root := e.mustComment(t, "bob", p.ID, nil, "root")
	reply := e.mustComment(t, "carol", p.ID, &root.ID, "reply")
	deep := e.mustComment(t, "dave", p.ID, &reply.ID, "deep")
	keep := e.mustComment(t, "erin", p.ID, nil, "unrelated")

	_, err := e.likes.Toggle(ctx, "alice", models.ToggleLikeReq{CommentID: &deep.ID})
	require.NoError(t, err)
	_, err = e.likes.Toggle(ctx, "alice", models.ToggleLikeReq{CommentID: &keep.ID})
	require.NoError(t, err)

	err = e.comments.Delete(ctx, root.ID, "carol")
	assertKind(t, err, apperror.KindForbidden)

	require.NoError(t, e.comments.Delete(ctx, root.ID, "bob"))

	for _, id := range []uuid.UUID{root.ID, reply.ID, deep.ID} {
		_, err := e.comments.GetByID(ctx, id)
		assertKind(t, err, apperror.KindNotFound)
	}
	kept, err := e.comments.GetByID(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, kept.LikeCount)

	err = e.comments.Delete(ctx, root.ID, "bob")
	assertKind(t, err, apperror.KindNotFound)
}
