package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLikeTarget(t *testing.T) {
	post, comment := uuid.New(), uuid.New()

	target, ok := NewLikeTarget(&post, nil)
	require.True(t, ok)
	assert.Equal(t, TargetPost, target.Kind)
	assert.Equal(t, &post, target.PostID())
	assert.Nil(t, target.CommentID())

	target, ok = NewLikeTarget(nil, &comment)
	require.True(t, ok)
	assert.Equal(t, TargetComment, target.Kind)
	assert.Nil(t, target.PostID())

	_, ok = NewLikeTarget(&post, &comment)
	assert.False(t, ok)
	_, ok = NewLikeTarget(nil, nil)
	assert.False(t, ok)
}

func TestCategoryJSON(t *testing.T) {
	var req CreatePostReq
	require.NoError(t, json.Unmarshal([]byte(`{"category":"  programming"}`), &req))
	assert.Equal(t, CategoryProgramming, req.Category)
	assert.True(t, req.Category.Valid())

	require.NoError(t, json.Unmarshal([]byte(`{"category":"Gardening"}`), &req))
	assert.Equal(t, Category("Gardening"), req.Category)
	assert.False(t, req.Category.Valid())
}

func TestToPostViewNeverNil(t *testing.T) {
	v := ToPostView(Post{ID: uuid.New()}, nil, nil)
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"comments":[]`)
	assert.Contains(t, string(b), `"likes":[]`)
	assert.Contains(t, string(b), `"tags":[]`)
	assert.Contains(t, string(b), `"image_urls":[]`)
}
