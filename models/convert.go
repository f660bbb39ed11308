package models

// Explicit entity to view conversions. Slices are never nil so JSON always
// renders [] instead of null.

func ToTagView(t Tag) TagView {
	return TagView{ID: t.ID, Name: t.Name}
}

func ToTagViews(tags []Tag) []TagView {
	out := make([]TagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, ToTagView(t))
	}
	return out
}

func ToLikeView(l Like) LikeView {
	return LikeView{ID: l.ID, UserID: l.UserID, CreatedAt: l.CreatedAt}
}

func ToLikeViews(likes []Like) []LikeView {
	out := make([]LikeView, 0, len(likes))
	for _, l := range likes {
		out = append(out, ToLikeView(l))
	}
	return out
}

func ToCommentView(c Comment, likes []Like, replies []CommentView) CommentView {
	if replies == nil {
		replies = []CommentView{}
	}
	return CommentView{
		ID:              c.ID,
		Content:         c.Content,
		CreatedAt:       c.CreatedAt,
		UserID:          c.UserID,
		PostID:          c.PostID,
		ParentCommentID: c.ParentCommentID,
		LikeCount:       len(likes),
		Likes:           ToLikeViews(likes),
		Replies:         replies,
	}
}

func ToPostView(p Post, likes []Like, comments []CommentView) PostView {
	if comments == nil {
		comments = []CommentView{}
	}
	images := make([]string, len(p.ImageURLs))
	copy(images, p.ImageURLs)
	return PostView{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Category:  p.Category,
		UserID:    p.UserID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Tags:      ToTagViews(p.Tags),
		ImageURLs: images,
		LikeCount: len(likes),
		Likes:     ToLikeViews(likes),
		Comments:  comments,
	}
}

func ToPostDocument(p Post) PostDocument {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	return PostDocument{
		ID:       p.ID.String(),
		Title:    p.Title,
		Content:  p.Content,
		Category: string(p.Category),
		Tags:     tags,
	}
}
