package domain

import (
	"errors"
	"time"
)

// DefaultCategory is assigned when a post is created without one.
const DefaultCategory = "General"

// Post is a blog entry. Posts are the searchable entity of the
// application: title and content are mirrored into the posts index.
type Post struct {
	ID        int64
	Title     string
	Content   string
	Category  string
	UserID    int64
	CreatedAt time.Time
}

func NewPost(title, content, category string, userID int64) (*Post, error) {
	if title == "" {
		return nil, errors.New("post title cannot be empty")
	}
	if len(title) > 100 {
		return nil, errors.New("post title too long")
	}
	if content == "" {
		return nil, errors.New("post content cannot be empty")
	}
	if userID == 0 {
		return nil, errors.New("post author cannot be empty")
	}
	if category == "" {
		category = DefaultCategory
	}

	return &Post{
		Title:    title,
		Content:  content,
		Category: category,
		UserID:   userID,
	}, nil
}

// PostNamespace is the index namespace for posts.
const PostNamespace = "posts"

func (p *Post) SearchID() int64 {
	return p.ID
}

func (p *Post) SearchNamespace() string {
	return PostNamespace
}

func (p *Post) SearchFields() map[string]string {
	return map[string]string{
		"title":   p.Title,
		"content": p.Content,
	}
}
