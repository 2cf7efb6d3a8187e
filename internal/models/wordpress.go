// Package models defines the data models shared by the WordPress clients,
// the settings layer and the CLI.
package models

import "time"

// PostStatus is the WordPress post status
type PostStatus string

const (
	PostStatusDraft   PostStatus = "draft"
	PostStatusPublish PostStatus = "publish"
	PostStatusPending PostStatus = "pending"
	PostStatusPrivate PostStatus = "private"
	PostStatusFuture  PostStatus = "future"
)

// CommentStatus is the WordPress comment status of a post
type CommentStatus string

const (
	CommentStatusOpen   CommentStatus = "open"
	CommentStatusClosed CommentStatus = "closed"
)

// Built-in post types. Sites may register more, see GetPostTypes.
const (
	PostTypePost = "post"
	PostTypePage = "page"
)

// Taxonomy names used for terms
const (
	TaxonomyCategory = "category"
	TaxonomyTag      = "post_tag"
)

// PostParams holds everything except title and content needed to publish a post
type PostParams struct {
	Status        PostStatus    `json:"status"`
	CommentStatus CommentStatus `json:"comment_status"`
	PostType      string        `json:"post_type"`
	Categories    []int         `json:"categories"`
	// Tags are term IDs as returned by GetTag. XML-RPC term IDs are tag names.
	Tags     []string   `json:"tags"`
	PostID   string     `json:"post_id,omitempty"`
	Datetime *time.Time `json:"datetime,omitempty"`
}

// PublishResult is the normalized outcome of a successful publish
type PublishResult struct {
	PostID     string `json:"postId"`
	Categories []int  `json:"categories"`
}

// MediaUploadResult is the normalized outcome of a successful media upload
type MediaUploadResult struct {
	URL string `json:"url"`
}

// Term represents a WordPress taxonomy entry (category or tag).
// ID is always the decimal string form, whatever the server sent.
type Term struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Taxonomy    string `json:"taxonomy"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// Media is a file to upload to the WordPress media library
type Media struct {
	MIMEType string
	FileName string
	Content  []byte
}
