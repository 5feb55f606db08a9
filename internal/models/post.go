package models

import "time"

// Post is a short text message published by a user.
type Post struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"authorId"`
	TextContent string    `json:"textContent"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PostWithAuthor is a Post joined with the author's public name, as shown on the feed.
type PostWithAuthor struct {
	Post
	AuthorUsername string `json:"authorUsername"`
}
