package services

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/forms"
	"github.com/isdelr/murmur/internal/metrics"
	"github.com/isdelr/murmur/internal/models"
	"github.com/isdelr/murmur/internal/store"
)

// DefaultFeedLimit is the number of posts shown on the feed.
const DefaultFeedLimit = 100

// ActionPostCreated is the live feed action announcing a new post.
const ActionPostCreated = "post.created"

// Publisher broadcasts feed updates to connected clients.
type Publisher interface {
	Publish(action string, payload any)
}

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	CreatePost(ctx context.Context, author models.User, form forms.PostForm) (models.PostWithAuthor, error)
	ListPosts(ctx context.Context, limit int) ([]models.PostWithAuthor, error)
}

// PostService provides business logic for posts.
type PostService struct {
	store     store.PostStore
	events    EventServiceProvider
	publisher Publisher
	now       func() time.Time
}

// NewPostService creates a new PostService. publisher may be nil.
func NewPostService(posts store.PostStore, events EventServiceProvider, publisher Publisher) *PostService {
	return &PostService{store: posts, events: events, publisher: publisher, now: time.Now}
}

// CreatePost publishes a post by author.
func (s *PostService) CreatePost(ctx context.Context, author models.User, form forms.PostForm) (models.PostWithAuthor, error) {
	if author.ID == "" {
		return models.PostWithAuthor{}, ErrUnauthorized
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	post := models.PostWithAuthor{
		Post: models.Post{
			ID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
			AuthorID:    author.ID,
			TextContent: form.TextContent,
			CreatedAt:   now,
		},
		AuthorUsername: author.Username,
	}

	if err := s.store.InsertPost(ctx, post.Post); err != nil {
		log.Error().Err(err).Str("user_id", author.ID).Msg("Failed to insert post")
		return models.PostWithAuthor{}, forms.FieldError("textContent", MsgCouldNotPost)
	}

	metrics.PostsCreated.Inc()
	recordEvent(ctx, s.events, EventPostCreate, "Post published", author.ID)
	if s.publisher != nil {
		s.publisher.Publish(ActionPostCreated, post)
	}
	return post, nil
}

// ListPosts retrieves the newest posts with their authors.
func (s *PostService) ListPosts(ctx context.Context, limit int) ([]models.PostWithAuthor, error) {
	if limit <= 0 || limit > DefaultFeedLimit {
		limit = DefaultFeedLimit
	}
	return s.store.ListPostsWithAuthor(ctx, limit)
}
