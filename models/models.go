package models

// Profile holds the display identity and interest tags for a user.
// Interest tags are stored as a JSON array column and decoded on read.
type Profile struct {
	UserID      string   `json:"userId"`
	DisplayName string   `json:"displayName"`
	Avatar      string   `json:"avatar,omitempty"`
	Interests   []string `json:"interests"`
	CreatedAt   int64    `json:"createdAt"`
}

// Post is a post row with its denormalized interaction counters. Each
// counter mirrors the cardinality of the matching interaction set column.
type Post struct {
	Seq          int64    `json:"-"`
	ID           string   `json:"id"`
	AuthorID     string   `json:"authorId"`
	CommunityID  string   `json:"communityId,omitempty"`
	Text         string   `json:"text"`
	Media        []string `json:"media,omitempty"`
	Langs        []string `json:"langs,omitempty"`
	RepostOf     string   `json:"repostOf,omitempty"`
	LikedBy      []string `json:"-"`
	Likes        int64    `json:"likes"`
	SharedBy     []string `json:"-"`
	Shares       int64    `json:"shares"`
	BookmarkedBy []string `json:"-"`
	Bookmarks    int64    `json:"bookmarks"`
	RepostedBy   []string `json:"-"`
	Reposts      int64    `json:"reposts"`
	Comments     int64    `json:"comments"`
	CreatedAt    int64    `json:"createdAt"`
}

// RepostSnapshot freezes the original post's author identity, content and
// counters at the moment of repost. Never updated after insert, even if the
// original post is edited later.
type RepostSnapshot struct {
	ID             string   `json:"id"`
	OriginalPostID string   `json:"originalPostId"`
	RepostedBy     string   `json:"repostedBy"`
	RepostPostID   string   `json:"repostPostId"`
	ReposterName   string   `json:"reposterName"`
	ReposterAvatar string   `json:"reposterAvatar,omitempty"`
	AuthorID       string   `json:"authorId"`
	AuthorName     string   `json:"authorName"`
	AuthorAvatar   string   `json:"authorAvatar,omitempty"`
	Text           string   `json:"text"`
	Media          []string `json:"media,omitempty"`
	Likes          int64    `json:"likes"`
	Comments       int64    `json:"comments"`
	Shares         int64    `json:"shares"`
	Bookmarks      int64    `json:"bookmarks"`
	Reposts        int64    `json:"reposts"`
	CreatedAt      int64    `json:"createdAt"`
}

// PostCard is the hydrated shape a client renders in a feed. For a repost
// row Original holds the frozen snapshot while the author fields carry the
// reposting user's live identity.
type PostCard struct {
	Post
	AuthorName   string          `json:"authorName"`
	AuthorAvatar string          `json:"authorAvatar,omitempty"`
	Original     *RepostSnapshot `json:"original,omitempty"`
}

// Comment belongs to one post and optionally to a parent comment. Replies
// form a tree over ParentID.
type Comment struct {
	ID        string     `json:"id"`
	PostID    string     `json:"postId"`
	ParentID  string     `json:"parentId,omitempty"`
	AuthorID  string     `json:"authorId"`
	Text      string     `json:"text"`
	LikedBy   []string   `json:"-"`
	Likes     int64      `json:"likes"`
	CreatedAt int64      `json:"createdAt"`
	Replies   []*Comment `json:"replies,omitempty"`
}

// Notification kinds.
const (
	NotificationLike          = "like"
	NotificationComment       = "comment"
	NotificationCommentLike   = "comment_like"
	NotificationRepost        = "repost"
	NotificationCommunityPost = "community_post"
)

type Notification struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipientId"`
	ActorID     string `json:"actorId"`
	Kind        string `json:"kind"`
	PostID      string `json:"postId,omitempty"`
	CommentID   string `json:"commentId,omitempty"`
	IsRead      bool   `json:"isRead"`
	CreatedAt   int64  `json:"createdAt"`
	ReadAt      int64  `json:"readAt,omitempty"`
}

// InteractionEvent is emitted on the event channel after a qualifying write
// commits. The notifier fans it out to notification rows and the server
// broadcasts it to live event stream clients.
type InteractionEvent struct {
	Kind        string `json:"kind"`
	ActorID     string `json:"actorId"`
	RecipientID string `json:"recipientId,omitempty"`
	CommunityID string `json:"communityId,omitempty"`
	PostID      string `json:"postId,omitempty"`
	CommentID   string `json:"commentId,omitempty"`
}

type FeedResponse struct {
	Feed   []PostCard `json:"feed"`
	Cursor *string    `json:"cursor"`
}
