package db

import "errors"

// Sentinel errors translated to envelope reasons at the HTTP boundary.
var (
	ErrPostNotFound    = errors.New("post_not_found")
	ErrCommentNotFound = errors.New("comment_not_found")
	ErrNotFound        = errors.New("not_found")
	ErrAlreadyReposted = errors.New("already_reposted")
	ErrForbidden       = errors.New("forbidden")
)
