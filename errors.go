package blog

import "errors"

var (
	// ErrSourceMissing is returned when a content source directory does not exist.
	ErrSourceMissing = errors.New("content source missing")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnknownField is returned by SiteMetadata.Query for paths it does not know.
	ErrUnknownField = errors.New("unknown metadata field")
	// ErrEmptyField is returned by SiteMetadata.Query for known but unset fields.
	ErrEmptyField = errors.New("empty metadata field")
	// ErrNotFound is returned when a requested post or tag does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateSlug is returned when two posts resolve to the same slug.
	ErrDuplicateSlug = errors.New("duplicate post slug")
)
