package models

import "time"

// Article represents a content file in the CMS.
type Article struct {
	Path        string                 `json:"path"`
	Slug        string                 `json:"slug"`
	Title       string                 `json:"title" validate:"required"`
	Description string                 `json:"description,omitempty"`
	Date        time.Time              `json:"date" validate:"required"`
	Content     string                 `json:"content,omitempty"` // Raw file content, used when FrontMatter is nil
	FrontMatter map[string]interface{} `json:"frontmatter,omitempty"`
	Body        string                 `json:"body,omitempty"`
	Format      string                 `json:"format,omitempty"` // yaml, toml, json
	IsDirty     bool                   `json:"is_dirty"`
	Error       string                 `json:"error,omitempty"`
}

// RenderedArticle is the presentational record handed to readers.
type RenderedArticle struct {
	Path         string `json:"path"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Date         string `json:"date"`
	RenderedBody string `json:"renderedBody"`
	Checksum     string `json:"checksum"`
}
