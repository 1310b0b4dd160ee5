package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ebi/internal/tag"
	"github.com/starford/ebi/internal/tagservice"
)

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name     string `json:"name" example:"invoices" validate:"required"`
	Priority uint64 `json:"priority" example:"10"`
	Parent   string `json:"parent,omitempty" example:"finance"`
}

// Validate checks the request fields.
func (r *CreateTagRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Parent, validation.Length(0, 255)),
	)
}

// TagPathRequest names a tag and a file or directory path.
type TagPathRequest struct {
	Path string `json:"path" example:"docs/report.pdf" validate:"required"`
	Tag  string `json:"tag" example:"invoices" validate:"required"`
}

// Validate checks the request fields.
func (r *TagPathRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Tag, validation.Required),
	)
}

// FileItem is one result file (aliased from the domain layer).
type FileItem = tagservice.FileItem

// FileListResponse wraps an ordered list of files. Checksum digests the
// ordered paths and is also sent as the ETag.
type FileListResponse struct {
	Files    []FileItem `json:"files" validate:"required"`
	Total    int        `json:"total" example:"2" validate:"required"`
	Checksum string     `json:"checksum" example:"abc123..." validate:"required"`
}

// TagListResponse wraps the tag catalog.
type TagListResponse struct {
	Tags []tag.Tag `json:"tags" validate:"required"`
}

// ChangeResponse reports whether a mutation changed the index.
type ChangeResponse struct {
	Changed bool `json:"changed" example:"true"`
}
