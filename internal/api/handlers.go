package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ebi/internal/checksum"
	"github.com/starford/ebi/internal/query"
	"github.com/starford/ebi/internal/tagservice"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *tagservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *tagservice.Service) *Handler {
	return &Handler{svc: svc}
}

// tagName extracts the {name} URL parameter. Supports encoded slashes from
// OpenAPI clients (e.g. a%2Fb).
func tagName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// parseOrder reads order, desc and dedup from the query string, starting
// from def.
func parseOrder(q url.Values, def query.Order) (query.Order, error) {
	o := def
	if v := q.Get("order"); v != "" {
		k, err := query.ParseKey(v)
		if err != nil {
			return o, err
		}
		o.Key = k
	}
	for name, dst := range map[string]*bool{"desc": &o.Desc, "dedup": &o.Dedup} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return o, err
		}
		*dst = b
	}
	return o, nil
}

func decode[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request, dst T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := dst.Validate(); err != nil {
		writeError(w, "decode", err)
		return false
	}
	return true
}

// writeFiles sends a file list with its checksum as ETag, or 304 when the
// client already holds that list.
func writeFiles(w http.ResponseWriter, r *http.Request, items []tagservice.FileItem) {
	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Path
	}
	sum := checksum.Lines(paths)
	w.Header().Set("ETag", `"`+sum+`"`)
	if strings.Trim(r.Header.Get("If-None-Match"), `"`) == sum {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: items, Total: len(items), Checksum: sum})
}

// ListTags handles GET /api/tags.
//
//	@Summary		List tags in priority order
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagListResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TagListResponse{Tags: h.svc.ListTags(r.Context())})
}

// CreateTag handles POST /api/tags.
//
//	@Summary		Create a tag
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateTagRequest	true	"Tag to create"
//	@Success		201		{object}	tag.Tag
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags [post]
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.CreateTag(r.Context(), req.Name, req.Priority, req.Parent)
	if err != nil {
		writeError(w, "create tag", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// DeleteTag handles DELETE /api/tags/{name}.
//
//	@Summary		Delete a tag and every use of it
//	@Tags			tags
//	@Param			name	path	string	true	"Tag name"
//	@Success		204		"Tag deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags/{name} [delete]
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTag(r.Context(), tagName(r)); err != nil {
		writeError(w, "delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Retrieve handles GET /api/tags/{name}/files.
//
//	@Summary		List every file carrying a tag
//	@Tags			tags
//	@Produce		json
//	@Param			name	path		string	true	"Tag name"
//	@Param			order	query		string	false	"Ordering"	Enums(name, size, modified, created, accessed, unordered)
//	@Param			desc	query		bool	false	"Descending"
//	@Param			dedup	query		bool	false	"Keep one file per ordering key"
//	@Success		200		{object}	FileListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags/{name}/files [get]
func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	order, err := parseOrder(r.URL.Query(), h.svc.DefaultOrder())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	items, err := h.svc.Retrieve(r.Context(), tagName(r), order)
	if err != nil {
		writeError(w, "retrieve", err)
		return
	}
	writeFiles(w, r, items)
}

// Query handles GET /api/query.
//
//	@Summary		Evaluate a boolean tag query
//	@Tags			query
//	@Produce		json
//	@Param			q		query		string	true	"Query, e.g. \"a\" AND NOT \"b\""
//	@Param			order	query		string	false	"Ordering"	Enums(name, size, modified, created, accessed, unordered)
//	@Param			desc	query		bool	false	"Descending"
//	@Param			dedup	query		bool	false	"Keep one file per ordering key"
//	@Success		200		{object}	FileListResponse
//	@Success		304		"Unchanged since If-None-Match"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/query [get]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	order, err := parseOrder(r.URL.Query(), h.svc.DefaultOrder())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	items, err := h.svc.Query(r.Context(), q, order)
	if err != nil {
		writeError(w, "query", err)
		return
	}
	writeFiles(w, r, items)
}

// AttachFile handles POST /api/files/tags.
//
//	@Summary		Tag a file
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TagPathRequest	true	"File and tag"
//	@Success		200		{object}	ChangeResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/tags [post]
func (h *Handler) AttachFile(w http.ResponseWriter, r *http.Request) {
	var req TagPathRequest
	if !decode(w, r, &req) {
		return
	}
	changed, err := h.svc.Attach(r.Context(), req.Path, req.Tag)
	if err != nil {
		writeError(w, "attach", err)
		return
	}
	writeJSON(w, http.StatusOK, ChangeResponse{Changed: changed})
}

// DetachFile handles DELETE /api/files/tags.
//
//	@Summary		Remove a direct tag from a file, or from every file when path is omitted
//	@Tags			files
//	@Produce		json
//	@Param			tag		query		string	true	"Tag name"
//	@Param			path	query		string	false	"File path"
//	@Success		200		{object}	ChangeResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/tags [delete]
func (h *Handler) DetachFile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("tag") == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'tag' is required"))
		return
	}
	changed, err := h.svc.Detach(r.Context(), q.Get("path"), q.Get("tag"))
	if err != nil {
		writeError(w, "detach", err)
		return
	}
	writeJSON(w, http.StatusOK, ChangeResponse{Changed: changed})
}

// AttachDir handles POST /api/dirs/tags.
//
//	@Summary		Declare a directory tag
//	@Tags			dirs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TagPathRequest	true	"Directory and tag"
//	@Success		200		{object}	ChangeResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dirs/tags [post]
func (h *Handler) AttachDir(w http.ResponseWriter, r *http.Request) {
	var req TagPathRequest
	if !decode(w, r, &req) {
		return
	}
	changed, err := h.svc.AttachDir(r.Context(), req.Path, req.Tag)
	if err != nil {
		writeError(w, "attach dir", err)
		return
	}
	writeJSON(w, http.StatusOK, ChangeResponse{Changed: changed})
}

// DetachDir handles DELETE /api/dirs/tags.
//
//	@Summary		Withdraw a directory tag, or every declaration of it when path is omitted
//	@Tags			dirs
//	@Produce		json
//	@Param			tag		query		string	true	"Tag name"
//	@Param			path	query		string	false	"Directory path"
//	@Success		200		{object}	ChangeResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dirs/tags [delete]
func (h *Handler) DetachDir(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("tag") == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'tag' is required"))
		return
	}
	changed, err := h.svc.DetachDir(r.Context(), q.Get("path"), q.Get("tag"))
	if err != nil {
		writeError(w, "detach dir", err)
		return
	}
	writeJSON(w, http.StatusOK, ChangeResponse{Changed: changed})
}

// Refresh handles POST /api/refresh.
//
//	@Summary		Rescan the shelf root
//	@Tags			shelf
//	@Produce		json
//	@Success		200	{object}	shelf.RefreshStats
//	@Security		BearerAuth
//	@Router			/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Refresh(r.Context())
	if err != nil {
		writeError(w, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Stats handles GET /api/stats.
//
//	@Summary		Shelf counters
//	@Tags			shelf
//	@Produce		json
//	@Success		200	{object}	tagservice.Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
