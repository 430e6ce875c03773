package media

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stashbox/service/internal/fileinput"
	"github.com/stashbox/service/internal/response"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handler holds HTTP handlers for object endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new media Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type uploadRequest struct {
	// Exactly one of Data and StagedPath must be set.
	Data        string `json:"data,omitempty"       example:"data:image/png;base64,iVBORw0KGgo..."`
	StagedPath  string `json:"stagedPath,omitempty" example:"/tmp/upload-8f2c91"`
	Key         string `json:"key"                  example:"avatars/42.png"`
	ContentType string `json:"contentType"          example:"image/png"`
}

type encodedData struct {
	Key  string `json:"key"  example:"avatars/42.png"`
	Data string `json:"data" example:"iVBORw0KGgo..."`
}

type presignData struct {
	Key       string `json:"key"       example:"avatars/42.png"`
	URL       string `json:"url"       example:"http://localhost:9000/stash/avatars/42.png?X-Amz-Signature=..."`
	ExpiresIn int    `json:"expiresIn" example:"10"`
}

type deleteData struct {
	Key     string `json:"key"     example:"avatars/42.png"`
	Deleted bool   `json:"deleted" example:"true"`
}

// Upload godoc
//
//	@Summary		Upload an object
//	@Description	Uploads a file given either as an inline base64 payload (optionally a data-URI) or a path to a locally staged file, and stores it under the given key.
//	@Tags			objects
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		uploadRequest	true	"Upload payload"
//	@Success		201		{object}	response.Envelope{data=Upload}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/objects [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Key == "" {
		response.BadRequest(w, "key is required")
		return
	}

	// The request shape selects the input variant explicitly; ambiguous
	// requests are rejected rather than guessed at.
	var input fileinput.Input
	switch {
	case req.Data != "" && req.StagedPath != "":
		response.BadRequest(w, "data and stagedPath are mutually exclusive")
		return
	case req.StagedPath != "":
		input = fileinput.Staged(req.StagedPath)
	default:
		input = fileinput.Inline(req.Data)
	}

	up, err := h.svc.Put(r.Context(), input, req.Key, req.ContentType)
	if err != nil {
		h.writeOpError(w, err)
		return
	}

	response.Created(w, up)
}

// Download godoc
//
//	@Summary		Download an object
//	@Description	Streams the raw object body with its stored content type.
//	@Tags			objects
//	@Produce		octet-stream
//	@Security		BearerAuth
//	@Param			key	path		string	true	"Object key"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/download/{key} [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		response.BadRequest(w, "key is required")
		return
	}

	obj, err := h.svc.Get(r.Context(), key)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		// Headers are gone; all we can do is log the broken stream.
		log.Printf("media: stream %q: %v", key, err)
	}
}

// Encoded godoc
//
//	@Summary		Download an object as base64
//	@Description	Returns the object body re-encoded as a base64 string. The whole object is buffered in memory; unsuitable for very large objects.
//	@Tags			objects
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key	path		string	true	"Object key"
//	@Success		200	{object}	response.Envelope{data=encodedData}
//	@Failure		404	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/encoded/{key} [get]
func (h *Handler) Encoded(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		response.BadRequest(w, "key is required")
		return
	}

	data, err := h.svc.GetBase64(r.Context(), key)
	if err != nil {
		h.writeOpError(w, err)
		return
	}

	response.OK(w, encodedData{Key: key, Data: data})
}

// Presign godoc
//
//	@Summary		Presign a download URL
//	@Description	Returns a time-limited signed GET URL for the object. The expires query parameter is in seconds; when omitted the configured default applies.
//	@Tags			objects
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key		path		string	true	"Object key"
//	@Param			expires	query		int		false	"Expiry in seconds"
//	@Success		200		{object}	response.Envelope{data=presignData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/presign/{key} [get]
func (h *Handler) Presign(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		response.BadRequest(w, "key is required")
		return
	}

	var expiry time.Duration
	if v := r.URL.Query().Get("expires"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.BadRequest(w, "expires must be a positive integer of seconds")
			return
		}
		expiry = time.Duration(n) * time.Second
	}

	u, err := h.svc.PresignedURL(r.Context(), key, expiry)
	if err != nil {
		h.writeOpError(w, err)
		return
	}

	if expiry <= 0 {
		expiry = h.svc.presignTTL
	}
	response.OK(w, presignData{Key: key, URL: u, ExpiresIn: int(expiry.Seconds())})
}

// Delete godoc
//
//	@Summary		Delete an object
//	@Description	Removes the object under the given key from the bucket.
//	@Tags			objects
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key	path		string	true	"Object key"
//	@Success		200	{object}	response.Envelope{data=deleteData}
//	@Failure		404	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/objects/{key} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		response.BadRequest(w, "key is required")
		return
	}

	if err := h.svc.Delete(r.Context(), key); err != nil {
		h.writeOpError(w, err)
		return
	}

	response.OK(w, deleteData{Key: key, Deleted: true})
}

// List godoc
//
//	@Summary		List uploaded objects
//	@Description	Returns bookkeeping records of uploads, newest first.
//	@Tags			objects
//	@Produce		json
//	@Security		BearerAuth
//	@Param			limit	query		int	false	"Page size (max 200)"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	response.Envelope{data=[]ObjectRecord}
//	@Failure		502		{object}	response.Envelope
//	@Router			/objects [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := queryInt(r, "offset", 0)

	recs, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	if recs == nil {
		recs = []ObjectRecord{}
	}

	response.OK(w, recs)
}

// writeOpError maps the uniform operation error onto an HTTP status.
func (h *Handler) writeOpError(w http.ResponseWriter, err error) {
	var opErr *Error
	if !errors.As(err, &opErr) {
		response.InternalError(w)
		return
	}
	switch opErr.Kind {
	case KindInput:
		response.BadRequest(w, opErr.Err.Error())
	case KindNotFound:
		response.NotFound(w, opErr.Err.Error())
	case KindConfig:
		response.ServiceUnavailable(w, opErr.Err.Error())
	default:
		response.BadGateway(w, opErr.Err.Error())
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
