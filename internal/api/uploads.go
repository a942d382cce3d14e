package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/starford/ensemble/internal/listquery"
	"github.com/starford/ensemble/internal/models"
	"github.com/starford/ensemble/internal/store"
)

const maxUploadBytes = 50 << 20 // 50 MB

// readUpload pulls the named file field out of a multipart request.
func readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return nil, "", "", false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing '"+field+"' field in multipart form"))
		return nil, "", "", false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return nil, "", "", false
	}
	return content, header.Filename, header.Header.Get("Content-Type"), true
}

// ListDocuments handles GET /api/documents, paged and ordered by file
// name.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	filter := store.DocumentFilter{
		SearchString: r.URL.Query().Get("searchString"),
		MusicianID:   idQuery(r, "musicianId"),
	}
	page, applied, err := h.svc.ListDocuments(r.Context(), h.listQuery(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(page, listquery.Resolved{}, applied))
}

// GetDocument handles GET /api/documents/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	d, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UploadDocument handles POST /api/musicians/{id}/documents
// (multipart/form-data, field "file", optional "description").
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	content, filename, mimeType, ok := readUpload(w, r, "file")
	if !ok {
		return
	}
	d := models.Document{
		MusicianID:  id,
		FileName:    filename,
		MimeType:    mimeType,
		Description: r.FormValue("description"),
	}
	if err := h.svc.AddDocument(r.Context(), &d, content); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// UpdateDocument handles PUT /api/documents/{id}, metadata only.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var d models.Document
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	d.ID = id
	if err := h.svc.UpdateDocument(r.Context(), &d); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteDocument handles DELETE /api/documents/{id}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadDocument handles GET /api/documents/{id}/download. The ETag
// is the content checksum; If-None-Match short-circuits with 304.
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	d, content, err := h.svc.DownloadDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	etag := `"` + d.ETag + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	mimeType := d.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+d.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(content) //nolint:errcheck
}

// UploadPhoto handles POST /api/musicians/{id}/photo
// (multipart/form-data, field "photo"). Only pictures are accepted;
// the service resizes into the two renditions.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	content, _, _, ok := readUpload(w, r, "photo")
	if !ok {
		return
	}
	if err := h.svc.SetPhoto(r.Context(), id, content); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPhoto handles GET /api/musicians/{id}/photo. ?thumb=1 serves the
// thumbnail rendition.
func (h *Handler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	thumb := r.URL.Query().Get("thumb") == "1"
	content, mimeType, err := h.svc.Photo(r.Context(), id, thumb)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	w.Write(content) //nolint:errcheck
}

// DeletePhoto handles DELETE /api/musicians/{id}/photo.
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.svc.DeletePhoto(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
