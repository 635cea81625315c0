package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/server/auth"
	"github.com/dmitrijs2005/cityfix/internal/server/images"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/dmitrijs2005/cityfix/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) createIssue(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	var req createIssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	imageRef := req.ImageKey
	if req.ImageBase64 != nil && *req.ImageBase64 != "" {
		key, err := h.images.UploadBase64(r.Context(), images.PrefixIssues, *req.ImageBase64)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		imageRef = &key
	}

	issue, err := h.issues.CreateIssue(r.Context(), p, services.NewIssue{
		Title:       req.Title,
		Description: req.Description,
		Category:    models.Category(req.Category),
		Location:    models.Location{Latitude: *req.Latitude, Longitude: *req.Longitude},
		ImageRef:    imageRef,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newIssueResponse(issue))
}

// parseFilter reads status, category and search from the query string. Empty
// values do not filter.
func parseFilter(q map[string][]string) (models.IssueFilter, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	var f models.IssueFilter
	if s := get("status"); s != "" {
		status, err := models.ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = &status
	}
	if c := get("category"); c != "" {
		category, err := models.ParseCategory(c)
		if err != nil {
			return f, err
		}
		f.Category = &category
	}
	if s := get("search"); s != "" {
		f.Search = &s
	}
	return f, nil
}

func queryInt(r *http.Request, key string, def int) (int, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, ok := queryInt(r, "page", 1)
	if !ok {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	pageSize, ok := queryInt(r, "page_size", services.DefaultPageSize)
	if !ok {
		writeError(w, http.StatusBadRequest, "page_size must be an integer")
		return
	}
	page, pageSize = services.NormalizePage(page, pageSize)

	items, err := h.issues.ListIssues(r.Context(), filter, page, pageSize)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := issuesListResponse{Items: make([]issueResponse, 0, len(items)), Page: page, PageSize: pageSize}
	for _, i := range items {
		resp.Items = append(resp.Items, newIssueResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getIssue(w http.ResponseWriter, r *http.Request) {
	issue, err := h.issues.GetIssue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIssueResponse(issue))
}

func (h *Handler) deleteIssue(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	if err := h.issues.DeleteIssue(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Issue deleted"})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	var req statusUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, _ := models.ParseStatus(req.Status)

	change := services.StatusChange{Status: status, Comment: req.Comment}
	if req.ResolutionImageBase64 != nil && *req.ResolutionImageBase64 != "" {
		key, err := h.images.UploadBase64(r.Context(), images.PrefixResolutions, *req.ResolutionImageBase64)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		change.ResolutionImageRef = &key
	}

	issue, err := h.issues.UpdateStatus(r.Context(), p, chi.URLParam(r, "id"), change)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIssueResponse(issue))
}

func (h *Handler) issueUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := h.issues.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]statusUpdateResponse, 0, len(updates))
	for _, u := range updates {
		resp = append(resp, newStatusUpdateResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// issueImage redirects to a temporary URL of the issue photo, or of the
// resolution photo with ?kind=resolution.
func (h *Handler) issueImage(w http.ResponseWriter, r *http.Request) {
	issue, err := h.issues.GetIssue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	ref := issue.ImageRef
	if r.URL.Query().Get("kind") == "resolution" {
		ref = issue.ResolutionImageRef
	}
	if ref == nil || *ref == "" {
		h.writeServiceError(w, r, common.ErrorNotFound)
		return
	}

	url, err := h.images.URL(r.Context(), *ref)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
