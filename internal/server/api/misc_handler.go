package api

import (
	"net/http"

	"github.com/dmitrijs2005/cityfix/internal/server/classify"
)

func (h *Handler) presignImage(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	up, err := h.images.PresignUpload(r.Context(), req.ContentType)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imageUploadResponse{Key: up.Key, URL: up.URL, ExpiresAt: up.ExpiresAt})
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	c, err := h.issues.Analytics(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyticsResponse{
		TotalIssues: c.Total,
		Pending:     c.Pending,
		Processing:  c.Processing,
		Completed:   c.Completed,
	})
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.classifier.Predict(r.Context(), req.Complaint)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{Category: p.Category, Urgency: p.Urgency, Advice: classify.Advise(p)})
}
