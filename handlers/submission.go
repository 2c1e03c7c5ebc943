package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"heritage-api/apperr"
	"heritage-api/middleware"
	"heritage-api/models"
	"heritage-api/services"
)

// SubmissionRequest is the body of create and edit requests. On edit,
// absent fields keep their stored value.
type SubmissionRequest struct {
	Title                   *string          `json:"title"`
	Pillar                  *models.Pillar   `json:"pillar"`
	Category                *string          `json:"category"`
	Description             *string          `json:"description"`
	Location                *models.Location `json:"location"`
	Tags                    []string         `json:"tags"`
	DateOfDocumentation     *docDate         `json:"date_of_documentation"`
	Metadata                *models.Metadata `json:"metadata"`
	IsLinkedToAncestralLand *bool            `json:"is_linked_to_ancestral_land"`
}

type StatusRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

// submissionFromForm decodes the structured fields of a multipart body.
func submissionFromForm(form *multipart.Form) (SubmissionRequest, error) {
	req := SubmissionRequest{
		Title:       formString(form, "title"),
		Category:    formString(form, "category"),
		Description: formString(form, "description"),
	}
	if v, ok := formValue(form, "pillar"); ok {
		p := models.Pillar(v)
		req.Pillar = &p
	}

	var loc models.Location
	if ok, err := formJSON(form, "location", &loc); err != nil {
		return req, err
	} else if ok {
		req.Location = &loc
	}
	var meta models.Metadata
	if ok, err := formJSON(form, "metadata", &meta); err != nil {
		return req, err
	} else if ok {
		req.Metadata = &meta
	}
	if _, err := formJSON(form, "tags", &req.Tags); err != nil {
		return req, err
	}

	var err error
	if v, ok := formValue(form, "date_of_documentation"); ok {
		t, err := parseDate("date_of_documentation", v)
		if err != nil {
			return req, err
		}
		req.DateOfDocumentation = &docDate{t: t}
	}
	if req.IsLinkedToAncestralLand, err = formBool(form, "is_linked_to_ancestral_land"); err != nil {
		return req, err
	}
	return req, nil
}

// readSubmission binds a JSON or multipart submission body together with
// its files. The returned closer must always be called.
func (h *Handler) readSubmission(c *gin.Context) (SubmissionRequest, []services.FileUpload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		var req SubmissionRequest
		err := bindJSON(c, &req)
		return req, nil, noop, err
	}
	form, err := h.parseMultipart(c)
	if err != nil {
		return SubmissionRequest{}, nil, noop, err
	}
	req, err := submissionFromForm(form)
	if err != nil {
		return req, nil, noop, err
	}
	files, closeFiles, err := openFiles(form, "files")
	return req, files, closeFiles, err
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// CreateSubmission stores a new submission for the caller
func (h *Handler) CreateSubmission(c *gin.Context) {
	req, files, closeFiles, err := h.readSubmission(c)
	defer closeFiles()
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	in := services.SubmissionInput{
		Title:                   deref(req.Title),
		Pillar:                  deref(req.Pillar),
		Category:                deref(req.Category),
		Description:             deref(req.Description),
		Location:                deref(req.Location),
		Tags:                    req.Tags,
		DateOfDocumentation:     req.DateOfDocumentation.Time(),
		Metadata:                deref(req.Metadata),
		IsLinkedToAncestralLand: deref(req.IsLinkedToAncestralLand),
	}
	sub, err := h.submissions.Create(c.Request.Context(), middleware.GetPrincipal(c), in, files)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Submission created", "submission": sub})
}

// UpdateSubmission applies the owner's edit and appends any new files
func (h *Handler) UpdateSubmission(c *gin.Context) {
	id, err := paramID(c, "id", "Submission")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	req, files, closeFiles, err := h.readSubmission(c)
	defer closeFiles()
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	patch := services.SubmissionPatch{
		Pillar:                  req.Pillar,
		Title:                   req.Title,
		Category:                req.Category,
		Description:             req.Description,
		Location:                req.Location,
		Tags:                    req.Tags,
		DateOfDocumentation:     req.DateOfDocumentation.Time(),
		Metadata:                req.Metadata,
		IsLinkedToAncestralLand: req.IsLinkedToAncestralLand,
	}
	sub, err := h.submissions.Update(c.Request.Context(), middleware.GetPrincipal(c), id, patch, files)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Submission updated", "submission": sub})
}

// GetMySubmissions lists the caller's submissions, newest first
func (h *Handler) GetMySubmissions(c *gin.Context) {
	subs, err := h.submissions.ListMine(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(subs), "submissions": subs})
}

// submissionFilter reads the pillar, status, county and user query filters.
func submissionFilter(c *gin.Context) (services.SubmissionFilter, error) {
	var f services.SubmissionFilter
	if v := c.Query("pillar"); v != "" {
		p, ok := models.ParsePillar(v)
		if !ok {
			return f, apperr.InvalidOperation("Invalid pillar: " + v)
		}
		f.Pillar = p
	}
	if v := c.Query("status"); v != "" {
		s, ok := models.ParseStatus(v)
		if !ok {
			return f, apperr.InvalidOperation("Invalid status: " + v)
		}
		f.Status = s
	}
	f.County = c.Query("county")
	if v := c.Query("user"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, apperr.InvalidOperation("Invalid user id: " + v)
		}
		f.UserID = id
	}
	return f, nil
}

// ListSubmissions returns every submission matching the query filters
func (h *Handler) ListSubmissions(c *gin.Context) {
	f, err := submissionFilter(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	subs, err := h.submissions.List(c.Request.Context(), f)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(subs), "submissions": subs})
}

func (h *Handler) GetSubmission(c *gin.Context) {
	id, err := paramID(c, "id", "Submission")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	sub, err := h.submissions.Get(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

// GetSubmissionHistory returns the status audit trail, oldest first
func (h *Handler) GetSubmissionHistory(c *gin.Context) {
	id, err := paramID(c, "id", "Submission")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	history, err := h.submissions.History(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission_id": id, "history": history})
}

// UpdateSubmissionStatus is the admin review action
func (h *Handler) UpdateSubmissionStatus(c *gin.Context) {
	id, err := paramID(c, "id", "Submission")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	var req StatusRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.RespondError(c, err)
		return
	}
	sub, err := h.submissions.SetStatus(c.Request.Context(), middleware.GetPrincipal(c), id, req.Status, req.AdminNotes)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Submission status updated", "submission": sub})
}

// DeleteSubmission removes a submission; owner or admin only
func (h *Handler) DeleteSubmission(c *gin.Context) {
	id, err := paramID(c, "id", "Submission")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if err := h.submissions.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Submission removed"})
}
