package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"heritage-api/apperr"
	"heritage-api/middleware"
	"heritage-api/services"
)

// Handler serves every API route.
type Handler struct {
	identity    *services.IdentityService
	submissions *services.SubmissionService
	reports     *services.ReportService
	issuer      *middleware.TokenIssuer
	db          *gorm.DB
	maxUpload   int64
}

func New(
	identity *services.IdentityService,
	submissions *services.SubmissionService,
	reports *services.ReportService,
	issuer *middleware.TokenIssuer,
	db *gorm.DB,
	maxUpload int64,
) *Handler {
	return &Handler{
		identity:    identity,
		submissions: submissions,
		reports:     reports,
		issuer:      issuer,
		db:          db,
		maxUpload:   maxUpload,
	}
}

// paramID parses a uuid path parameter. Ids that cannot exist are
// reported as missing.
func paramID(c *gin.Context, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.NotFound(what + " not found")
	}
	return id, nil
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == "multipart/form-data"
}

// parseMultipart reads a multipart body of at most h.maxUpload bytes.
func (h *Handler) parseMultipart(c *gin.Context) (*multipart.Form, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.InvalidOperation("Invalid multipart body: " + err.Error())
	}
	return form, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return apperr.InvalidOperation("Invalid request body: " + err.Error())
	}
	return nil
}

// formValue returns the first value of key, also accepting the "key[]"
// spelling.
func formValue(form *multipart.Form, key string) (string, bool) {
	for _, k := range []string{key, key + "[]"} {
		if vs := form.Value[k]; len(vs) > 0 {
			return vs[0], true
		}
	}
	return "", false
}

func formValues(form *multipart.Form, key string) []string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs
	}
	return form.Value[key+"[]"]
}

func formString(form *multipart.Form, key string) *string {
	v, ok := formValue(form, key)
	if !ok {
		return nil
	}
	return &v
}

// formJSON decodes a form field holding an encoded JSON value.
func formJSON(form *multipart.Form, key string, dst any) (bool, error) {
	v, ok := formValue(form, key)
	if !ok || strings.TrimSpace(v) == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return false, apperr.InvalidOperation("Invalid " + key + ": expected JSON")
	}
	return true, nil
}

func formBool(form *multipart.Form, key string) (*bool, error) {
	v, ok := formValue(form, key)
	if !ok || v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperr.InvalidOperation("Invalid " + key + ": expected true or false")
	}
	return &b, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(key, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.InvalidOperation("Invalid " + key + ": expected a date")
}

// docDate is a JSON date accepting the same layouts as parseDate.
type docDate struct {
	t *time.Time
}

func (d *docDate) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return apperr.InvalidOperation("Invalid date_of_documentation: expected a date string")
	}
	t, err := parseDate("date_of_documentation", v)
	if err != nil {
		return err
	}
	d.t = t
	return nil
}

// Time returns the decoded date, or nil when none was given.
func (d *docDate) Time() *time.Time {
	if d == nil {
		return nil
	}
	return d.t
}

// openFiles opens the uploaded files under key with their parallel
// captions and descriptions. The returned closer must always be called.
func openFiles(form *multipart.Form, key string) ([]services.FileUpload, func(), error) {
	headers := form.File[key]
	captions := formValues(form, "captions")
	descriptions := formValues(form, "descriptions")

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	if len(headers) > services.MaxFilesPerRequest {
		return nil, closeAll, apperr.InvalidOperation("At most 10 files may be uploaded at once")
	}

	uploads := make([]services.FileUpload, 0, len(headers))
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, apperr.Internal(err, "Failed to read uploaded file")
		}
		opened = append(opened, f)
		up := services.FileUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		}
		if i < len(captions) {
			up.Caption = captions[i]
		}
		if i < len(descriptions) {
			up.Description = descriptions[i]
		}
		uploads = append(uploads, up)
	}
	return uploads, closeAll, nil
}
