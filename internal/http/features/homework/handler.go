package homework

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reschool/eschool-gateway/internal/httputil"
	"github.com/reschool/eschool-gateway/pkg/domain"
)

const (
	maxAttachments = 3
	maxFileSize    = 50 << 20

	lessonDateLayout = "2006-01-02"
)

// Store is the homework storage the handlers operate on.
type Store interface {
	Create(ctx context.Context, hw *domain.Homework) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Homework, error)
	ListByClass(ctx context.Context, gradeClass string, from, to *time.Time) ([]*domain.Homework, error)
	UpdateText(ctx context.Context, id int64, text string) error
	Delete(ctx context.Context, id int64) error
	AddFile(ctx context.Context, f *domain.HomeworkFile) (int64, error)
	GetFile(ctx context.Context, fileID int64) (*domain.HomeworkFile, error)
	ListFiles(ctx context.Context, homeworkID int64) ([]domain.HomeworkFile, error)
	CountFiles(ctx context.Context, homeworkID int64) (int, error)
	DeleteFile(ctx context.Context, fileID, homeworkID int64) error
}

// TokenResolver resolves caller tokens to their access records. Tokens
// travel in request bodies, so each handler resolves its own.
type TokenResolver interface {
	GetByToken(ctx context.Context, token string) (*domain.AccessRecord, error)
}

// Handler handles the class-shared homework endpoints.
type Handler struct {
	logger  *slog.Logger
	store   Store
	records TokenResolver
	files   *FileStorage
}

// NewHandler creates a new homework handler.
func NewHandler(logger *slog.Logger, store Store, records TokenResolver, files *FileStorage) *Handler {
	return &Handler{
		logger:  logger,
		store:   store,
		records: records,
		files:   files,
	}
}

// resolveToken authenticates the caller and requires a grade class on the
// record, since every homework entry is scoped to one.
func (h *Handler) resolveToken(w http.ResponseWriter, r *http.Request, token string) *domain.AccessRecord {
	if token == "" {
		httputil.Error(w, http.StatusUnauthorized, "No token provided")
		return nil
	}
	rec, err := h.records.GetByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			httputil.Error(w, http.StatusUnauthorized, "Invalid token")
			return nil
		}
		h.logger.Error("resolving token failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return nil
	}
	if rec.GradeClass == "" {
		httputil.Error(w, http.StatusForbidden, "No grade class on record")
		return nil
	}
	return rec
}

// FileResponse is the wire form of one attachment.
type FileResponse struct {
	ID       int64  `json:"id"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
}

// HomeworkResponse is the wire form of one homework entry.
type HomeworkResponse struct {
	ID             int64          `json:"id"`
	Subject        string         `json:"subject"`
	LessonDate     string         `json:"lessonDate"`
	Text           string         `json:"text"`
	AuthorFullName string         `json:"authorFullName"`
	AuthorPrsID    int64          `json:"authorPrsId"`
	IsMine         bool           `json:"isMine"`
	Files          []FileResponse `json:"files"`
	CreatedAt      string         `json:"createdAt"`
	UpdatedAt      string         `json:"updatedAt"`
}

func toResponse(hw *domain.Homework, callerID int64) HomeworkResponse {
	files := make([]FileResponse, 0, len(hw.Files))
	for _, f := range hw.Files {
		files = append(files, FileResponse{
			ID:       f.ID,
			FileName: f.FileName,
			FileSize: f.FileSize,
			MimeType: f.MimeType,
		})
	}
	return HomeworkResponse{
		ID:             hw.ID,
		Subject:        hw.Subject,
		LessonDate:     hw.LessonDate.Format(lessonDateLayout),
		Text:           hw.Text,
		AuthorFullName: hw.AuthorFullName,
		AuthorPrsID:    hw.AuthorPersonID,
		IsMine:         hw.AuthorPersonID == callerID,
		Files:          files,
		CreatedAt:      hw.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      hw.UpdatedAt.Format(time.RFC3339),
	}
}

// Create stores a homework entry with up to three attachments.
// POST /custom-homework/create (multipart/form-data)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFileSize); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	rec := h.resolveToken(w, r, r.FormValue("token"))
	if rec == nil {
		return
	}

	subject := r.FormValue("subject")
	text := r.FormValue("text")
	if subject == "" || text == "" {
		httputil.Error(w, http.StatusBadRequest, "Subject and text are required")
		return
	}
	lessonDate, err := time.Parse(lessonDateLayout, r.FormValue("lesson_date"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid lesson_date, expected YYYY-MM-DD")
		return
	}

	var uploads []*fileUpload
	if r.MultipartForm != nil {
		headers := r.MultipartForm.File["files"]
		if len(headers) > maxAttachments {
			httputil.Error(w, http.StatusBadRequest, fmt.Sprintf("At most %d files allowed", maxAttachments))
			return
		}
		for _, fh := range headers {
			if err := validateUpload(fh); err != nil {
				httputil.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			uploads = append(uploads, &fileUpload{header: fh})
		}
	}

	hw := &domain.Homework{
		AuthorPersonID: rec.PersonID,
		AuthorFullName: rec.FullName,
		GradeClass:     rec.GradeClass,
		Subject:        subject,
		LessonDate:     lessonDate,
		Text:           text,
	}
	if _, err := h.store.Create(r.Context(), hw); err != nil {
		h.logger.Error("creating homework failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	for _, up := range uploads {
		stored, err := h.files.Save(rec.GradeClass, hw.ID, up.header)
		if err != nil {
			h.logger.Error("storing attachment failed", "homework_id", hw.ID, "error", err)
			httputil.Error(w, http.StatusInternalServerError, "File storage error")
			return
		}
		file := &domain.HomeworkFile{
			HomeworkID:  hw.ID,
			FileName:    up.header.Filename,
			FileSize:    up.header.Size,
			MimeType:    up.header.Header.Get("Content-Type"),
			StoragePath: stored,
		}
		if _, err := h.store.AddFile(r.Context(), file); err != nil {
			h.logger.Error("persisting attachment row failed", "homework_id", hw.ID, "error", err)
			httputil.Error(w, http.StatusInternalServerError, "Database error")
			return
		}
		hw.Files = append(hw.Files, *file)
	}

	h.logger.Info("homework created", "homework_id", hw.ID, "grade_class", rec.GradeClass, "files", len(hw.Files))
	httputil.JSON(w, http.StatusCreated, toResponse(hw, rec.PersonID))
}

// ListRequest filters the caller's class homework by lesson date.
type ListRequest struct {
	Token    string `json:"token"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// ListResponse is the homework of the caller's grade class.
type ListResponse struct {
	Homework []HomeworkResponse `json:"homework"`
}

// List returns the homework entries of the caller's grade class.
// POST /custom-homework/list
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec := h.resolveToken(w, r, req.Token)
	if rec == nil {
		return
	}

	var from, to *time.Time
	if req.DateFrom != "" {
		d, err := time.Parse(lessonDateLayout, req.DateFrom)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "Invalid date_from, expected YYYY-MM-DD")
			return
		}
		from = &d
	}
	if req.DateTo != "" {
		d, err := time.Parse(lessonDateLayout, req.DateTo)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "Invalid date_to, expected YYYY-MM-DD")
			return
		}
		to = &d
	}

	entries, err := h.store.ListByClass(r.Context(), rec.GradeClass, from, to)
	if err != nil {
		h.logger.Error("listing homework failed", "grade_class", rec.GradeClass, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	out := make([]HomeworkResponse, 0, len(entries))
	for _, hw := range entries {
		out = append(out, toResponse(hw, rec.PersonID))
	}
	httputil.JSON(w, http.StatusOK, ListResponse{Homework: out})
}

// Update modifies a homework entry the caller authored. New files arrive in
// the multipart form; delete_file_ids names attachment rows to drop.
// POST /custom-homework/update (multipart/form-data)
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFileSize); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	homeworkID, err := strconv.ParseInt(r.FormValue("homework_id"), 10, 64)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid homework_id")
		return
	}

	rec := h.resolveToken(w, r, r.FormValue("token"))
	if rec == nil {
		return
	}

	hw, ok := h.loadOwned(w, r, homeworkID, rec)
	if !ok {
		return
	}

	if text := r.FormValue("text"); text != "" && text != hw.Text {
		if err := h.store.UpdateText(r.Context(), hw.ID, text); err != nil {
			h.logger.Error("updating homework text failed", "homework_id", hw.ID, "error", err)
			httputil.Error(w, http.StatusInternalServerError, "Database error")
			return
		}
		hw.Text = text
	}

	var deleteIDs []int64
	if raw := r.FormValue("delete_file_ids"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &deleteIDs); err != nil {
			httputil.Error(w, http.StatusBadRequest, "Invalid delete_file_ids")
			return
		}
	}
	for _, fileID := range deleteIDs {
		file, err := h.store.GetFile(r.Context(), fileID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				continue
			}
			httputil.Error(w, http.StatusInternalServerError, "Database error")
			return
		}
		if file.HomeworkID != hw.ID {
			continue
		}
		if err := h.store.DeleteFile(r.Context(), fileID, hw.ID); err != nil {
			httputil.Error(w, http.StatusInternalServerError, "Database error")
			return
		}
		h.files.Remove(file.StoragePath)
	}

	var newFiles []*fileUpload
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			if err := validateUpload(fh); err != nil {
				httputil.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			newFiles = append(newFiles, &fileUpload{header: fh})
		}
	}
	if len(newFiles) > 0 {
		existing, err := h.store.CountFiles(r.Context(), hw.ID)
		if err != nil {
			httputil.Error(w, http.StatusInternalServerError, "Database error")
			return
		}
		if existing+len(newFiles) > maxAttachments {
			httputil.Error(w, http.StatusBadRequest, fmt.Sprintf("At most %d files allowed", maxAttachments))
			return
		}
		for _, up := range newFiles {
			stored, err := h.files.Save(hw.GradeClass, hw.ID, up.header)
			if err != nil {
				h.logger.Error("storing attachment failed", "homework_id", hw.ID, "error", err)
				httputil.Error(w, http.StatusInternalServerError, "File storage error")
				return
			}
			file := &domain.HomeworkFile{
				HomeworkID:  hw.ID,
				FileName:    up.header.Filename,
				FileSize:    up.header.Size,
				MimeType:    up.header.Header.Get("Content-Type"),
				StoragePath: stored,
			}
			if _, err := h.store.AddFile(r.Context(), file); err != nil {
				httputil.Error(w, http.StatusInternalServerError, "Database error")
				return
			}
		}
	}

	files, err := h.store.ListFiles(r.Context(), hw.ID)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	hw.Files = files
	httputil.JSON(w, http.StatusOK, toResponse(hw, rec.PersonID))
}

// DeleteRequest names the entry to remove.
type DeleteRequest struct {
	Token      string `json:"token"`
	HomeworkID int64  `json:"homework_id"`
}

// Delete removes a homework entry the caller authored, along with its
// stored files.
// POST /custom-homework/delete
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HomeworkID == 0 {
		httputil.Error(w, http.StatusBadRequest, "Invalid homework_id")
		return
	}
	rec := h.resolveToken(w, r, req.Token)
	if rec == nil {
		return
	}

	hw, ok := h.loadOwned(w, r, req.HomeworkID, rec)
	if !ok {
		return
	}

	files, err := h.store.ListFiles(r.Context(), hw.ID)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if err := h.store.Delete(r.Context(), hw.ID); err != nil {
		h.logger.Error("deleting homework failed", "homework_id", hw.ID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	for _, f := range files {
		h.files.Remove(f.StoragePath)
	}
	h.files.RemoveDir(hw.GradeClass, hw.ID)

	h.logger.Info("homework deleted", "homework_id", hw.ID, "grade_class", hw.GradeClass)
	httputil.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DownloadFile streams one attachment to a caller from the same grade class.
// GET /custom-homework/file/{fileID}?token=...
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid file id")
		return
	}
	rec := h.resolveToken(w, r, r.URL.Query().Get("token"))
	if rec == nil {
		return
	}

	file, err := h.store.GetFile(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			httputil.Error(w, http.StatusNotFound, "File not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	hw, err := h.store.GetByID(r.Context(), file.HomeworkID)
	if err != nil {
		if errors.Is(err, domain.ErrHomeworkNotFound) {
			httputil.Error(w, http.StatusNotFound, "File not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if hw.GradeClass != rec.GradeClass {
		httputil.Error(w, http.StatusForbidden, "File belongs to another class")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	if file.MimeType != "" {
		w.Header().Set("Content-Type", file.MimeType)
	}
	h.files.Serve(w, r, file.StoragePath)
}

// loadOwned fetches a homework entry and enforces author-only access.
func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request, id int64, rec *domain.AccessRecord) (*domain.Homework, bool) {
	hw, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrHomeworkNotFound) {
			httputil.Error(w, http.StatusNotFound, "Homework not found")
			return nil, false
		}
		h.logger.Error("loading homework failed", "homework_id", id, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return nil, false
	}
	if hw.AuthorPersonID != rec.PersonID {
		httputil.Error(w, http.StatusForbidden, "Only the author can modify this entry")
		return nil, false
	}
	return hw, true
}
