package verification

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"

	"github.com/reschool/eschool-gateway/internal/httputil"
	"github.com/reschool/eschool-gateway/pkg/domain"
)

const codeLen = 16
const codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SessionInfo reports the upstream identity the server is logged in as.
type SessionInfo interface {
	PersonID() (int64, error)
}

// Verifier runs the tiered code search and issues access records.
type Verifier interface {
	Verify(ctx context.Context, code string, threadHint int64, meta domain.VerificationMetadata) (*domain.AccessRecord, error)
}

// Handler handles the verification endpoints.
type Handler struct {
	logger   *slog.Logger
	sessions SessionInfo
	verifier Verifier
}

// NewHandler creates a new verification handler.
func NewHandler(logger *slog.Logger, sessions SessionInfo, verifier Verifier) *Handler {
	return &Handler{
		logger:   logger,
		sessions: sessions,
		verifier: verifier,
	}
}

// RequestVerificationResponse tells the client what code to send and to
// which upstream account.
type RequestVerificationResponse struct {
	Code        string `json:"code"`
	TargetPrsID int64  `json:"targetPrsId"`
}

// RequestVerification issues a fresh one-time code.
// POST /request-verification
func (h *Handler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	personID, err := h.sessions.PersonID()
	if err != nil {
		httputil.Error(w, http.StatusServiceUnavailable, "Server not authenticated")
		return
	}

	httputil.JSON(w, http.StatusOK, RequestVerificationResponse{
		Code:        randomCode(codeLen),
		TargetPrsID: personID,
	})
}

// CheckVerificationRequest carries the code to search for plus the client
// metadata persisted on success.
type CheckVerificationRequest struct {
	Code       string `json:"code"`
	ThreadID   int64  `json:"threadId"`
	DeviceName string `json:"deviceName"`
	FullName   string `json:"fullName"`
	GradeClass string `json:"gradeClass"`
}

// CheckVerificationResponse reports the verification outcome.
type CheckVerificationResponse struct {
	Verified bool   `json:"verified"`
	Token    string `json:"token,omitempty"`
}

// CheckVerification searches the upstream for the code and issues a token
// when its sender is found.
// POST /check-verification
func (h *Handler) CheckVerification(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.PersonID(); err != nil {
		httputil.Error(w, http.StatusServiceUnavailable, "Server not authenticated")
		return
	}

	var req CheckVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		httputil.Error(w, http.StatusBadRequest, "No code provided")
		return
	}

	deviceName := req.DeviceName
	if deviceName == "" {
		deviceName = "Unknown device"
	}

	rec, err := h.verifier.Verify(r.Context(), req.Code, req.ThreadID, domain.VerificationMetadata{
		DeviceName: deviceName,
		FullName:   req.FullName,
		GradeClass: req.GradeClass,
	})
	if err != nil {
		h.logger.Error("verification storage failure", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if rec == nil {
		// Not an error: the code may not have been sent yet.
		httputil.JSON(w, http.StatusOK, CheckVerificationResponse{Verified: false})
		return
	}

	httputil.JSON(w, http.StatusOK, CheckVerificationResponse{
		Verified: true,
		Token:    rec.Token,
	})
}

func randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeChars[rand.Intn(len(codeChars))]
	}
	return string(b)
}
