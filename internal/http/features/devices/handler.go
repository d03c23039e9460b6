package devices

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/reschool/eschool-gateway/internal/httputil"
	"github.com/reschool/eschool-gateway/pkg/domain"
)

// RecordStore is the access-record storage the device endpoints operate on.
type RecordStore interface {
	GetByToken(ctx context.Context, token string) (*domain.AccessRecord, error)
	Delete(ctx context.Context, token string) (bool, error)
	ListByIdentity(ctx context.Context, personID int64) ([]*domain.AccessRecord, error)
	FilterVerified(ctx context.Context, personIDs []int64) ([]int64, error)
}

// Handler handles token and device management endpoints.
type Handler struct {
	logger  *slog.Logger
	records RecordStore
}

// NewHandler creates a new devices handler.
func NewHandler(logger *slog.Logger, records RecordStore) *Handler {
	return &Handler{
		logger:  logger,
		records: records,
	}
}

// RevokeTokenRequest names the token to revoke.
type RevokeTokenRequest struct {
	Token string `json:"token"`
}

// RevokeTokenResponse reports the revocation outcome.
type RevokeTokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RevokeToken deletes an access record, disconnecting the device it was
// issued to.
// POST /revoke-token
func (h *Handler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	var req RevokeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		httputil.Error(w, http.StatusBadRequest, "No token provided")
		return
	}

	deleted, err := h.records.Delete(r.Context(), req.Token)
	if err != nil {
		h.logger.Error("revoking token failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !deleted {
		httputil.JSON(w, http.StatusNotFound, RevokeTokenResponse{Success: false, Message: "Token not found"})
		return
	}

	h.logger.Info("token revoked")
	httputil.JSON(w, http.StatusOK, RevokeTokenResponse{Success: true, Message: "Token revoked"})
}

// ListDevicesRequest carries the caller's token.
type ListDevicesRequest struct {
	Token string `json:"token"`
}

// Device is one registered device of the caller's identity.
type Device struct {
	Token      string `json:"token"`
	DeviceName string `json:"deviceName"`
	CreatedAt  string `json:"createdAt"`
	IsCurrent  bool   `json:"isCurrent"`
}

// ListDevicesResponse lists every device registered for the identity.
type ListDevicesResponse struct {
	Devices []Device `json:"devices"`
}

// ListDevices lists the devices registered for the caller's identity.
// POST /list-devices
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	var req ListDevicesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		httputil.Error(w, http.StatusUnauthorized, "No token provided")
		return
	}

	rec, err := h.records.GetByToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			httputil.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		h.logger.Error("resolving token failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	records, err := h.records.ListByIdentity(r.Context(), rec.PersonID)
	if err != nil {
		h.logger.Error("listing devices failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	devices := make([]Device, 0, len(records))
	for _, dev := range records {
		name := dev.DeviceName
		if name == "" {
			name = "Unknown device"
		}
		devices = append(devices, Device{
			Token:      dev.Token,
			DeviceName: name,
			CreatedAt:  dev.CreatedAt.Format(time.RFC3339),
			IsCurrent:  dev.Token == req.Token,
		})
	}

	httputil.JSON(w, http.StatusOK, ListDevicesResponse{Devices: devices})
}

// CheckVerifiedUsersRequest asks which of the given identities are verified.
type CheckVerifiedUsersRequest struct {
	Token string  `json:"token"`
	IDs   []int64 `json:"ids"`
}

// CheckVerifiedUsersResponse is the verified subset of the requested ids.
type CheckVerifiedUsersResponse struct {
	VerifiedIDs []int64 `json:"verifiedIds"`
}

// CheckVerifiedUsers returns which of the supplied identities own at least
// one access record.
// POST /check-verified-users
func (h *Handler) CheckVerifiedUsers(w http.ResponseWriter, r *http.Request) {
	var req CheckVerifiedUsersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		httputil.Error(w, http.StatusUnauthorized, "No token provided")
		return
	}

	if len(req.IDs) == 0 {
		httputil.JSON(w, http.StatusOK, CheckVerifiedUsersResponse{VerifiedIDs: []int64{}})
		return
	}

	if _, err := h.records.GetByToken(r.Context(), req.Token); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			httputil.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		h.logger.Error("resolving token failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	verified, err := h.records.FilterVerified(r.Context(), req.IDs)
	if err != nil {
		h.logger.Error("filtering verified users failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if verified == nil {
		verified = []int64{}
	}

	httputil.JSON(w, http.StatusOK, CheckVerifiedUsersResponse{VerifiedIDs: verified})
}
