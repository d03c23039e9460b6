package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/reschool/eschool-gateway/pkg/domain"
)

type fakeSessionInfo struct {
	personID int64
	err      error
}

func (f *fakeSessionInfo) PersonID() (int64, error) {
	return f.personID, f.err
}

type fakeVerifier struct {
	rec *domain.AccessRecord
	err error

	gotCode string
	gotHint int64
	gotMeta domain.VerificationMetadata
}

func (f *fakeVerifier) Verify(ctx context.Context, code string, threadHint int64, meta domain.VerificationMetadata) (*domain.AccessRecord, error) {
	f.gotCode = code
	f.gotHint = threadHint
	f.gotMeta = meta
	return f.rec, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestRequestVerification_IssuesCode(t *testing.T) {
	h := NewHandler(testLogger(), &fakeSessionInfo{personID: 4242}, &fakeVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/request-verification", nil)
	w := httptest.NewRecorder()
	h.RequestVerification(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp RequestVerificationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TargetPrsID != 4242 {
		t.Errorf("targetPrsId = %d, want 4242", resp.TargetPrsID)
	}
	if len(resp.Code) != codeLen {
		t.Errorf("code length = %d, want %d", len(resp.Code), codeLen)
	}
	for _, c := range resp.Code {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			t.Errorf("code %q contains character outside A-Z0-9", resp.Code)
			break
		}
	}
}

func TestRequestVerification_UnauthenticatedServer(t *testing.T) {
	h := NewHandler(testLogger(), &fakeSessionInfo{err: domain.ErrNotAuthenticated}, &fakeVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/request-verification", nil)
	w := httptest.NewRecorder()
	h.RequestVerification(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestCheckVerification_UnauthenticatedServer(t *testing.T) {
	h := NewHandler(testLogger(), &fakeSessionInfo{err: domain.ErrNotAuthenticated}, &fakeVerifier{})

	w := postJSON(t, h.CheckVerification, CheckVerificationRequest{Code: "ABC123"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestCheckVerification_MissingCode(t *testing.T) {
	h := NewHandler(testLogger(), &fakeSessionInfo{personID: 1}, &fakeVerifier{})

	w := postJSON(t, h.CheckVerification, CheckVerificationRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCheckVerification_NotFound(t *testing.T) {
	v := &fakeVerifier{}
	h := NewHandler(testLogger(), &fakeSessionInfo{personID: 1}, v)

	w := postJSON(t, h.CheckVerification, CheckVerificationRequest{Code: "ABC123", ThreadID: 55})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (not-found is not an error)", w.Code)
	}
	var resp CheckVerificationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Verified {
		t.Error("verified = true, want false")
	}
	if resp.Token != "" {
		t.Error("no token should be issued without a match")
	}
	if v.gotCode != "ABC123" || v.gotHint != 55 {
		t.Errorf("verifier got code=%q hint=%d", v.gotCode, v.gotHint)
	}
}

func TestCheckVerification_Match(t *testing.T) {
	v := &fakeVerifier{rec: &domain.AccessRecord{Token: "tok-1", PersonID: 7}}
	h := NewHandler(testLogger(), &fakeSessionInfo{personID: 1}, v)

	w := postJSON(t, h.CheckVerification, CheckVerificationRequest{
		Code:     "XYZ789",
		FullName: "Ivan Petrov",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp CheckVerificationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Verified || resp.Token != "tok-1" {
		t.Errorf("resp = %+v, want verified with token tok-1", resp)
	}
	// Empty device names are normalized before reaching the verifier.
	if v.gotMeta.DeviceName != "Unknown device" {
		t.Errorf("deviceName = %q, want default", v.gotMeta.DeviceName)
	}
	if v.gotMeta.FullName != "Ivan Petrov" {
		t.Errorf("fullName = %q, want passthrough", v.gotMeta.FullName)
	}
}

func TestCheckVerification_StorageError(t *testing.T) {
	v := &fakeVerifier{err: errors.New("connection reset")}
	h := NewHandler(testLogger(), &fakeSessionInfo{personID: 1}, v)

	w := postJSON(t, h.CheckVerification, CheckVerificationRequest{Code: "ABC123"})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
