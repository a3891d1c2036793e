package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/memberbase/accounts-api/internal/core/domain"
)

func renderError(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json envelope: %v", err)
	}
	return rec, body
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		err     error
		code    int
		message string
	}{
		{domain.ErrUnauthorized, http.StatusUnauthorized, "Authorization error. Token Required."},
		{domain.ErrInvalidToken, http.StatusUnauthorized, "Authorization error. Invalid Token."},
		{domain.ErrForbidden, http.StatusForbidden, "Authorization error. Insufficient permissions."},
		{domain.ErrInvalidUsername, http.StatusUnauthorized, "Invalid Username"},
		{domain.ErrInvalidPassword, http.StatusUnauthorized, "Invalid Password"},
		{domain.ErrAccountNotFound, http.StatusNotFound, "Account Not Found"},
		{domain.ErrTargetNotProvided, http.StatusBadRequest, "Account Not Provided"},
		{domain.ErrReservedUsername, http.StatusConflict, "Username is reserved. Use a different username."},
		{domain.ErrUsernameTaken, http.StatusConflict, "Username is already taken"},
		{domain.ErrLastAdmin, http.StatusConflict, "Cannot remove the last admin account"},
		{domain.ErrValidation, http.StatusBadRequest, "Missing or invalid fields"},
	}

	for _, tc := range cases {
		rec, body := renderError(t, tc.err)
		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		if body["success"] != false {
			t.Fatalf("%v: expected success=false, got %+v", tc.err, body)
		}
		if body["message"] != tc.message {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.message, body["message"])
		}
		if _, present := body["errorReport"]; present {
			t.Fatalf("%v: client errors must not carry errorReport: %+v", tc.err, body)
		}
	}
}

func TestErrorHandler_WrappedDomainError(t *testing.T) {
	wrapped := errors.Join(errors.New("find account: timeout"), domain.ErrPersistence)
	rec, body := renderError(t, wrapped)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body["message"] != "Error accessing the account store" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	rec, body := renderError(t, echo.NewHTTPError(http.StatusBadRequest, "invalid payload"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body["message"] != "invalid payload" || body["success"] != false {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestErrorHandler_UnexpectedError(t *testing.T) {
	rec, body := renderError(t, errors.New("boom"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body["message"] != "internal server error" {
		t.Fatalf("unexpected message, must not leak cause: %v", body["message"])
	}
}

func TestErrorHandler_ServerErrorCarriesReport(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Response().Header().Set(echo.HeaderXRequestID, "req_42")

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("boom"), c)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json envelope: %v", err)
	}
	report, ok := body["errorReport"].(map[string]any)
	if !ok {
		t.Fatalf("expected errorReport on server error, got %+v", body)
	}
	if report["requestId"] != "req_42" {
		t.Fatalf("expected request id in errorReport, got %+v", report)
	}
	if body["message"] != "internal server error" {
		t.Fatalf("cause must stay hidden: %v", body["message"])
	}
}
