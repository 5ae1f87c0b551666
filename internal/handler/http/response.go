package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/staffdir/staffdir/pkg/errors"
	"github.com/staffdir/staffdir/pkg/logger"

	"github.com/staffdir/staffdir/internal/validation"
)

type errorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
	From    string                  `json:"from,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	status := appErr.Status
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			slog.String("code", appErr.Code), slog.Any("error", err))
	}

	resp := errorResponse{Code: appErr.Code, Message: appErr.Message}
	if status == http.StatusUnauthorized {
		// Lets the login view return the user where they started.
		resp.From = r.URL.RequestURI()
	}
	writeJSON(w, status, resp)
}

func writeValidationError(w http.ResponseWriter, verr *validation.Error) {
	appErr := apperrors.ValidationFailed("One or more fields are invalid")
	writeJSON(w, appErr.Status, errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Fields:  verr.Fields,
	})
}
