// Package handlers implements the noteboard REST endpoints.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/pkg/api"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

// statusFor maps an error category to its HTTP status
func statusFor(err error) int {
	switch pkgerrors.TypeOf(err) {
	case pkgerrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case pkgerrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case pkgerrors.ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status of its category. Internal
// failures are logged and their details kept out of the response.
func respondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("requestID", chimiddleware.GetReqID(r.Context())),
			zap.Error(err))
		api.ErrorWithCode(w, status, string(pkgerrors.ErrorTypeInternal), "internal error")
		return
	}

	message := err.Error()
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Err != nil {
			message += ": " + appErr.Err.Error()
		}
	}
	api.ErrorWithCode(w, status, string(pkgerrors.TypeOf(err)), message)
}

// decodeJSON reads one JSON document into dst. Unknown fields are rejected.
func decodeJSON(r *http.Request, dst interface{}) error {
	return decodeFrom(io.LimitReader(r.Body, maxBodyBytes), dst)
}

// readBody buffers the request body so it can be decoded later
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, pkgerrors.NewValidationWithCause("invalid request body", err)
	}
	return body, nil
}

func decodeFrom(reader io.Reader, dst interface{}) error {
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return pkgerrors.NewValidationWithCause("invalid request body", err)
	}
	return nil
}

// decodeBytes decodes a buffered body into dst
func decodeBytes(body []byte, dst interface{}) error {
	return decodeFrom(bytes.NewReader(body), dst)
}
