/*
Package resp provides helper functions for constructing and sending standardized HTTP JSON responses.

Every response carries a boolean "success" flag. Successful responses add their payload
fields next to it (e.g. "messages", "conversations"); failures add a business code and a
client-safe message.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/logx"
)

// Fields holds the top-level payload fields of a successful response.
type Fields map[string]any

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondJSON is a generic response function used to set the Content-Type and send the JSON payload.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess sends {"success": true, ...fields} with the given HTTP status.
func RespondSuccess(w http.ResponseWriter, r *http.Request, httpStatus int, fields Fields) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true

	RespondJSON(w, r, httpStatus, body)
}

// RespondError sends an HTTP response containing custom error information.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	res := ErrorResponse{
		Success: false,
		Code:    customErr.Code,
		Message: customErr.Message,
	}
	RespondJSON(w, r, customErr.Status, res)
}
