// Package httpjson writes the JSON envelope shared by every HTTP endpoint:
// {"status": "success", "data": ...} or {"status": "error", "code": ..., "message": ...}.
package httpjson

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/programme-lv/autoprogcomp/srvcerror"
)

type JsonResponse struct {
	Status  string `json:"status"` // "success" or "error"
	Data    any    `json:"data,omitempty"`
	ErrCode string `json:"code,omitempty"`
	ErrMsg  string `json:"message,omitempty"`
}

func WriteSuccessJson(w http.ResponseWriter, data any) {
	writeJson(w, http.StatusOK, JsonResponse{Status: "success", Data: data})
}

func WriteErrorJson(w http.ResponseWriter, errMsg string, statusCode int, errCode string) {
	writeJson(w, statusCode, JsonResponse{Status: "error", ErrMsg: errMsg, ErrCode: errCode})
}

func writeJson(w http.ResponseWriter, statusCode int, resp JsonResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// HandleError answers with the code and status of a coded error, or a bare
// internal error for anything else. The debug cause is logged, never sent.
func HandleError(logger *slog.Logger, w http.ResponseWriter, err error) {
	srvcErr := &srvcerror.Error{}
	if !errors.As(err, &srvcErr) {
		logger.Error("internal server error", "error", err)
		WriteErrorJson(w,
			http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError,
			srvcerror.ErrCodeInternalServerError)
		return
	}

	status := srvcErr.HttpStatusCode()
	if status >= http.StatusInternalServerError {
		logger.Error("service error", "error", err, "code", srvcErr.ErrorCode())
	} else {
		logger.Warn("service error", "error", err, "code", srvcErr.ErrorCode())
	}
	WriteErrorJson(w, srvcErr.Message(), status, srvcErr.ErrorCode())
}
