package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/programme-lv/autoprogcomp/httpjson"
	"github.com/programme-lv/autoprogcomp/runner"
	"github.com/programme-lv/autoprogcomp/sheet"
	"github.com/programme-lv/autoprogcomp/srvcerror"
)

const (
	ErrCodeNoRunsYet      = "no_runs_yet"
	ErrCodeRunInProgress  = "run_in_progress"
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeUnauthorized   = "unauthorized"
)

func errNoRunsYet() *srvcerror.Error {
	return srvcerror.New(ErrCodeNoRunsYet, "no run has finished yet").
		SetHttpStatusCode(http.StatusNotFound)
}

func errRunInProgress() *srvcerror.Error {
	return srvcerror.New(ErrCodeRunInProgress, "a run is already in progress").
		SetHttpStatusCode(http.StatusConflict)
}

func errInvalidRequest(cause error) *srvcerror.Error {
	return srvcerror.New(ErrCodeInvalidRequest, "invalid request body").
		SetHttpStatusCode(http.StatusBadRequest).SetDebug(cause)
}

func errUnauthorized() *srvcerror.Error {
	return srvcerror.New(ErrCodeUnauthorized, "missing or invalid bearer token").
		SetHttpStatusCode(http.StatusUnauthorized)
}

func handleJsonSrvcError(logger *slog.Logger, w http.ResponseWriter, err error) {
	httpjson.HandleError(logger, w, err)
}

func (httpserver *HttpServer) healthz(w http.ResponseWriter, r *http.Request) {
	httpjson.WriteSuccessJson(w, map[string]string{"status": "ok"})
}

func (httpserver *HttpServer) getLastRun(w http.ResponseWriter, r *http.Request) {
	res, ok := httpserver.runs.Last()
	if !ok {
		handleJsonSrvcError(httplog.LogEntry(r.Context()), w, errNoRunsYet())
		return
	}
	httpjson.WriteSuccessJson(w, res)
}

func (httpserver *HttpServer) createRun(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	res, err := httpserver.runs.TryRun(r.Context())
	if errors.Is(err, runner.ErrRunInProgress) {
		handleJsonSrvcError(logger, w, errRunInProgress())
		return
	}
	if err != nil && res.RunID == "" {
		handleJsonSrvcError(logger, w, err)
		return
	}
	// A finished run that failed still reports its id and error.
	if err != nil {
		logger.Warn("run failed", "run_id", res.RunID, "error", err)
	}
	httpjson.WriteSuccessJson(w, res)
}

type computeRequest struct {
	Grid [][]string `json:"grid"`
}

type computeResponse struct {
	Grid [][]string `json:"grid"`
}

func (httpserver *HttpServer) computeGrid(w http.ResponseWriter, r *http.Request) {
	logger := httplog.LogEntry(r.Context())

	var req computeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleJsonSrvcError(logger, w, errInvalidRequest(err))
		return
	}

	out, err := sheet.ComputeResults(r.Context(), req.Grid, httpserver.compute)
	if errors.Is(err, sheet.ErrNoHeader) {
		handleJsonSrvcError(logger, w, errInvalidRequest(err))
		return
	}
	if err != nil {
		handleJsonSrvcError(logger, w, err)
		return
	}
	if out == nil {
		out = [][]string{}
	}
	httpjson.WriteSuccessJson(w, computeResponse{Grid: out})
}
