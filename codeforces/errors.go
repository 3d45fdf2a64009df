package codeforces

import (
	"fmt"
	"net/http"

	"github.com/programme-lv/autoprogcomp/srvcerror"
)

const ErrCodeUpstreamHttp = "upstream_http"

// ErrUpstreamHttp carries the HTTP status returned by Codeforces.
func ErrUpstreamHttp(status int, comment string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUpstreamHttp,
		fmt.Sprintf("HTTP error %d %s %s", status, http.StatusText(status), comment),
	).SetHttpStatusCode(status)
}

const ErrCodeUpstreamApi = "upstream_api"

func ErrUpstreamApi(comment string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUpstreamApi,
		fmt.Sprintf("codeforces api error: %s", comment),
	).SetHttpStatusCode(http.StatusBadGateway)
}

const ErrCodeUpstreamValidation = "upstream_validation"

func ErrUpstreamValidation() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeUpstreamValidation,
		"codeforces api validation error",
	).SetHttpStatusCode(http.StatusBadGateway)
}

const ErrCodeNotFound = "not_found"

func ErrUserNotFound(handle string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNotFound,
		fmt.Sprintf("User with handle '%s' not found", handle),
	).SetHttpStatusCode(http.StatusNotFound)
}

func ErrContestNotFound(contestID string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNotFound,
		fmt.Sprintf("Contest with ID '%s' not found", contestID),
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeContestNotStarted = "contest_not_started"

func ErrContestNotStarted(comment string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeContestNotStarted,
		fmt.Sprintf("codeforces api error: %s", comment),
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeArchiveMiss = "archive_miss"

func ErrArchiveMiss(key string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeArchiveMiss,
		fmt.Sprintf("no archived response for %s", key),
	).SetHttpStatusCode(http.StatusNotFound)
}
