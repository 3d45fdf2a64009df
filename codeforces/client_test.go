package codeforces

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/programme-lv/autoprogcomp/archive"
	"github.com/programme-lv/autoprogcomp/srvcerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userStatusBody = `{"status":"OK","result":[
	{"id":2,"contestId":1,"creationTimeSeconds":200,"relativeTimeSeconds":60,
	 "problem":{"contestId":1,"index":"A","name":"x","type":"PROGRAMMING","tags":[]},
	 "author":{"contestId":1,"members":[{"handle":"tourist"}],"participantType":"CONTESTANT","ghost":false},
	 "programmingLanguage":"GNU C++17","verdict":"OK","testset":"TESTS","passedTestCount":10,
	 "timeConsumedMillis":15,"memoryConsumedBytes":0}
]}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	return NewClient(opts)
}

func TestUserStatusDecodesSubmissions(t *testing.T) {
	var gotPath, gotHandle string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHandle = r.URL.Query().Get("handle")
		w.Write([]byte(userStatusBody))
	}, Options{})

	subs, err := client.UserStatus(context.Background(), "tourist")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	assert.Equal(t, "/user.status", gotPath)
	assert.Equal(t, "tourist", gotHandle)
	assert.Equal(t, "A", subs[0].Problem.Index)
	assert.True(t, subs[0].Accepted())
	assert.True(t, subs[0].InContest())
	require.NotNil(t, subs[0].RelativeTimeSeconds)
	assert.Equal(t, int64(60), *subs[0].RelativeTimeSeconds)
}

func TestGzipResponseIsDecoded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte(`{"status":"OK","result":[{"id":5,"name":"Round","type":"ICPC","phase":"FINISHED","frozen":false,"durationSeconds":7200,"startTimeSeconds":1000}]}`))
		gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}, Options{})

	contests, err := client.ContestList(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, contests, 1)
	assert.Equal(t, 5, contests[0].ID)
	require.NotNil(t, contests[0].StartTimeSeconds)
	assert.Equal(t, int64(1000), *contests[0].StartTimeSeconds)
}

func TestRetriesGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(userStatusBody))
	}, Options{MaxRetries: 4, RetryDelay: time.Millisecond})

	_, err := client.UserStatus(context.Background(), "tourist")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}, Options{MaxRetries: 2, RetryDelay: time.Millisecond})

	_, err := client.ContestList(context.Background(), "")
	require.Error(t, err)
	assert.True(t, srvcerror.HasCode(err, ErrCodeUpstreamHttp))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoesNotRetryOtherStatuses(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"FAILED","comment":"handle: bad"}`))
	}, Options{MaxRetries: 4, RetryDelay: time.Millisecond})

	_, err := client.UserRating(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, srvcerror.HasCode(err, ErrCodeUpstreamHttp))
	assert.Contains(t, err.Error(), "handle: bad")
	assert.Equal(t, int32(1), calls.Load())
}

func TestNotFoundStatusMapsToUserNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, Options{})

	_, err := client.UserStatus(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, srvcerror.HasCode(err, ErrCodeNotFound))
	assert.Contains(t, err.Error(), "ghost")
}

func TestContestNotStartedIsClassified(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"FAILED","comment":"contestId: Contest with id 9 has not started"}`))
	}, Options{})

	_, err := client.ContestStatus(context.Background(), "9")
	require.Error(t, err)
	assert.True(t, srvcerror.HasCode(err, ErrCodeContestNotStarted))
}

func TestFailedEnvelopeWithOkStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"FAILED","comment":"Call limit exceeded"}`))
	}, Options{})

	_, err := client.ContestList(context.Background(), "")
	require.Error(t, err)
	assert.True(t, srvcerror.HasCode(err, ErrCodeUpstreamApi))
}

func TestMalformedBodyIsValidationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","result":"nope"}`))
	}, Options{})

	_, err := client.UserStatus(context.Background(), "tourist")
	require.Error(t, err)
	assert.True(t, srvcerror.HasCode(err, ErrCodeUpstreamValidation))
}

func TestSignedRequest(t *testing.T) {
	var query url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"status":"OK","result":[]}`))
	}, Options{APIKey: "key", Secret: "secret"})
	client.now = func() time.Time { return time.Unix(1700000000, 0) }
	client.nonce = func() string { return "123456" }

	_, err := client.UserRating(context.Background(), "tourist")
	require.NoError(t, err)

	assert.Equal(t, "key", query.Get("apiKey"))
	assert.Equal(t, "1700000000", query.Get("time"))
	sum := sha512.Sum512([]byte("123456/user.rating?apiKey=key&handle=tourist&time=1700000000#secret"))
	assert.Equal(t, "123456"+hex.EncodeToString(sum[:]), query.Get("apiSig"))
}

func TestArchiveRecordsAndReplays(t *testing.T) {
	ctx := context.Background()
	arch, err := archive.New(archive.NewDirStore(t.TempDir()))
	require.NoError(t, err)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(userStatusBody))
	}, Options{APIKey: "key", Secret: "secret", Archive: arch, RunID: "run-1"})
	live, err := client.UserStatus(ctx, "tourist")
	require.NoError(t, err)

	calls, err := arch.Calls(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user.status/handle=tourist"}, calls)

	replay := NewClient(Options{BaseURL: "http://127.0.0.1:1", Archive: arch, ReplayRunID: "run-1"})
	replayed, err := replay.UserStatus(ctx, "tourist")
	require.NoError(t, err)
	assert.Equal(t, live, replayed)

	_, err = replay.UserStatus(ctx, "petr")
	require.Error(t, err)
	assert.True(t, srvcerror.HasCode(err, ErrCodeArchiveMiss))
}

func TestReplayKeepsArchivedStatus(t *testing.T) {
	ctx := context.Background()
	arch, err := archive.New(archive.NewDirStore(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, arch.Save(ctx, "run-2", "contest.status", url.Values{"contestId": {"9"}}, archive.Response{
		Status: http.StatusBadRequest,
		Body:   []byte(`{"status":"FAILED","comment":"contestId: Contest with id 9 has not started"}`),
	}))

	replay := NewClient(Options{Archive: arch, ReplayRunID: "run-2"})
	_, err = replay.ContestStatus(ctx, "9")
	require.Error(t, err)
	assert.True(t, srvcerror.HasCode(err, ErrCodeContestNotStarted))
}

func TestArchiveUsesRunIDFromContext(t *testing.T) {
	arch, err := archive.New(archive.NewDirStore(t.TempDir()))
	require.NoError(t, err)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","result":[]}`))
	}, Options{Archive: arch, RunID: "fallback"})

	ctx := archive.WithRunID(context.Background(), "run-ctx")
	_, err = client.ContestList(ctx, "")
	require.NoError(t, err)

	calls, err := arch.Calls(context.Background(), "run-ctx")
	require.NoError(t, err)
	assert.Equal(t, []string{"contest.list/_"}, calls)
	calls, err = arch.Calls(context.Background(), "fallback")
	require.NoError(t, err)
	assert.Empty(t, calls)
}
