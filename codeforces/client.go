// Package codeforces is a client for the Codeforces API.
//
// Calls are spaced by a cooldown, retried on gateway errors and optionally
// signed with an API key. Every answer can be archived, and a client built
// with a replay run id answers from the archive instead of the network.
package codeforces

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/klauspost/compress/gzip"
	"github.com/programme-lv/autoprogcomp/archive"
	"github.com/programme-lv/autoprogcomp/logger"
	"github.com/programme-lv/autoprogcomp/srvcerror"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://codeforces.com/api"

type Options struct {
	BaseURL    string
	APIKey     string
	Secret     string
	Cooldown   time.Duration
	MaxRetries int
	RetryDelay time.Duration
	HTTPClient *http.Client

	// Archive, when set, receives every answer under the run id of the
	// call context, or RunID when the context carries none.
	Archive *archive.Archive
	RunID   string
	// ReplayRunID makes the client answer from Archive instead of the network.
	ReplayRunID string
}

type Client struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
	nonce      func() string
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	limit := rate.Inf
	if opts.Cooldown > 0 {
		limit = rate.Every(opts.Cooldown)
	}
	return &Client{
		opts:       opts,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
		nonce:      randomNonce,
	}
}

const nonceAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomNonce() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = nonceAlphabet[rand.IntN(len(nonceAlphabet))]
	}
	return string(b)
}

// UserStatus returns the submissions of a user, newest first.
func (c *Client) UserStatus(ctx context.Context, handle string) ([]Submission, error) {
	res, err := call[[]Submission](ctx, c, "user.status", url.Values{"handle": {handle}})
	if srvcerror.HasCode(err, ErrCodeUpstreamHttp) && httpStatusOf(err) == http.StatusNotFound {
		return nil, ErrUserNotFound(handle).SetDebug(err)
	}
	return res, err
}

// ContestStatus returns the submissions of a contest, newest first.
func (c *Client) ContestStatus(ctx context.Context, contestID string) ([]Submission, error) {
	res, err := call[[]Submission](ctx, c, "contest.status", url.Values{"contestId": {contestID}})
	if srvcerror.HasCode(err, ErrCodeUpstreamHttp) && httpStatusOf(err) == http.StatusNotFound {
		return nil, ErrContestNotFound(contestID).SetDebug(err)
	}
	return res, err
}

func (c *Client) UserRating(ctx context.Context, handle string) ([]RatingChange, error) {
	res, err := call[[]RatingChange](ctx, c, "user.rating", url.Values{"handle": {handle}})
	if srvcerror.HasCode(err, ErrCodeUpstreamHttp) && httpStatusOf(err) == http.StatusNotFound {
		return nil, ErrUserNotFound(handle).SetDebug(err)
	}
	return res, err
}

// ContestList lists contests, restricted to a group when groupCode is not empty.
func (c *Client) ContestList(ctx context.Context, groupCode string) ([]Contest, error) {
	params := url.Values{}
	if groupCode != "" {
		params.Set("groupCode", groupCode)
	}
	return call[[]Contest](ctx, c, "contest.list", params)
}

func httpStatusOf(err error) int {
	var srvcErr *srvcerror.Error
	if errors.As(err, &srvcErr) {
		return srvcErr.HttpStatusCode()
	}
	return 0
}

func call[T any](ctx context.Context, c *Client, method string, params url.Values) (T, error) {
	var zero T
	resp, err := c.fetch(ctx, method, params)
	if err != nil {
		return zero, err
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(resp.Body, &env)
	comment := "-"
	if decodeErr == nil && env.Status == "FAILED" {
		comment = env.Comment
	}

	if resp.Status < 200 || resp.Status >= 300 {
		logger.FromContext(ctx).Error().
			Str("method", method).
			Int("status", resp.Status).
			Str("body", string(resp.Body)).
			Msg("failed response content")
		if strings.Contains(comment, "has not started") {
			return zero, ErrContestNotStarted(comment)
		}
		return zero, ErrUpstreamHttp(resp.Status, comment)
	}
	if decodeErr != nil {
		return zero, ErrUpstreamValidation().SetDebug(decodeErr)
	}
	switch env.Status {
	case "OK":
		return env.Result, nil
	case "FAILED":
		if strings.Contains(comment, "has not started") {
			return zero, ErrContestNotStarted(comment)
		}
		return zero, ErrUpstreamApi(comment)
	default:
		return zero, ErrUpstreamValidation().SetDebug(fmt.Errorf("unexpected status %q", env.Status))
	}
}

// fetch returns the raw answer to one API call, from the archive in replay mode.
func (c *Client) fetch(ctx context.Context, method string, params url.Values) (archive.Response, error) {
	if c.opts.ReplayRunID != "" {
		if c.opts.Archive == nil {
			return archive.Response{}, ErrArchiveMiss(method)
		}
		resp, err := c.opts.Archive.Load(ctx, c.opts.ReplayRunID, method, params)
		if errors.Is(err, archive.ErrNotFound) {
			return archive.Response{}, ErrArchiveMiss(archive.Key(c.opts.ReplayRunID, method, params)).SetDebug(err)
		}
		return resp, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return archive.Response{}, err
	}
	log := logger.FromContext(ctx)
	log.Info().Str("method", method).Str("params", params.Encode()).Msg("calling api")

	reqURL := fmt.Sprintf("%s/%s?%s", c.opts.BaseURL, method, c.sign(method, params).Encode())

	var resp archive.Response
	operation := func() error {
		var err error
		resp, err = c.get(ctx, reqURL)
		if err != nil {
			return backoff.Permanent(err)
		}
		if resp.Status == http.StatusBadGateway || resp.Status == http.StatusGatewayTimeout {
			return fmt.Errorf("got error %d", resp.Status)
		}
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.opts.RetryDelay), uint64(c.opts.MaxRetries-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("retrying codeforces call")
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil && resp.Body == nil {
		return archive.Response{}, fmt.Errorf("failed to call %s: %w", method, err)
	}

	runID := archive.RunIDFromContext(ctx)
	if runID == "" {
		runID = c.opts.RunID
	}
	if c.opts.Archive != nil && runID != "" {
		if err := c.opts.Archive.Save(ctx, runID, method, params, resp); err != nil {
			log.Warn().Err(err).Msg("failed to archive response")
		}
	}
	return resp, nil
}

// sign adds apiKey, time and apiSig to a copy of params. Without an API key the call stays anonymous.
func (c *Client) sign(method string, params url.Values) url.Values {
	signed := url.Values{}
	for k, v := range params {
		signed[k] = append([]string(nil), v...)
	}
	if c.opts.APIKey == "" {
		return signed
	}
	signed.Set("apiKey", c.opts.APIKey)
	signed.Set("time", strconv.FormatInt(c.now().Unix(), 10))
	nonce := c.nonce()
	plain := fmt.Sprintf("%s/%s?%s#%s", nonce, method, signed.Encode(), c.opts.Secret)
	sum := sha512.Sum512([]byte(plain))
	signed.Set("apiSig", nonce+hex.EncodeToString(sum[:]))
	return signed
}

func (c *Client) get(ctx context.Context, reqURL string) (archive.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return archive.Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return archive.Response{}, fmt.Errorf("failed to connect to codeforces: %w", err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return archive.Response{}, fmt.Errorf("failed to open gzip response: %w", err)
		}
		defer gz.Close()
		body = gz
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return archive.Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	return archive.Response{Status: resp.StatusCode, Body: content}, nil
}
