// Package archive keeps the raw Codeforces responses of each run so that a
// run can be replayed later without touching the network.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrNotFound is returned by Store.Get for a missing key.
var ErrNotFound = errors.New("archive: object not found")

type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

type Archive struct {
	store Store
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

func New(store Store) (*Archive, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Archive{store: store, enc: enc, dec: dec}, nil
}

// Key names the archived response of one API call. Credentials must already be stripped from params.
func Key(runID, method string, params url.Values) string {
	query := params.Encode()
	if query == "" {
		query = "_"
	}
	return fmt.Sprintf("%s/%s/%s.json.zst", runID, method, query)
}

// Response is one archived API answer: the HTTP status line code and the raw body.
type Response struct {
	Status int
	Body   []byte
}

func (a *Archive) Save(ctx context.Context, runID, method string, params url.Values, resp Response) error {
	key := Key(runID, method, params)
	raw := append([]byte(strconv.Itoa(resp.Status)+"\n"), resp.Body...)
	if err := a.store.Put(ctx, key, a.enc.EncodeAll(raw, nil)); err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}
	return nil
}

func (a *Archive) Load(ctx context.Context, runID, method string, params url.Values) (Response, error) {
	key := Key(runID, method, params)
	compressed, err := a.store.Get(ctx, key)
	if err != nil {
		return Response{}, err
	}
	raw, err := a.dec.DecodeAll(compressed, nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to decompress %s: %w", key, err)
	}
	statusLine, body, ok := bytes.Cut(raw, []byte("\n"))
	if !ok {
		return Response{}, fmt.Errorf("malformed archive entry %s", key)
	}
	status, err := strconv.Atoi(string(statusLine))
	if err != nil {
		return Response{}, fmt.Errorf("malformed archive entry %s: %w", key, err)
	}
	return Response{Status: status, Body: body}, nil
}

type runIDKey struct{}

// WithRunID makes clients archive the calls made with ctx under runID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Calls lists the archived calls of a run as "method/query" strings.
func (a *Archive) Calls(ctx context.Context, runID string) ([]string, error) {
	prefix := runID + "/"
	keys, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	calls := make([]string, 0, len(keys))
	for _, key := range keys {
		calls = append(calls, strings.TrimSuffix(strings.TrimPrefix(key, prefix), ".json.zst"))
	}
	return calls, nil
}
