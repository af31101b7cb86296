package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
)

// StoreName identifies the remote store in logs and error reports.
const StoreName = "remote"

const (
	defaultCollection     = "words"
	defaultPartitionParam = "languageCode"
	maxErrorBody          = 512
)

// Options configures a remote store.
type Options struct {
	BaseURL string
	Token   string
	UserID  string
	Timeout time.Duration
	// Collection is the path segment documents live under.
	Collection string
	// PartitionParam is the query parameter carrying the partition key on list and bulk delete.
	PartitionParam string
	HTTPClient     *http.Client
}

// Store talks to the remote word list API.
type Store[T entity.Record] struct {
	opts   Options
	base   *url.URL
	client *http.Client
	codec  repository.DocumentCodec[T]
	errs   *repository.ErrorLog
}

var _ repository.RecordStore[*entity.WordItem] = (*Store[*entity.WordItem])(nil)

// NewStore creates a remote store. Missing credentials or a malformed base URL yield an unavailable store.
func NewStore[T entity.Record](opts Options, codec repository.DocumentCodec[T], logger logrus.FieldLogger) *Store[T] {
	if opts.Collection == "" {
		opts.Collection = defaultCollection
	}
	if opts.PartitionParam == "" {
		opts.PartitionParam = defaultPartitionParam
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	s := &Store[T]{
		opts:   opts,
		client: client,
		codec:  codec,
		errs:   repository.NewErrorLog(StoreName, logger),
	}
	if base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/")); err == nil && base.Scheme != "" && base.Host != "" {
		s.base = base
	}
	return s
}

func (s *Store[T]) Name() string { return StoreName }

// Available reports whether the store has an endpoint and credentials.
func (s *Store[T]) Available() bool {
	return s.base != nil && s.opts.Token != "" && s.opts.UserID != ""
}

// Persists reports whether the remote document keeps segment.
func (s *Store[T]) Persists(segment entity.Segment) bool { return s.codec.Persists(segment) }

func (s *Store[T]) Errors() []repository.StoreError { return s.errs.Entries() }

// ErrorLog exposes the accumulator so callers can reset it.
func (s *Store[T]) ErrorLog() *repository.ErrorLog { return s.errs }

// Create posts the whole record as one document.
func (s *Store[T]) Create(ctx context.Context, record T) error {
	return s.errs.Record("create", record.Identity().String(), s.write(ctx, http.MethodPost, record))
}

// Update replaces the remote document. The remote keeps one document per record, so segments are ignored.
func (s *Store[T]) Update(ctx context.Context, record T, _ ...entity.Segment) error {
	return s.errs.Record("update", record.Identity().String(), s.write(ctx, http.MethodPut, record))
}

func (s *Store[T]) write(ctx context.Context, method string, record T) error {
	if err := record.Validate(); err != nil {
		return err
	}
	body, err := s.codec.Encode(s.opts.UserID, record)
	if err != nil {
		return err
	}
	status, resp, err := s.do(ctx, method, documentEndpoint(record.Identity()), body)
	if err != nil {
		return err
	}
	switch {
	case method == http.MethodPost && (status == http.StatusCreated || status == http.StatusOK):
		return nil
	case method == http.MethodPut && status == http.StatusOK:
		return nil
	case method == http.MethodPut && status == http.StatusNotFound:
		return nil
	default:
		return unexpectedStatus(method, status, resp)
	}
}

// DeleteOne removes one document. A missing document counts as deleted.
func (s *Store[T]) DeleteOne(ctx context.Context, id entity.Identity) error {
	if err := id.Validate(); err != nil {
		return s.errs.Record("deleteOne", id.String(), err)
	}
	status, resp, err := s.do(ctx, http.MethodDelete, documentEndpoint(id), nil)
	if err == nil && !isSuccess(status) && status != http.StatusNotFound {
		err = unexpectedStatus(http.MethodDelete, status, resp)
	}
	return s.errs.Record("deleteOne", id.String(), err)
}

// DeleteMany removes every document of a partition. The count is taken from a {"deleted": n} reply when present.
func (s *Store[T]) DeleteMany(ctx context.Context, partitionKey string) (int, error) {
	partitionKey = entity.NormalizeLanguageCode(partitionKey)
	if err := entity.ValidatePartitionKey(partitionKey); err != nil {
		return 0, s.errs.Record("deleteMany", partitionKey, err)
	}
	status, resp, err := s.do(ctx, http.MethodDelete, listEndpoint(partitionKey), nil)
	if err == nil && !isSuccess(status) && status != http.StatusNotFound {
		err = unexpectedStatus(http.MethodDelete, status, resp)
	}
	if err != nil {
		return 0, s.errs.Record("deleteMany", partitionKey, err)
	}
	return int(gjson.GetBytes(resp, "deleted").Int()), nil
}

// Query fetches one document or a partition listing.
func (s *Store[T]) Query(ctx context.Context, filter repository.Filter) ([]T, error) {
	target := filter.PartitionKey
	if filter.Identity != nil {
		target = filter.Identity.String()
	}
	if err := filter.Validate(); err != nil {
		return nil, s.errs.Record("query", target, err)
	}
	records, err := s.query(ctx, filter)
	if err != nil {
		return nil, s.errs.Record("query", target, err)
	}
	return records, nil
}

func (s *Store[T]) query(ctx context.Context, filter repository.Filter) ([]T, error) {
	if filter.IsSingle() {
		status, resp, err := s.do(ctx, http.MethodGet, documentEndpoint(*filter.Identity), nil)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, nil
		}
		if status != http.StatusOK {
			return nil, unexpectedStatus(http.MethodGet, status, resp)
		}
		record, err := s.codec.Decode(resp)
		if err != nil {
			return nil, err
		}
		return []T{record}, nil
	}

	status, resp, err := s.do(ctx, http.MethodGet, listEndpoint(filter.PartitionKey), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, unexpectedStatus(http.MethodGet, status, resp)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("%w: decode list: %v", entity.ErrSerialization, err)
	}
	records := make([]T, 0, len(items))
	for _, item := range items {
		record, err := s.codec.Decode(item)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// endpoint addresses one document, or a partition listing when id is unset.
type endpoint struct {
	id        *entity.Identity
	partition string
}

func documentEndpoint(id entity.Identity) endpoint { return endpoint{id: &id} }

func listEndpoint(partitionKey string) endpoint { return endpoint{partition: partitionKey} }

// endpointURL requires a base URL, so it is only called once Available has been checked.
func (s *Store[T]) endpointURL(e endpoint) string {
	u := s.base.JoinPath(s.opts.Collection)
	if e.id != nil {
		return u.JoinPath(s.codec.DocumentID(*e.id)).String()
	}
	u.RawQuery = url.Values{s.opts.PartitionParam: []string{e.partition}}.Encode()
	return u.String()
}

func (s *Store[T]) do(ctx context.Context, method string, e endpoint, body []byte) (int, []byte, error) {
	if !s.Available() {
		return 0, nil, entity.ErrBackendUnavailable
	}
	target := s.endpointURL(e)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.opts.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %v", entity.ErrBackendUnreachable, method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read %s response: %v", entity.ErrBackendUnreachable, method, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return resp.StatusCode, data, unexpectedStatus(method, resp.StatusCode, data)
	}
	return resp.StatusCode, data, nil
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

func unexpectedStatus(method string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return fmt.Errorf("%w: %s returned %d %s", entity.ErrBackendUnreachable, method, status, msg)
}
