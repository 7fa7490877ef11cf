package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/loandesk/internal/usecase"
)

const defaultTimeout = 10 * time.Second

// RestStore talks to a Supabase project through its PostgREST endpoint.
// Calls are never retried here.
type RestStore struct {
	client    *http.Client
	transport http.RoundTripper
	baseURL   string
	key       string
	userAgent string
}

var _ usecase.RemoteStore = (*RestStore)(nil)

func NewRestStore(baseURL, serviceKey string) *RestStore {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	s := &RestStore{
		client:    &httpClient,
		transport: http.DefaultTransport,
		baseURL:   strings.TrimRight(baseURL, "/"),
		key:       serviceKey,
		userAgent: "loandesk-sync",
	}
	httpClient.Transport = s
	return s
}

func (s *RestStore) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	return s.transport.RoundTrip(req)
}

func (s *RestStore) Name() string {
	return "supabase"
}

type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (s *RestStore) endpoint(table string, query url.Values) string {
	u := s.baseURL + "/rest/v1/" + url.PathEscape(table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (s *RestStore) do(ctx context.Context, method, target string, body []byte, prefer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform request")
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var re restError
	if err := json.Unmarshal(raw, &re); err == nil && re.Message != "" {
		if re.Code != "" {
			return fmt.Errorf("remote returned %d (%s): %s", resp.StatusCode, re.Code, re.Message)
		}
		return fmt.Errorf("remote returned %d: %s", resp.StatusCode, re.Message)
	}
	if len(raw) > 0 {
		return fmt.Errorf("remote returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}

func (s *RestStore) Upsert(ctx context.Context, table string, row usecase.Row, conflictKey string) (usecase.Row, error) {
	body, err := json.Marshal(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode row")
	}

	target := s.endpoint(table, url.Values{"on_conflict": {conflictKey}})
	resp, err := s.do(ctx, http.MethodPost, target, body, "resolution=merge-duplicates,return=representation")
	if err != nil {
		return nil, errors.Wrapf(err, "upsert into %s", table)
	}
	defer resp.Body.Close()

	var rows []usecase.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	if len(rows) == 0 {
		return row, nil
	}
	return rows[0], nil
}

func (s *RestStore) Exists(ctx context.Context, table, field string, value any) (bool, error) {
	filter := "is.null"
	if value != nil {
		filter = "eq." + fmt.Sprint(value)
	}
	query := url.Values{
		"select": {field},
		field:    {filter},
		"limit":  {"1"},
	}

	resp, err := s.do(ctx, http.MethodGet, s.endpoint(table, query), nil, "")
	if err != nil {
		return false, errors.Wrapf(err, "probe %s.%s", table, field)
	}
	defer resp.Body.Close()

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return false, errors.Wrap(err, "failed to decode response")
	}
	return len(rows) > 0, nil
}

func (s *RestStore) Count(ctx context.Context, table string) (int64, error) {
	resp, err := s.do(ctx, http.MethodHead, s.endpoint(table, url.Values{"select": {"*"}}), nil, "count=exact")
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", table)
	}
	defer resp.Body.Close()

	return parseContentRange(resp.Header.Get("Content-Range"))
}

// parseContentRange reads the total from "0-24/3573" or "*/0".
func parseContentRange(v string) (int64, error) {
	i := strings.LastIndexByte(v, '/')
	if i < 0 {
		return 0, errors.Errorf("missing total in content range %q", v)
	}
	total := v[i+1:]
	if total == "*" {
		return 0, errors.Errorf("server did not report a count in %q", v)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid content range %q", v)
	}
	return n, nil
}
