package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/project-docs/internal/domain"
)

const (
	maxResponseBytes = 10 << 20
	maxErrorBody     = 2048
)

var probeMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// APIFetcher calls external JSON endpoints.
type APIFetcher struct {
	client         *http.Client
	defaultTimeout time.Duration
	probeTimeout   time.Duration
	now            func() time.Time
}

// NewAPIFetcher builds a fetcher. Timeouts come from each origin, falling back
// to defaultTimeout; probeTimeout bounds validation probes.
func NewAPIFetcher(client *http.Client, defaultTimeout, probeTimeout time.Duration) *APIFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &APIFetcher{client: client, defaultTimeout: defaultTimeout, probeTimeout: probeTimeout, now: time.Now}
}

// Fetch performs the configured request and decodes the JSON response.
func (f *APIFetcher) Fetch(ctx context.Context, o APIOrigin) (*Payload, error) {
	method := o.HTTPMethod()
	timeout := f.defaultTimeout
	if o.TimeoutSeconds > 0 {
		timeout = time.Duration(o.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if len(o.Body) > 0 && sendsBody(method) {
		body = bytes.NewReader(o.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, o.URL, body)
	if err != nil {
		return nil, newError(domain.OriginExternalAPI, KindInvalidConfig, err, "cannot build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range o.Headers {
		if strings.EqualFold(k, "Host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newError(domain.OriginExternalAPI, classify(ctx, err, KindConnection), err, "%s %s", method, o.URL)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, newError(domain.OriginExternalAPI, classify(ctx, err, KindConnection), err, "cannot read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := truncate(string(raw), maxErrorBody)
		fe := newError(domain.OriginExternalAPI, KindBadStatus, nil, "status %d: %s", resp.StatusCode, text)
		fe.StatusCode = resp.StatusCode
		fe.Body = text
		return nil, fe
	}

	data, err := decodeJSON(raw)
	if err != nil {
		fe := newError(domain.OriginExternalAPI, KindParseFailure, err, "response is not valid JSON")
		fe.StatusCode = resp.StatusCode
		return nil, fe
	}

	return &Payload{
		Source:     domain.OriginExternalAPI,
		URL:        o.URL,
		Method:     method,
		StatusCode: resp.StatusCode,
		FetchedAt:  f.now().UTC(),
		Body:       data,
	}, nil
}

// Check validates the URL and method, then probes the endpoint with HEAD.
// Any HTTP response counts as reachable.
func (f *APIFetcher) Check(ctx context.Context, o APIOrigin) error {
	if strings.TrimSpace(o.URL) == "" {
		return errors.New("url is empty")
	}
	u, err := url.Parse(o.URL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("url %q is not absolute", o.URL)
	}
	if _, ok := probeMethods[o.HTTPMethod()]; !ok {
		return fmt.Errorf("method %q is not supported", o.Method)
	}

	ctx, cancel := context.WithTimeout(ctx, f.probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, o.URL, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if classify(ctx, err, KindConnection) == KindTimeout {
			return fmt.Errorf("probe timed out after %s", f.probeTimeout)
		}
		return fmt.Errorf("probe failed: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

func sendsBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
