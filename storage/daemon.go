package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// DefaultAPIPrefix is the BTFS HTTP API prefix. IPFS daemons use "/api/v0".
const DefaultAPIPrefix = "/api/v1"

// streamErrorTrailer is set by the daemon when a streamed response fails
// after the status line has been sent.
const streamErrorTrailer = "X-Stream-Error"

// DaemonConfig configures a DaemonClient.
type DaemonConfig struct {
	URL       string       // daemon base URL, e.g. "http://127.0.0.1:5001"
	APIPrefix string       // defaults to DefaultAPIPrefix
	NoPin     bool         // skip pinning on add
	Client    *http.Client // nil uses http.DefaultClient; callers bound time via context
}

// DaemonClient implements ContentStore against a BTFS/IPFS daemon HTTP API.
type DaemonClient struct {
	base   string
	pin    bool
	client *http.Client
}

// Compile-time interface check.
var _ ContentStore = (*DaemonClient)(nil)

// daemonError is the JSON body of a non-2xx daemon response.
type daemonError struct {
	Message string `json:"Message"`
	Code    int    `json:"Code"`
	Type    string `json:"Type"`
}

// addResponse is one line of the newline-delimited add output.
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// NewDaemonClient creates a daemon client from cfg.
func NewDaemonClient(cfg DaemonConfig) (*DaemonClient, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, cfg.URL)
	}
	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")

	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &DaemonClient{
		base:   strings.TrimRight(u.String(), "/") + prefix,
		pin:    !cfg.NoPin,
		client: client,
	}, nil
}

// Endpoint returns the API base the client talks to.
func (d *DaemonClient) Endpoint() string {
	return d.base
}

// Put uploads data via POST {api}/add and returns the CID from the last
// "Hash" line of the response.
func (d *DaemonClient) Put(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyContent
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "blob")
	if err != nil {
		return "", fmt.Errorf("%w: build multipart: %w", ErrStorageRejected, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%w: build multipart: %w", ErrStorageRejected, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: build multipart: %w", ErrStorageRejected, err)
	}

	q := url.Values{}
	q.Set("quiet", "true")
	q.Set("pin", fmt.Sprintf("%t", d.pin))
	resp, err := d.post(ctx, "/add", q, &body, mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var last string
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var ar addResponse
		if err := json.Unmarshal(line, &ar); err != nil {
			return "", fmt.Errorf("%w: add: %w", ErrInvalidResponse, err)
		}
		if ar.Hash != "" {
			last = ar.Hash
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("%w: add: read body: %w", ErrStorageUnavailable, err)
	}
	if msg := resp.Trailer.Get(streamErrorTrailer); msg != "" {
		return "", fmt.Errorf("%w: add: %s", ErrStorageUnavailable, msg)
	}
	if last == "" {
		return "", fmt.Errorf("%w: add: no hash in response", ErrInvalidResponse)
	}
	if _, err := ValidateCID(last); err != nil {
		return "", fmt.Errorf("%w: add: %w", ErrInvalidResponse, err)
	}
	return last, nil
}

// Get fetches the bytes under cid via POST {api}/cat?arg={cid}.
func (d *DaemonClient) Get(ctx context.Context, cidStr string) ([]byte, error) {
	c, err := ValidateCID(cidStr)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("arg", cidStr)
	resp, err := d.post(ctx, "/cat", q, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: cat %s: read body: %w", ErrStorageUnavailable, cidStr, err)
	}
	if len(data) > MaxContentResponseSize {
		return nil, fmt.Errorf("%w: cat %s", ErrContentTooLarge, cidStr)
	}
	if msg := resp.Trailer.Get(streamErrorTrailer); msg != "" {
		return nil, fmt.Errorf("%w: cat %s: %s", ErrStorageUnavailable, cidStr, msg)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: cat %s: empty body", ErrInvalidResponse, cidStr)
	}
	if err := verifyContent(c, data); err != nil {
		return nil, err
	}
	return data, nil
}

// post issues a daemon API call and returns the response on 2xx.
// Non-2xx responses are classified and closed.
func (d *DaemonClient) post(ctx context.Context, path string, q url.Values, body io.Reader, contentType string) (*http.Response, error) {
	endpoint := d.base + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	return nil, classifyResponse(path, resp)
}

// classifyResponse turns a non-2xx daemon response into a storage error.
func classifyResponse(path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var de daemonError
	if err := json.Unmarshal(raw, &de); err == nil && de.Message != "" {
		return fmt.Errorf("%s: %w", path, classifyMessage(de.Message))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusMethodNotAllowed,
		resp.StatusCode >= 500:
		// No structured body: a proxy or a daemon without this API.
		return fmt.Errorf("%w: %s: HTTP %d", ErrStorageUnavailable, path, resp.StatusCode)
	default:
		return fmt.Errorf("%w: %s: HTTP %d: %s", ErrStorageRejected, path, resp.StatusCode,
			strings.TrimSpace(string(raw)))
	}
}
