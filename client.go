package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptySearch    = errors.New("search text is empty")
	ErrEmptyUpload    = errors.New("nothing to upload")
	ErrUploadTooLarge = fmt.Errorf("upload larger than %d bytes", maxUploadBytes)
)

// ServerError is a non-2xx answer from the tree server.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// Client talks to the tree drawing server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type TreeSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type NodeCount struct {
	Nodes  int `json:"tnodes"`
	Leaves int `json:"tleaves"`
}

type SearchResult struct {
	Message  string `json:"message"`
	NResults int    `json:"nresults"`
	NParents int    `json:"nparents"`
}

func treePath(treeID string, parts ...string) string {
	p := "/trees/" + url.PathEscape(treeID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// do sends a request and returns the response body. in, when not nil, is
// sent as JSON.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{Status: resp.StatusCode, Message: serverMessage(data)}
	}
	return data, nil
}

// serverMessage pulls a readable message out of an error body, which may be
// a JSON string, a {"message": ...} object or plain text.
func serverMessage(data []byte) string {
	var s string
	if json.Unmarshal(data, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return strings.TrimSpace(string(data))
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Draw fetches the drawing items for a viewport. Malformed items are logged
// and dropped.
func (c *Client) Draw(ctx context.Context, treeID string, query url.Values) ([]DrawItem, error) {
	data, err := c.do(ctx, http.MethodGet, treePath(treeID, "draw"), query, nil)
	if err != nil {
		return nil, err
	}
	items, skipped, err := decodeDrawItems(data)
	if err != nil {
		return nil, err
	}
	for _, e := range skipped {
		log.Printf("smartview: skipped draw item: %v", e)
	}
	return items, nil
}

func (c *Client) Size(ctx context.Context, treeID string) (TreeSize, error) {
	var size TreeSize
	err := c.getJSON(ctx, treePath(treeID, "size"), nil, &size)
	return size, err
}

func (c *Client) NodeCount(ctx context.Context, treeID string) (NodeCount, error) {
	var count NodeCount
	err := c.getJSON(ctx, treePath(treeID, "nodecount"), nil, &count)
	return count, err
}

func (c *Client) Newick(ctx context.Context, treeID string) (string, error) {
	data, err := c.do(ctx, http.MethodGet, treePath(treeID, "newick"), nil, nil)
	if err != nil {
		return "", err
	}
	var s string
	if json.Unmarshal(data, &s) == nil {
		return s, nil
	}
	return strings.TrimSpace(string(data)), nil
}

// Search asks the server to evaluate text against the tree. Empty text is
// rejected without a request.
func (c *Client) Search(ctx context.Context, treeID, text string) (SearchResult, error) {
	var res SearchResult
	if strings.TrimSpace(text) == "" {
		return res, ErrEmptySearch
	}
	err := c.getJSON(ctx, treePath(treeID, "search"), url.Values{"text": {text}}, &res)
	return res, err
}

func (c *Client) RemoveSearch(ctx context.Context, treeID, text string) error {
	q := url.Values{}
	if text != "" {
		q.Set("text", text)
	}
	_, err := c.do(ctx, http.MethodGet, treePath(treeID, "remove_search"), q, nil)
	return err
}

func (c *Client) Selections(ctx context.Context, treeID string) ([]string, error) {
	var names []string
	err := c.getJSON(ctx, treePath(treeID, "selections"), nil, &names)
	return names, err
}

// Command runs a tree-changing command such as sort or root_at. params is
// sent as a JSON list.
func (c *Client) Command(ctx context.Context, treeID, command string, params ...any) (string, error) {
	if params == nil {
		params = []any{}
	}
	data, err := c.do(ctx, http.MethodPut, treePath(treeID, command), nil, params)
	if err != nil {
		return "", err
	}
	return serverMessage(data), nil
}

type uploadRequest struct {
	Name   string `json:"name"`
	Newick string `json:"newick"`
}

type uploadResponse struct {
	ID json.RawMessage `json:"id"`
}

// Upload sends a newick tree and returns the id the server gave it.
func (c *Client) Upload(ctx context.Context, name, newick string) (string, error) {
	switch {
	case strings.TrimSpace(newick) == "":
		return "", ErrEmptyUpload
	case len(newick) > maxUploadBytes:
		return "", ErrUploadTooLarge
	}
	data, err := c.do(ctx, http.MethodPost, "/trees", nil, uploadRequest{Name: name, Newick: newick})
	if err != nil {
		return "", err
	}
	var resp uploadResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	id := strings.Trim(string(resp.ID), `"`)
	if id == "" || id == "null" {
		return "", errors.New("upload response has no tree id")
	}
	return id, nil
}
