package workout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession is returned when the workout has no active session or no
// exercises.
var ErrNoSession = errors.New("workout: no active session")

// SetsAPI is the subset of the server used by the mutation controller.
// *Client implements it.
type SetsAPI interface {
	AddSet(ctx context.Context, exerciseID int64) error
	DeleteSet(ctx context.Context, setID int64) error
	ToggleSetComplete(ctx context.Context, setID int64) error
	ChangeSet(ctx context.Context, setID int64, facts Facts) error
}

// Ensure Client implements SetsAPI at compile time.
var _ SetsAPI = (*Client)(nil)

// Client talks to the training server HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
}

const (
	defaultAPIURL    = "127.0.0.1:8080"
	defaultUserAgent = "spotter/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for apiURL (host:port or full URL). token is
// sent as a bearer token when non-empty.
func NewClient(apiURL, token string) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		token:     strings.TrimSpace(token),
	}, nil
}

// FetchSession retrieves the current exercise session of a workout.
func (c *Client) FetchSession(ctx context.Context, workoutID int64) (*Session, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload Session
	err := c.do(ctx, http.MethodGet, sessionPath(workoutID), nil, &payload)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
		}
		return nil, err
	}
	return &payload, nil
}

// MoveSession moves the session pointer to the next or previous exercise.
func (c *Client) MoveSession(ctx context.Context, workoutID int64, next bool) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, sessionPath(workoutID), moveRequest{Next: next}, nil)
}

// AddSet appends a set to an exercise. The server derives its values.
func (c *Client) AddSet(ctx context.Context, exerciseID int64) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if exerciseID <= 0 {
		return fmt.Errorf("exercise id required")
	}
	return c.do(ctx, http.MethodPost, "/api/exercises/"+strconv.FormatInt(exerciseID, 10)+"/sets", nil, nil)
}

// DeleteSet removes a set.
func (c *Client) DeleteSet(ctx context.Context, setID int64) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodDelete, setPath(setID), nil, nil)
}

// ToggleSetComplete flips the completed flag of a set on the server.
func (c *Client) ToggleSetComplete(ctx context.Context, setID int64) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, setPath(setID)+"/complete", nil, nil)
}

// ChangeSet records performed values for a set.
func (c *Client) ChangeSet(ctx context.Context, setID int64, facts Facts) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPut, setPath(setID), facts, nil)
}

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &StatusError{Path: path, Code: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sessionPath(workoutID int64) string {
	return "/api/sessions/" + strconv.FormatInt(workoutID, 10)
}

func setPath(setID int64) string {
	return "/api/sets/" + strconv.FormatInt(setID, 10)
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
