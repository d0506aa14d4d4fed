// Package backend implements selection.Store over the HTTP API of a remote Cantine server.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/cantine/core/meal"
	"github.com/trezcool/cantine/core/selection"
	"github.com/trezcool/cantine/core/student"
)

// ErrNotFound is matched by an *APIError with a 404 status.
var ErrNotFound = errors.New("resource not found")

// APIError is a non-2xx reply of the remote server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// envelope wraps every response body.
type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type Client struct {
	baseURL string
	token   string
	rc      *rest.Client
}

var _ selection.Store = (*Client)(nil)

// NewClient talks to the API rooted at baseURL (eg. https://cantine.school/api) with an admin token.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		rc:      &rest.Client{HTTPClient: httpClient},
	}
}

func (c *Client) do(ctx context.Context, method rest.Method, path string, body, dest interface{}) error {
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if c.token != "" {
		req.Headers["Authorization"] = "Bearer " + c.token
	}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		req.Body = b
		req.Headers["Content-Type"] = "application/json"
	}

	res, err := c.rc.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}

	var env envelope
	if res.Body != "" {
		if err := json.Unmarshal([]byte(res.Body), &env); err != nil && res.StatusCode < http.StatusBadRequest {
			return errors.Wrapf(err, "decoding %s %s", method, path)
		}
	}
	if res.StatusCode >= http.StatusBadRequest {
		return &APIError{Status: res.StatusCode, Message: env.Message}
	}
	if env.Code >= http.StatusBadRequest {
		return &APIError{Status: env.Code, Message: env.Message}
	}
	if dest == nil || len(env.Data) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(env.Data, dest), "decoding %s %s", method, path)
}

func (c *Client) SetSelection(ctx context.Context, studentIDs []string, mealID string, t meal.Type) error {
	body := map[string]interface{}{
		"student_ids": studentIDs,
		"meal_id":     mealID,
		"meal_type":   t,
	}
	return c.do(ctx, rest.Post, "/admin/selections/batch", body, nil)
}

func (c *Client) GetSelections(ctx context.Context, mealID string) (selection.Selections, error) {
	sel := selection.Selections{A: []string{}, B: []string{}}
	if err := c.do(ctx, rest.Get, "/admin/meals/"+url.PathEscape(mealID)+"/selections", nil, &sel); err != nil {
		return selection.Selections{}, err
	}
	return sel, nil
}

func (c *Client) CreateStudent(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	var s student.Student
	if err := c.do(ctx, rest.Post, "/admin/students", ns, &s); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (c *Client) ImportMealSelection(ctx context.Context, si selection.SelectionImport) error {
	return c.do(ctx, rest.Post, "/admin/selections/import-one", si, nil)
}

func (c *Client) GetAllStudents(ctx context.Context) ([]student.Student, error) {
	students := make([]student.Student, 0)
	if err := c.do(ctx, rest.Get, "/admin/students", nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}
