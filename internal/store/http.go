package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rota/internal/task"
)

// HTTP talks to the remote REST store. Timeouts and retries are the
// transport's concern; failures surface to callers as plain errors.
type HTTP struct {
	base   string
	token  string
	client *http.Client
}

// NewHTTP builds a client for the store rooted at base (for example
// "https://example.com"). token, when non-empty, is sent as a bearer
// token on every request.
func NewHTTP(base, token string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTP{
		base:   base,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

type listResponse struct {
	Items      []task.Record `json:"items"`
	Pagination struct {
		Page     int  `json:"page"`
		PageSize int  `json:"pageSize"`
		Total    int  `json:"total"`
		HasMore  bool `json:"hasMore"`
	} `json:"pagination"`
}

func (h *HTTP) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	q := url.Values{}
	q.Set("variant", string(opts.Variant))
	if opts.Filter != "" && opts.Filter != FilterAll {
		q.Set("active", strconv.FormatBool(opts.Filter == FilterActive))
	}
	if opts.PageSize > 0 {
		page := opts.Page
		if page < 1 {
			page = 1
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}

	var resp listResponse
	if err := h.do(ctx, http.MethodGet, "/api/tasks?"+q.Encode(), nil, &resp); err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Records: resp.Items,
		Pagination: Pagination{
			Page:     resp.Pagination.Page,
			PageSize: resp.Pagination.PageSize,
			Total:    resp.Pagination.Total,
			HasMore:  resp.Pagination.HasMore,
		},
	}, nil
}

func (h *HTTP) Create(ctx context.Context, t task.Task) ([]task.Record, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	var resp listResponse
	if err := h.do(ctx, http.MethodPost, "/api/tasks", t.ToRecord(), &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// updateBody mirrors Fields on the wire: absent keys are untouched,
// explicit nulls clear.
type updateBody struct {
	Title        *string            `json:"title,omitempty"`
	Description  *string            `json:"description,omitempty"`
	Status       *task.Status       `json:"status,omitempty"`
	Active       *bool              `json:"isActive,omitempty"`
	TargetDate   *time.Time         `json:"targetDate,omitempty"`
	ClearTarget  bool               `json:"clearTargetDate,omitempty"`
	RemindAt     *time.Time         `json:"remindAt,omitempty"`
	ClearRemind  bool               `json:"clearRemindAt,omitempty"`
	Recurrence   *task.Recurrence   `json:"recurrence,omitempty"`
	NotifyUsers  *[]string          `json:"notifyUsers,omitempty"`
	Notification *task.Notification `json:"notification,omitempty"`
	ClearNotify  bool               `json:"clearNotification,omitempty"`
	Images       *[]string          `json:"images,omitempty"`
}

func (h *HTTP) Update(ctx context.Context, id string, f Fields) ([]task.Record, error) {
	body := updateBody{
		Title:       f.Title,
		Description: f.Description,
		Status:      f.Status,
		Active:      f.Active,
		TargetDate:  f.TargetDate,
		ClearTarget: f.ClearTarget,
		RemindAt:    f.RemindAt,
		ClearRemind: f.ClearRemind,
		Recurrence:  f.Recurrence,
		NotifyUsers: f.NotifyUsers,
		Images:      f.Images,
	}
	if f.Notification != nil {
		if *f.Notification == nil {
			body.ClearNotify = true
		} else {
			body.Notification = *f.Notification
		}
	}

	var resp listResponse
	if err := h.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), body, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (h *HTTP) Delete(ctx context.Context, id string) error {
	return h.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

func (h *HTTP) CheckIn(ctx context.Context, id string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := h.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/checkin", nil, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (h *HTTP) TestNotification(ctx context.Context, id string) error {
	return h.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/test-notification", nil, nil)
}

func (h *HTTP) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	res, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, path, res.Status, bytes.TrimSpace(msg))
	}
	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
