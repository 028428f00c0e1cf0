package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type (
	// TokenSource supplies the current bearer credential; "" when logged out.
	TokenSource func() string

	// Client talks to the backend attendance API. The backend owns all
	// persistent state and business rules; this client only shuttles
	// requests and surfaces server messages.
	Client struct {
		baseURL        string
		hc             *http.Client
		tokenSource    TokenSource
		onUnauthorized func()
	}

	Account struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Role      string `json:"role"`
	}
)

var _ attendance.Backend = (*Client)(nil)

// NewClient builds a Client. onUnauthorized runs whenever the backend
// answers 401, clearing the locally cached credential.
func NewClient(conf *core.Config, tokenSource TokenSource, onUnauthorized func()) *Client {
	return &Client{
		baseURL:        conf.API.BaseURL,
		hc:             &http.Client{Timeout: conf.API.Timeout},
		tokenSource:    tokenSource,
		onUnauthorized: onUnauthorized,
	}
}

// Auth

func (c *Client) Login(ctx context.Context, email, password string) (string, Account, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: core.CleanString(email, true /* lower */), Password: password}

	var resp struct {
		Token string  `json:"token"`
		User  Account `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return "", Account{}, err
	}
	return resp.Token, resp.User, nil
}

func (c *Client) Me(ctx context.Context) (Account, error) {
	var acct Account
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &acct)
	return acct, err
}

// Attendance (attendance.Backend)

func (c *Client) AttendeeEvents(ctx context.Context) ([]attendance.Event, error) {
	var events []attendance.Event
	err := c.do(ctx, http.MethodGet, "/attendee/events", nil, &events)
	return events, err
}

func (c *Client) EventDetail(ctx context.Context, eventID string) (attendance.EventDetail, error) {
	var detail attendance.EventDetail
	err := c.do(ctx, http.MethodGet, "/events/"+eventID, nil, &detail)
	return detail, err
}

func (c *Client) StartAttendance(ctx context.Context, eventID string) (attendance.Code, error) {
	var code attendance.Code
	err := c.do(ctx, http.MethodPost, "/events/"+eventID+"/attendance/start", nil, &code)
	return code, err
}

func (c *Client) MarkAttendance(ctx context.Context, eventID string, req attendance.MarkRequest) error {
	return c.do(ctx, http.MethodPost, "/events/"+eventID+"/attendance/mark", req, nil)
}

func (c *Client) ManualOverride(ctx context.Context, eventID, userID string) error {
	req := struct {
		UserID string `json:"userId"`
	}{UserID: userID}
	return c.do(ctx, http.MethodPost, "/events/"+eventID+"/attendance/manual-override", req, nil)
}

// plumbing

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s body", method, path)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrapf(err, "building %s %s", method, path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if token := c.tokenSource(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}

	if out != nil {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

// apiError extracts the server-provided message, if any, so callers can
// surface it verbatim.
func (c *Client) apiError(resp *http.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(data, &payload)

	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	if resp.StatusCode >= 500 {
		// never parrot internal server errors at users
		msg = ""
	}
	return core.NewAPIError(resp.StatusCode, msg)
}
