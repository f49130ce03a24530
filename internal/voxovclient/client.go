package voxovclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Client speaks the header-driven wire protocol over HTTP.
type Client struct {
	cfg  *Config
	http *http.Client
}

// New builds a Client around cfg. Requests use a generous timeout since
// MemePut/MemeGet stream arbitrarily large bodies.
func New(cfg *Config) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: 30 * 24 * time.Hour}}
}

// Ping checks connectivity against the bare GET / liveness probe.
func (c *Client) Ping() (string, error) {
	resp, err := c.http.Get(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("pinging %s: %w", c.cfg.URL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading ping response: %w", err)
	}
	return string(body), nil
}

func (c *Client) request(headers map[string]string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, c.cfg.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	if resp.Header.Get("type") == "Error" {
		defer resp.Body.Close()
		kind := resp.Header.Get("error")
		return nil, fmt.Errorf("server error: %s", kind)
	}
	return resp, nil
}

// budgetHeaders returns the plan/access/fed headers common to every
// billable request.
func (c *Client) budgetHeaders(fed string) map[string]string {
	h := map[string]string{
		"time":    strconv.FormatInt(c.cfg.Plan.Time, 10),
		"space":   strconv.FormatInt(c.cfg.Plan.Space, 10),
		"traffic": strconv.FormatInt(c.cfg.Plan.Traffic, 10),
		"tip":     strconv.FormatInt(c.cfg.Plan.Tip, 10),
	}
	if c.cfg.Session != nil {
		h["access"] = c.cfg.Session.Access
	}
	if fed != "" {
		h["fed"] = fed
	}
	return h
}

// PrintCost reports the plan's remaining budget after a billable
// request, computed from the echoed remainder headers.
func PrintCost(resp *http.Response, plan Plan) string {
	get := func(key string) int64 {
		n, _ := strconv.ParseInt(resp.Header.Get(key), 10, 64)
		return n
	}
	return fmt.Sprintf("time %d space %d traffic %d tip %d",
		plan.Time-get("time"), plan.Space-get("space"), plan.Traffic-get("traffic"), plan.Tip-get("tip"))
}

// SessionStart mints a fresh access/refresh token pair.
func (c *Client) SessionStart() (access, refresh string, err error) {
	resp, err := c.request(map[string]string{"type": "SessionStart"}, nil)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("access"), resp.Header.Get("refresh"), nil
}

// SessionRefresh mints a new access token from a refresh token.
func (c *Client) SessionRefresh(refresh string) (access string, err error) {
	resp, err := c.request(map[string]string{"type": "SessionRefresh", "refresh": refresh}, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("access"), nil
}

// SessionEnd invalidates the access token, and the refresh token too if
// dropRefresh is set.
func (c *Client) SessionEnd(access, refresh string, dropRefresh bool) error {
	h := map[string]string{"type": "SessionEnd", "access": access}
	if dropRefresh {
		h["refresh"] = refresh
	}
	resp, err := c.request(h, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// SmsSendTo asks the server where to send the confirmation SMS.
func (c *Client) SmsSendTo(access, refresh string) (phone, message string, err error) {
	resp, err := c.request(map[string]string{"type": "SmsSendTo", "access": access, "refresh": refresh}, nil)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("phone"), resp.Header.Get("message"), nil
}

// SmsSent notifies the server the confirmation SMS was sent, completing
// authentication.
func (c *Client) SmsSent(access, refresh, phone, message string) (uid string, err error) {
	resp, err := c.request(map[string]string{
		"type": "SmsSent", "access": access, "refresh": refresh, "phone": phone, "message": message,
	}, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("uid"), nil
}

// CostPay returns the vendor's payment link.
func (c *Client) CostPay(access string) (uri string, err error) {
	resp, err := c.request(map[string]string{
		"type": "CostPay", "access": access, "vendor": zeroVendor,
	}, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("uri"), nil
}

// zeroVendor is the single built-in payment vendor id this server
// recognizes; distinct vendor ids are a Non-goal of this specification.
const zeroVendor = "00000000000000000000000000000000"

// CostGet returns the caller's credit balance.
func (c *Client) CostGet(access string) (credit string, err error) {
	resp, err := c.request(map[string]string{"type": "CostGet", "access": access}, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("credit"), nil
}

// CostCheckIn claims the daily check-in award.
func (c *Client) CostCheckIn(access string) (award string, err error) {
	resp, err := c.request(map[string]string{"type": "CostCheckIn", "access": access}, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("award"), nil
}

// GeneCall invokes gene gid with arg, returning the response body and the
// http.Response so the caller can render the cost remainder.
func (c *Client) GeneCall(fed, access, gid, arg string) (*http.Response, string, error) {
	h := c.budgetHeaders(fed)
	h["type"] = "Gene"
	h["access"] = access
	h["gid"] = gid
	h["arg"] = arg
	resp, err := c.request(h, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading gene response: %w", err)
	}
	return resp, string(body), nil
}

// MemeMeta fetches a meme's metadata by hash.
func (c *Client) MemeMeta(access, hash string) (*http.Response, string, error) {
	h := c.budgetHeaders("")
	h["type"] = "MemeMeta"
	h["access"] = access
	h["hash"] = hash
	resp, err := c.request(h, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading meme meta response: %w", err)
	}
	return resp, string(body), nil
}

// MemePut uploads data as a new meme, retained for days days.
func (c *Client) MemePut(access string, days int64, data []byte) (*http.Response, string, error) {
	h := c.budgetHeaders("")
	h["type"] = "MemePut"
	h["access"] = access
	h["days"] = strconv.FormatInt(days, 10)
	resp, err := c.request(h, bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	return resp, resp.Header.Get("hash"), nil
}

// MemeGet streams the meme identified by hash to w.
func (c *Client) MemeGet(access, hash string, public bool, w io.Writer) (*http.Response, error) {
	h := c.budgetHeaders("")
	h["type"] = "MemeGet"
	h["access"] = access
	h["hash"] = hash
	h["public"] = strconv.FormatBool(public)
	resp, err := c.request(h, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return nil, fmt.Errorf("streaming meme: %w", err)
	}
	return resp, nil
}
