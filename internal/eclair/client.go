package eclair

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotSupported indicates that the node does not run the probed plugin,
	// signalled by an HTTP 404 rather than a transient failure
	ErrNotSupported = errors.New("plugin not supported by node")
)

// RequestError is a transport-level failure: the node was unreachable or
// answered with a non-success status. StatusCode is 0 when no response was
// received at all.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s failed: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// DecodeError is a schema failure: the node answered but the response did not
// match the expected shape
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client represents an Eclair admin API client. All endpoints are
// form-encoded POSTs authenticated with HTTP basic auth.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
}

// NewClient creates a new Eclair API client
func NewClient(baseURL, user, password string) *Client {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		user:     user,
		password: password,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// post performs a form-encoded POST to the given endpoint and returns the
// raw response body
func (c *Client) post(endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/"+endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &RequestError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Endpoint: endpoint, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("eclair API error %d: %s", resp.StatusCode, string(body)),
		}
	}

	return body, nil
}

// GetInfo retrieves the node's own identity and chain position
func (c *Client) GetInfo() (*NodeInfo, error) {
	body, err := c.post("getinfo", nil)
	if err != nil {
		return nil, err
	}

	var info NodeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &DecodeError{Endpoint: "getinfo", Err: err}
	}

	return &info, nil
}

// GetChannels retrieves all channels of the node
func (c *Client) GetChannels() ([]ChannelInfo, error) {
	body, err := c.post("channels", nil)
	if err != nil {
		return nil, err
	}

	var channels []ChannelInfo
	if err := json.Unmarshal(body, &channels); err != nil {
		return nil, &DecodeError{Endpoint: "channels", Err: err}
	}

	return channels, nil
}

// GetAudit retrieves the payment audit log for the [from, to] window, both
// bounds in epoch seconds
func (c *Client) GetAudit(from, to int64) (*AuditInfo, error) {
	form := url.Values{}
	form.Set("from", strconv.FormatInt(from, 10))
	form.Set("to", strconv.FormatInt(to, 10))

	body, err := c.post("audit", form)
	if err != nil {
		return nil, err
	}

	var audit AuditInfo
	if err := json.Unmarshal(body, &audit); err != nil {
		return nil, &DecodeError{Endpoint: "audit", Err: err}
	}

	return &audit, nil
}

// GetNodes retrieves directory entries for the given node ids
func (c *Client) GetNodes(ids []string) ([]NetworkNode, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	form := url.Values{}
	form.Set("nodeIds", strings.Join(ids, ","))

	body, err := c.post("nodes", form)
	if err != nil {
		return nil, err
	}

	var nodes []NetworkNode
	if err := json.Unmarshal(body, &nodes); err != nil {
		return nil, &DecodeError{Endpoint: "nodes", Err: err}
	}

	return nodes, nil
}

// SupportsPlugin probes a plugin endpoint. A 404 means the plugin is not
// installed on the node; any other failure is returned as-is.
func (c *Client) SupportsPlugin(p Plugin) (bool, error) {
	_, err := c.post(p.endpoint(), nil)
	if err == nil {
		return true, nil
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
		return false, nil
	}

	return false, err
}

// SupportedPlugins probes all known plugins and returns the supported set
func (c *Client) SupportedPlugins() (map[Plugin]bool, error) {
	supported := make(map[Plugin]bool)
	for _, p := range KnownPlugins() {
		ok, err := c.SupportsPlugin(p)
		if err != nil {
			return nil, err
		}
		if ok {
			supported[p] = true
		}
	}
	return supported, nil
}

// GetHostedChannels retrieves all hosted channels from the hc-all plugin
// endpoint, keyed by channel id
func (c *Client) GetHostedChannels() (map[string]HostedChannel, error) {
	return c.getPluginChannels(PluginHostedChannels)
}

// GetFiatChannels retrieves all fiat channels from the fc-all plugin
// endpoint, keyed by channel id
func (c *Client) GetFiatChannels() (map[string]HostedChannel, error) {
	return c.getPluginChannels(PluginFiatChannels)
}

func (c *Client) getPluginChannels(p Plugin) (map[string]HostedChannel, error) {
	body, err := c.post(p.endpoint(), nil)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			return nil, ErrNotSupported
		}
		return nil, err
	}

	var resp HostedChannelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DecodeError{Endpoint: p.endpoint(), Err: err}
	}

	return resp.Channels, nil
}
