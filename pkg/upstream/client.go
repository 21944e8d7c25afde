package upstream

import (
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"
)

// EntityPayload is the wire representation of an entity sent to and received
// from the upstream system of record. Relationships carry target UUIDs; a
// to-one relationship is a single-element (or empty) list.
type EntityPayload struct {
	UUID          string              `json:"uuid"`
	EntityType    string              `json:"entity_type"`
	Name          string              `json:"name"`
	Attributes    map[string]string   `json:"attributes"`
	Relationships map[string][]string `json:"relationships"`
}

// ClientAPI is the part of the upstream surface the committer uses. The real
// Client talks HTTP; MockClient stands in for tests.
type ClientAPI interface {
	GetEntity(entityUUID string) (*EntityPayload, error)
	CreateEntity(entity *EntityPayload) (*EntityPayload, error)
	UpdateEntity(entityUUID string, entity *EntityPayload) (*EntityPayload, error)
	DeleteEntity(entityUUID string) error
}

type Client struct {
	baseURL  string
	apiToken string
	client   *resty.Client

	// One Client is shared by concurrent commit handlers.
	mu                sync.Mutex
	lastErrorResponse *ErrorResponse
}

func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   resty.New(),
	}
}

// GetUpstreamErrorResponse returns the parsed error body from the last failed
// call, or nil if the last call succeeded.
func (c *Client) GetUpstreamErrorResponse() *ErrorResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErrorResponse
}

func (c *Client) GetEntity(entityUUID string) (*EntityPayload, error) {
	var result EntityPayload

	resp, err := c.r().
		SetResult(&result).
		Get(c.apiURL("/entities/%s", entityUUID))

	if err := c.checkResponse(resp, err); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) CreateEntity(entity *EntityPayload) (*EntityPayload, error) {
	var result EntityPayload

	resp, err := c.r().
		SetBody(entity).
		SetResult(&result).
		Post(c.apiURL("/entities"))

	if err := c.checkResponse(resp, err); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) UpdateEntity(entityUUID string, entity *EntityPayload) (*EntityPayload, error) {
	var result EntityPayload

	resp, err := c.r().
		SetBody(entity).
		SetResult(&result).
		Put(c.apiURL("/entities/%s", entityUUID))

	if err := c.checkResponse(resp, err); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) DeleteEntity(entityUUID string) error {
	resp, err := c.r().
		Delete(c.apiURL("/entities/%s", entityUUID))

	return c.checkResponse(resp, err)
}

func (c *Client) r() *resty.Request {
	return c.client.R().
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.apiToken)
}

func (c *Client) apiURL(format string, args ...interface{}) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}

func (c *Client) checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}

	if resp.IsError() {
		errResp, err := ToErrorFromResponse(resp)
		c.setLastErrorResponse(errResp)
		return err
	}

	c.setLastErrorResponse(nil)
	return nil
}

func (c *Client) setLastErrorResponse(errResp *ErrorResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErrorResponse = errResp
}
