// Package viiper is a client for the VIIPER management API, used to create
// a virtual USB keyboard and stream key state to it.
package viiper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// DeviceTypeKeyboard is the VIIPER device type of a full HID keyboard.
const DeviceTypeKeyboard = "keyboard"

type Client struct{ transport *Transport }

// New returns a client for the API server at addr.
func New(addr string, cfg Config, logger *slog.Logger) *Client {
	return &Client{transport: NewTransport(addr, cfg, logger)}
}

// WithTransport returns a client over t, typically a mock.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	raw, err := c.transport.Do(ctx, "ping", nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[PingResponse](raw)
}

func (c *Client) BusList(ctx context.Context) (*BusListResponse, error) {
	raw, err := c.transport.Do(ctx, "bus/list", nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[BusListResponse](raw)
}

// BusCreate creates a bus with the given number.
func (c *Client) BusCreate(ctx context.Context, busID uint32) (*BusCreateResponse, error) {
	raw, err := c.transport.Do(ctx, "bus/create", strconv.FormatUint(uint64(busID), 10), nil)
	if err != nil {
		return nil, err
	}
	return parse[BusCreateResponse](raw)
}

func (c *Client) BusRemove(ctx context.Context, busID uint32) (*BusRemoveResponse, error) {
	raw, err := c.transport.Do(ctx, "bus/remove", strconv.FormatUint(uint64(busID), 10), nil)
	if err != nil {
		return nil, err
	}
	return parse[BusRemoveResponse](raw)
}

// DeviceAdd attaches a new device of devType to the bus.
func (c *Client) DeviceAdd(ctx context.Context, busID uint32, devType string) (*Device, error) {
	req := DeviceCreateRequest{Type: devType}
	raw, err := c.transport.Do(ctx, "bus/{id}/add", req, busParams(busID))
	if err != nil {
		return nil, err
	}
	return parse[Device](raw)
}

func (c *Client) DeviceRemove(ctx context.Context, busID uint32, devID string) (*DeviceRemoveResponse, error) {
	raw, err := c.transport.Do(ctx, "bus/{id}/remove", devID, busParams(busID))
	if err != nil {
		return nil, err
	}
	return parse[DeviceRemoveResponse](raw)
}

func (c *Client) DevicesList(ctx context.Context, busID uint32) (*DevicesListResponse, error) {
	raw, err := c.transport.Do(ctx, "bus/{id}/list", nil, busParams(busID))
	if err != nil {
		return nil, err
	}
	return parse[DevicesListResponse](raw)
}

func busParams(busID uint32) map[string]string {
	return map[string]string{"id": strconv.FormatUint(uint64(busID), 10)}
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	if err := json.NewDecoder(bytes.NewReader([]byte(data))).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
