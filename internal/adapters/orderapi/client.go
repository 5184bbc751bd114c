// Package orderapi is the downstream collaborator that turns cart items into
// upstream order parts. The catalog layer itself never submits orders; this
// client exists for the conversational front-end.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"island_catalog/internal/domain"
)

const (
	timeout    = 10 * time.Second
	timeLayout = "02.01.2006 15:04"
)

type Client struct {
	base string
	hc   *http.Client
	key  string
}

func New(base, key string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		key:  key,
	}
}

func (c *Client) CreateOrder(ctx context.Context, h domain.OrderHeader) (int64, error) {
	env, err := c.post(ctx, "/order-api/create/", map[string]any{"payload": map[string]any{
		"client_name":   h.ClientName,
		"agent_name":    h.AgentName,
		"names":         h.Names,
		"descr":         h.Descr,
		"tourist_phone": h.TouristPhone,
	}})
	if err != nil {
		return 0, err
	}
	id, _ := env["order_id"].(float64)
	if id == 0 {
		return 0, &domain.RemoteError{Status: http.StatusOK, Body: "create: missing order_id"}
	}
	return int64(id), nil
}

func (c *Client) AddPart(ctx context.Context, orderID int64, p domain.OrderPart) error {
	_, err := c.post(ctx, fmt.Sprintf("/order-api/addpart/%d/", orderID), partPayload(p))
	return err
}

func (c *Client) SavePart(ctx context.Context, orderID int64, p domain.OrderPart) error {
	_, err := c.post(ctx, fmt.Sprintf("/order-api/savepart/%d/", orderID), partPayload(p))
	return err
}

func (c *Client) LoadOrder(ctx context.Context, orderID int64) (map[string]any, error) {
	return c.get(ctx, fmt.Sprintf("/order-api/load/%d/", orderID))
}

func (c *Client) LoadParts(ctx context.Context, orderID int64) ([]map[string]any, error) {
	env, err := c.get(ctx, fmt.Sprintf("/order-api/parts/%d/", orderID))
	if err != nil {
		return nil, err
	}
	raw, _ := env["parts"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// partPayload builds the exact wire shape the order API expects: times as
// "DD.MM.YYYY HH:MM", multi and adults as strings.
func partPayload(p domain.OrderPart) map[string]any {
	payload := map[string]any{
		"tab":       p.Tab,
		"object_id": p.ObjectID,
		"stime":     p.Start.Format(timeLayout),
		"etime":     p.End.Format(timeLayout),
		"multi":     strconv.Itoa(p.Multi),
		"adults":    strconv.Itoa(p.Adults),
	}
	if p.Tab == "hotel" && p.HotelID > 0 {
		payload["hotel_id"] = p.HotelID
	}
	if p.PartID > 0 {
		payload["id"] = p.PartID
	}
	return map[string]any{"payload": payload}
}

func (c *Client) post(ctx context.Context, path string, body any) (map[string]any, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(b))
}

func (c *Client) get(ctx context.Context, path string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.RemoteError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	var env map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if code, _ := env["code"].(string); code != "OK" {
		return nil, &domain.RemoteError{Status: http.StatusOK, Body: "code=" + fmt.Sprint(env["code"])}
	}
	return env, nil
}
