// Package tourapi is the typed client for the upstream tour-operator catalog
// API. Every successful response is a JSON envelope whose "code" field equals
// "OK"; anything else is a remote failure. The client classifies errors and
// never retries: retry policy belongs to the caller.
package tourapi

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

	"golang.org/x/time/rate"

	"island_catalog/internal/adapters/observability"
	"island_catalog/internal/domain"
)

const (
	catalogTimeout = 30 * time.Second // paginated catalog reads
	lightTimeout   = 10 * time.Second // locations and other small calls

	dateLayout = "02.01.2006"
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

// New builds a client over a shared, connection-reusing transport.
// key may be empty; the bearer header is then omitted.
func New(base string, key string, rps int) *Client {
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		// no Client.Timeout: per-call deadlines come from the context
		hc: &http.Client{Transport: &http.Transport{
			MaxIdleConns:        64,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
		}},
		key: key,
		rl:  rate.NewLimiter(rate.Limit(rps), rps),
	}
}

/********** catalog endpoints **********/

func (c *Client) Locations(ctx context.Context) ([]map[string]any, error) {
	env, err := c.get(ctx, "/export-locations/", nil, lightTimeout)
	if err != nil {
		return nil, err
	}
	return listOf(env, "locations"), nil
}

func (c *Client) Hotels(ctx context.Context, locationCode string, perPage, start int) ([]map[string]any, domain.Pages, error) {
	if locationCode == "" {
		return nil, domain.Pages{}, fmt.Errorf("%w: empty location code", domain.ErrInvalidInput)
	}
	q := url.Values{"perpage": {strconv.Itoa(perPage)}, "start": {strconv.Itoa(start)}}
	env, err := c.get(ctx, "/export-hotels/"+url.PathEscape(locationCode)+"/", q, catalogTimeout)
	if err != nil {
		return nil, domain.Pages{}, err
	}
	return listOf(env, "hotels"), pagesOf(env), nil
}

func (c *Client) HotelRooms(ctx context.Context, hotelID int64) ([]map[string]any, error) {
	env, err := c.get(ctx, fmt.Sprintf("/export-hotels-rooms/%d/", hotelID), nil, catalogTimeout)
	if err != nil {
		return nil, err
	}
	return listOf(env, "rooms"), nil
}

// RoomPrices returns the raw schedule list; this endpoint has no envelope.
func (c *Client) RoomPrices(ctx context.Context, roomID int64) ([]map[string]any, error) {
	return c.getList(ctx, fmt.Sprintf("/export-hotels-rooms-prices/%d/", roomID), nil, catalogTimeout)
}

func (c *Client) Services(ctx context.Context, search string, id int64, perPage, start int) ([]map[string]any, domain.Pages, error) {
	q := url.Values{"perpage": {strconv.Itoa(perPage)}, "start": {strconv.Itoa(start)}}
	if search != "" {
		q.Set("search", search)
	}
	if id > 0 {
		q.Set("id", strconv.FormatInt(id, 10))
	}
	env, err := c.get(ctx, "/export-services/", q, catalogTimeout)
	if err != nil {
		return nil, domain.Pages{}, err
	}
	return listOf(env, "services"), pagesOf(env), nil
}

/********** excursion calendars **********/

func (c *Client) PrivateExcursions(ctx context.Context, locationID int64) ([]map[string]any, error) {
	if locationID <= 0 {
		return nil, fmt.Errorf("%w: location id %d", domain.ErrInvalidInput, locationID)
	}
	env, err := c.get(ctx, fmt.Sprintf("/export-excursions-private/%d/", locationID), nil, catalogTimeout)
	if err != nil {
		return nil, err
	}
	return listOf(env, "services"), nil
}

func (c *Client) DailyExcursions(ctx context.Context) ([]map[string]any, error) {
	env, err := c.get(ctx, "/export-excursions-daily/", nil, catalogTimeout)
	if err != nil {
		return nil, err
	}
	return listOf(env, "services"), nil
}

// GroupCalendar returns the scheduled group departures for one day.
func (c *Client) GroupCalendar(ctx context.Context, locationCode string, date time.Time) ([]map[string]any, error) {
	if locationCode == "" {
		return nil, fmt.Errorf("%w: empty location code", domain.ErrInvalidInput)
	}
	q := url.Values{"date": {date.Format(dateLayout)}}
	env, err := c.get(ctx, "/export-excursions-group/"+url.PathEscape(locationCode)+"/", q, catalogTimeout)
	if err != nil {
		return nil, err
	}
	return listOf(env, "events"), nil
}

// CompanionCalendar returns day rows for the month containing date.
// The upstream expects the first of the month.
func (c *Client) CompanionCalendar(ctx context.Context, locationID int64, month time.Time) ([]map[string]any, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	q := url.Values{"date": {first.Format(dateLayout)}}
	env, err := c.get(ctx, fmt.Sprintf("/export-excursions-companions/%d/", locationID), q, catalogTimeout)
	if err != nil {
		return nil, err
	}
	return listOf(env, "days"), nil
}

/********** transfers **********/

func (c *Client) Transfers(ctx context.Context) ([]map[string]any, error) {
	env, err := c.get(ctx, "/export-transfers/", nil, catalogTimeout)
	if err != nil {
		return nil, err
	}
	return listOf(env, "transfers"), nil
}

// TransferPrices returns the raw price schedule; no envelope, like room prices.
func (c *Client) TransferPrices(ctx context.Context, transferID int64) ([]map[string]any, error) {
	return c.getList(ctx, fmt.Sprintf("/export-transfers-prices/%d/", transferID), nil, catalogTimeout)
}

/********** internals **********/

// get performs an envelope GET and enforces code == "OK".
func (c *Client) get(ctx context.Context, path string, q url.Values, timeout time.Duration) (map[string]any, error) {
	var env map[string]any
	if err := c.do(ctx, http.MethodGet, path, q, nil, timeout, &env); err != nil {
		return nil, err
	}
	if code, _ := env["code"].(string); code != "OK" {
		return nil, &domain.RemoteError{Status: http.StatusOK, Body: "code=" + fmt.Sprint(env["code"])}
	}
	return env, nil
}

// getList decodes endpoints that answer with a bare JSON array.
func (c *Client) getList(ctx context.Context, path string, q url.Values, timeout time.Duration) ([]map[string]any, error) {
	var raw []any
	if err := c.do(ctx, http.MethodGet, path, q, nil, timeout, &raw); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, timeout time.Duration, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrDecode, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveUpstream(endpointLabel(path), 0, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", domain.ErrTimeout, path)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	observability.ObserveUpstream(endpointLabel(path), resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.RemoteError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return nil
}

// endpointLabel keeps metric cardinality bounded: the endpoint family only.
func endpointLabel(path string) string {
	p := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(p, '/'); i > 0 {
		p = p[:i]
	}
	return p
}

func listOf(env map[string]any, key string) []map[string]any {
	raw, _ := env[key].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func pagesOf(env map[string]any) domain.Pages {
	p, _ := env["pages"].(map[string]any)
	num := func(k string) int {
		if f, ok := p[k].(float64); ok {
			return int(f)
		}
		return 0
	}
	return domain.Pages{Total: num("total"), PerPage: num("perpage"), Start: num("start")}
}
