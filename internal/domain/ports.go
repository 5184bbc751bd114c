package domain

import (
	"context"
	"time"
)

// Pages mirrors the upstream pagination envelope.
type Pages struct {
	Total   int
	PerPage int
	Start   int
}

// TourClient is the upstream catalog API. Methods return raw decoded rows;
// the schema layer lifts them into typed entities.
type TourClient interface {
	Locations(ctx context.Context) ([]map[string]any, error)
	Hotels(ctx context.Context, locationCode string, perPage, start int) ([]map[string]any, Pages, error)
	HotelRooms(ctx context.Context, hotelID int64) ([]map[string]any, error)
	RoomPrices(ctx context.Context, roomID int64) ([]map[string]any, error)
	Services(ctx context.Context, search string, id int64, perPage, start int) ([]map[string]any, Pages, error)

	PrivateExcursions(ctx context.Context, locationID int64) ([]map[string]any, error)
	DailyExcursions(ctx context.Context) ([]map[string]any, error)
	GroupCalendar(ctx context.Context, locationCode string, date time.Time) ([]map[string]any, error)
	CompanionCalendar(ctx context.Context, locationID int64, month time.Time) ([]map[string]any, error)

	Transfers(ctx context.Context) ([]map[string]any, error)
	TransferPrices(ctx context.Context, transferID int64) ([]map[string]any, error)
}

// Cache is the TTL'd key/value store behind every fetcher. Implementations
// must degrade to a permanent miss when the backing store is unreachable;
// callers never see store-side errors as failures.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	FlushAll(ctx context.Context) error
	Stats(ctx context.Context) (CacheStats, error)
}

// OrderHeader opens an order on the downstream order API.
type OrderHeader struct {
	ClientName   string
	AgentName    string
	Names        string
	Descr        string
	TouristPhone string
}

// OrderPart is one cart line pushed to the order API. Tab selects the
// upstream category: hotel, excursion, transfer or package.
type OrderPart struct {
	PartID   int64 // set on updates
	Tab      string
	ObjectID int64
	HotelID  int64 // only for Tab == "hotel"
	Start    time.Time
	End      time.Time
	Multi    int
	Adults   int
}

// OrderSubmitter is the downstream collaborator that turns a cart into
// upstream order parts. The catalog layer only defines the port.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, h OrderHeader) (int64, error)
	AddPart(ctx context.Context, orderID int64, p OrderPart) error
	SavePart(ctx context.Context, orderID int64, p OrderPart) error
	LoadOrder(ctx context.Context, orderID int64) (map[string]any, error)
	LoadParts(ctx context.Context, orderID int64) ([]map[string]any, error)
}
