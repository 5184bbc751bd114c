package domain

// Location is an upstream region. Parent == 0 marks a root region; Code is
// used as a path segment on upstream calls and is unique across the catalog.
type Location struct {
	ID     int64
	Code   string
	Name   string
	Parent int64
	Photos []Photo
}

// Photo is the upstream image reference; the CDN URL is derived from it.
type Photo struct {
	MD5 string
	Ext string
}

type Hotel struct {
	ID       int64
	Name     string
	Stars    int // 0 = unknown
	Address  string
	Location int64
	Ord      int // ranking score, higher is better
	Photos   []Photo
	Rooms    []HotelRoom
}

type HotelRoom struct {
	ID      int64
	Name    string
	HotelID int64
}

// PriceComponent is one priced item inside a schedule entry. Per == 2 means
// per-object (per-room) pricing; everything else is an add-on.
type PriceComponent struct {
	Price  float64
	Per    int
	Period int
	Grp    int
}

// ScheduleEntry is one validity window of a room price schedule.
// [Sdt, Edt) are Unix seconds; a zero bound means the upstream omitted it.
type ScheduleEntry struct {
	Sdt        int64
	Edt        int64
	Components []PriceComponent
}

const (
	PerObject = 2

	SubtypeGroup = 1110
	DailyEvery   = 10
)

type Service struct {
	ID           int64
	Name         string
	Location     int64
	DescrHTML    string
	Photos       []Photo
	MinPrice     float64
	MaxPrice     float64
	CurrentPrice float64
	Ladder       map[int]float64 // group size -> per-person price, from rlst

	RussianGuide     bool
	LunchIncluded    bool
	PrivateTransport bool
	TicketsIncluded  bool

	GroupEx    int // > 0 marks a group excursion
	Subtype    int // SubtypeGroup marks a group excursion as well
	Daily      int // DailyEvery means the service runs every day
	AgentsOnly int // > 0 hides the record from consumers
}

// Group returns whether the service is a scheduled group excursion.
func (s *Service) Group() bool { return s.GroupEx > 0 || s.Subtype == SubtypeGroup }

// CompanionRequest is one entry of an event's slst: a traveller looking for
// companions to fill a group.
type CompanionRequest struct {
	Title string
	Pax   int
	Phone string
	IM    string
}

type ExcursionEvent struct {
	ID         int64
	ServiceID  int64
	Sdt        int64 // Unix start
	Duration   int64 // seconds
	Price      float64
	Pax        int
	Service    *Service
	Companions []CompanionRequest
}

// ExcursionDay is one calendar day of a monthly upstream calendar.
type ExcursionDay struct {
	Date   string // DD.MM.YYYY, as sent by the upstream
	Events []ExcursionEvent
}

type Transfer struct {
	ID        int64
	Name      string
	Location  int64
	Ord       int
	ChildRate float64 // > 0 marks a child tariff, excluded from the adult catalog
	Photos    []Photo
	Ladder    map[int]float64

	RussianGuide     bool
	PrivateTransport bool
	GroupEx          int
}

// Package comes from a local JSON snapshot rather than the upstream API.
type Package struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Start  string          `json:"start"` // YYYY-MM-DD
	End    string          `json:"end"`
	Price  float64         `json:"price"`
	Descr  string          `json:"descr"`
	Photo  string          `json:"photo"`
	Ladder map[int]float64 `json:"ladder,omitempty"`
}
