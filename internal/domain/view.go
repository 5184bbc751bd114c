package domain

// ViewModel item types.
const (
	TypeHotel     = "hotel"
	TypeGroup     = "group"
	TypePrivate   = "private"
	TypeCompanion = "companion"
	TypeTransfer  = "transfer"
	TypePackage   = "package"
)

type RoomView struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"` // nightly, USD; 0 = not resolved yet
}

type CompanionView struct {
	Title string `json:"title"`
	Pax   int    `json:"pax"`
	Phone string `json:"phone,omitempty"`
	IM    string `json:"im,omitempty"`
}

type Flags struct {
	RussianGuide     bool `json:"russian_guide,omitempty"`
	LunchIncluded    bool `json:"lunch_included,omitempty"`
	PrivateTransport bool `json:"private_transport,omitempty"`
	TicketsIncluded  bool `json:"tickets_included,omitempty"`
}

// ViewModel is the uniform, self-contained record served to the front-end.
// It must stay JSON-serializable: cached values round-trip through the store.
type ViewModel struct {
	ID           int64  `json:"id"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	LocationCode string `json:"location_code,omitempty"`
	LocationName string `json:"location_name,omitempty"`

	Date        string `json:"date,omitempty"` // DD.MM.YYYY
	Time        string `json:"time,omitempty"` // HH:MM
	DurationMin int    `json:"duration_min,omitempty"`

	ShortDescr string `json:"short_descr,omitempty"`
	FullDescr  string `json:"full_descr,omitempty"`
	PhotoURL   string `json:"photo_url,omitempty"`
	DetailURL  string `json:"detail_url,omitempty"`

	Price    float64         `json:"price"`
	MaxPrice float64         `json:"max_price,omitempty"`
	Ladder   map[int]float64 `json:"ladder,omitempty"`

	Rooms      []RoomView      `json:"rooms,omitempty"`
	Pax        int             `json:"pax,omitempty"`
	Companions []CompanionView `json:"companions,omitempty"`

	IsDaily      bool  `json:"is_daily,omitempty"`
	IsGroupDaily bool  `json:"is_group_daily,omitempty"`
	Flags        Flags `json:"flags,omitempty"`
}

// HotelsPage is one page of a paginated hotel listing.
type HotelsPage struct {
	Items      []ViewModel `json:"items"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
}

type IslandCount struct {
	LocationID int64  `json:"location_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

type CacheStats struct {
	Keys    int64   `json:"keys"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}
