// Package schema lifts raw upstream JSON rows into typed catalog entities.
// Unknown fields are ignored; a row missing a required field is dropped and
// logged, never raised.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"island_catalog/internal/domain"
)

/********** flexible lookups **********/

// lookupAny walks a dot path through nested maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func str(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s, ok := lookupAny(m, p).(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// f64 accepts float64/int/numeric-string values at any of the paths.
func f64(m map[string]any, paths ...string) float64 {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func i64(m map[string]any, paths ...string) int64 {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return int64(v)
		case int:
			return int64(v)
		case int64:
			return v
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

func flag(m map[string]any, paths ...string) bool { return i64(m, paths...) > 0 }

func rows(v any) []map[string]any {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if r, ok := it.(map[string]any); ok {
			out = append(out, r)
		}
	}
	return out
}

/********** photos **********/

func photos(m map[string]any, paths ...string) []domain.Photo {
	for _, p := range paths {
		raw := rows(lookupAny(m, p))
		if len(raw) == 0 {
			continue
		}
		out := make([]domain.Photo, 0, len(raw))
		for _, r := range raw {
			md5 := str(r, "md5")
			if md5 == "" {
				continue
			}
			ext := str(r, "ext")
			if ext == "" {
				ext = "jpg"
			}
			out = append(out, domain.Photo{MD5: md5, Ext: ext})
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// PhotoURL renders the CDN location of a photo, or "" when there is none.
func PhotoURL(cdnHost string, p domain.Photo) string {
	if p.MD5 == "" || cdnHost == "" {
		return ""
	}
	return fmt.Sprintf("https://%s/pic/%s/%s.%s", cdnHost, p.MD5, p.MD5, p.Ext)
}

// FirstPhotoURL renders the first photo of a list, or "".
func FirstPhotoURL(cdnHost string, ps []domain.Photo) string {
	if len(ps) == 0 {
		return ""
	}
	return PhotoURL(cdnHost, ps[0])
}

/********** entities **********/

func Location(m map[string]any) (domain.Location, bool) {
	l := domain.Location{
		ID:     i64(m, "id"),
		Code:   str(m, "code"),
		Name:   str(m, "name"),
		Parent: i64(m, "parent"),
		Photos: photos(m, "pics", "photos"),
	}
	if l.ID == 0 || l.Code == "" {
		log.Warn().Int64("id", l.ID).Msg("schema: skip location without id/code")
		return domain.Location{}, false
	}
	return l, true
}

func Hotel(m map[string]any) (domain.Hotel, bool) {
	h := domain.Hotel{
		ID:       i64(m, "id", "hotel_id"),
		Name:     str(m, "name"),
		Address:  str(m, "addr", "address"),
		Location: i64(m, "location"),
		Ord:      int(i64(m, "ord")),
		Photos:   photos(m, "pics", "photos"),
	}
	if s := i64(m, "stars"); s >= 1 && s <= 5 {
		h.Stars = int(s)
	}
	if h.ID == 0 || h.Name == "" {
		log.Warn().Int64("id", h.ID).Msg("schema: skip hotel without id/name")
		return domain.Hotel{}, false
	}
	return h, true
}

func Room(m map[string]any) (domain.HotelRoom, bool) {
	r := domain.HotelRoom{
		ID:      i64(m, "id", "room_id"),
		Name:    str(m, "name"),
		HotelID: i64(m, "hotel", "hotel_id"),
	}
	if r.ID == 0 {
		log.Warn().Msg("schema: skip room without id")
		return domain.HotelRoom{}, false
	}
	return r, true
}

// Schedule lifts one price-schedule entry. Missing sdt/edt stay zero; the
// price resolver decides what a zero bound means.
func Schedule(m map[string]any) (domain.ScheduleEntry, bool) {
	e := domain.ScheduleEntry{
		Sdt: i64(m, "sdt"),
		Edt: i64(m, "edt"),
	}
	for _, c := range rows(m["plst"]) {
		e.Components = append(e.Components, domain.PriceComponent{
			Price:  f64(c, "price"),
			Per:    int(i64(c, "per")),
			Period: int(i64(c, "period")),
			Grp:    int(i64(c, "grp")),
		})
	}
	if len(e.Components) == 0 {
		return domain.ScheduleEntry{}, false
	}
	return e, true
}

// ladder extracts a group-size price ladder from rlst[0].clst[*] = {grp, price}.
func ladder(m map[string]any) map[int]float64 {
	rl := rows(m["rlst"])
	if len(rl) == 0 {
		return nil
	}
	out := map[int]float64{}
	for _, c := range rows(rl[0]["clst"]) {
		grp := int(i64(c, "grp"))
		price := f64(c, "price")
		if grp > 0 && price > 0 {
			out[grp] = price
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func Service(m map[string]any) (domain.Service, bool) {
	s := domain.Service{
		ID:           i64(m, "id", "service_id"),
		Name:         str(m, "name"),
		Location:     i64(m, "location"),
		DescrHTML:    str(m, "descr", "description"),
		Photos:       photos(m, "pics", "photos"),
		MinPrice:     f64(m, "min_price"),
		MaxPrice:     f64(m, "max_price"),
		CurrentPrice: f64(m, "current.price"),
		Ladder:       ladder(m),

		RussianGuide:     flag(m, "russian_guide"),
		LunchIncluded:    flag(m, "lunch_included"),
		PrivateTransport: flag(m, "private_transport"),
		TicketsIncluded:  flag(m, "tickets_included"),

		GroupEx:    int(i64(m, "group_ex")),
		Subtype:    int(i64(m, "subtype")),
		Daily:      int(i64(m, "daily")),
		AgentsOnly: int(i64(m, "agents_only")),
	}
	if s.ID == 0 || s.Name == "" {
		log.Warn().Int64("id", s.ID).Msg("schema: skip service without id/name")
		return domain.Service{}, false
	}
	return s, true
}

// Event lifts a calendar event. The parent service may arrive embedded
// ("service" object) or as a bare id ("service" number).
func Event(m map[string]any) (domain.ExcursionEvent, bool) {
	e := domain.ExcursionEvent{
		ID:       i64(m, "id", "event_id"),
		Sdt:      i64(m, "sdt"),
		Duration: i64(m, "dur", "duration"),
		Price:    f64(m, "price"),
		Pax:      int(i64(m, "pax")),
	}
	switch sv := m["service"].(type) {
	case map[string]any:
		if s, ok := Service(sv); ok {
			e.Service = &s
			e.ServiceID = s.ID
		}
	default:
		e.ServiceID = i64(m, "service", "service_id")
	}
	for _, r := range rows(m["slst"]) {
		e.Companions = append(e.Companions, domain.CompanionRequest{
			Title: str(r, "title", "name"),
			Pax:   int(i64(r, "pax")),
			Phone: str(r, "phone"),
			IM:    str(r, "im", "telegram"),
		})
	}
	if e.ID == 0 {
		log.Warn().Msg("schema: skip event without id")
		return domain.ExcursionEvent{}, false
	}
	return e, true
}

// Day lifts one day of a monthly calendar: date metadata plus its events.
func Day(m map[string]any) (domain.ExcursionDay, bool) {
	d := domain.ExcursionDay{Date: str(m, "date", "day")}
	for _, r := range rows(m["lst"]) {
		if ev, ok := Event(r); ok {
			d.Events = append(d.Events, ev)
		}
	}
	if d.Date == "" {
		return domain.ExcursionDay{}, false
	}
	return d, true
}

func Transfer(m map[string]any) (domain.Transfer, bool) {
	t := domain.Transfer{
		ID:        i64(m, "id"),
		Name:      str(m, "name"),
		Location:  i64(m, "location"),
		Ord:       int(i64(m, "ord")),
		ChildRate: f64(m, "childrate"),
		Photos:    photos(m, "pics", "photos"),

		RussianGuide:     flag(m, "russian_guide"),
		PrivateTransport: flag(m, "private_transport"),
		GroupEx:          int(i64(m, "group_ex")),
	}
	if t.ID == 0 || t.Name == "" {
		log.Warn().Int64("id", t.ID).Msg("schema: skip transfer without id/name")
		return domain.Transfer{}, false
	}
	return t, true
}
