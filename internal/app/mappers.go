package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"island_catalog/internal/domain"
	"island_catalog/internal/schema"
)

const shortDescrLen = 160

// eventTZ is the upstream's local timezone; day timestamps are midnight there.
var eventTZ = time.FixedZone("PHT", 8*60*60)

func serviceFlags(s *domain.Service) domain.Flags {
	if s == nil {
		return domain.Flags{}
	}
	return domain.Flags{
		RussianGuide:     s.RussianGuide,
		LunchIncluded:    s.LunchIncluded,
		PrivateTransport: s.PrivateTransport,
		TicketsIncluded:  s.TicketsIncluded,
	}
}

// serviceVM maps a service into the uniform shape shared by all excursion
// subtypes. Callers must have filtered agents-only records already.
func (c *Catalog) serviceVM(ctx context.Context, s domain.Service, vmType string) domain.ViewModel {
	code, locName := c.locationLabel(ctx, s.Location)
	full := schema.StripHTML(s.DescrHTML)
	vm := domain.ViewModel{
		ID:           s.ID,
		Type:         vmType,
		Name:         s.Name,
		LocationCode: code,
		LocationName: locName,
		ShortDescr:   schema.Shorten(full, shortDescrLen),
		FullDescr:    full,
		PhotoURL:     schema.FirstPhotoURL(c.cdn, s.Photos),
		DetailURL:    fmt.Sprintf("/excursions/%d", s.ID),
		Price:        s.MinPrice,
		MaxPrice:     s.MaxPrice,
		Ladder:       s.Ladder,
		IsDaily:      s.Daily == domain.DailyEvery,
		IsGroupDaily: s.Group(),
		Flags:        serviceFlags(&s),
	}
	if vm.Price == 0 {
		vm.Price = s.CurrentPrice
	}
	return vm
}

// groupEventVM maps a scheduled group departure. The displayed price follows
// a fixed precedence: service min_price, then service current price, then the
// event's own price, then zero.
func (c *Catalog) groupEventVM(ctx context.Context, e domain.ExcursionEvent) domain.ViewModel {
	vm := domain.ViewModel{
		ID:    e.ID,
		Type:  domain.TypeGroup,
		Price: e.Price,
		Pax:   e.Pax,
		Flags: serviceFlags(e.Service),
	}
	if s := e.Service; s != nil {
		vm.Name = s.Name
		code, locName := c.locationLabel(ctx, s.Location)
		vm.LocationCode, vm.LocationName = code, locName
		full := schema.StripHTML(s.DescrHTML)
		vm.ShortDescr = schema.Shorten(full, shortDescrLen)
		vm.FullDescr = full
		vm.PhotoURL = schema.FirstPhotoURL(c.cdn, s.Photos)
		vm.DetailURL = fmt.Sprintf("/excursions/%d", s.ID)
		vm.MaxPrice = s.MaxPrice
		vm.Ladder = s.Ladder
		switch {
		case s.MinPrice > 0:
			vm.Price = s.MinPrice
		case s.CurrentPrice > 0:
			vm.Price = s.CurrentPrice
		default:
			vm.Price = e.Price
		}
	}
	if e.Sdt > 0 {
		at := time.Unix(e.Sdt, 0).In(eventTZ)
		vm.Date = at.Format(dateLayout)
		vm.Time = at.Format("15:04")
	}
	if e.Duration > 0 {
		vm.DurationMin = int(e.Duration / 60)
	}
	return vm
}

// companionVM maps a companion-finder event. Pax is the sum over the embedded
// companion requests; detailed additionally carries the full companion list
// and a minimum price taken from the service ladder.
func (c *Catalog) companionVM(ctx context.Context, e domain.ExcursionEvent, detailed bool) domain.ViewModel {
	vm := c.groupEventVM(ctx, e)
	vm.Type = domain.TypeCompanion
	vm.Pax = 0
	for _, cr := range e.Companions {
		vm.Pax += cr.Pax
	}
	if detailed {
		vm.Companions = make([]domain.CompanionView, 0, len(e.Companions))
		for _, cr := range e.Companions {
			vm.Companions = append(vm.Companions, domain.CompanionView{
				Title: cr.Title, Pax: cr.Pax, Phone: cr.Phone, IM: cr.IM,
			})
		}
		if e.Service != nil {
			if m := ladderMin(e.Service.Ladder); m > 0 {
				vm.Price = m
			}
		}
	}
	return vm
}

func (c *Catalog) transferVM(ctx context.Context, t domain.Transfer) domain.ViewModel {
	code, locName := c.locationLabel(ctx, t.Location)
	return domain.ViewModel{
		ID:           t.ID,
		Type:         domain.TypeTransfer,
		Name:         t.Name,
		LocationCode: code,
		LocationName: locName,
		ShortDescr:   transferDescr(t),
		PhotoURL:     schema.FirstPhotoURL(c.cdn, t.Photos),
		DetailURL:    fmt.Sprintf("/transfers/%d", t.ID),
		Ladder:       t.Ladder,
		Flags: domain.Flags{
			RussianGuide:     t.RussianGuide,
			PrivateTransport: t.PrivateTransport,
		},
	}
}

func transferDescr(t domain.Transfer) string {
	var parts []string
	if t.PrivateTransport {
		parts = append(parts, "Private transport")
	}
	if t.GroupEx > 0 {
		parts = append(parts, "Group transfer")
	}
	if t.RussianGuide {
		parts = append(parts, "Russian-speaking guide")
	}
	return strings.Join(parts, " · ")
}

func (c *Catalog) hotelVM(ctx context.Context, h domain.Hotel, rooms []domain.RoomView) domain.ViewModel {
	code, locName := c.locationLabel(ctx, h.Location)
	vm := domain.ViewModel{
		ID:           h.ID,
		Type:         domain.TypeHotel,
		Name:         h.Name,
		LocationCode: code,
		LocationName: locName,
		ShortDescr:   h.Address,
		PhotoURL:     schema.FirstPhotoURL(c.cdn, h.Photos),
		DetailURL:    fmt.Sprintf("/hotels/%d", h.ID),
		Rooms:        rooms,
	}
	// cheapest resolved room is the headline price
	for _, r := range rooms {
		if r.Price > 0 && (vm.Price == 0 || r.Price < vm.Price) {
			vm.Price = r.Price
		}
	}
	return vm
}

func packageVM(p domain.Package) domain.ViewModel {
	vm := domain.ViewModel{
		ID:         p.ID,
		Type:       domain.TypePackage,
		Name:       p.Name,
		ShortDescr: schema.Shorten(p.Descr, shortDescrLen),
		FullDescr:  p.Descr,
		PhotoURL:   p.Photo,
		DetailURL:  fmt.Sprintf("/packages/%d", p.ID),
		Price:      p.Price,
		Ladder:     p.Ladder,
	}
	if t, err := time.Parse(isoDate, p.Start); err == nil {
		vm.Date = t.Format(dateLayout)
	}
	return vm
}

func ladderMin(m map[int]float64) float64 {
	var min float64
	for _, p := range m {
		if p > 0 && (min == 0 || p < min) {
			min = p
		}
	}
	return min
}
