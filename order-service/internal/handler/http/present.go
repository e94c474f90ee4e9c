package http

import (
	"strings"

	"github.com/vasiliy-maslov/shop-backend/order-service/internal/money"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/order"
)

type presenter struct {
	lang         string
	mediaBaseURL string
}

func (p presenter) mediaURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return p.mediaBaseURL + "/" + strings.TrimLeft(path, "/")
}

func (p presenter) order(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:                    o.ID,
		Status:                string(o.Status),
		Receive:               string(o.Receive),
		Payment:               string(o.Payment),
		Name:                  o.Name,
		PhoneNumber:           o.PhoneNumber,
		AdditionalPhoneNumber: o.AdditionalPhoneNumber,
		Items:                 make([]OrderItemResponse, 0, len(o.Items)),
		Price:                 money.Format(o.Price),
		Created:               o.CreatedAt,
	}

	if l := o.Location; l != nil {
		resp.Location = &LocationResponse{
			ID:          l.ID,
			Country:     l.Country,
			Region:      l.Region,
			District:    l.District,
			Street:      l.Street,
			House:       l.House,
			PostalCode:  l.PostalCode,
			FullAddress: l.FullAddress,
			Latitude:    l.Latitude,
			Longitude:   l.Longitude,
			Created:     l.CreatedAt,
		}
	}

	for _, it := range o.Items {
		item := OrderItemResponse{
			ID:           it.ID,
			Product:      it.ProductID,
			ProductTitle: it.Product.Titles.Get(p.lang, it.Product.Title),
			Quantity:     it.Quantity,
			Color:        it.ColorID,
			Feature:      make([]int64, 0, len(it.Features)),
			FeatureNames: make([]string, 0, len(it.Features)),
			Price:        money.Format(it.Price),
			Images:       make([]string, 0, len(it.Product.Images)),
		}
		if it.Color != nil && it.Color.Name != nil {
			name := it.Color.Names.Get(p.lang, *it.Color.Name)
			item.ColorName = &name
		}
		for _, f := range it.Features {
			if f.FeatureID == nil {
				continue
			}
			item.Feature = append(item.Feature, *f.FeatureID)
			item.FeatureNames = append(item.FeatureNames, f.TypeNames.Get(p.lang, f.TypeName))
		}
		for _, img := range it.Product.Images {
			item.Images = append(item.Images, p.mediaURL(img))
		}
		resp.Items = append(resp.Items, item)
	}

	return resp
}

func (p presenter) history(entries []order.HistoryEntry) []HistoryResponse {
	resp := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		h := HistoryResponse{
			ID:      e.ID,
			Status:  string(e.Status),
			Price:   money.Format(e.Price),
			Created: e.CreatedAt,
			Items:   make([]HistoryItemResponse, 0, len(e.Items)),
		}
		for _, it := range e.Items {
			item := HistoryItemResponse{
				ID:    it.ID,
				Price: money.Format(it.Price),
				Name:  it.Product.Titles.Get(p.lang, it.Product.Title),
			}
			if len(it.Product.Images) > 0 {
				url := p.mediaURL(it.Product.Images[0])
				item.Image = &url
			}
			h.Items = append(h.Items, item)
		}
		resp = append(resp, h)
	}
	return resp
}
