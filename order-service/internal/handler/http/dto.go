package http

import (
	"time"

	"github.com/vasiliy-maslov/shop-backend/order-service/internal/order"
)

type LocationRequest struct {
	Country     *string  `json:"country" validate:"omitempty,max=100"`
	Region      *string  `json:"region" validate:"omitempty,max=100"`
	District    *string  `json:"district" validate:"omitempty,max=100"`
	Street      *string  `json:"street" validate:"omitempty,max=255"`
	House       *string  `json:"house" validate:"omitempty,max=50"`
	PostalCode  *string  `json:"postalCode" validate:"omitempty,max=20"`
	FullAddress *string  `json:"fullAddress"`
	Latitude    *float64 `json:"latitude" validate:"required,latitude"`
	Longitude   *float64 `json:"longitude" validate:"required,longitude"`
}

// LocationPatchRequest is the update shape of a location: every field is optional
// and only the sent ones change.
type LocationPatchRequest struct {
	Country     *string  `json:"country" validate:"omitempty,max=100"`
	Region      *string  `json:"region" validate:"omitempty,max=100"`
	District    *string  `json:"district" validate:"omitempty,max=100"`
	Street      *string  `json:"street" validate:"omitempty,max=255"`
	House       *string  `json:"house" validate:"omitempty,max=50"`
	PostalCode  *string  `json:"postalCode" validate:"omitempty,max=20"`
	FullAddress *string  `json:"fullAddress"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
}

type OrderItemRequest struct {
	Product  int64   `json:"product" validate:"required,gt=0"`
	Quantity *int    `json:"quantity" validate:"omitempty,min=1,max=100"`
	Color    *int64  `json:"color" validate:"omitempty,gt=0"`
	Feature  []int64 `json:"feature" validate:"omitempty,dive,gt=0"`
}

type CreateOrderRequest struct {
	Location              *LocationRequest   `json:"location" validate:"required"`
	Receive               string             `json:"receive" validate:"required,oneof=d p"`
	Payment               string             `json:"payment" validate:"required,oneof=cash card op oc"`
	Name                  *string            `json:"name" validate:"omitempty,max=100"`
	PhoneNumber           *string            `json:"phone_number" validate:"omitempty,phone"`
	AdditionalPhoneNumber *string            `json:"additional_phone_number" validate:"omitempty,phone"`
	Items                 []OrderItemRequest `json:"items" validate:"required,dive"`
}

// UpdateOrderRequest is a partial update. Items distinguishes an absent key
// (nil) from an explicit empty list.
type UpdateOrderRequest struct {
	Status                *string               `json:"status" validate:"omitempty,oneof=p s d c"`
	Location              *LocationPatchRequest `json:"location"`
	Receive               *string               `json:"receive" validate:"omitempty,oneof=d p"`
	Payment               *string               `json:"payment" validate:"omitempty,oneof=cash card op oc"`
	Name                  *string               `json:"name" validate:"omitempty,max=100"`
	PhoneNumber           *string               `json:"phone_number" validate:"omitempty,phone"`
	AdditionalPhoneNumber *string               `json:"additional_phone_number" validate:"omitempty,phone"`
	Items                 *[]OrderItemRequest   `json:"items" validate:"omitempty,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=p s d c"`
}

type LocationResponse struct {
	ID          int64     `json:"id"`
	Country     *string   `json:"country"`
	Region      *string   `json:"region"`
	District    *string   `json:"district"`
	Street      *string   `json:"street"`
	House       *string   `json:"house"`
	PostalCode  *string   `json:"postalCode"`
	FullAddress *string   `json:"fullAddress"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Created     time.Time `json:"created"`
}

type OrderItemResponse struct {
	ID           int64    `json:"id"`
	Product      int64    `json:"product"`
	ProductTitle string   `json:"product_title"`
	Quantity     int      `json:"quantity"`
	Color        *int64   `json:"color"`
	ColorName    *string  `json:"color_name"`
	Feature      []int64  `json:"feature"`
	FeatureNames []string `json:"feature_names"`
	Price        string   `json:"price"`
	Images       []string `json:"images"`
}

type OrderResponse struct {
	ID                    int64               `json:"id"`
	Status                string              `json:"status"`
	Location              *LocationResponse   `json:"location"`
	Receive               string              `json:"receive"`
	Payment               string              `json:"payment"`
	Name                  *string             `json:"name"`
	PhoneNumber           *string             `json:"phone_number"`
	AdditionalPhoneNumber *string             `json:"additional_phone_number"`
	Items                 []OrderItemResponse `json:"items"`
	Price                 string              `json:"price"`
	Created               time.Time           `json:"created"`
}

type HistoryItemResponse struct {
	ID    int64   `json:"id"`
	Price string  `json:"price"`
	Name  string  `json:"name"`
	Image *string `json:"image"`
}

type HistoryResponse struct {
	ID      int64                 `json:"id"`
	Status  string                `json:"status"`
	Price   string                `json:"price"`
	Created time.Time             `json:"created"`
	Items   []HistoryItemResponse `json:"items"`
}

type OrderStatusResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type CancelResponse struct {
	Success    bool                `json:"success"`
	StatusCode int                 `json:"status_code"`
	Message    string              `json:"message"`
	Order      OrderStatusResponse `json:"order"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (l *LocationRequest) toModel() order.Location {
	loc := order.Location{
		Country:     l.Country,
		Region:      l.Region,
		District:    l.District,
		Street:      l.Street,
		House:       l.House,
		PostalCode:  l.PostalCode,
		FullAddress: l.FullAddress,
	}
	if l.Latitude != nil {
		loc.Latitude = *l.Latitude
	}
	if l.Longitude != nil {
		loc.Longitude = *l.Longitude
	}
	return loc
}

func (l *LocationPatchRequest) toPatch() order.LocationPatch {
	return order.LocationPatch{
		Country:     l.Country,
		Region:      l.Region,
		District:    l.District,
		Street:      l.Street,
		House:       l.House,
		PostalCode:  l.PostalCode,
		FullAddress: l.FullAddress,
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
	}
}

func toItemInputs(items []OrderItemRequest) []order.ItemInput {
	inputs := make([]order.ItemInput, len(items))
	for i, it := range items {
		quantity := 1
		if it.Quantity != nil {
			quantity = *it.Quantity
		}
		inputs[i] = order.ItemInput{
			ProductID:  it.Product,
			Quantity:   quantity,
			ColorID:    it.Color,
			FeatureIDs: it.Feature,
		}
	}
	return inputs
}

func (req *CreateOrderRequest) toInput() order.CreateOrderInput {
	return order.CreateOrderInput{
		Location: req.Location.toModel(),
		Contact: order.Contact{
			Name:                  req.Name,
			PhoneNumber:           req.PhoneNumber,
			AdditionalPhoneNumber: req.AdditionalPhoneNumber,
		},
		Receive: order.ReceiveMethod(req.Receive),
		Payment: order.PaymentMethod(req.Payment),
		Items:   toItemInputs(req.Items),
	}
}

func (req *UpdateOrderRequest) toInput() order.UpdateOrderInput {
	in := order.UpdateOrderInput{
		Name:                  req.Name,
		PhoneNumber:           req.PhoneNumber,
		AdditionalPhoneNumber: req.AdditionalPhoneNumber,
	}
	if req.Status != nil {
		s := order.Status(*req.Status)
		in.Status = &s
	}
	if req.Receive != nil {
		r := order.ReceiveMethod(*req.Receive)
		in.Receive = &r
	}
	if req.Payment != nil {
		p := order.PaymentMethod(*req.Payment)
		in.Payment = &p
	}
	if req.Location != nil {
		patch := req.Location.toPatch()
		in.Location = &patch
	}
	if req.Items != nil {
		items := toItemInputs(*req.Items)
		in.Items = &items
	}
	return in
}
