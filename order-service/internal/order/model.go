package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/catalog"
)

type Status string

const (
	StatusPending   Status = "p"
	StatusSuccess   Status = "s"
	StatusDelivered Status = "d"
	StatusCancelled Status = "c"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type ReceiveMethod string

const (
	ReceiveDelivery ReceiveMethod = "d"
	ReceivePickup   ReceiveMethod = "p"
)

func (r ReceiveMethod) Valid() bool {
	return r == ReceiveDelivery || r == ReceivePickup
}

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentOnlinePayme PaymentMethod = "op"
	PaymentOnlineClick PaymentMethod = "oc"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentOnlinePayme, PaymentOnlineClick:
		return true
	}
	return false
}

type Location struct {
	ID          int64
	Country     *string
	Region      *string
	District    *string
	Street      *string
	House       *string
	PostalCode  *string
	FullAddress *string
	Latitude    float64
	Longitude   float64
	CreatedAt   time.Time
}

// LocationPatch carries only the location fields a client sent; nil fields
// keep their stored value.
type LocationPatch struct {
	Country     *string
	Region      *string
	District    *string
	Street      *string
	House       *string
	PostalCode  *string
	FullAddress *string
	Latitude    *float64
	Longitude   *float64
}

func (p *LocationPatch) apply(loc *Location) {
	setIfSent := func(dst **string, v *string) {
		if v != nil {
			*dst = v
		}
	}
	setIfSent(&loc.Country, p.Country)
	setIfSent(&loc.Region, p.Region)
	setIfSent(&loc.District, p.District)
	setIfSent(&loc.Street, p.Street)
	setIfSent(&loc.House, p.House)
	setIfSent(&loc.PostalCode, p.PostalCode)
	setIfSent(&loc.FullAddress, p.FullAddress)
	if p.Latitude != nil {
		loc.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		loc.Longitude = *p.Longitude
	}
}

type ItemColor struct {
	ID    int64
	Name  *string
	Names catalog.Translations
}

// ItemFeature is a persisted feature selection. FeatureID is nil when the
// catalog variant was deleted after the order was placed.
type ItemFeature struct {
	ID        int64
	FeatureID *int64
	TypeName  string
	TypeNames catalog.Translations
	Value     string
}

type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	ColorID   *int64
	Quantity  int
	Price     decimal.Decimal
	Color     *ItemColor
	Features  []ItemFeature
	Product   catalog.ProductSummary
}

type Order struct {
	ID                    int64
	UserID                uuid.UUID
	Status                Status
	LocationID            *int64
	Location              *Location
	Name                  *string
	PhoneNumber           *string
	AdditionalPhoneNumber *string
	Receive               ReceiveMethod
	Payment               PaymentMethod
	Price                 decimal.Decimal
	CreatedAt             time.Time
	Items                 []Item
}

type ItemInput struct {
	ProductID  int64
	Quantity   int
	ColorID    *int64
	FeatureIDs []int64
}

type Contact struct {
	Name                  *string
	PhoneNumber           *string
	AdditionalPhoneNumber *string
}

type CreateOrderInput struct {
	Location Location
	Contact  Contact
	Receive  ReceiveMethod
	Payment  PaymentMethod
	Items    []ItemInput
}

// UpdateOrderInput is a partial update. Nil fields are left untouched; a non-nil
// Items (even empty) replaces every item of the order.
type UpdateOrderInput struct {
	Status                *Status
	Location              *LocationPatch
	Name                  *string
	PhoneNumber           *string
	AdditionalPhoneNumber *string
	Receive               *ReceiveMethod
	Payment               *PaymentMethod
	Items                 *[]ItemInput
}

type HistoryItem struct {
	ID        int64
	ProductID int64
	Price     decimal.Decimal
	Product   catalog.ProductSummary
}

type HistoryEntry struct {
	ID        int64
	Status    Status
	Price     decimal.Decimal
	CreatedAt time.Time
	Items     []HistoryItem
}

func productIDs(orders []*Order) []int64 {
	var ids []int64
	for _, o := range orders {
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}
