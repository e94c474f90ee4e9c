package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/access"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/money"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/phone"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/user"
)

const (
	phoneFormatMessage = "Your phone number is in the wrong format"
	requiredMessage    = "This field is required."
)

type Service interface {
	CreateOrder(ctx context.Context, actor access.Actor, in CreateOrderInput) (*Order, error)
	UpdateOrder(ctx context.Context, actor access.Actor, id int64, in UpdateOrderInput) (*Order, error)
	DeleteOrder(ctx context.Context, actor access.Actor, id int64) error
	GetOrder(ctx context.Context, actor access.Actor, id int64) (*Order, error)
	ListOrders(ctx context.Context, actor access.Actor) ([]Order, error)
	OrderHistory(ctx context.Context, actor access.Actor) ([]HistoryEntry, error)
	CancelOrder(ctx context.Context, actor access.Actor, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, actor access.Actor, id int64, status Status) (*Order, error)
}

type service struct {
	store     Store
	history   HistoryReader
	summaries catalog.SummaryReader
	users     user.Repository
	authz     access.Authorizer
}

func NewService(store Store, history HistoryReader, summaries catalog.SummaryReader, users user.Repository, authz access.Authorizer) Service {
	return &service{
		store:     store,
		history:   history,
		summaries: summaries,
		users:     users,
		authz:     authz,
	}
}

func (s *service) CreateOrder(ctx context.Context, actor access.Actor, in CreateOrderInput) (*Order, error) {
	if err := s.authz.Authorize(actor, access.ActionCreate, access.OwnedBy(actor.UserID)); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if !in.Receive.Valid() {
		verr.add("receive", invalidChoice(string(in.Receive)))
	}
	if !in.Payment.Valid() {
		verr.add("payment", invalidChoice(string(in.Payment)))
	}
	validateLocation(verr, &in.Location)
	validateContact(verr, in.Contact.PhoneNumber, in.Contact.AdditionalPhoneNumber)
	validateItems(verr, in.Items)
	if err := verr.orNil(); err != nil {
		log.Warn().Err(err).Stringer("user_id", actor.UserID).Msg("service: rejected order creation")
		return nil, err
	}

	if in.Contact.PhoneNumber == nil || *in.Contact.PhoneNumber == "" {
		in.Contact.PhoneNumber = s.ownerPhone(ctx, actor.UserID)
	}

	var created *Order
	err := s.store.RunInTx(ctx, func(uow UnitOfWork) error {
		repo := uow.Orders()

		loc := in.Location
		if err := repo.CreateLocation(ctx, &loc); err != nil {
			return err
		}

		o := &Order{
			UserID:                actor.UserID,
			Status:                StatusPending,
			LocationID:            &loc.ID,
			Name:                  in.Contact.Name,
			PhoneNumber:           in.Contact.PhoneNumber,
			AdditionalPhoneNumber: in.Contact.AdditionalPhoneNumber,
			Receive:               in.Receive,
			Payment:               in.Payment,
			Price:                 money.Zero,
		}
		if err := repo.CreateOrder(ctx, o); err != nil {
			return err
		}

		if err := s.buildItems(ctx, uow, o.ID, in.Items); err != nil {
			return err
		}
		if err := s.saveTotal(ctx, repo, o); err != nil {
			return err
		}

		var err error
		created, err = repo.GetOrderByID(ctx, o.ID)
		return err
	})
	if err != nil {
		log.Error().Err(err).Stringer("user_id", actor.UserID).Msg("service: failed to create order")
		return nil, err
	}

	s.attachSummaries(ctx, created)

	log.Info().
		Int64("order_id", created.ID).
		Stringer("user_id", actor.UserID).
		Str("price", money.Format(created.Price)).
		Int("items", len(created.Items)).
		Msg("service: order created")
	return created, nil
}

func (s *service) UpdateOrder(ctx context.Context, actor access.Actor, id int64, in UpdateOrderInput) (*Order, error) {
	verr := &ValidationError{}
	if in.Status != nil && !in.Status.Valid() {
		verr.add("status", invalidChoice(string(*in.Status)))
	}
	if in.Receive != nil && !in.Receive.Valid() {
		verr.add("receive", invalidChoice(string(*in.Receive)))
	}
	if in.Payment != nil && !in.Payment.Valid() {
		verr.add("payment", invalidChoice(string(*in.Payment)))
	}
	if in.Location != nil {
		validateLocationPatch(verr, in.Location)
	}
	validateContact(verr, in.PhoneNumber, in.AdditionalPhoneNumber)
	if in.Items != nil {
		validateItems(verr, *in.Items)
	}
	if err := verr.orNil(); err != nil {
		log.Warn().Err(err).Int64("order_id", id).Msg("service: rejected order update")
		return nil, err
	}

	var updated *Order
	err := s.store.RunInTx(ctx, func(uow UnitOfWork) error {
		repo := uow.Orders()

		o, err := repo.GetOrderByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authz.Authorize(actor, access.ActionUpdate, access.OwnedBy(o.UserID)); err != nil {
			return err
		}

		if in.Status != nil && *in.Status != o.Status {
			if err := s.authz.Authorize(actor, access.ActionSetStatus, access.OwnedBy(o.UserID)); err != nil {
				return err
			}
			o.Status = *in.Status
		}
		if in.Name != nil {
			o.Name = in.Name
		}
		if in.PhoneNumber != nil {
			o.PhoneNumber = in.PhoneNumber
		}
		if in.AdditionalPhoneNumber != nil {
			o.AdditionalPhoneNumber = in.AdditionalPhoneNumber
		}
		if in.Receive != nil {
			o.Receive = *in.Receive
		}
		if in.Payment != nil {
			o.Payment = *in.Payment
		}

		if in.Location != nil {
			if err := s.patchLocation(ctx, repo, o, in.Location); err != nil {
				return err
			}
		}

		if in.Items != nil {
			if err := repo.DeleteItems(ctx, o.ID); err != nil {
				return err
			}
			if err := s.buildItems(ctx, uow, o.ID, *in.Items); err != nil {
				return err
			}
		}

		if err := s.saveTotal(ctx, repo, o); err != nil {
			return err
		}

		updated, err = repo.GetOrderByID(ctx, o.ID)
		return err
	})
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Stringer("user_id", actor.UserID).Msg("service: failed to update order")
		return nil, err
	}

	s.attachSummaries(ctx, updated)

	log.Info().
		Int64("order_id", id).
		Str("price", money.Format(updated.Price)).
		Bool("items_replaced", in.Items != nil).
		Msg("service: order updated")
	return updated, nil
}

func (s *service) DeleteOrder(ctx context.Context, actor access.Actor, id int64) error {
	err := s.store.RunInTx(ctx, func(uow UnitOfWork) error {
		o, err := uow.Orders().GetOrderByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authz.Authorize(actor, access.ActionDelete, access.OwnedBy(o.UserID)); err != nil {
			return err
		}
		return uow.Orders().DeleteOrder(ctx, id)
	})
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Stringer("user_id", actor.UserID).Msg("service: failed to delete order")
		return err
	}

	log.Info().Int64("order_id", id).Stringer("user_id", actor.UserID).Msg("service: order deleted")
	return nil
}

func (s *service) GetOrder(ctx context.Context, actor access.Actor, id int64) (*Order, error) {
	o, err := s.store.Orders().GetOrderByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			log.Error().Err(err).Int64("order_id", id).Msg("service: failed to get order")
		}
		return nil, err
	}
	if err := s.authz.Authorize(actor, access.ActionRead, access.OwnedBy(o.UserID)); err != nil {
		return nil, err
	}

	s.attachSummaries(ctx, o)
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, actor access.Actor) ([]Order, error) {
	if err := s.authz.Authorize(actor, access.ActionListAll, access.Resource{}); err != nil {
		return nil, err
	}

	orders, err := s.store.Orders().ListOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, err
	}

	ptrs := make([]*Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	s.attachSummaries(ctx, ptrs...)

	return orders, nil
}

func (s *service) OrderHistory(ctx context.Context, actor access.Actor) ([]HistoryEntry, error) {
	if err := s.authz.Authorize(actor, access.ActionHistory, access.OwnedBy(actor.UserID)); err != nil {
		return nil, err
	}

	entries, err := s.history.ListByUser(ctx, actor.UserID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", actor.UserID).Msg("service: failed to load order history")
		return nil, err
	}

	var ids []int64
	for _, e := range entries {
		for _, it := range e.Items {
			ids = append(ids, it.ProductID)
		}
	}
	summaries := s.loadSummaries(ctx, ids)
	for i := range entries {
		for j := range entries[i].Items {
			if sm, ok := summaries[entries[i].Items[j].ProductID]; ok {
				entries[i].Items[j].Product = sm
			}
		}
	}

	return entries, nil
}

// buildItems prices and persists items for orderID.
func (s *service) buildItems(ctx context.Context, uow UnitOfWork, orderID int64, items []ItemInput) error {
	repo := uow.Orders()
	cat := uow.Catalog()

	for i, in := range items {
		product, err := cat.GetProduct(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}

		price, err := PriceItem(ctx, cat, product, in.Quantity, in.ColorID, in.FeatureIDs)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				prefixed := &ValidationError{}
				prefixed.merge(fmt.Sprintf("items[%d].", i), verr)
				return prefixed
			}
			return err
		}

		item := &Item{
			OrderID:   orderID,
			ProductID: product.ID,
			ColorID:   in.ColorID,
			Quantity:  in.Quantity,
			Price:     price.Price,
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			return err
		}
		for _, featureID := range price.AppliedFeatureIDs {
			if err := repo.CreateItemFeature(ctx, item.ID, featureID); err != nil {
				return err
			}
		}
	}
	return nil
}

// saveTotal sets the order price to the sum of its persisted item prices.
func (s *service) saveTotal(ctx context.Context, repo Repository, o *Order) error {
	prices, err := repo.ListItemPrices(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Price = money.Quantize(money.Sum(prices...))
	return repo.UpdateOrder(ctx, o)
}

func (s *service) ownerPhone(ctx context.Context, userID uuid.UUID) *string {
	if s.users == nil {
		return nil
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("service: could not load owner phone number")
		return nil
	}
	return u.PhoneNumber
}

func (s *service) loadSummaries(ctx context.Context, ids []int64) map[int64]catalog.ProductSummary {
	if len(ids) == 0 || s.summaries == nil {
		return nil
	}
	summaries, err := s.summaries.GetSummaries(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Int("products", len(ids)).Msg("service: failed to load product summaries")
		return nil
	}
	return summaries
}

func (s *service) attachSummaries(ctx context.Context, orders ...*Order) {
	summaries := s.loadSummaries(ctx, productIDs(orders))
	for _, o := range orders {
		for i := range o.Items {
			if sm, ok := summaries[o.Items[i].ProductID]; ok {
				o.Items[i].Product = sm
			}
		}
	}
}

func invalidChoice(v string) string {
	return fmt.Sprintf("%q is not a valid choice.", v)
}

func validateLocation(verr *ValidationError, loc *Location) {
	if loc.Latitude < -90 || loc.Latitude > 90 {
		verr.add("location.latitude", "Ensure this value is between -90 and 90.")
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		verr.add("location.longitude", "Ensure this value is between -180 and 180.")
	}
}

// patchLocation updates the stored location in place with the sent fields. An
// order without a location gets a new one, which needs both coordinates.
func (s *service) patchLocation(ctx context.Context, repo Repository, o *Order, patch *LocationPatch) error {
	if o.LocationID != nil && o.Location != nil {
		loc := *o.Location
		patch.apply(&loc)
		if err := repo.UpdateLocation(ctx, &loc); err != nil {
			return err
		}
		o.Location = &loc
		return nil
	}

	verr := &ValidationError{}
	if patch.Latitude == nil {
		verr.add("location.latitude", requiredMessage)
	}
	if patch.Longitude == nil {
		verr.add("location.longitude", requiredMessage)
	}
	if err := verr.orNil(); err != nil {
		return err
	}

	loc := Location{}
	patch.apply(&loc)
	if err := repo.CreateLocation(ctx, &loc); err != nil {
		return err
	}
	o.LocationID = &loc.ID
	o.Location = &loc
	return nil
}

func validateLocationPatch(verr *ValidationError, patch *LocationPatch) {
	if patch.Latitude != nil && (*patch.Latitude < -90 || *patch.Latitude > 90) {
		verr.add("location.latitude", "Ensure this value is between -90 and 90.")
	}
	if patch.Longitude != nil && (*patch.Longitude < -180 || *patch.Longitude > 180) {
		verr.add("location.longitude", "Ensure this value is between -180 and 180.")
	}
}

// validateContact checks the phone numbers that were given. Empty strings clear a number.
func validateContact(verr *ValidationError, phoneNumber, additional *string) {
	if phoneNumber != nil && *phoneNumber != "" && phone.Validate(*phoneNumber) != nil {
		verr.add("phone_number", phoneFormatMessage)
	}
	if additional != nil && *additional != "" && phone.Validate(*additional) != nil {
		verr.add("additional_phone_number", phoneFormatMessage)
	}
}

func validateItems(verr *ValidationError, items []ItemInput) {
	for i, it := range items {
		if q := validateQuantity(it.Quantity); q != nil {
			verr.merge(fmt.Sprintf("items[%d].", i), q)
		}
	}
}
