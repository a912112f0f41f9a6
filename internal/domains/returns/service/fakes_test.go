package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	ordermodel "bbm-backend/internal/domains/order/model"
	"bbm-backend/internal/domains/returns/model"
)

// =====================================================
// IN-MEMORY TEST DOUBLES
// =====================================================

type fakeOrderRepo struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*ordermodel.Order
	items   map[uuid.UUID][]ordermodel.OrderItem
	records map[uuid.UUID][]ordermodel.ItemReturnRecord
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  make(map[uuid.UUID]*ordermodel.Order),
		items:   make(map[uuid.UUID][]ordermodel.OrderItem),
		records: make(map[uuid.UUID][]ordermodel.ItemReturnRecord),
	}
}

func (f *fakeOrderRepo) GetOrderByID(_ context.Context, orderID uuid.UUID) (*ordermodel.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return nil, ordermodel.ErrOrderNotFound
	}
	snapshot := *order
	return &snapshot, nil
}

func (f *fakeOrderRepo) GetOrderItems(_ context.Context, orderID uuid.UUID) ([]ordermodel.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.items[orderID]
	out := make([]ordermodel.OrderItem, len(items))
	copy(out, items)
	return out, nil
}

func (f *fakeOrderRepo) GetItemReturnRecords(_ context.Context, orderID uuid.UUID) ([]ordermodel.ItemReturnRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := f.records[orderID]
	out := make([]ordermodel.ItemReturnRecord, len(records))
	copy(out, records)
	return out, nil
}

// fakeReturnRepo mimics the transactional semantics of the real store:
// SubmitReturn re-validates quantities under a lock and mutates the
// order items together with the request insert.
type fakeReturnRepo struct {
	mu       sync.Mutex
	orders   *fakeOrderRepo
	requests map[uuid.UUID]*model.ReturnRequest
	history  map[uuid.UUID][]model.ReturnStatusHistory
}

func newFakeReturnRepo(orders *fakeOrderRepo) *fakeReturnRepo {
	return &fakeReturnRepo{
		orders:   orders,
		requests: make(map[uuid.UUID]*model.ReturnRequest),
		history:  make(map[uuid.UUID][]model.ReturnStatusHistory),
	}
}

func (f *fakeReturnRepo) SubmitReturn(_ context.Context, ret *model.ReturnRequest, orderVersion int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders.mu.Lock()
	defer f.orders.mu.Unlock()

	items := f.orders.items[ret.OrderID]
	for _, line := range ret.Items {
		found := false
		for i := range items {
			if items[i].ID != line.ItemID {
				continue
			}
			found = true
			if line.Quantity > items[i].Quantity-items[i].QuantityReturned {
				return fmt.Errorf("%w: item %q", model.ErrQuantityExceeded, line.ProductName)
			}
		}
		if !found {
			return fmt.Errorf("%w: unknown item", model.ErrValidation)
		}
	}

	order, ok := f.orders.orders[ret.OrderID]
	if !ok {
		return ordermodel.ErrOrderNotFound
	}
	if order.Version != orderVersion {
		return fmt.Errorf("%w: order changed while the return was being submitted",
			ordermodel.ErrVersionMismatch)
	}

	for _, line := range ret.Items {
		for i := range items {
			if items[i].ID == line.ItemID {
				items[i].QuantityReturned += line.Quantity
			}
		}
	}

	order.HasReturnRequests = true
	order.Version++

	ret.SubmittedAt = time.Now()
	ret.UpdatedAt = ret.SubmittedAt
	for _, line := range ret.Items {
		f.orders.records[ret.OrderID] = append(f.orders.records[ret.OrderID], ordermodel.ItemReturnRecord{
			ID:           uuid.New(),
			OrderItemID:  line.ItemID,
			ReturnNumber: ret.ReturnNumber,
			Quantity:     line.Quantity,
			Status:       ret.Status,
			SubmittedAt:  ret.SubmittedAt,
		})
	}
	f.requests[ret.ID] = ret
	f.appendHistory(ret.ID, nil, ret.Status, &ret.UserID, nil)
	return nil
}

func (f *fakeReturnRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ret, ok := f.requests[id]
	if !ok {
		return nil, model.ErrReturnRequestNotFound
	}
	return ret, nil
}

func (f *fakeReturnRepo) GetByNumber(_ context.Context, returnNumber string) (*model.ReturnRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ret := range f.requests {
		if ret.ReturnNumber == returnNumber {
			return ret, nil
		}
	}
	return nil, model.ErrReturnRequestNotFound
}

func (f *fakeReturnRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.ReturnRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.ReturnRequest
	for _, ret := range f.requests {
		if ret.UserID == userID {
			out = append(out, ret)
		}
	}
	return out, nil
}

func (f *fakeReturnRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]*model.ReturnRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.ReturnRequest
	for _, ret := range f.requests {
		if ret.OrderID == orderID {
			out = append(out, ret)
		}
	}
	return out, nil
}

func (f *fakeReturnRepo) ListAll(_ context.Context, status string, _, _ int) ([]*model.ReturnRequest, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.ReturnRequest
	for _, ret := range f.requests {
		if status == "" || ret.Status == status {
			out = append(out, ret)
		}
	}
	return out, len(out), nil
}

func (f *fakeReturnRepo) Cancel(_ context.Context, id uuid.UUID, cancelledBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders.mu.Lock()
	defer f.orders.mu.Unlock()

	ret, ok := f.requests[id]
	if !ok {
		return model.ErrReturnRequestNotFound
	}
	if ret.Status != model.StatusPending {
		return fmt.Errorf("%w: current status is %s", model.ErrInvalidTransition, ret.Status)
	}

	from := ret.Status
	now := time.Now()
	ret.Status = model.StatusCancelled
	ret.CancelledAt = &now
	ret.CancelledBy = &cancelledBy
	f.reverseBookkeeping(ret)
	f.syncRecordStatus(ret)
	f.appendHistory(id, &from, ret.Status, nil, nil)
	return nil
}

func (f *fakeReturnRepo) UpdateStatus(_ context.Context, id uuid.UUID, toStatus string, adminID *uuid.UUID, notes *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders.mu.Lock()
	defer f.orders.mu.Unlock()

	ret, ok := f.requests[id]
	if !ok {
		return model.ErrReturnRequestNotFound
	}
	if !model.CanTransition(ret.Status, toStatus) {
		return fmt.Errorf("%w: cannot move from %s to %s", model.ErrInvalidTransition, ret.Status, toStatus)
	}

	from := ret.Status
	ret.Status = toStatus
	if notes != nil {
		ret.AdminNotes = notes
	}
	if model.ReversesBookkeeping(toStatus) {
		f.reverseBookkeeping(ret)
	}
	f.syncRecordStatus(ret)
	f.appendHistory(id, &from, toStatus, adminID, notes)
	return nil
}

func (f *fakeReturnRepo) GetStatusHistory(_ context.Context, returnRequestID uuid.UUID) ([]model.ReturnStatusHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history[returnRequestID], nil
}

func (f *fakeReturnRepo) reverseBookkeeping(ret *model.ReturnRequest) {
	items := f.orders.items[ret.OrderID]
	for _, line := range ret.Items {
		for i := range items {
			if items[i].ID == line.ItemID {
				items[i].QuantityReturned -= line.Quantity
				if items[i].QuantityReturned < 0 {
					items[i].QuantityReturned = 0
				}
			}
		}
	}
}

// syncRecordStatus mirrors the request status onto the per-item audit
// records, the way the real store keeps order_item_returns in step with
// return_requests. Callers hold both mutexes.
func (f *fakeReturnRepo) syncRecordStatus(ret *model.ReturnRequest) {
	records := f.orders.records[ret.OrderID]
	for i := range records {
		if records[i].ReturnNumber == ret.ReturnNumber {
			records[i].Status = ret.Status
		}
	}
}

func (f *fakeReturnRepo) appendHistory(id uuid.UUID, from *string, to string, changedBy *uuid.UUID, notes *string) {
	f.history[id] = append(f.history[id], model.ReturnStatusHistory{
		ID:              uuid.New(),
		ReturnRequestID: id,
		FromStatus:      from,
		ToStatus:        to,
		ChangedBy:       changedBy,
		Notes:           notes,
		ChangedAt:       time.Now(),
	})
}

// noopCache is a cache that never hits.
type noopCache struct{}

func (noopCache) Get(_ context.Context, _ string, _ interface{}) (bool, error) { return false, nil }
func (noopCache) Set(_ context.Context, _ string, _ interface{}, _ time.Duration) error {
	return nil
}
func (noopCache) Delete(_ context.Context, _ ...string) error { return nil }
func (noopCache) Ping(_ context.Context) error                { return nil }

// =====================================================
// FIXTURES
// =====================================================

type fixture struct {
	orderRepo  *fakeOrderRepo
	returnRepo *fakeReturnRepo
	service    ReturnService
	userID     uuid.UUID
}

func newFixture() *fixture {
	orderRepo := newFakeOrderRepo()
	returnRepo := newFakeReturnRepo(orderRepo)
	return &fixture{
		orderRepo:  orderRepo,
		returnRepo: returnRepo,
		service:    NewReturnService(orderRepo, returnRepo, NewRefundCalculator(), noopCache{}),
		userID:     uuid.New(),
	}
}

// addDeliveredOrder seeds a delivered order with one returnable item.
// Tax rate is pinned to zero so refund amounts equal list prices.
func (fx *fixture) addDeliveredOrder(deliveredDaysAgo int, itemQty int, price string) (*ordermodel.Order, ordermodel.OrderItem) {
	deliveredAt := time.Now().Add(-time.Duration(deliveredDaysAgo) * 24 * time.Hour)
	zero := dec("0")

	order := &ordermodel.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-20250601-001",
		UserID:      fx.userID,
		Status:      ordermodel.OrderStatusDelivered,
		DeliveredAt: &deliveredAt,
		TaxRate:     &zero,
		Version:     1,
	}
	item := ordermodel.OrderItem{
		ID:               uuid.New(),
		OrderID:          order.ID,
		ProductName:      "Linen Shirt",
		Price:            dec(price),
		Quantity:         itemQty,
		IsReturnable:     true,
		ReturnWindowDays: 7,
	}

	fx.orderRepo.orders[order.ID] = order
	fx.orderRepo.items[order.ID] = []ordermodel.OrderItem{item}
	return order, item
}
