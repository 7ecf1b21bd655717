package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-connect/backend/internal/domain"
	"github.com/felicity-connect/backend/internal/repository"
)

type fakeOrderRepo struct {
	orders     map[uint]domain.MerchandiseOrder
	open       *domain.MerchandiseOrder
	counted    int
	approveErr error

	nextID       uint
	nextTicketID uint
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[uint]domain.MerchandiseOrder),
		nextID: 1,
	}
}

func (f *fakeOrderRepo) Create(_ context.Context, order domain.MerchandiseOrder) (domain.MerchandiseOrder, error) {
	order.ID = f.nextID
	f.nextID++
	f.orders[order.ID] = order

	return order, nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uint) (domain.MerchandiseOrder, error) {
	order, ok := f.orders[id]
	if !ok {
		return domain.MerchandiseOrder{}, repository.ErrOrderNotFound
	}

	return order, nil
}

func (f *fakeOrderRepo) Update(_ context.Context, order domain.MerchandiseOrder) (domain.MerchandiseOrder, error) {
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeOrderRepo) FindOpen(_ context.Context, _, _ uint) (domain.MerchandiseOrder, error) {
	if f.open != nil {
		return *f.open, nil
	}

	return domain.MerchandiseOrder{}, repository.ErrOrderNotFound
}

func (f *fakeOrderRepo) CountedQuantity(_ context.Context, _, _ uint, _ string) (int, error) {
	return f.counted, nil
}

func (f *fakeOrderRepo) ListByEvent(_ context.Context, _ uint, status domain.OrderStatus) ([]domain.MerchandiseOrder, error) {
	var out []domain.MerchandiseOrder
	for _, order := range f.orders {
		if status == "" || order.Status == status {
			out = append(out, order)
		}
	}

	return out, nil
}

func (f *fakeOrderRepo) ListByParticipant(_ context.Context, participantID uint) ([]domain.MerchandiseOrder, error) {
	var out []domain.MerchandiseOrder
	for _, order := range f.orders {
		if order.ParticipantID == participantID {
			out = append(out, order)
		}
	}

	return out, nil
}

func (f *fakeOrderRepo) Approve(_ context.Context, order domain.MerchandiseOrder, ticket domain.Ticket) (domain.MerchandiseOrder, domain.Ticket, error) {
	if f.approveErr != nil {
		return domain.MerchandiseOrder{}, domain.Ticket{}, f.approveErr
	}

	f.nextTicketID++
	ticket.ID = f.nextTicketID
	order.TicketID = &ticket.ID
	f.orders[order.ID] = order

	return order, ticket, nil
}

func merchEvent(id uint) domain.Event {
	now := time.Now()

	return domain.Event{
		ID:                   id,
		OrganizerID:          100,
		Name:                 "Fest Tee",
		Type:                 domain.EventMerchandise,
		Status:               domain.StatusPublished,
		RegistrationDeadline: now.Add(24 * time.Hour),
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationLimit:    100,
		Merchandise: []domain.MerchandiseItem{
			{SKU: "tee-black-m", Name: "Black Tee M", Price: 499, Stock: 10, PurchaseLimit: 2},
		},
	}
}

func newOrderService(repo *fakeOrderRepo, eventRepo *fakeEventRepo) (*OrderService, *fakeMailer, *fakeFileStore) {
	mail := &fakeMailer{}
	files := &fakeFileStore{}
	users := &fakeUserRepo{users: map[uint]domain.User{
		1: {ID: 1, Email: "asha@example.com", FirstName: "Asha"},
	}}

	return NewOrderService(repo, eventRepo, users, mail, files), mail, files
}

func TestOrderService_Purchase(t *testing.T) {
	input := PurchaseInput{EventID: 1, ParticipantID: 1, ItemSKU: "tee-black-m", Quantity: 2}

	t.Run("creates the order with the computed amount", func(t *testing.T) {
		svc, _, _ := newOrderService(newFakeOrderRepo(), newFakeEventRepo(merchEvent(1)))

		order, err := svc.Purchase(context.Background(), input)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderCreated, order.Status)
		assert.Equal(t, 998, order.Amount)
	})

	t.Run("normal events do not sell merchandise", func(t *testing.T) {
		event := merchEvent(1)
		event.Type = domain.EventNormal
		svc, _, _ := newOrderService(newFakeOrderRepo(), newFakeEventRepo(event))

		_, err := svc.Purchase(context.Background(), input)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindStateViolation, kind)
	})

	t.Run("unknown sku", func(t *testing.T) {
		svc, _, _ := newOrderService(newFakeOrderRepo(), newFakeEventRepo(merchEvent(1)))

		bad := input
		bad.ItemSKU = "hoodie-xl"

		_, err := svc.Purchase(context.Background(), bad)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	t.Run("an open order blocks a second one", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.open = &domain.MerchandiseOrder{ID: 9, Status: domain.OrderPendingApproval}
		svc, _, _ := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		_, err := svc.Purchase(context.Background(), input)
		assert.ErrorIs(t, err, domain.ErrOpenOrderExists)
	})

	t.Run("per-participant cap counts earlier orders", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.counted = 1
		svc, _, _ := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		_, err := svc.Purchase(context.Background(), input)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindConflict, kind)
		assert.Contains(t, err.Error(), "purchase limit")
	})

	t.Run("stock precheck", func(t *testing.T) {
		event := merchEvent(1)
		event.Merchandise[0].Stock = 1
		svc, _, _ := newOrderService(newFakeOrderRepo(), newFakeEventRepo(event))

		_, err := svc.Purchase(context.Background(), input)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindConflict, kind)
		assert.Contains(t, err.Error(), "left in stock")
	})

	t.Run("zero quantity", func(t *testing.T) {
		svc, _, _ := newOrderService(newFakeOrderRepo(), newFakeEventRepo(merchEvent(1)))

		bad := input
		bad.Quantity = 0

		_, err := svc.Purchase(context.Background(), bad)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindValidationFailed, kind)
	})
}

func TestOrderService_UploadProof(t *testing.T) {
	proof := domain.FileMeta{OriginalName: "upi.png", Path: "proofs/new.png", MimeType: "image/png", Size: 2048}

	t.Run("moves the order to pending approval", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = domain.MerchandiseOrder{ID: 1, ParticipantID: 1, Status: domain.OrderCreated}
		svc, _, files := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		order, err := svc.UploadProof(context.Background(), 1, 1, proof)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderPendingApproval, order.Status)
		assert.Equal(t, "proofs/new.png", order.PaymentProofPath)
		assert.Empty(t, files.deleted)
	})

	t.Run("re-upload after rejection replaces the proof and clears the verdict", func(t *testing.T) {
		reviewer := uint(100)
		when := time.Now()
		repo := newFakeOrderRepo()
		repo.orders[1] = domain.MerchandiseOrder{
			ID:               1,
			ParticipantID:    1,
			Status:           domain.OrderRejected,
			PaymentProofPath: "proofs/old.png",
			ReviewComment:    "unreadable screenshot",
			ReviewedBy:       &reviewer,
			ReviewedAt:       &when,
		}
		svc, _, files := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		order, err := svc.UploadProof(context.Background(), 1, 1, proof)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderPendingApproval, order.Status)
		assert.Empty(t, order.ReviewComment)
		assert.Nil(t, order.ReviewedBy)
		assert.Equal(t, []string{"proofs/old.png"}, files.deleted)
	})

	t.Run("approved orders refuse new proofs and the upload is discarded", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = domain.MerchandiseOrder{ID: 1, ParticipantID: 1, Status: domain.OrderApproved}
		svc, _, files := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		_, err := svc.UploadProof(context.Background(), 1, 1, proof)

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindStateViolation, kind)
		assert.Equal(t, []string{"proofs/new.png"}, files.deleted)
	})

	t.Run("someone else's order reads as not found", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = domain.MerchandiseOrder{ID: 1, ParticipantID: 2, Status: domain.OrderCreated}
		svc, _, _ := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		_, err := svc.UploadProof(context.Background(), 1, 1, proof)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestOrderService_Review(t *testing.T) {
	pending := domain.MerchandiseOrder{
		ID:            1,
		EventID:       1,
		ParticipantID: 1,
		ItemSKU:       "tee-black-m",
		Quantity:      1,
		Status:        domain.OrderPendingApproval,
	}

	t.Run("approval issues a ticket", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = pending
		svc, _, _ := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		order, err := svc.Review(context.Background(), ReviewInput{
			OrderID:    1,
			ReviewerID: 100,
			Action:     domain.ReviewApprove,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.OrderApproved, order.Status)
		require.NotNil(t, order.TicketID)
		require.NotNil(t, order.ReviewedBy)
		assert.Equal(t, uint(100), *order.ReviewedBy)
	})

	t.Run("stock conflict keeps the order pending", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = pending
		repo.approveErr = repository.ErrStockConflict
		svc, _, _ := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		_, err := svc.Review(context.Background(), ReviewInput{
			OrderID:    1,
			ReviewerID: 100,
			Action:     domain.ReviewApprove,
		})
		assert.ErrorIs(t, err, domain.ErrStockExhausted)
		assert.Equal(t, domain.OrderPendingApproval, repo.orders[1].Status)
	})

	t.Run("rejection records the comment", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = pending
		svc, _, _ := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		order, err := svc.Review(context.Background(), ReviewInput{
			OrderID:    1,
			ReviewerID: 100,
			Action:     domain.ReviewReject,
			Comment:    "amount does not match",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.OrderRejected, order.Status)
		assert.Equal(t, "amount does not match", order.ReviewComment)
	})

	t.Run("another organizer cannot review", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.orders[1] = pending
		svc, _, _ := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		_, err := svc.Review(context.Background(), ReviewInput{
			OrderID:    1,
			ReviewerID: 999,
			Action:     domain.ReviewApprove,
		})

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindForbidden, kind)
	})

	t.Run("only pending orders can be reviewed", func(t *testing.T) {
		repo := newFakeOrderRepo()
		created := pending
		created.Status = domain.OrderCreated
		repo.orders[1] = created
		svc, _, _ := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

		_, err := svc.Review(context.Background(), ReviewInput{
			OrderID:    1,
			ReviewerID: 100,
			Action:     domain.ReviewApprove,
		})

		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindStateViolation, kind)
	})
}

func TestOrderService_Cancel(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.orders[1] = domain.MerchandiseOrder{ID: 1, ParticipantID: 1, Status: domain.OrderPendingApproval}
	repo.orders[2] = domain.MerchandiseOrder{ID: 2, ParticipantID: 1, Status: domain.OrderApproved}
	svc, _, _ := newOrderService(repo, newFakeEventRepo(merchEvent(1)))

	order, err := svc.Cancel(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, order.Status)

	_, err = svc.Cancel(context.Background(), 2, 1)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindStateViolation, kind)
}
