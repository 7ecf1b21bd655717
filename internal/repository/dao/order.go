package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrOrderNotFound = errors.New("order not found")

type MerchandiseOrder struct {
	ID            uint   `gorm:"primaryKey"`
	EventID       uint   `gorm:"not null;index:idx_orders_event_status"`
	ParticipantID uint   `gorm:"not null;index"`
	ItemSKU       string `gorm:"not null"`
	Quantity      int    `gorm:"not null"`
	Amount        int    `gorm:"not null"`
	Status        string `gorm:"not null;default:CREATED;index:idx_orders_event_status"`

	PaymentProofPath string
	PaymentProofName string
	PaymentProofMime string

	ReviewComment string
	ReviewedBy    *uint
	ReviewedAt    *time.Time

	TicketID *uint

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderDAO struct {
	db *gorm.DB
}

func NewOrderDAO(db *gorm.DB) *OrderDAO {
	return &OrderDAO{
		db: db,
	}
}

func (d *OrderDAO) Insert(ctx context.Context, order MerchandiseOrder) (MerchandiseOrder, error) {
	result := d.db.WithContext(ctx).Create(&order)
	if result.Error != nil {
		return MerchandiseOrder{}, result.Error
	}

	return order, nil
}

func (d *OrderDAO) FindByID(ctx context.Context, id uint) (MerchandiseOrder, error) {
	var order MerchandiseOrder

	result := d.db.WithContext(ctx).First(&order, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return MerchandiseOrder{}, ErrOrderNotFound
		}

		return MerchandiseOrder{}, result.Error
	}

	return order, nil
}

func (d *OrderDAO) Update(ctx context.Context, order MerchandiseOrder) (MerchandiseOrder, error) {
	result := d.db.WithContext(ctx).Save(&order)
	if result.Error != nil {
		return MerchandiseOrder{}, result.Error
	}

	return order, nil
}

func (d *OrderDAO) FindOpenByEventAndParticipant(ctx context.Context, eventID, participantID uint) (MerchandiseOrder, error) {
	var order MerchandiseOrder

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND participant_id = ? AND status IN ?",
			eventID, participantID, []string{"CREATED", "PENDING_APPROVAL"}).
		Order("created_at desc").
		First(&order)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return MerchandiseOrder{}, ErrOrderNotFound
		}

		return MerchandiseOrder{}, result.Error
	}

	return order, nil
}

// SumCountedQuantity totals CREATED+PENDING_APPROVAL+APPROVED quantities for
// one (event, participant, item), the figure capped by purchaseLimit.
func (d *OrderDAO) SumCountedQuantity(ctx context.Context, eventID, participantID uint, itemSKU string) (int, error) {
	var total int64

	result := d.db.WithContext(ctx).
		Model(&MerchandiseOrder{}).
		Select("coalesce(sum(quantity), 0)").
		Where("event_id = ? AND participant_id = ? AND item_sku = ? AND status IN ?",
			eventID, participantID, itemSKU, []string{"CREATED", "PENDING_APPROVAL", "APPROVED"}).
		Scan(&total)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(total), nil
}

func (d *OrderDAO) SumApprovedQuantityByEvent(ctx context.Context, eventID uint) (int, error) {
	var total int64

	result := d.db.WithContext(ctx).
		Model(&MerchandiseOrder{}).
		Select("coalesce(sum(quantity), 0)").
		Where("event_id = ? AND status = ?", eventID, "APPROVED").
		Scan(&total)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(total), nil
}

func (d *OrderDAO) ListByEvent(ctx context.Context, eventID uint, status string) ([]MerchandiseOrder, error) {
	query := d.db.WithContext(ctx).Where("event_id = ?", eventID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []MerchandiseOrder
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

func (d *OrderDAO) ListByParticipant(ctx context.Context, participantID uint) ([]MerchandiseOrder, error) {
	var orders []MerchandiseOrder

	result := d.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at desc").
		Find(&orders)
	if result.Error != nil {
		return nil, result.Error
	}

	return orders, nil
}

// Approve finalizes an approval as one atomic step: lock the event row,
// conditionally decrement item stock, persist the ticket, then save the
// order. A conditional update touching zero rows means a concurrent
// approval consumed the stock first.
func (d *OrderDAO) Approve(ctx context.Context, order MerchandiseOrder, ticket Ticket) (MerchandiseOrder, Ticket, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEventRow(tx, order.EventID); err != nil {
			return err
		}

		result := tx.Model(&MerchandiseItem{}).
			Where("event_id = ? AND sku = ? AND stock >= ?", order.EventID, order.ItemSKU, order.Quantity).
			Update("stock", gorm.Expr("stock - ?", order.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var item MerchandiseItem
			findErr := tx.Where("event_id = ? AND sku = ?", order.EventID, order.ItemSKU).First(&item).Error
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return ErrStockConflict
		}

		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}

		order.TicketID = &ticket.ID
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return MerchandiseOrder{}, Ticket{}, err
	}

	return order, ticket, nil
}
