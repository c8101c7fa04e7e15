package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/giftloop/internal/constants"
	"github.com/giftloop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GiftOrderRepository 礼品购买单数据访问接口
type GiftOrderRepository interface {
	Create(order *models.GiftOrder, items []models.GiftOrderItem) error
	GetByID(id uint) (*models.GiftOrder, error)
	GetByIDForUpdate(id uint) (*models.GiftOrder, error)
	GetByIDAndUser(id uint, userID uint) (*models.GiftOrder, error)
	GetByOrderNo(orderNo string) (*models.GiftOrder, error)
	ListByUser(filter GiftOrderListFilter) ([]models.GiftOrder, int64, error)
	ListExpiredPending(now time.Time, limit int) ([]models.GiftOrder, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	UpdateStatusIf(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) *GormGiftOrderRepository
}

// GormGiftOrderRepository GORM 实现
type GormGiftOrderRepository struct {
	db *gorm.DB
}

// NewGiftOrderRepository 创建礼品购买单仓库
func NewGiftOrderRepository(db *gorm.DB) *GormGiftOrderRepository {
	return &GormGiftOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGiftOrderRepository) WithTx(tx *gorm.DB) *GormGiftOrderRepository {
	if tx == nil {
		return r
	}
	return &GormGiftOrderRepository{db: tx}
}

// Create 创建购买单与购买单项
func (r *GormGiftOrderRepository) Create(order *models.GiftOrder, items []models.GiftOrderItem) error {
	if order == nil {
		return errors.New("invalid gift order")
	}
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].GiftOrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取购买单
func (r *GormGiftOrderRepository) GetByID(id uint) (*models.GiftOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.GiftOrder
	if err := r.db.Preload("Items").Preload("Gifts").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 根据 ID 加锁获取购买单
func (r *GormGiftOrderRepository) GetByIDForUpdate(id uint) (*models.GiftOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.GiftOrder
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户购买单详情
func (r *GormGiftOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.GiftOrder, error) {
	var order models.GiftOrder
	if err := r.db.Preload("Items").Preload("Gifts").
		Where("id = ? AND buyer_user_id = ?", id, userID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 按编号获取购买单
func (r *GormGiftOrderRepository) GetByOrderNo(orderNo string) (*models.GiftOrder, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.GiftOrder
	if err := r.db.Preload("Items").Preload("Gifts").
		Where("order_no = ?", orderNo).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser 获取用户购买单列表
func (r *GormGiftOrderRepository) ListByUser(filter GiftOrderListFilter) ([]models.GiftOrder, int64, error) {
	query := r.db.Model(&models.GiftOrder{}).Where("buyer_user_id = ?", filter.UserID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+filter.OrderNo+"%")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		condition, argCount := buildLocalizedLikeCondition(r.db, nil, []string{"gift_order_items.name_json"})
		query = query.Where(
			"order_no LIKE ? OR EXISTS (SELECT 1 FROM gift_order_items WHERE gift_order_items.gift_order_id = gift_orders.id AND ("+condition+"))",
			append([]interface{}{like}, repeatLikeArgs(like, argCount)...)...,
		)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.GiftOrder
	if err := query.Preload("Items").Preload("Gifts").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListExpiredPending 查询已过支付期限的待支付购买单
func (r *GormGiftOrderRepository) ListExpiredPending(now time.Time, limit int) ([]models.GiftOrder, error) {
	if now.IsZero() {
		now = time.Now()
	}
	query := r.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", constants.GiftOrderStatusPendingPayment, now).
		Order("expires_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.GiftOrder
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus 更新购买单状态
func (r *GormGiftOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.GiftOrder{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateStatusIf 条件更新购买单状态
func (r *GormGiftOrderRepository) UpdateStatusIf(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error) {
	if id == 0 || len(fromStatuses) == 0 {
		return 0, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = strings.TrimSpace(toStatus)
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	result := r.db.Model(&models.GiftOrder{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	return result.RowsAffected, result.Error
}
