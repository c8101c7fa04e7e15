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

// GiftRepository 礼品数据访问接口
type GiftRepository interface {
	Create(gift *models.Gift) error
	GetByID(id uint) (*models.Gift, error)
	GetByIDForUpdate(id uint) (*models.Gift, error)
	GetByCode(code string) (*models.Gift, error)
	GetByCodeForUpdate(code string) (*models.Gift, error)
	ListBySender(filter GiftListFilter) ([]models.Gift, int64, error)
	ListByReceiver(filter GiftListFilter) ([]models.Gift, int64, error)
	ListByGiftOrder(giftOrderID uint) ([]models.Gift, error)
	ListDueScheduled(now time.Time, limit int) ([]models.Gift, error)
	ListExpireCandidates(now time.Time, limit int) ([]models.Gift, error)
	Update(gift *models.Gift) error
	UpdateStatusIf(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) *GormGiftRepository
}

// GormGiftRepository GORM 礼品仓储实现
type GormGiftRepository struct {
	db *gorm.DB
}

// NewGiftRepository 创建礼品仓库
func NewGiftRepository(db *gorm.DB) *GormGiftRepository {
	return &GormGiftRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGiftRepository) WithTx(tx *gorm.DB) *GormGiftRepository {
	if tx == nil {
		return r
	}
	return &GormGiftRepository{db: tx}
}

// Create 创建礼品
func (r *GormGiftRepository) Create(gift *models.Gift) error {
	if gift == nil {
		return errors.New("invalid gift")
	}
	return r.db.Create(gift).Error
}

// GetByID 根据 ID 查询礼品
func (r *GormGiftRepository) GetByID(id uint) (*models.Gift, error) {
	if id == 0 {
		return nil, nil
	}
	var gift models.Gift
	if err := r.db.First(&gift, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gift, nil
}

// GetByIDForUpdate 根据 ID 加锁查询礼品
func (r *GormGiftRepository) GetByIDForUpdate(id uint) (*models.Gift, error) {
	if id == 0 {
		return nil, nil
	}
	var gift models.Gift
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&gift, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gift, nil
}

// GetByCode 根据兑换码查询礼品
func (r *GormGiftRepository) GetByCode(code string) (*models.Gift, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, nil
	}
	var gift models.Gift
	if err := r.db.Where("redemption_code = ?", code).First(&gift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gift, nil
}

// GetByCodeForUpdate 根据兑换码加锁查询礼品
func (r *GormGiftRepository) GetByCodeForUpdate(code string) (*models.Gift, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, nil
	}
	var gift models.Gift
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("redemption_code = ?", code).
		First(&gift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gift, nil
}

func applyGiftListFilter(query *gorm.DB, filter GiftListFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DeliveryMode != "" {
		query = query.Where("delivery_mode = ?", filter.DeliveryMode)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return query
}

// ListBySender 查询用户送出的礼品列表
func (r *GormGiftRepository) ListBySender(filter GiftListFilter) ([]models.Gift, int64, error) {
	query := r.db.Model(&models.Gift{}).Where("sender_user_id = ?", filter.SenderUserID)
	query = applyGiftListFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var gifts []models.Gift
	if err := query.Order("id desc").Find(&gifts).Error; err != nil {
		return nil, 0, err
	}
	return gifts, total, nil
}

// ListByReceiver 查询用户收到的礼品列表（按兑换绑定或邮箱匹配）
func (r *GormGiftRepository) ListByReceiver(filter GiftListFilter) ([]models.Gift, int64, error) {
	query := r.db.Model(&models.Gift{})
	email := strings.ToLower(strings.TrimSpace(filter.ReceiverEmail))
	switch {
	case filter.ReceiverUserID > 0 && email != "":
		query = query.Where("receiver_user_id = ? OR LOWER(receiver_email) = ?", filter.ReceiverUserID, email)
	case filter.ReceiverUserID > 0:
		query = query.Where("receiver_user_id = ?", filter.ReceiverUserID)
	case email != "":
		query = query.Where("LOWER(receiver_email) = ?", email)
	default:
		return []models.Gift{}, 0, nil
	}
	query = applyGiftListFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var gifts []models.Gift
	if err := query.Order("id desc").Find(&gifts).Error; err != nil {
		return nil, 0, err
	}
	return gifts, total, nil
}

// ListByGiftOrder 查询购买单派生的礼品
func (r *GormGiftRepository) ListByGiftOrder(giftOrderID uint) ([]models.Gift, error) {
	if giftOrderID == 0 {
		return []models.Gift{}, nil
	}
	var gifts []models.Gift
	if err := r.db.Where("gift_order_id = ?", giftOrderID).
		Order("id asc").
		Find(&gifts).Error; err != nil {
		return nil, err
	}
	return gifts, nil
}

// ListDueScheduled 查询计划投递日期已到、仍停留在 sent 的定时礼品
func (r *GormGiftRepository) ListDueScheduled(now time.Time, limit int) ([]models.Gift, error) {
	if now.IsZero() {
		now = time.Now()
	}
	query := r.db.Where(
		"status = ? AND delivery_mode = ? AND scheduled_delivery_date IS NOT NULL AND scheduled_delivery_date <= ?",
		constants.GiftStatusSent, constants.DeliveryModeScheduled, now,
	).Order("scheduled_delivery_date asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var gifts []models.Gift
	if err := query.Find(&gifts).Error; err != nil {
		return nil, err
	}
	return gifts, nil
}

// ListExpireCandidates 查询已过有效期但状态尚未落库的礼品
func (r *GormGiftRepository) ListExpireCandidates(now time.Time, limit int) ([]models.Gift, error) {
	if now.IsZero() {
		now = time.Now()
	}
	expirable := []string{constants.GiftStatusSent, constants.GiftStatusRedeemable}
	query := r.db.Where("status IN ? AND expires_at IS NOT NULL AND expires_at < ?", expirable, now).
		Order("expires_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var gifts []models.Gift
	if err := query.Find(&gifts).Error; err != nil {
		return nil, err
	}
	return gifts, nil
}

// Update 更新礼品
func (r *GormGiftRepository) Update(gift *models.Gift) error {
	if gift == nil {
		return errors.New("invalid gift")
	}
	return r.db.Save(gift).Error
}

// UpdateStatusIf 条件更新礼品状态（仅当当前状态仍在 fromStatuses 内时生效）
func (r *GormGiftRepository) UpdateStatusIf(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error) {
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
	result := r.db.Model(&models.Gift{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	return result.RowsAffected, result.Error
}
