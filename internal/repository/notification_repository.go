package repository

import (
	"errors"
	"time"

	"github.com/giftloop/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 站内通知数据访问接口
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByIDAndUser(id uint, userID uint) (*models.Notification, error)
	ListByUser(filter NotificationListFilter) ([]models.Notification, int64, error)
	MarkRead(id uint, userID uint, readAt time.Time) (int64, error)
	CountUnread(userID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormNotificationRepository
}

// GormNotificationRepository GORM 实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓库
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormNotificationRepository) WithTx(tx *gorm.DB) *GormNotificationRepository {
	if tx == nil {
		return r
	}
	return &GormNotificationRepository{db: tx}
}

// Create 创建通知
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	if notification == nil {
		return errors.New("invalid notification")
	}
	return r.db.Create(notification).Error
}

// GetByIDAndUser 获取用户通知详情
func (r *GormNotificationRepository) GetByIDAndUser(id uint, userID uint) (*models.Notification, error) {
	if id == 0 || userID == 0 {
		return nil, nil
	}
	var notification models.Notification
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

// ListByUser 获取用户通知列表
func (r *GormNotificationRepository) ListByUser(filter NotificationListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ?", filter.UserID)

	if filter.Event != "" {
		query = query.Where("event = ?", filter.Event)
	}
	if filter.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var notifications []models.Notification
	if err := query.Order("id desc").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// MarkRead 标记通知已读
func (r *GormNotificationRepository) MarkRead(id uint, userID uint, readAt time.Time) (int64, error) {
	if id == 0 || userID == 0 {
		return 0, nil
	}
	if readAt.IsZero() {
		readAt = time.Now()
	}
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Updates(map[string]interface{}{
			"read_at":    readAt,
			"updated_at": readAt,
		})
	return result.RowsAffected, result.Error
}

// CountUnread 统计未读通知数
func (r *GormNotificationRepository) CountUnread(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
