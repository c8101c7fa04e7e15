package constants

// 礼品状态常量
const (
	GiftStatusPendingPayment     = "pending_payment"
	GiftStatusPaid               = "paid"
	GiftStatusSent               = "sent"
	GiftStatusRedeemable         = "redeemable"
	GiftStatusRedeemed           = "redeemed"
	GiftStatusFulfillmentCreated = "fulfillment_created"
	GiftStatusDelivered          = "delivered"
	GiftStatusSwapped            = "swapped"
	GiftStatusCancelled          = "cancelled"
	GiftStatusExpired            = "expired"
)

// 礼品投递模式常量
const (
	DeliveryModeInstant        = "instant"
	DeliveryModeScheduled      = "scheduled"
	DeliveryModeRedeemRequired = "redeem_required"
)

// 礼品购买单状态常量
const (
	GiftOrderStatusDraft          = "draft"
	GiftOrderStatusPendingPayment = "pending_payment"
	GiftOrderStatusPaid           = "paid"
	GiftOrderStatusCancelled      = "cancelled"
	GiftOrderStatusRefunded       = "refunded"
)

// 履约订单状态常量
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 履约订单支付状态常量
const (
	OrderPaymentPrepaid = "prepaid"
)

// 支付方式常量
const (
	PaymentMethodCard    = "card"
	PaymentMethodWallet  = "wallet"
	PaymentMethodBalance = "balance"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 通知中心事件常量
const (
	NotificationEventGiftReceived  = "gift_received"
	NotificationEventGiftRedeemed  = "gift_redeemed"
	NotificationEventGiftSwapped   = "gift_swapped"
	NotificationEventGiftExpired   = "gift_expired"
	NotificationEventGiftCancelled = "gift_cancelled"
)

// 通知业务类型常量
const (
	NotificationBizTypeGift      = "gift"
	NotificationBizTypeGiftOrder = "gift_order"
	NotificationBizTypeOrder     = "order"
)

// 队列常量
const (
	QueueDefault               = "default"
	TaskGiftScheduledRelease   = "gift:scheduled_release"
	TaskGiftExpireSweep        = "gift:expire_sweep"
	TaskGiftOrderTimeoutCancel = "gift_order:timeout_cancel"
	TaskNotificationDispatch   = "notification:dispatch"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "gl"
)

// 礼品业务常量
const (
	GiftExpireDaysDefault  = 90
	GiftMaxScheduleDays    = 365
	GiftCodePrefix         = "GIFT"
	GiftCodeSuffixMinChars = 6
	GiftShippingMinChars   = 10
)

// 币种常量
const (
	SiteCurrencyDefault = "CNY"
)

// 错误类别常量
const (
	ErrorKindValidation        = "VALIDATION_ERROR"
	ErrorKindTransition        = "TRANSITION_ERROR"
	ErrorKindNotFound          = "NOT_FOUND"
	ErrorKindDependencyFailure = "DEPENDENCY_FAILURE"
)
