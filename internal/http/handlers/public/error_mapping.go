package public

import (
	"errors"

	handlershared "github.com/giftloop/internal/http/handlers/shared"
	"github.com/giftloop/internal/http/response"
	"github.com/giftloop/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, rule.target)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var giftCommonErrorRules = []mappedHandlerError{
	{target: service.ErrGiftNotFound, code: response.CodeNotFound, msg: "礼品不存在"},
	{target: service.ErrGiftCodeFormatInvalid, code: response.CodeBadRequest, msg: "兑换码格式无效"},
	{target: service.ErrGiftExpired, code: response.CodeBadRequest, msg: "礼品已过期"},
	{target: service.ErrGiftTransitionInvalid, code: response.CodeBadRequest, msg: "礼品当前状态不允许该操作"},
	{target: service.ErrGiftStateConflict, code: response.CodeBadRequest, msg: "礼品状态已被并发修改，请重试"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "用户不存在"},
}

var giftSendErrorRules = []mappedHandlerError{
	{target: service.ErrGiftSelfSend, code: response.CodeBadRequest, msg: "不能送礼给自己"},
	{target: service.ErrGiftSenderUnverified, code: response.CodeBadRequest, msg: "请先完成邮箱验证再送礼"},
	{target: service.ErrGiftReceiverInvalid, code: response.CodeBadRequest, msg: "接收人信息无效"},
	{target: service.ErrGiftDeliveryModeInvalid, code: response.CodeBadRequest, msg: "投递模式无效"},
	{target: service.ErrGiftScheduledDateRequired, code: response.CodeBadRequest, msg: "定时投递需要指定投递日期"},
	{target: service.ErrGiftScheduledDateInvalid, code: response.CodeBadRequest, msg: "投递日期超出允许范围"},
	{target: service.ErrGiftOrderItemInvalid, code: response.CodeBadRequest, msg: "礼品商品信息无效"},
}

var giftRedeemErrorRules = []mappedHandlerError{
	{target: service.ErrGiftNotRedeemable, code: response.CodeBadRequest, msg: "礼品当前不可兑换"},
	{target: service.ErrGiftShippingInvalid, code: response.CodeBadRequest, msg: "收货信息不完整"},
	{target: service.ErrGiftRedeemInProgress, code: response.CodeBadRequest, msg: "操作正在处理中，请勿重复提交"},
	{target: service.ErrGiftReceiverInvalid, code: response.CodeBadRequest, msg: "接收人信息无效"},
}

var giftSwapErrorRules = []mappedHandlerError{
	{target: service.ErrGiftNotSwappable, code: response.CodeBadRequest, msg: "礼品不支持换购"},
	{target: service.ErrGiftSwapPriceExceeded, code: response.CodeBadRequest, msg: "换购商品价格超出礼品价值"},
	{target: service.ErrGiftOrderItemInvalid, code: response.CodeBadRequest, msg: "换购商品信息无效"},
	{target: service.ErrGiftRedeemInProgress, code: response.CodeBadRequest, msg: "操作正在处理中，请勿重复提交"},
}

var giftOrderErrorRules = []mappedHandlerError{
	{target: service.ErrGiftOrderNotFound, code: response.CodeNotFound, msg: "购买单不存在"},
	{target: service.ErrGiftOrderTransitionInvalid, code: response.CodeBadRequest, msg: "购买单当前状态不允许该操作"},
	{target: service.ErrGiftStateConflict, code: response.CodeBadRequest, msg: "购买单状态已被并发修改，请重试"},
}

func respondGiftSendError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(giftCommonErrorRules, giftSendErrorRules), response.CodeInternal, "礼品创建失败")
}

func respondGiftRedeemError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(giftCommonErrorRules, giftRedeemErrorRules), response.CodeInternal, "礼品兑换失败")
}

func respondGiftSwapError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(giftCommonErrorRules, giftSwapErrorRules), response.CodeInternal, "礼品换购失败")
}

func respondGiftOrderError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(giftCommonErrorRules, giftOrderErrorRules), response.CodeInternal, "购买单操作失败")
}
