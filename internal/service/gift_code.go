package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"time"

	"github.com/giftloop/internal/constants"
)

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateRedemptionCode 生成兑换码：GIFT-毫秒时间戳-6 位大写 base36 随机后缀
func GenerateRedemptionCode(now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", constants.GiftCodePrefix, now.UnixMilli(), randomBase36(constants.GiftCodeSuffixMinChars))
}

func randomBase36(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// 随机源异常时退化为弱随机，保持可用
			buf[i] = codeAlphabet[mrand.Intn(len(codeAlphabet))]
			continue
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf)
}
