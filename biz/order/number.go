package order

import (
	"math/rand"
	"strconv"
	"time"
)

// GenNumber 生成订单号：yyyyMMddHHmmss + 6位随机数
// 不检查重复，极小概率的冲突由唯一索引拦截
func GenNumber(now time.Time) string {
	return now.Format("20060102150405") + strconv.Itoa(100000+rand.Intn(900000))
}
