package handler

import (
	"dinein_order/biz/table"
	"dinein_order/errno"

	"github.com/gin-gonic/gin"
)

// TableIDByCode 扫码点餐：根据桌码返回桌位ID
func (h *Handler) TableIDByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		ResponseError(c, errno.Validation("table code is required"))
		return
	}
	t, err := h.tables.Resolve(c.Request.Context(), table.ByCode(code))
	if err != nil {
		ResponseError(c, err)
		return
	}
	ResponseSuccess(c, gin.H{"tableId": t.ID})
}

// TableInfo 按ID、编码或名称查询桌位
func (h *Handler) TableInfo(c *gin.Context) {
	t, err := h.tables.Resolve(c.Request.Context(), table.ParseRef(c.Param("ref")))
	if err != nil {
		ResponseError(c, err)
		return
	}
	ResponseSuccess(c, t)
}
