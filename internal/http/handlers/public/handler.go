package public

import "github.com/pharmadesk/internal/provider"

// Handler 收银台 / 库存 / 销售 API 处理器入口
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
