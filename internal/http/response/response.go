package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody 统一错误响应结构
type ErrorBody struct {
	Success   bool   `json:"success"`              // 固定为 false
	Message   string `json:"message"`              // 提示消息
	RequestID string `json:"request_id,omitempty"` // 请求ID
}

// MessageBody 写操作成功响应结构
type MessageBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// NewPagination 根据总数计算分页信息
func NewPagination(page, pageSize int, total int64) Pagination {
	totalPage := int64(0)
	if pageSize > 0 {
		totalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}

// Success 成功响应，直接输出数据本身
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SuccessWithMsg 成功响应（success + message）
func SuccessWithMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageBody{
		Success: true,
		Message: msg,
	})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PageResponse{
		Data:       data,
		Pagination: pagination,
	})
}

// Error 错误响应，code 即 HTTP 状态码
func Error(c *gin.Context, code int, msg string) {
	if code < http.StatusBadRequest {
		code = http.StatusInternalServerError
	}
	c.JSON(code, ErrorBody{
		Success:   false,
		Message:   msg,
		RequestID: requestID(c),
	})
}

// AbortWithError 错误响应并中断后续处理
func AbortWithError(c *gin.Context, code int, msg string) {
	Error(c, code, msg)
	c.Abort()
}

// NotFound 404响应
func NotFound(c *gin.Context, msg string) {
	Error(c, CodeNotFound, msg)
}

// BadRequest 400响应
func BadRequest(c *gin.Context, msg string) {
	Error(c, CodeBadRequest, msg)
}

func requestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
