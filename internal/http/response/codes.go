package response

// 错误码与 HTTP 状态码一致
const (
	CodeOK              = 200
	CodeBadRequest      = 400
	CodeNotFound        = 404
	CodeTooManyRequests = 429
	CodeInternal        = 500
	CodeUnavailable     = 503
)
