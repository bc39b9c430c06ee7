package response

// 业务状态码，写在响应体 status_code 中
const (
	CodeOK              = 0
	CodeBadRequest      = 400 // 参数或业务校验失败
	CodeUnauthorized    = 401 // 未登录、令牌无效或账号停用
	CodeForbidden       = 403 // 无权限或签名无效
	CodeNotFound        = 404
	CodeConflict        = 409 // 并发修改冲突，可重试
	CodeTooManyRequests = 429
	CodeInternal        = 500
)
