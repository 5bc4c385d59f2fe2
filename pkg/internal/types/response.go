package types

// Envelope 统一响应外壳.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	// Details 字段级校验错误
	Details map[string]string `json:"details,omitempty"`
}

// PageEnvelope 分页列表的响应外壳：{success, data, pagination}.
type PageEnvelope struct {
	Success bool `json:"success"`
	ListItemsResponse
}
