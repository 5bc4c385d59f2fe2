// Package types 定义 HTTP 层与服务层之间交换的请求与响应结构.
package types

import "github.com/yeisme/avatarhub/pkg/internal/model"

// 排序方式.
const (
	SortRecent  = "recent"
	SortPopular = "popular"
	SortName    = "name"
)

// ListItemsQuery 画廊列表查询参数，来自 query string.
type ListItemsQuery struct {
	// Search 在名称、描述与代码中做不区分大小写的子串匹配
	Search string `form:"search" json:"search"`
	Style  string `form:"style"  json:"style"`
	Role   string `form:"role"   json:"role"`
	// Tags 逗号分隔，命中任意一个即可
	Tags   string `form:"tags"   json:"tags"`
	SortBy string `form:"sortBy" json:"sortBy"`
	Page   int    `form:"page"   json:"page"  rule:"min=0"`
	Limit  int    `form:"limit"  json:"limit" rule:"min=0"`
}

// GalleryFilter 规范化后的查询条件，也是列表缓存键的来源.
type GalleryFilter struct {
	Search string   `json:"search"`
	Style  string   `json:"style"`
	Role   string   `json:"role"`
	Tags   []string `json:"tags"`
	SortBy string   `json:"sortBy"`
	Page   int      `json:"page"`
	Limit  int      `json:"limit"`
}

// CreateItemRequest 创建条目的表单字段，图片通过 multipart 的 image 字段上传.
type CreateItemRequest struct {
	Code        string `form:"code"        rule:"required,max=512"`
	Name        string `form:"name"        rule:"required,max=255"`
	Description string `form:"description" rule:"max=2000"`
	// Tags 逗号分隔
	Tags    string `form:"tags"`
	Style   string `form:"style"   rule:"max=64"`
	Role    string `form:"role"    rule:"max=64"`
	OwnerID string `form:"ownerId" rule:"max=255"`
}

// CreateItemInput 服务层创建条目的输入.
type CreateItemInput struct {
	Code        string
	Name        string
	Description string
	Tags        []string
	Style       string
	Role        string
	OwnerID     string
	Image       []byte
}

// UpdateItemRequest 部分更新，未提供的字段保持不变.
type UpdateItemRequest struct {
	Name        *string   `json:"name"        rule:"omitempty,max=255"`
	Description *string   `json:"description" rule:"omitempty,max=2000"`
	Tags        *[]string `json:"tags"        rule:"omitempty,max=20,dive,tagname"`
}

// ItemResponse 单个条目，Voted 表示当前调用者是否已投票.
type ItemResponse struct {
	model.Item
	Voted bool `json:"voted"`
}

// Pagination 分页信息.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ListItemsResponse 分页列表.
type ListItemsResponse struct {
	Data       []model.Item `json:"data"`
	Pagination Pagination   `json:"pagination"`
}

// VoteResponse 投票切换结果.
type VoteResponse struct {
	VoteCount int64  `json:"voteCount"`
	Action    string `json:"action"`
}

// DeleteItemResponse 删除结果.
type DeleteItemResponse struct {
	Deleted bool `json:"deleted"`
}

// VotersResponse 条目的投票用户.
type VotersResponse struct {
	ItemID string   `json:"itemId"`
	Voters []string `json:"voters"`
	Count  int      `json:"count"`
}
