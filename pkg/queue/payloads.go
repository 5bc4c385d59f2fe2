package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// ItemRef 事件中引用的条目.
type ItemRef struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	OwnerID string `json:"owner_id"`
}

// ItemCreatedPayload 条目创建.
type ItemCreatedPayload struct {
	Item           ItemRef  `json:"item"`
	Name           string   `json:"name"`
	Tags           []string `json:"tags,omitempty"`
	Style          string   `json:"style,omitempty"`
	ImageStorageID string   `json:"image_storage_id"`
}

// ItemUpdatedPayload 条目元数据修改，Fields 为实际变更的字段名.
type ItemUpdatedPayload struct {
	Item   ItemRef  `json:"item"`
	Fields []string `json:"fields"`
	Actor  string   `json:"actor"`
}

// ItemDeletedPayload 条目删除.
type ItemDeletedPayload struct {
	Item           ItemRef `json:"item"`
	ImageStorageID string  `json:"image_storage_id"`
	Actor          string  `json:"actor"`
}

// ItemVotedPayload 投票切换结果.
type ItemVotedPayload struct {
	ItemID    string `json:"item_id"`
	UserID    string `json:"user_id"`
	Action    string `json:"action"` // added | removed
	VoteCount int64  `json:"vote_count"`
}
