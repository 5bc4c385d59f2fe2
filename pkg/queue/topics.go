// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：ah.<域>.<动作>，尽量稳定且向后兼容.

const (
	// 画廊条目领域.
	TopicItemCreated = "ah.item.created" // 图片上传且记录写入成功
	TopicItemUpdated = "ah.item.updated" // 名称、描述或标签被修改
	TopicItemDeleted = "ah.item.deleted" // 图片与记录均已删除
	TopicItemVoted   = "ah.item.voted"   // 投票切换，负载带 action 与最新票数
)

// ItemTopics 条目相关主题集合，进程内消费者按此订阅.
var ItemTopics = []string{
	TopicItemCreated, TopicItemUpdated, TopicItemDeleted, TopicItemVoted,
}
