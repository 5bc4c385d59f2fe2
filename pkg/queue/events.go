package queue

import "github.com/ThreeDotsLabs/watermill/message"

// Publisher 发布 watermill 消息的最小接口，mq.Client 与 watermill Publisher 都满足.
type Publisher interface {
	Publish(topic string, msgs ...*message.Message) error
}

func publish[T any](pub Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// PublishItemCreated 发布 ah.item.created 事件.
func PublishItemCreated(pub Publisher, payload ItemCreatedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicItemCreated, payload, opts...)
}

// PublishItemUpdated 发布 ah.item.updated 事件.
func PublishItemUpdated(pub Publisher, payload ItemUpdatedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicItemUpdated, payload, opts...)
}

// PublishItemDeleted 发布 ah.item.deleted 事件.
func PublishItemDeleted(pub Publisher, payload ItemDeletedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicItemDeleted, payload, opts...)
}

// PublishItemVoted 发布 ah.item.voted 事件.
func PublishItemVoted(pub Publisher, payload ItemVotedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicItemVoted, payload, opts...)
}

// ParseItemVoted 将 Watermill 消息解析为强类型 Envelope.
func ParseItemVoted(msg *message.Message) (Message[ItemVotedPayload], error) {
	return ParseWatermillMessage[ItemVotedPayload](msg)
}

// ParseItemCreated 将 Watermill 消息解析为强类型 Envelope.
func ParseItemCreated(msg *message.Message) (Message[ItemCreatedPayload], error) {
	return ParseWatermillMessage[ItemCreatedPayload](msg)
}
