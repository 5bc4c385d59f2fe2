// Package events 在进程内消费画廊条目事件，更新指标并记录日志.
package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	nlog "github.com/yeisme/avatarhub/pkg/log"
	"github.com/yeisme/avatarhub/pkg/metrics"
	"github.com/yeisme/avatarhub/pkg/queue"
)

// Subscriber 订阅主题，mq.Client 满足该接口.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Handler 处理一条已解析的事件. 返回错误时消息被 Nack.
type Handler func(ctx context.Context, topic string, msg *message.Message) error

// Consumer 订阅全部条目主题.
type Consumer struct {
	sub     Subscriber
	topics  []string
	handler Handler
	logger  zerolog.Logger
	ready   chan struct{}
}

// NewConsumer 创建消费者. handler 为空时使用默认的日志处理.
func NewConsumer(sub Subscriber, handler Handler) *Consumer {
	c := &Consumer{
		sub:    sub,
		topics: queue.ItemTopics,
		logger: nlog.Logger().With().Str("component", "events").Logger(),
		ready:  make(chan struct{}),
	}

	c.handler = handler
	if c.handler == nil {
		c.handler = c.logEvent
	}

	return c
}

// Ready 在全部主题订阅完成后关闭.
func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

// Run 订阅并阻塞消费，直到 ctx 取消或订阅通道关闭.
func (c *Consumer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	for _, topic := range c.topics {
		ch, err := c.sub.Subscribe(ctx, topic)
		if err != nil {
			// 已启动的消费协程随 ctx 取消退出
			cancel()
			_ = g.Wait()

			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		g.Go(func() error {
			c.consume(ctx, topic, ch)
			return nil
		})
	}

	close(c.ready)
	c.logger.Info().Strs("topics", c.topics).Msg("event consumer started")

	return g.Wait()
}

func (c *Consumer) consume(ctx context.Context, topic string, ch <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			metrics.EventsConsumedTotal.WithLabelValues(topic).Inc()

			if err := c.handler(ctx, topic, msg); err != nil {
				c.logger.Warn().Err(err).Str("topic", topic).Str("uuid", msg.UUID).Msg("event handling failed")
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}
}

// logEvent 默认处理：解析并记录事件. 无法解析的消息直接确认，避免反复投递.
func (c *Consumer) logEvent(_ context.Context, topic string, msg *message.Message) error {
	switch topic {
	case queue.TopicItemVoted:
		env, err := queue.ParseItemVoted(msg)
		if err != nil {
			c.logger.Warn().Err(err).Str("topic", topic).Msg("malformed event dropped")
			return nil
		}

		c.logger.Debug().
			Str("item_id", env.Payload.ItemID).
			Str("user", env.Payload.UserID).
			Str("action", env.Payload.Action).
			Int64("vote_count", env.Payload.VoteCount).
			Msg("item voted")
	case queue.TopicItemCreated:
		env, err := queue.ParseItemCreated(msg)
		if err != nil {
			c.logger.Warn().Err(err).Str("topic", topic).Msg("malformed event dropped")
			return nil
		}

		c.logger.Info().
			Str("item_id", env.Payload.Item.ID).
			Str("code", env.Payload.Item.Code).
			Str("owner", env.Payload.Item.OwnerID).
			Msg("item created")
	default:
		env, err := queue.ParseWatermillMessage[map[string]any](msg)
		if err != nil {
			c.logger.Warn().Err(err).Str("topic", topic).Msg("malformed event dropped")
			return nil
		}

		c.logger.Info().Str("topic", topic).Time("occurred_at", env.Header.OccurredAt).Msg("item event")
	}

	return nil
}
