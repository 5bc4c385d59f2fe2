package service

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/avatarhub/pkg/configs"
	ctxPkg "github.com/yeisme/avatarhub/pkg/context"
	"github.com/yeisme/avatarhub/pkg/internal/model"
	nlog "github.com/yeisme/avatarhub/pkg/log"
	"github.com/yeisme/avatarhub/pkg/queue"
)

const eventProducer = "avatarhub"

// events 按配置开关发布条目事件. 发布失败只记录日志，不影响已提交的写操作.
type events struct {
	pub queue.Publisher
	cfg configs.EventsConfig
}

func newEvents(pub queue.Publisher, cfg configs.EventsConfig) *events {
	return &events{pub: pub, cfg: cfg}
}

func (e *events) enabled(topic bool) bool {
	return e != nil && e.pub != nil && e.cfg.Enabled && topic
}

func (e *events) report(ctx context.Context, topic string, err error) {
	if err == nil {
		return
	}

	l := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
	l.Warn().Err(err).Str("topic", topic).Msg("publish event failed")
}

// headerOpts 附带生产者与当前 span 的 trace id.
func headerOpts(ctx context.Context) []func(*queue.EventHeader) {
	opts := []func(*queue.EventHeader){queue.WithProducer(eventProducer)}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	return opts
}

func itemRef(it *model.Item) queue.ItemRef {
	return queue.ItemRef{ID: it.ID, Code: it.Code, OwnerID: it.OwnerID}
}

func (e *events) itemCreated(ctx context.Context, it *model.Item) {
	if !e.enabled(e.cfg.Item.Created) {
		return
	}

	e.report(ctx, queue.TopicItemCreated, queue.PublishItemCreated(e.pub, queue.ItemCreatedPayload{
		Item:           itemRef(it),
		Name:           it.Name,
		Tags:           it.Tags,
		Style:          it.Style,
		ImageStorageID: it.ImageStorageID,
	}, headerOpts(ctx)...))
}

func (e *events) itemUpdated(ctx context.Context, it *model.Item, fields []string, actor string) {
	if !e.enabled(e.cfg.Item.Updated) {
		return
	}

	e.report(ctx, queue.TopicItemUpdated, queue.PublishItemUpdated(e.pub, queue.ItemUpdatedPayload{
		Item:   itemRef(it),
		Fields: fields,
		Actor:  actor,
	}, headerOpts(ctx)...))
}

func (e *events) itemDeleted(ctx context.Context, it *model.Item, actor string) {
	if !e.enabled(e.cfg.Item.Deleted) {
		return
	}

	e.report(ctx, queue.TopicItemDeleted, queue.PublishItemDeleted(e.pub, queue.ItemDeletedPayload{
		Item:           itemRef(it),
		ImageStorageID: it.ImageStorageID,
		Actor:          actor,
	}, headerOpts(ctx)...))
}

func (e *events) itemVoted(ctx context.Context, itemID, userID, action string, count int64) {
	if !e.enabled(e.cfg.Item.Voted) {
		return
	}

	e.report(ctx, queue.TopicItemVoted, queue.PublishItemVoted(e.pub, queue.ItemVotedPayload{
		ItemID:    itemID,
		UserID:    userID,
		Action:    action,
		VoteCount: count,
	}, headerOpts(ctx)...))
}
