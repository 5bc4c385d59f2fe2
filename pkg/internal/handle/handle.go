// Package handle 提供 HTTP 请求处理器：把请求映射到服务调用，再把结果或错误映射回统一响应外壳.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/avatarhub/pkg/context"
	"github.com/yeisme/avatarhub/pkg/internal/service"
	"github.com/yeisme/avatarhub/pkg/internal/storage"
	"github.com/yeisme/avatarhub/pkg/internal/types"
	"github.com/yeisme/avatarhub/pkg/log"
	"github.com/yeisme/avatarhub/pkg/rule"
	"github.com/yeisme/avatarhub/pkg/scheduler"
)

// 固定的对外错误文案.
const (
	msgDuplicateCode = "This avatar code already exists"
	msgInternal      = "internal server error"
)

// Options 处理器依赖. Scheduler 与 Storage 可以为空，对应路由返回 503.
type Options struct {
	Services       *service.Services
	Scheduler      *scheduler.Scheduler
	Storage        *storage.Manager
	MaxUploadBytes int64
}

// Handler 持有全部服务，方法即 gin 处理函数.
type Handler struct {
	items       *service.ItemService
	votes       *service.VoteLedger
	gallery     *service.GalleryService
	maintenance *service.MaintenanceService
	sched       *scheduler.Scheduler
	storage     *storage.Manager
	maxUpload   int64
}

// New 创建处理器.
func New(opts Options) *Handler {
	h := &Handler{
		sched:     opts.Scheduler,
		storage:   opts.Storage,
		maxUpload: opts.MaxUploadBytes,
	}

	if opts.Services != nil {
		h.items = opts.Services.Items
		h.votes = opts.Services.Votes
		h.gallery = opts.Services.Gallery
		h.maintenance = opts.Services.Maintenance
	}

	return h
}

// ok 写出成功响应.
func ok(c *gin.Context, status int, data any, msg string) {
	c.JSON(status, types.Envelope{Success: true, Data: data, Message: msg})
}

// fail 按哨兵错误映射状态码. 上游失败与未知错误记录日志并隐藏细节.
func fail(c *gin.Context, err error) {
	status, msg := statusOf(err)

	if status >= http.StatusInternalServerError {
		l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, types.Envelope{Success: false, Error: msg})
}

// invalid 写出 400，附带字段级错误.
func invalid(c *gin.Context, err error) {
	env := types.Envelope{Success: false, Error: err.Error()}
	if details := rule.Errors(err); details != nil {
		env.Error = service.ErrValidation.Error()
		env.Details = details
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, env)
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound), errors.Is(err, scheduler.ErrJobNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrDuplicateCode):
		return http.StatusConflict, msgDuplicateCode
	case errors.Is(err, service.ErrUpstream):
		return http.StatusInternalServerError, service.ErrUpstream.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func unavailable(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, types.Envelope{Success: false, Error: what + " not available"})
}
