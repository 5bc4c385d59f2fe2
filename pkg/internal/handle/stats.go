package handle

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/internal/service"
)

// Stats 画廊汇总统计.
//
//	@Summary	画廊统计
//	@Tags		统计
//	@Produce	json
//	@Success	200	{object}	types.Envelope{data=types.GalleryStats}
//	@Router		/api/v1/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	st, err := h.gallery.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, st, "")
}

// SweepOrphans 清理未被引用的图片，dryRun=true 时只报告.
//
//	@Summary	清理孤儿图片
//	@Tags		维护
//	@Produce	json
//	@Param		dryRun	query		bool	false	"只报告不删除"
//	@Success	200		{object}	types.Envelope{data=types.SweepReport}
//	@Router		/api/v1/admin/maintenance/sweep [post]
func (h *Handler) SweepOrphans(c *gin.Context) {
	dryRun, err := queryBool(c, "dryRun")
	if err != nil {
		invalid(c, err)
		return
	}

	rep, err := h.maintenance.SweepOrphans(c.Request.Context(), dryRun)
	if err != nil && rep == nil {
		fail(c, err)
		return
	}

	msg := ""
	if err != nil {
		msg = err.Error()
	}

	ok(c, http.StatusOK, rep, msg)
}

// ReconcileVotes 校对票数与投票行，dryRun=true 时只报告.
//
//	@Summary	校对票数
//	@Tags		维护
//	@Produce	json
//	@Param		dryRun	query		bool	false	"只报告不修复"
//	@Success	200		{object}	types.Envelope{data=types.ReconcileReport}
//	@Router		/api/v1/admin/maintenance/reconcile [post]
func (h *Handler) ReconcileVotes(c *gin.Context) {
	dryRun, err := queryBool(c, "dryRun")
	if err != nil {
		invalid(c, err)
		return
	}

	rep, err := h.maintenance.ReconcileVotes(c.Request.Context(), dryRun)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, rep, "")
}

func queryBool(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", service.ErrValidation, name)
	}

	return v, nil
}
