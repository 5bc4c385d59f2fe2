package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SchedulerJobs 返回所有调度器任务信息.
func (h *Handler) SchedulerJobs(c *gin.Context) {
	if h.sched == nil {
		unavailable(c, "scheduler")
		return
	}

	ok(c, http.StatusOK, gin.H{"jobs": h.sched.GetJobInfos()}, "")
}

// SchedulerJob 返回单个任务信息.
func (h *Handler) SchedulerJob(c *gin.Context) {
	if h.sched == nil {
		unavailable(c, "scheduler")
		return
	}

	info, err := h.sched.GetJobInfoByName(c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, info, "")
}

// SchedulerRunJob 立即执行一次任务.
func (h *Handler) SchedulerRunJob(c *gin.Context) {
	if h.sched == nil {
		unavailable(c, "scheduler")
		return
	}

	if err := h.sched.RunNow(c.Param("name")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "job triggered"})
}

// SchedulerStopJobs 停止所有任务.
func (h *Handler) SchedulerStopJobs(c *gin.Context) {
	if h.sched == nil {
		unavailable(c, "scheduler")
		return
	}

	if err := h.sched.StopJobs(); err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, nil, "jobs stopped")
}

// SchedulerRemoveJob 根据任务 id 或名称删除任务.
func (h *Handler) SchedulerRemoveJob(c *gin.Context) {
	if h.sched == nil {
		unavailable(c, "scheduler")
		return
	}

	ref := c.Param("name")

	var err error
	if id, perr := uuid.Parse(ref); perr == nil {
		err = h.sched.RemoveJob(id)
	} else {
		err = h.sched.RemoveJobByName(ref)
	}

	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, nil, "job removed")
}

// SchedulerQueueWaiting 返回队列中等待的任务数.
func (h *Handler) SchedulerQueueWaiting(c *gin.Context) {
	if h.sched == nil {
		unavailable(c, "scheduler")
		return
	}

	ok(c, http.StatusOK, gin.H{"waiting": h.sched.JobsWaitingInQueue()}, "")
}
