package handle

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/avatarhub/pkg/internal/service"
	"github.com/yeisme/avatarhub/pkg/internal/types"
	"github.com/yeisme/avatarhub/pkg/middleware"
	"github.com/yeisme/avatarhub/pkg/rule"
)

// ListItems 画廊列表.
//
//	@Summary	画廊列表
//	@Tags		条目
//	@Produce	json
//	@Param		search	query		string	false	"名称、描述或代码的子串"
//	@Param		style	query		string	false	"风格"
//	@Param		role	query		string	false	"角色"
//	@Param		tags	query		string	false	"逗号分隔，命中任意一个"
//	@Param		sortBy	query		string	false	"recent | popular | name"
//	@Param		page	query		int		false	"页码，从 1 开始"
//	@Param		limit	query		int		false	"每页条数"
//	@Success	200		{object}	types.PageEnvelope
//	@Failure	400		{object}	types.Envelope
//	@Router		/api/v1/items [get]
func (h *Handler) ListItems(c *gin.Context) {
	var q types.ListItemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalid(c, fmt.Errorf("%w: %w", service.ErrValidation, err))
		return
	}

	if err := rule.ValidateStruct(q); err != nil {
		invalid(c, err)
		return
	}

	resp, err := h.gallery.List(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, types.PageEnvelope{Success: true, ListItemsResponse: *resp})
}

// GetItem 按 id 获取条目，voted 表示调用者是否已投票.
//
//	@Summary	获取条目
//	@Tags		条目
//	@Produce	json
//	@Param		id	path		string	true	"条目 id"
//	@Success	200	{object}	types.Envelope{data=types.ItemResponse}
//	@Failure	404	{object}	types.Envelope
//	@Router		/api/v1/items/{id} [get]
func (h *Handler) GetItem(c *gin.Context) {
	it, err := h.items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, it, "")
}

// GetItemByCode 按头像代码获取条目.
//
//	@Summary	按代码获取条目
//	@Tags		条目
//	@Produce	json
//	@Param		code	path		string	true	"头像代码"
//	@Success	200		{object}	types.Envelope{data=types.ItemResponse}
//	@Failure	404		{object}	types.Envelope
//	@Router		/api/v1/items/code/{code} [get]
func (h *Handler) GetItemByCode(c *gin.Context) {
	it, err := h.items.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, it, "")
}

// CreateItem 上传图片并创建条目.
//
//	@Summary	创建条目
//	@Tags		条目
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		code		formData	string	true	"头像代码"
//	@Param		name		formData	string	true	"名称"
//	@Param		description	formData	string	false	"描述"
//	@Param		tags		formData	string	false	"逗号分隔的标签"
//	@Param		style		formData	string	false	"风格"
//	@Param		role		formData	string	false	"角色"
//	@Param		ownerId		formData	string	false	"所有者，未识别调用者时使用"
//	@Param		image		formData	file	true	"图片（JPEG、PNG、GIF 或 WebP）"
//	@Success	201			{object}	types.Envelope{data=model.Item}
//	@Failure	400			{object}	types.Envelope
//	@Failure	409			{object}	types.Envelope
//	@Router		/api/v1/items [post]
func (h *Handler) CreateItem(c *gin.Context) {
	var req types.CreateItemRequest
	if err := c.ShouldBind(&req); err != nil {
		invalid(c, fmt.Errorf("%w: %w", service.ErrValidation, err))
		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		invalid(c, err)
		return
	}

	image, err := h.readImage(c)
	if err != nil {
		invalid(c, err)
		return
	}

	it, err := h.items.Create(c.Request.Context(), types.CreateItemInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Tags:        service.SplitTags(req.Tags),
		Style:       req.Style,
		Role:        req.Role,
		OwnerID:     req.OwnerID,
		Image:       image,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusCreated, it, "Avatar created")
}

// readImage 读取 multipart 的 image 字段，超过上限直接拒绝.
func (h *Handler) readImage(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("%w: image is required", service.ErrValidation)
	}

	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", service.ErrValidation, h.maxUpload)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open image: %w", service.ErrValidation, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read image: %w", service.ErrValidation, err)
	}

	return data, nil
}

// UpdateItem 修改名称、描述或标签.
//
//	@Summary	修改条目
//	@Tags		条目
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"条目 id"
//	@Param		body	body		types.UpdateItemRequest	true	"要修改的字段"
//	@Success	200		{object}	types.Envelope{data=model.Item}
//	@Failure	400		{object}	types.Envelope
//	@Failure	403		{object}	types.Envelope
//	@Failure	404		{object}	types.Envelope
//	@Router		/api/v1/items/{id} [patch]
func (h *Handler) UpdateItem(c *gin.Context) {
	var req types.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, fmt.Errorf("%w: %w", service.ErrValidation, err))
		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		invalid(c, err)
		return
	}

	it, err := h.items.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, it, "")
}

// DeleteItem 删除条目与图片.
//
//	@Summary	删除条目
//	@Tags		条目
//	@Produce	json
//	@Param		id	path		string	true	"条目 id"
//	@Success	200	{object}	types.Envelope{data=types.DeleteItemResponse}
//	@Failure	403	{object}	types.Envelope
//	@Failure	404	{object}	types.Envelope
//	@Router		/api/v1/items/{id} [delete]
func (h *Handler) DeleteItem(c *gin.Context) {
	deleted, err := h.items.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, types.DeleteItemResponse{Deleted: deleted}, "")
}

// ToggleVote 切换调用者对条目的投票.
//
//	@Summary	投票 / 取消投票
//	@Tags		投票
//	@Produce	json
//	@Param		id	path		string	true	"条目 id"
//	@Success	200	{object}	types.Envelope{data=types.VoteResponse}
//	@Failure	401	{object}	types.Envelope
//	@Failure	404	{object}	types.Envelope
//	@Router		/api/v1/items/{id}/vote [post]
func (h *Handler) ToggleVote(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == "" {
		fail(c, service.ErrUnauthorized)
		return
	}

	res, err := h.votes.Toggle(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		fail(c, err)
		return
	}

	msg := "Vote added"
	if res.Action == service.ActionRemoved {
		msg = "Vote removed"
	}

	ok(c, http.StatusOK, res, msg)
}

// ListVoters 条目的投票用户.
//
//	@Summary	投票用户列表
//	@Tags		投票
//	@Produce	json
//	@Param		id	path		string	true	"条目 id"
//	@Success	200	{object}	types.Envelope{data=types.VotersResponse}
//	@Failure	404	{object}	types.Envelope
//	@Router		/api/v1/items/{id}/voters [get]
func (h *Handler) ListVoters(c *gin.Context) {
	id := c.Param("id")

	voters, err := h.votes.Voters(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, types.VotersResponse{ItemID: id, Voters: voters, Count: len(voters)}, "")
}

// ListUserItems 某个用户创建的条目，按创建时间倒序.
//
//	@Summary	用户的条目
//	@Tags		条目
//	@Produce	json
//	@Param		id	path		string	true	"用户 id"
//	@Success	200	{object}	types.Envelope{data=[]model.Item}
//	@Router		/api/v1/users/{id}/items [get]
func (h *Handler) ListUserItems(c *gin.Context) {
	items, err := h.items.ListByOwner(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, items, "")
}
