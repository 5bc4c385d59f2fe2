// Package model 定义持久化到关系库的画廊模型.
package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Item 画廊条目：一张图片加一段头像代码.
// VoteCount 始终等于 item_votes 中该条目的行数，只通过投票事务修改.
type Item struct {
	ID          string   `gorm:"primaryKey;size:64"           json:"id"`
	Code        string   `gorm:"size:512;uniqueIndex;not null" json:"code"`
	Name        string   `gorm:"size:255;not null"             json:"name"`
	Description string   `gorm:"type:text"                     json:"description,omitempty"`
	Tags        []string `gorm:"serializer:json;type:text"     json:"tags"`
	Style       string   `gorm:"size:64;index"                 json:"style,omitempty"`
	Role        string   `gorm:"size:64;index"                 json:"role,omitempty"`

	ImageURL       string `gorm:"size:1024;not null" json:"imageUrl"`
	ImageStorageID string `gorm:"size:512;not null"  json:"imageStorageId"`
	ImageWidth     int    `json:"imageWidth"`
	ImageHeight    int    `json:"imageHeight"`
	ImageFormat    string `gorm:"size:16"            json:"imageFormat"`

	// SearchText code、name、description 按 Unicode 小写折叠后的拼接，供不区分大小写的子串搜索.
	// 各数据库的 LOWER 对非 ASCII 字符行为不一致，折叠统一在应用侧完成.
	SearchText string `gorm:"type:text" json:"-"`

	OwnerID   string `gorm:"size:255;index;not null" json:"ownerId"`
	VoteCount int64  `gorm:"index;not null;default:0" json:"voteCount"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// searchSeparator 字段间分隔符，避免跨字段拼出的子串被命中.
const searchSeparator = "\n"

// FoldSearch 搜索使用的大小写折叠.
func FoldSearch(s string) string {
	return strings.ToLower(s)
}

// RefreshSearchText 按当前字段重算 SearchText.
func (i *Item) RefreshSearchText() {
	i.SearchText = FoldSearch(strings.Join([]string{i.Code, i.Name, i.Description}, searchSeparator))
}

// BeforeCreate 写入前生成 SearchText.
func (i *Item) BeforeCreate(*gorm.DB) error {
	i.RefreshSearchText()
	return nil
}

// AfterFind 标签列为空时返回空切片，JSON 中输出 [] 而不是 null.
func (i *Item) AfterFind(*gorm.DB) error {
	if i.Tags == nil {
		i.Tags = []string{}
	}

	return nil
}

// ItemVote 投票账本中的一行，(item_id, user_id) 唯一.
type ItemVote struct {
	ItemID    string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"primaryKey;size:255;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ItemTag 标签反向索引，用于按标签筛选.
type ItemTag struct {
	ItemID string `gorm:"primaryKey;size:64"`
	Tag    string `gorm:"primaryKey;size:64;index"`
}

// Models 需要自动迁移的模型.
func Models() []any {
	return []any{&Item{}, &ItemVote{}, &ItemTag{}}
}
