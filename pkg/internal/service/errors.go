package service

import (
	"errors"
	"fmt"

	"github.com/yeisme/avatarhub/pkg/internal/media"
)

// 服务层哨兵错误，由 handle 层统一映射为 HTTP 状态码.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateCode = errors.New("this avatar code already exists")
	ErrValidation    = errors.New("validation failed")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("authentication required")
	ErrUpstream      = errors.New("upstream failure")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// mediaError 将图片处理错误归为校验错误，其余归为上游失败.
func mediaError(err error) error {
	switch {
	case errors.Is(err, media.ErrEmpty),
		errors.Is(err, media.ErrTooLarge),
		errors.Is(err, media.ErrUnsupportedFormat):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	default:
		return fmt.Errorf("%w: media upload: %w", ErrUpstream, err)
	}
}
