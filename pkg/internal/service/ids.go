package service

import (
	crand "crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

const itemIDPrefix = "av_"

var (
	// 单调熵源保证同一毫秒内生成的 ID 仍有序，本身非并发安全.
	ulidEntropy = ulid.Monotonic(crand.Reader, 0)
	ulidMu      sync.Mutex
)

// newItemID 生成形如 "av_01H..." 的条目 ID.
func newItemID(t time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return itemIDPrefix + ulid.MustNew(ulid.Timestamp(t), ulidEntropy).String()
}
