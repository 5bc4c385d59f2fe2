package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/avatarhub/pkg/cache"
	"github.com/yeisme/avatarhub/pkg/metrics"
)

const (
	DefaultMaxBodyBytes   = 1 << 20 // 1MB
	defaultKeyBuilderGrow = 64      // 为 key builder 预分配容量
	defaultTTL            = 30 * time.Second
	keyPrefix             = "rc."
)

// 不随缓存条目保存的响应头，由当前请求的写出链路重新生成.
var skipStoredHeaders = map[string]struct{}{
	"Content-Encoding": {},
	"Content-Length":   {},
	"Vary":             {},
	"X-Cache":          {},
	"Age":              {},
}

// CacheConfig 缓存中间件配置.
type CacheConfig struct {
	Cache   *appcache.Cache                       // 必须: 业务注入的 Cache 实例
	TTL     time.Duration                         // 默认 TTL
	TTLFunc func(*gin.Context, int) time.Duration // 可选: 按请求/状态动态 TTL

	Methods     []string // 允许缓存的 HTTP 方法 (默认 GET,HEAD)
	StatusCodes []int    // 允许缓存的响应状态码 (默认 200)

	KeyFunc     func(*gin.Context) string // 生成缓存键
	Generation  func(*gin.Context) string // 可选: 数据代号，参与缓存键，代号变化即整体失效
	Skipper     func(*gin.Context) bool   // 返回 true 跳过缓存
	VaryHeaders []string                  // 参与 Key 的 Header 列表

	RespectCacheControl bool   // 若为 true 且响应含 no-store/private 则不缓存
	BypassHeader        string // 请求头存在该 header(任意值) 则跳过缓存, 默认: X-Cache-Bypass

	MaxBodyBytes int // 缓存响应体最大字节 (0=不限制)
}

// DefaultCacheConfig 返回一份默认配置.
func DefaultCacheConfig(c *appcache.Cache) CacheConfig {
	return CacheConfig{
		Cache:               c,
		TTL:                 defaultTTL,
		Methods:             []string{"GET", "HEAD"},
		StatusCodes:         []int{http.StatusOK},
		BypassHeader:        "X-Cache-Bypass",
		MaxBodyBytes:        DefaultMaxBodyBytes,
		RespectCacheControl: true,
	}
}

// CacheMiddleware 构造响应缓存中间件. 响应存入 cache.Cache 注入的 KV，
// 支持 ETag / If-None-Match 与 Cache-Control: no-store/private/max-age，命中时带 X-Cache: HIT.
// 缓存读写失败不影响主流程.
//
// 使用示例:
//
//	cfg := middleware.DefaultCacheConfig(cache.NewCache(kvStore))
//	cfg.VaryHeaders = []string{"X-User"}
//	items.GET("/:id", middleware.CacheMiddleware(cfg), h.GetItem)
func CacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil {
		panic("CacheMiddleware: Cache cannot be nil")
	}

	if len(cfg.Methods) == 0 {
		cfg.Methods = []string{"GET", "HEAD"}
	}

	if len(cfg.StatusCodes) == 0 {
		cfg.StatusCodes = []int{http.StatusOK}
	}

	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return DefaultCacheKey(c, cfg.VaryHeaders) }
	}

	vary := append([]string(nil), cfg.VaryHeaders...)
	sort.Strings(vary)
	cfg.VaryHeaders = vary

	if cfg.BypassHeader == "" {
		cfg.BypassHeader = "X-Cache-Bypass"
	}

	methodSet := buildMethodSet(cfg.Methods)
	statusSet := buildStatusSet(cfg.StatusCodes)

	return func(c *gin.Context) {
		if shouldBypass(c, cfg, methodSet) {
			c.Next()
			return
		}

		key := cfg.KeyFunc(c)
		if cfg.Generation != nil {
			key = keyPrefix + cfg.Generation(c) + "." + strings.TrimPrefix(key, keyPrefix)
		}

		route := routeOf(c)

		if entry, err := appcache.Get[responseCacheEntry](c.Request.Context(), cfg.Cache, key); err == nil {
			metrics.ResponseCacheTotal.WithLabelValues(route, "hit").Inc()
			entry.replay(c)

			return
		}

		metrics.ResponseCacheTotal.WithLabelValues(route, "miss").Inc()
		c.Header("X-Cache", "MISS")

		bw := &bodyCaptureWriter{ResponseWriter: c.Writer, max: cfg.MaxBodyBytes}
		c.Writer = bw
		c.Next()
		store(c, cfg, key, bw, statusSet)
	}
}

// responseCacheEntry 序列化存储结构.
type responseCacheEntry struct {
	Status   int               `json:"s"`
	Header   map[string]string `json:"h,omitempty"`
	Body     []byte            `json:"b,omitempty"`
	ETag     string            `json:"e,omitempty"`
	StoredAt int64             `json:"t"` // unix nano, 用于 Age
}

// DefaultCacheKey 由方法、路由模板、路径参数、排序后的 query 与 vary 请求头拼接后取 xxhash.
func DefaultCacheKey(c *gin.Context, vary []string) string {
	var b strings.Builder
	b.Grow(defaultKeyBuilderGrow) // 预分配容量

	// 示例: "GET:/api/v1/items/:id#id=av_1?foo=1|hv=X-User=u1"
	b.WriteString(c.Request.Method)
	b.WriteByte(':')

	full := c.FullPath()
	if full == "" { // 未匹配路由时使用原始路径
		full = c.Request.URL.Path
	}

	b.WriteString(full)

	for _, p := range c.Params {
		b.WriteByte('#')
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}

	if q := c.Request.URL.Query(); len(q) > 0 { // 排序 query
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}

		sort.Strings(keys)
		b.WriteByte('?')

		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}

			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(strings.Join(q[k], ","))
		}
	}

	if len(vary) > 0 { // 参与 key 的 headers
		if !sort.StringsAreSorted(vary) {
			vary = append([]string(nil), vary...)
			sort.Strings(vary)
		}

		b.WriteString("|hv=")

		for i, h := range vary {
			if i > 0 {
				b.WriteByte('&')
			}

			b.WriteString(h)
			b.WriteByte('=')
			b.WriteString(c.GetHeader(h))
		}
	}

	return fmt.Sprintf("%s%x", keyPrefix, xxhash.Sum64String(b.String()))
}

// bodyCaptureWriter 包装响应写入用于捕获 body.
type bodyCaptureWriter struct {
	gin.ResponseWriter

	buf       bytes.Buffer
	max       int
	truncated bool
}

// Write 捕获响应体，超过 max 后标记截断且不再缓存.
func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	if !w.truncated {
		if w.max > 0 && w.buf.Len()+len(b) > w.max {
			w.truncated = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}

// buildMethodSet 构建方法集合.
func buildMethodSet(methods []string) map[string]struct{} {
	ms := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		ms[strings.ToUpper(m)] = struct{}{}
	}

	return ms
}

// buildStatusSet 构建状态码集合.
func buildStatusSet(statuses []int) map[int]struct{} {
	ss := make(map[int]struct{}, len(statuses))
	for _, s := range statuses {
		ss[s] = struct{}{}
	}

	return ss
}

// shouldBypass 检查是否应跳过缓存.
func shouldBypass(c *gin.Context, cfg CacheConfig, methodSet map[string]struct{}) bool {
	if cfg.Skipper != nil && cfg.Skipper(c) {
		return true
	}

	if _, ok := methodSet[c.Request.Method]; !ok {
		return true
	}

	if cfg.BypassHeader != "" && c.GetHeader(cfg.BypassHeader) != "" {
		return true
	}

	return false
}

// replay 写回缓存的响应. If-None-Match 与 ETag 一致时返回 304.
func (e responseCacheEntry) replay(c *gin.Context) {
	h := c.Writer.Header()
	for k, v := range e.Header {
		h.Set(k, v)
	}

	if e.ETag != "" {
		h.Set("ETag", e.ETag)
	}

	h.Set("Age", strconv.FormatInt(int64(time.Since(time.Unix(0, e.StoredAt))/time.Second), 10))
	h.Set("X-Cache", "HIT")

	switch {
	case e.ETag != "" && c.GetHeader("If-None-Match") == e.ETag:
		c.AbortWithStatus(http.StatusNotModified)
	case c.Request.Method == http.MethodHead:
		c.AbortWithStatus(e.Status)
	default:
		c.Status(e.Status)
		_, _ = c.Writer.Write(e.Body)
		c.Abort()
	}
}

// routeOf 返回路由模板，未匹配时为 unmatched.
func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}

	return "unmatched"
}

// parseCacheControlTTL 解析 Cache-Control; 返回 (覆写TTL, 是否允许缓存).
func parseCacheControlTTL(h http.Header) (time.Duration, bool) {
	cc := h.Get("Cache-Control")
	if cc == "" {
		return 0, true
	}

	lower := strings.ToLower(cc)
	if strings.Contains(lower, "no-store") || strings.Contains(lower, "private") {
		return 0, false
	}

	if idx := strings.Index(lower, "max-age="); idx >= 0 {
		part := lower[idx+8:]
		if cidx := strings.Index(part, ","); cidx >= 0 {
			part = part[:cidx]
		}

		if d, err := time.ParseDuration(strings.TrimSpace(part) + "s"); err == nil && d > 0 {
			return d, true
		}
	}

	return 0, true
}

// store 按状态码、Cache-Control 与 TTL 决定是否异步写入缓存.
func store(c *gin.Context, cfg CacheConfig, key string, bw *bodyCaptureWriter, statusSet map[int]struct{}) {
	status := c.Writer.Status()
	if _, ok := statusSet[status]; !ok || bw.truncated {
		return
	}

	ttl := cfg.TTL

	if cfg.RespectCacheControl {
		override, cacheable := parseCacheControlTTL(c.Writer.Header())
		if !cacheable {
			return
		}

		if override > 0 {
			ttl = override
		}
	}

	if cfg.TTLFunc != nil {
		ttl = cfg.TTLFunc(c, status)
	}

	if ttl <= 0 {
		return
	}

	body := bytes.Clone(bw.buf.Bytes())

	hdr := make(map[string]string, len(c.Writer.Header()))
	for k, v := range c.Writer.Header() {
		if _, skip := skipStoredHeaders[k]; !skip && len(v) > 0 {
			hdr[k] = v[0]
		}
	}

	etag := hdr["Etag"]
	if etag == "" {
		etag = fmt.Sprintf("%q", strconv.FormatUint(xxhash.Sum64(body), 16))
	}

	entry := responseCacheEntry{Status: status, Header: hdr, Body: body, ETag: etag, StoredAt: time.Now().UnixNano()}
	ctx := context.WithoutCancel(c.Request.Context())
	route := routeOf(c)

	go func() {
		if err := appcache.Set(ctx, cfg.Cache, key, entry, ttl); err != nil {
			metrics.ResponseCacheTotal.WithLabelValues(route, "error").Inc()
		}
	}()
}
