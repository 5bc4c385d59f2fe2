// Package s3 处理S3存储操作.
package s3

import (
	"context"
	"fmt"
	"net/url"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/avatarhub/pkg/configs"
	nlog "github.com/yeisme/avatarhub/pkg/log"
)

// publicReadPolicy 允许匿名读取桶内对象，图片 URL 直接对外可访问.
const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client
	cfg configs.S3Config
}

// New 初始化 MinIO 客户端，若 bucket 不存在则创建并设置公共读策略.
func New(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	c := *cfg
	endpoint := c.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			c.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKeyID, c.SecretAccessKey, ""),
		Secure: c.UseSSL,
		Region: c.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("avatarhub", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", c.Bucket, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, c.Bucket, minio.MakeBucketOptions{Region: c.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", c.Bucket, err)
		}

		if err := cli.SetBucketPolicy(ctx, c.Bucket, fmt.Sprintf(publicReadPolicy, c.Bucket)); err != nil {
			nlog.Logger().Warn().Err(err).Str("bucket", c.Bucket).Msg("set public read policy failed")
		}

		nlog.Logger().Info().Str("bucket", c.Bucket).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", c.Endpoint).Str("bucket", c.Bucket).Msg("s3 connected")

	return &Client{Client: cli, cfg: c}, nil
}

// HealthCheck 通过检查目标桶是否存在来验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	ok, err := c.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("bucket %s not found", c.cfg.Bucket)
	}

	return nil
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}

// Bucket 返回图片所在的桶.
func (c *Client) Bucket() string {
	return c.cfg.Bucket
}

// ObjectURL 返回对象公开地址.
func (c *Client) ObjectURL(key string) string {
	return c.cfg.ObjectURL(key)
}
