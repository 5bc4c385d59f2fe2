package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/yeisme/avatarhub/pkg/configs"
)

var (
	// ErrUnsupportedFormat 上传内容不是可接受的图片格式.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTooLarge 上传内容超过大小上限.
	ErrTooLarge = errors.New("image too large")
	// ErrEmpty 上传内容为空.
	ErrEmpty = errors.New("image is empty")
)

// OutputFormat 所有图片统一转码后的格式.
const OutputFormat = "jpg"

// allowedMIME 根据字节嗅探得到的 MIME 类型，不信任客户端提供的 Content-Type.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Processor 将上传图片规范化：嗅探格式、解码、按长边缩放、转码为 JPEG.
type Processor struct {
	MaxDimension int
	Quality      int
	MaxBytes     int64
	MaxPixels    int64
}

// NewProcessor 从配置创建 Processor.
func NewProcessor(cfg configs.MediaConfig) Processor {
	return Processor{
		MaxDimension: cfg.MaxDimension,
		Quality:      cfg.JPEGQuality,
		MaxBytes:     cfg.MaxUploadBytes,
		MaxPixels:    cfg.MaxPixels,
	}
}

// Processed 处理后的图片.
type Processed struct {
	Data   []byte
	Width  int
	Height int
	Format string
}

// Process 处理原始图片字节.
func (p Processor) Process(data []byte) (*Processed, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), p.MaxBytes)
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, detected)
	}

	// 解码会按头部声明的尺寸分配内存，先只读头部校验像素总数
	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrUnsupportedFormat, err)
	}

	if px := int64(hdr.Width) * int64(hdr.Height); hdr.Width <= 0 || hdr.Height <= 0 || px > p.maxPixels() {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, hdr.Width, hdr.Height, p.maxPixels())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrUnsupportedFormat, err)
	}

	img = downscale(img, p.maxDimension())

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: p.quality()}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()

	return &Processed{
		Data:   buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: OutputFormat,
	}, nil
}

func (p Processor) maxDimension() int {
	if p.MaxDimension <= 0 {
		return configs.DefaultMaxDimension
	}

	return p.MaxDimension
}

func (p Processor) maxPixels() int64 {
	if p.MaxPixels <= 0 {
		return configs.DefaultMaxPixels
	}

	return p.MaxPixels
}

func (p Processor) quality() int {
	if p.Quality <= 0 || p.Quality > 100 {
		return configs.DefaultJPEGQuality
	}

	return p.Quality
}

// downscale 等比缩放使宽高都不超过 maxDim，已在范围内时原样返回.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}

// flatten 把透明区域铺白，JPEG 没有 alpha 通道.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)

	return dst
}
