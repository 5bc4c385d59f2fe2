package media_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/yeisme/avatarhub/pkg/configs"
	"github.com/yeisme/avatarhub/pkg/internal/media"
)

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, c)
		}
	}

	return img
}

func testPNG(w, h int) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, fill(w, h, color.RGBA{0, 0, 255, 255}))

	return buf.Bytes()
}

func testJPEG(w, h int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, fill(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})

	return buf.Bytes()
}

func testGIF(w, h int) []byte {
	var buf bytes.Buffer
	_ = gif.Encode(&buf, fill(w, h, color.RGBA{0, 255, 0, 255}), nil)

	return buf.Bytes()
}

func processor() media.Processor {
	return media.Processor{MaxDimension: 1000, Quality: 85, MaxBytes: 5 << 20}
}

func TestProcessAlwaysOutputsJPEG(t *testing.T) {
	for name, data := range map[string][]byte{
		"png":  testPNG(64, 48),
		"jpeg": testJPEG(64, 48),
		"gif":  testGIF(64, 48),
	} {
		got, err := processor().Process(data)
		if err != nil {
			t.Fatalf("%s: process: %v", name, err)
		}

		if got.Format != media.OutputFormat {
			t.Errorf("%s: format = %s", name, got.Format)
		}

		if got.Width != 64 || got.Height != 48 {
			t.Errorf("%s: size = %dx%d, want 64x48", name, got.Width, got.Height)
		}

		if _, err := jpeg.Decode(bytes.NewReader(got.Data)); err != nil {
			t.Errorf("%s: output is not a JPEG: %v", name, err)
		}
	}
}

func TestProcessDownscalePreservesAspect(t *testing.T) {
	got, err := processor().Process(testPNG(2000, 1000))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if got.Width != 1000 || got.Height != 500 {
		t.Fatalf("size = %dx%d, want 1000x500", got.Width, got.Height)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(got.Data))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}

	if cfg.Width != 1000 || cfg.Height != 500 {
		t.Errorf("encoded size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	got, err := processor().Process(testJPEG(10, 20))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if got.Width != 10 || got.Height != 20 {
		t.Errorf("size = %dx%d, want 10x20", got.Width, got.Height)
	}
}

func TestProcessRejects(t *testing.T) {
	p := processor()

	if _, err := p.Process(nil); !errors.Is(err, media.ErrEmpty) {
		t.Errorf("empty: got %v", err)
	}

	if _, err := p.Process([]byte("definitely not an image")); !errors.Is(err, media.ErrUnsupportedFormat) {
		t.Errorf("text: got %v", err)
	}

	small := media.Processor{MaxBytes: 10}
	if _, err := small.Process(testPNG(8, 8)); !errors.Is(err, media.ErrTooLarge) {
		t.Errorf("too large: got %v", err)
	}
}

// forgePNG 将一张 1x1 PNG 的 IHDR 改写为声明 w x h，并重算校验和.
func forgePNG(w, h uint32) []byte {
	data := testPNG(1, 1)

	// 8 字节签名后依次为 IHDR 长度(4)、类型(4)、宽(4)、高(4)
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	return data
}

// forgeGIF 改写 GIF 逻辑屏幕尺寸.
func forgeGIF(w, h uint16) []byte {
	data := testGIF(1, 1)
	binary.LittleEndian.PutUint16(data[6:8], w)
	binary.LittleEndian.PutUint16(data[8:10], h)

	return data
}

func TestProcessRejectsOversizedDimensionsBeforeDecode(t *testing.T) {
	p := processor()

	for name, data := range map[string][]byte{
		"png": forgePNG(50000, 50000),
		"gif": forgeGIF(65535, 65535),
	} {
		if len(data) > 1024 {
			t.Fatalf("%s: forged input should stay tiny, got %d bytes", name, len(data))
		}

		if _, err := p.Process(data); !errors.Is(err, media.ErrTooLarge) {
			t.Errorf("%s: expected ErrTooLarge, got %v", name, err)
		}
	}

	limited := media.Processor{MaxPixels: 100}
	if _, err := limited.Process(testPNG(16, 16)); !errors.Is(err, media.ErrTooLarge) {
		t.Errorf("256 pixels over limit 100: got %v", err)
	}

	if _, err := limited.Process(testPNG(8, 8)); err != nil {
		t.Errorf("64 pixels under limit 100: got %v", err)
	}
}

func TestNewProcessorReadsPixelLimit(t *testing.T) {
	cfg := configs.Default().Media
	if cfg.MaxPixels != configs.DefaultMaxPixels {
		t.Fatalf("default max_pixels = %d, want %d", cfg.MaxPixels, configs.DefaultMaxPixels)
	}

	if got := media.NewProcessor(cfg).MaxPixels; got != cfg.MaxPixels {
		t.Errorf("NewProcessor MaxPixels = %d, want %d", got, cfg.MaxPixels)
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := media.NewMemoryStore(processor(), "http://cdn.test")

	asset, err := store.Upload(ctx, testPNG(32, 32), "avatars")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if asset.URL != "http://cdn.test/"+asset.StorageID {
		t.Errorf("url = %s", asset.URL)
	}

	if !store.Has(asset.StorageID) {
		t.Fatal("uploaded object missing")
	}

	objs, err := store.List(ctx, "avatars")
	if err != nil || len(objs) != 1 || objs[0].StorageID != asset.StorageID {
		t.Fatalf("list = %v, %v", objs, err)
	}

	if other, _ := store.List(ctx, "elsewhere"); len(other) != 0 {
		t.Errorf("foreign folder listed %v", other)
	}

	store.Age(asset.StorageID, time.Hour)

	objs, _ = store.List(ctx, "avatars")
	if time.Since(objs[0].LastModified) < time.Hour {
		t.Error("age did not shift LastModified")
	}

	if err := store.Delete(ctx, asset.StorageID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if store.Has(asset.StorageID) {
		t.Error("object still present after delete")
	}

	// 删除不存在的对象不报错
	if err := store.Delete(ctx, asset.StorageID); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := media.New(configs.MediaConfig{Store: configs.MediaStoreMemory}, nil)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}

	if _, ok := store.(*media.MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", store)
	}

	if _, err := media.New(configs.MediaConfig{Store: configs.MediaStoreS3}, nil); err == nil {
		t.Error("s3 without client should fail")
	}
}
