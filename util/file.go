package util

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"

	nhttp "github.com/chaos-io/nobg/util/http"

	// 注册常见格式的解码器
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode 解码图片，返回格式名（png、jpeg、webp 等）
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// OpenImage 打开本地图片
func OpenImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	img, _, err := Decode(file)
	return img, err
}

// DownloadImage 下载图片，maxBytes > 0 时限制响应大小
func DownloadImage(ctx context.Context, cli nhttp.IClient, url string, maxBytes int64) (image.Image, error) {
	var data []byte
	err := cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI:   url,
		Method:       "GET",
		Response:     &data,
		MaxBodyBytes: maxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}

	img, _, err := Decode(bytes.NewReader(data))
	return img, err
}

// EncodePNG 以 PNG 编码（保留 alpha 通道）
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// WritePNG 先写临时文件再 rename，避免留下写了一半的输出
func WritePNG(path string, img image.Image) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+ksuid.New().String()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := EncodePNG(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
