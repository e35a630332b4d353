package utils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "golang.org/x/image/webp"
)

var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrFileTooLarge    = errors.New("file size exceeds limit")
	ErrNotAnImage      = errors.New("uploaded file is not an image")
	ErrUnsupportedType = errors.New("unsupported image format")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadFile(file *multipart.FileHeader) ([]byte, error)
	DecodeImageConfig(data []byte) (ImageInfo, error)
}

// ImageInfo describes a decoded frame header.
type ImageInfo struct {
	Width       int
	Height      int
	Format      string
	ContentType string
	Extension   string
}

type utils struct {
	maxFileSize int64
	maxPixels   int64
}

func New() IUtils {
	return &utils{
		maxFileSize: 5 * 1024 * 1024,
		maxPixels:   40_000_000,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	return nil
}

func (u *utils) ReadFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, u.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > u.maxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// DecodeImageConfig reads only the image header: dimensions and format. A
// compressed upload can declare far more pixels than its byte size suggests,
// so the declared area is bounded before anything sized by it is allocated.
func (u *utils) DecodeImageConfig(data []byte) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageInfo{}, fmt.Errorf("%w: empty %dx%d frame", ErrUnsupportedType, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > u.maxPixels {
		return ImageInfo{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedType, cfg.Width, cfg.Height, u.maxPixels)
	}

	info := ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}
	switch format {
	case "jpeg":
		info.ContentType, info.Extension = "image/jpeg", ".jpg"
	case "png":
		info.ContentType, info.Extension = "image/png", ".png"
	case "webp":
		info.ContentType, info.Extension = "image/webp", ".webp"
	default:
		return ImageInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedType, format)
	}

	return info, nil
}
