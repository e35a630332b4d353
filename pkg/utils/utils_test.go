package utils

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"
)

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()
	a, err := u.NewULIDFromTimestamp(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 26 {
		t.Fatalf("ulid %q", a)
	}
}

func TestValidateImageFile(t *testing.T) {
	u := New()
	header := func(ct string, size int64) *multipart.FileHeader {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", ct)
		return &multipart.FileHeader{Filename: "x", Header: h, Size: size}
	}

	tests := []struct {
		name string
		file *multipart.FileHeader
		want error
	}{
		{"nil", nil, ErrNoFile},
		{"too large", header("image/jpeg", 6*1024*1024), ErrFileTooLarge},
		{"not image", header("application/pdf", 10), ErrNotAnImage},
		{"ok", header("image/png", 10), nil},
	}
	for _, tt := range tests {
		if err := u.ValidateImageFile(tt.file); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestDecodeImageConfig(t *testing.T) {
	u := New()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))

	var pngBuf, jpgBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(&jpgBuf, img, nil); err != nil {
		t.Fatal(err)
	}

	info, err := u.DecodeImageConfig(pngBuf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 64 || info.Height != 48 || info.ContentType != "image/png" || info.Extension != ".png" {
		t.Fatalf("%+v", info)
	}

	info, err = u.DecodeImageConfig(jpgBuf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if info.Format != "jpeg" || info.Extension != ".jpg" {
		t.Fatalf("%+v", info)
	}

	if _, err := u.DecodeImageConfig([]byte("plain text")); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("got %v", err)
	}
}

// pngHeader builds a PNG that carries only its signature and IHDR chunk,
// enough for a header decode to report the declared size.
func pngHeader(width, height uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeImageConfig_pixelBound(t *testing.T) {
	u := New()

	tests := []struct {
		name          string
		width, height uint32
		wantErr       bool
	}{
		{"small", 640, 480, false},
		{"twelve megapixel", 4000, 3000, false},
		{"at bound", 8000, 5000, false},
		{"just over bound", 8000, 5001, true},
		{"decompression bomb", 60000, 60000, true},
		{"wide strip", 2_000_000, 21, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := pngHeader(tt.width, tt.height)
			info, err := u.DecodeImageConfig(data)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Fatalf("%d-byte header declaring %dx%d: err = %v", len(data), tt.width, tt.height, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if info.Width != int(tt.width) || info.Height != int(tt.height) {
				t.Fatalf("%+v", info)
			}
		})
	}
}
