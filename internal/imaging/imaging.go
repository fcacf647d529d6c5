// Package imaging turns raw image bytes into the encodings llama-server
// accepts: data URLs for the chat API and base64 blobs for native
// multimodal prompts. Every function is pure.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned when the bytes are not a recognised image format.
var ErrNotImage = errors.New("not an image")

// MIMEType sniffs the media type of data and requires an image/* type.
func MIMEType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNotImage
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return mt.String(), nil
}

// DataURL encodes data as an RFC 2397 data URL with its sniffed media type.
func DataURL(data []byte) (string, error) {
	mt, err := MIMEType(data)
	if err != nil {
		return "", err
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Downscale shrinks the image so its longest side is at most maxSide and
// returns it PNG-encoded. Images already within bounds, and maxSide <= 0,
// return data unchanged.
func Downscale(data []byte, maxSide int) ([]byte, error) {
	if _, err := MIMEType(data); err != nil {
		return nil, err
	}
	if maxSide <= 0 {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= maxSide && h <= maxSide {
		return data, nil
	}
	nw, nh := fit(w, h, maxSide)
	resized := transform.Resize(img, nw, nh, transform.Linear)
	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Base64 returns the standard base64 encoding used in multimodal_data.
func Base64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func fit(w, h, maxSide int) (int, int) {
	if w >= h {
		nh := h * maxSide / w
		if nh < 1 {
			nh = 1
		}
		return maxSide, nh
	}
	nw := w * maxSide / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxSide
}
