// Package normalizer prepares source images for the edit endpoint.
//
// Normalization is best effort: an image that cannot be decoded or
// re-encoded is still forwarded, but the outcome says so explicitly.
package normalizer

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

// Status describes how far normalization got
type Status int

const (
	// StatusNormalized means the image was decoded and re-encoded as PNG
	StatusNormalized Status = iota
	// StatusDecodeFailed means the bytes are forwarded untouched and the ratio is assumed square
	StatusDecodeFailed
	// StatusEncodeFailed means the ratio is known but the original bytes are forwarded
	StatusEncodeFailed
)

func (s Status) String() string {
	switch s {
	case StatusNormalized:
		return "normalized"
	case StatusDecodeFailed:
		return "decode_failed"
	case StatusEncodeFailed:
		return "encode_failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of Normalize
type Result struct {
	Data   []byte
	Width  int
	Height int
	Ratio  float64
	Status Status
	// Err is set whenever Status is not StatusNormalized
	Err error
}

// Normalized reports whether the image was fully normalized
func (r Result) Normalized() bool {
	return r.Status == StatusNormalized
}

var rejectedExtensions = []string{".heic", ".heif"}

// CheckFilename refuses file types the images API cannot take
func CheckFilename(name string) error {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	for _, rejected := range rejectedExtensions {
		if ext == rejected {
			return domain.ErrUnsupportedFormat
		}
	}
	return nil
}

// Normalize decodes data, converts it to NRGBA and re-encodes it as PNG
func Normalize(data []byte) Result {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Result{
			Data:   data,
			Ratio:  1,
			Status: StatusDecodeFailed,
			Err:    fmt.Errorf("failed to decode image: %w", err),
		}
	}

	bounds := img.Bounds()
	res := Result{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Ratio:  1,
	}
	if res.Height > 0 {
		res.Ratio = float64(res.Width) / float64(res.Height)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Clone(img), imaging.PNG); err != nil {
		res.Data = data
		res.Status = StatusEncodeFailed
		res.Err = fmt.Errorf("failed to encode image: %w", err)
		return res
	}

	res.Data = buf.Bytes()
	res.Status = StatusNormalized
	return res
}

// LargeUploadNotice returns a hint for uploads above threshold, or "" otherwise
func LargeUploadNotice(size, threshold int64) string {
	if threshold <= 0 || size <= threshold {
		return ""
	}
	mb := float64(size) / (1024 * 1024)
	return fmt.Sprintf("Note: the uploaded file is fairly large (~%.1f MB). If something goes wrong, please shrink it on your device first.", mb)
}
