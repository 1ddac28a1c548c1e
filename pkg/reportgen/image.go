package reportgen

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
)

// Image is an encoded picture ready to be embedded in a document
type Image struct {
	Data []byte
	// Format is the codec name reported by image.DecodeConfig (png, jpeg, gif)
	Format string
	Width  int
	Height int
}

// NewImage decodes the header of an encoded image
func NewImage(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &Image{
		Data:   data,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// EncodeImage encodes a decoded picture as PNG
func EncodeImage(img image.Image) (*Image, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	b := img.Bounds()
	return &Image{
		Data:   buf.Bytes(),
		Format: "png",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// MIMEType returns the content type of the image data
func (img *Image) MIMEType() string {
	return "image/" + img.Format
}

// Extension returns the file extension for the image format, including the dot
func (img *Image) Extension() string {
	switch img.Format {
	case "jpeg":
		return ".jpg"
	case "gif":
		return ".gif"
	default:
		return ".png"
	}
}

// imageValue converts a data source value into an image. A nil image with a nil
// error means there is nothing to draw.
func imageValue(v any) (*Image, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *Image:
		return val, nil
	case Image:
		return &val, nil
	case []byte:
		if len(val) == 0 {
			return nil, nil
		}
		return NewImage(val)
	case image.Image:
		return EncodeImage(val)
	default:
		return nil, fmt.Errorf("unsupported image value of type %T", v)
	}
}
