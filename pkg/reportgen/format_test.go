package reportgen

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type money int

func (m money) String() string {
	return "$" + string(rune('0'+int(m)))
}

func TestFormatterFormat(t *testing.T) {
	f := newFormatter(language.English, nil, "02.01.2006")
	field := Property{ID: 1, Kind: PropertyField}

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "text", "text"},
		{"bytes", []byte("raw"), "raw"},
		{"bool", true, "true"},
		{"small int", 42, "42"},
		{"uint", uint8(7), "7"},
		{"time", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), "09.03.2024"},
		{"zero time", time.Time{}, ""},
		{"stringer", money(5), "$5"},
		{"other", []int{1, 2}, "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(field, tt.value))
		})
	}
}

func TestFormatterFieldLanguage(t *testing.T) {
	f := newFormatter(language.English, map[PropertyID]language.Tag{2: language.German}, "")

	assert.Equal(t, language.German, f.languageFor(Property{ID: 2}))
	assert.Equal(t, language.English, f.languageFor(Property{ID: 1}))
	assert.Equal(t, DefaultConfig().DateFormat, f.dateFormat)
}

func TestImageValue(t *testing.T) {
	t.Run("nil and empty", func(t *testing.T) {
		img, err := imageValue(nil)
		require.NoError(t, err)
		assert.Nil(t, img)

		img, err = imageValue([]byte{})
		require.NoError(t, err)
		assert.Nil(t, img)
	})

	t.Run("encoded bytes", func(t *testing.T) {
		img, err := imageValue(testPNG(t, 4, 5))
		require.NoError(t, err)
		assert.Equal(t, "png", img.Format)
		assert.Equal(t, 4, img.Width)
		assert.Equal(t, 5, img.Height)
		assert.Equal(t, "image/png", img.MIMEType())
		assert.Equal(t, ".png", img.Extension())
	})

	t.Run("decoded image", func(t *testing.T) {
		img, err := imageValue(image.NewGray(image.Rect(0, 0, 3, 2)))
		require.NoError(t, err)
		assert.Equal(t, 3, img.Width)
		assert.Equal(t, 2, img.Height)
		assert.NotEmpty(t, img.Data)
	})

	t.Run("image value", func(t *testing.T) {
		img, err := imageValue(Image{Format: "jpeg"})
		require.NoError(t, err)
		assert.Equal(t, ".jpg", img.Extension())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := imageValue([]byte("nope"))
		require.Error(t, err)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := imageValue(errors.New("x"))
		require.Error(t, err)
	})
}
