package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func bounds(t *testing.T, root, rel string) image.Rectangle {
	t.Helper()
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return image.Rect(0, 0, cfg.Width, cfg.Height)
}

func TestSaveAvatar(t *testing.T) {
	root := t.TempDir()
	u := New(root)

	rel, err := u.SaveAvatar("me.PNG", bytes.NewReader(pngBytes(t, 400, 200)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "uploads/avatars/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))
	assert.Equal(t, image.Rect(0, 0, 100, 50), bounds(t, root, rel))

	small, err := u.SaveAvatar("tiny.png", bytes.NewReader(pngBytes(t, 40, 30)))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), bounds(t, root, small))
}

func TestSaveLogoIsSquare(t *testing.T) {
	root := t.TempDir()
	rel, err := New(root).SaveLogo("logo.png", bytes.NewReader(pngBytes(t, 640, 480)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "uploads/logos/"))
	assert.Equal(t, image.Rect(0, 0, 300, 300), bounds(t, root, rel))
}

func TestSaveDishImages(t *testing.T) {
	root := t.TempDir()
	var src bytes.Buffer
	require.NoError(t, jpeg.Encode(&src, image.NewRGBA(image.Rect(0, 0, 1000, 1600)), nil))

	big, thumb, err := New(root).SaveDishImages("dish.jpeg", &src)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(big, "_big.jpeg"))
	assert.True(t, strings.HasSuffix(thumb, "_thumb.jpeg"))
	assert.Equal(t, strings.TrimSuffix(big, "_big.jpeg"), strings.TrimSuffix(thumb, "_thumb.jpeg"))
	assert.Equal(t, image.Rect(0, 0, 500, 800), bounds(t, root, big))
	assert.Equal(t, image.Rect(0, 0, 62, 100), bounds(t, root, thumb))
}

func TestRejectsUnsupportedFiles(t *testing.T) {
	u := New(t.TempDir())
	var ve *api.ValidationError

	_, err := u.SaveAvatar("me.bmp", bytes.NewReader(nil))
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "头像格式不支持，只能上传 jpg/jpeg/png/gif", ve.Msg)

	_, err = u.SaveLogo("logo.webp", bytes.NewReader(nil))
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Logo 格式不支持，只能上传 jpg/jpeg/png/gif", ve.Msg)

	_, _, err = u.SaveDishImages("noext", bytes.NewReader(nil))
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "菜品图片格式不支持，只能上传 jpg/jpeg/png/gif", ve.Msg)

	_, err = u.SaveAvatar("fake.png", strings.NewReader("not an image"))
	assert.True(t, errors.As(err, &ve))
}

func TestEnsureDirsAndRemove(t *testing.T) {
	root := t.TempDir()
	u := New(root)
	require.NoError(t, u.EnsureDirs())
	for _, k := range Kinds {
		assert.DirExists(t, filepath.Join(root, "uploads", k))
	}

	rel, err := u.SaveAvatar("a.png", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)
	require.NoError(t, u.Remove(rel))
	assert.NoFileExists(t, filepath.Join(root, rel))
	assert.NoError(t, u.Remove(rel))
	assert.NoError(t, u.Remove("../etc/passwd"))
	assert.NoError(t, u.Remove("uploads/../../outside.png"))
}
