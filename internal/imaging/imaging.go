// Package imaging stores uploaded avatars, logos and dish photos under the
// static root, resized to the sizes the pages display.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/doralyyyyy/Restaurant-Platform/pkg/api"
)

const (
	avatarSize = 100
	logoSize   = 300
	dishBig    = 800
	dishThumb  = 100
)

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// Kinds are the subdirectories of uploads/.
var Kinds = []string{"avatars", "logos", "dishes"}

// Uploads writes images below root, typically the static directory.
type Uploads struct {
	root string
}

func New(root string) *Uploads { return &Uploads{root: root} }

// EnsureDirs creates uploads/<kind> for every kind.
func (u *Uploads) EnsureDirs() error {
	for _, k := range Kinds {
		if err := os.MkdirAll(filepath.Join(u.root, "uploads", k), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// SaveAvatar shrinks the image to fit 100x100 and returns its path relative
// to the static root.
func (u *Uploads) SaveAvatar(filename string, r io.Reader) (string, error) {
	ext, err := checkExt(filename, "头像格式不支持，只能上传 jpg/jpeg/png/gif")
	if err != nil {
		return "", err
	}
	img, err := decode(r)
	if err != nil {
		return "", err
	}
	return u.write("avatars", api.NewFileName(ext), fit(img, avatarSize), ext)
}

// SaveLogo crops the centre square and scales it to 300x300.
func (u *Uploads) SaveLogo(filename string, r io.Reader) (string, error) {
	ext, err := checkExt(filename, "Logo 格式不支持，只能上传 jpg/jpeg/png/gif")
	if err != nil {
		return "", err
	}
	img, err := decode(r)
	if err != nil {
		return "", err
	}
	return u.write("logos", api.NewFileName(ext), square(img, logoSize), ext)
}

// SaveDishImages stores a large copy fitting 800x800 and a thumbnail fitting
// 100x100 under a shared base name.
func (u *Uploads) SaveDishImages(filename string, r io.Reader) (big, thumb string, err error) {
	ext, err := checkExt(filename, "菜品图片格式不支持，只能上传 jpg/jpeg/png/gif")
	if err != nil {
		return "", "", err
	}
	img, err := decode(r)
	if err != nil {
		return "", "", err
	}
	base := strings.TrimSuffix(api.NewFileName(ext), ext)
	if big, err = u.write("dishes", base+"_big"+ext, fit(img, dishBig), ext); err != nil {
		return "", "", err
	}
	if thumb, err = u.write("dishes", base+"_thumb"+ext, fit(img, dishThumb), ext); err != nil {
		return "", "", err
	}
	return big, thumb, nil
}

// Remove deletes a previously stored file given its static-relative path.
// Missing files are not an error.
func (u *Uploads) Remove(rel string) error {
	rel = path.Clean(rel)
	if !strings.HasPrefix(rel, "uploads/") {
		return nil
	}
	err := os.Remove(filepath.Join(u.root, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func checkExt(filename, msg string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if !allowedExt[ext] {
		return "", api.Invalid(msg)
	}
	return ext, nil
}

func decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, api.Invalid("无法识别的图片文件")
	}
	return img, nil
}

// fit scales img down, keeping its aspect ratio, so that neither side exceeds
// limit. Smaller images are only flattened to RGB.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > limit || h > limit {
		if w >= h {
			h = max(1, h*limit/w)
			w = limit
		} else {
			w = max(1, w*limit/h)
			h = limit
		}
	}
	return scale(img, b, w, h)
}

// square crops the largest centred square and scales it to size x size.
func square(img image.Image, size int) image.Image {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	return scale(img, image.Rect(x0, y0, x0+side, y0+side), size, size)
}

// scale draws src onto an opaque white RGBA canvas of w x h.
func scale(img image.Image, src image.Rectangle, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}

func (u *Uploads) write(kind, name string, img image.Image, ext string) (string, error) {
	dir := filepath.Join(u.root, "uploads", kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := encode(f, img, ext); err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path.Join("uploads", kind, name), nil
}

func encode(w io.Writer, img image.Image, ext string) error {
	switch ext {
	case ".png":
		return png.Encode(w, img)
	case ".gif":
		return gif.Encode(w, img, nil)
	default:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	}
}
