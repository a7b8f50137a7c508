// Package avatar downloads contact avatars and turns them into the round,
// fixed-size PNG images a tile displays.
package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/louisbranch/wear-tiles/internal/platform/assets/catalog"
	"github.com/louisbranch/wear-tiles/internal/platform/assets/imagecdn"
	"github.com/louisbranch/wear-tiles/internal/platform/timeouts"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
)

const (
	// DefaultSizePX is the rendered avatar diameter.
	DefaultSizePX = 48
	// maxImageBytes caps one downloaded avatar.
	maxImageBytes = 4 << 20
)

var (
	errUnexpectedStatus = errors.New("unexpected avatar response status")
	errEmptyImage       = errors.New("avatar image is empty")
)

// Config tunes avatar loading.
type Config struct {
	// CDN addresses built-in catalog avatars.
	CDN imagecdn.CDN
	// SizePX is the output diameter. Zero uses DefaultSizePX.
	SizePX int
	// Timeout bounds one download. Zero uses timeouts.AvatarFetch.
	Timeout time.Duration
	// Client overrides the HTTP client.
	Client *http.Client
	Logf   func(string, ...any)
}

// Loader implements domain.AvatarLoader over HTTP.
type Loader struct {
	cdn     imagecdn.CDN
	size    int
	timeout time.Duration
	client  *http.Client
	logf    func(string, ...any)
}

// NewLoader builds a loader from cfg.
func NewLoader(cfg Config) *Loader {
	size := cfg.SizePX
	if size <= 0 {
		size = DefaultSizePX
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.AvatarFetch
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Loader{cdn: cfg.CDN, size: size, timeout: timeout, client: client, logf: logf}
}

// LoadAvatar fetches and prepares one avatar. Every failure is logged and
// reported as false.
func (l *Loader) LoadAvatar(ctx context.Context, contact domain.Contact) (domain.Image, bool) {
	img, err := l.load(ctx, contact)
	if err != nil {
		if ctx.Err() == nil {
			l.logf("load avatar for contact %s: %v", contact.ID, err)
		}
		return domain.Image{}, false
	}
	return img, true
}

func (l *Loader) load(ctx context.Context, contact domain.Contact) (domain.Image, error) {
	target, err := l.resolve(contact)
	if err != nil {
		return domain.Image{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	src, err := l.fetch(ctx, target.url)
	if err != nil {
		return domain.Image{}, err
	}
	if target.crop != nil && target.crop.In(src.Bounds()) {
		src = subImage(src, *target.crop)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Round(src, l.size)); err != nil {
		return domain.Image{}, fmt.Errorf("encode avatar: %w", err)
	}
	return domain.Image{
		Format:   "png",
		WidthPX:  l.size,
		HeightPX: l.size,
		Data:     buf.Bytes(),
	}, nil
}

type target struct {
	url string
	// crop is applied locally when the host serves the whole sprite sheet.
	crop *image.Rectangle
}

// resolve maps a contact's avatar source to a download target. Absolute
// http(s) sources are used as is; anything else names a catalog asset.
func (l *Loader) resolve(contact domain.Contact) (target, error) {
	source := strings.TrimSpace(contact.AvatarSource)
	if parsed, err := url.Parse(source); err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != "" {
		return target{url: source}, nil
	}

	selection, err := catalog.ResolveContactAvatar(source, contact.ID)
	if err != nil {
		return target{}, fmt.Errorf("resolve catalog avatar: %w", err)
	}
	portrait := selection.Portrait
	req := imagecdn.Request{AssetID: selection.AssetID, Extension: ".png"}
	if portrait.WidthPX > 0 && portrait.HeightPX > 0 {
		req.Crop = &imagecdn.Crop{X: portrait.X, Y: portrait.Y, WidthPX: portrait.WidthPX, HeightPX: portrait.HeightPX}
		req.Delivery = &imagecdn.Delivery{WidthPX: l.size * 2}
	}
	address, err := l.cdn.URL(req)
	if err != nil {
		return target{}, fmt.Errorf("build avatar url: %w", err)
	}
	resolved := target{url: address}
	if req.Crop != nil && !l.cdn.Transforms() {
		rect := image.Rect(portrait.X, portrait.Y, portrait.X+portrait.WidthPX, portrait.Y+portrait.HeightPX)
		resolved.crop = &rect
	}
	return resolved, nil
}

func (l *Loader) fetch(ctx context.Context, address string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("build avatar request: %w", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/webp")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch avatar: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}
	src, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, errEmptyImage
	}
	return src, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func subImage(src image.Image, rect image.Rectangle) image.Image {
	if sub, ok := src.(subImager); ok {
		return sub.SubImage(rect)
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst
}

// Round center-crops src to a square, scales it to size and clears
// everything outside the inscribed circle.
func Round(src image.Image, size int) *image.RGBA {
	bounds := src.Bounds()
	side := min(bounds.Dx(), bounds.Dy())
	square := image.Rect(0, 0, side, side).Add(image.Pt(
		bounds.Min.X+(bounds.Dx()-side)/2,
		bounds.Min.Y+(bounds.Dy()-side)/2,
	))

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, square, draw.Over, &draw.Options{
		DstMask: circle{size: size},
	})
	return dst
}

// circle is an alpha mask of the disc inscribed in a size x size square.
type circle struct {
	size int
}

func (c circle) ColorModel() color.Model { return color.AlphaModel }

func (c circle) Bounds() image.Rectangle { return image.Rect(0, 0, c.size, c.size) }

func (c circle) At(x, y int) color.Color {
	r := float64(c.size) / 2
	dx := float64(x) + 0.5 - r
	dy := float64(y) + 0.5 - r
	if dx*dx+dy*dy <= r*r {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}
