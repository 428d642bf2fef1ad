// Package screenshot captures the desktop and encodes it for vision models.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbinani/screenshot"
)

var (
	// ErrNoDisplay is returned when the configured display does not exist.
	ErrNoDisplay = errors.New("screenshot: display not found")

	// ErrUnsupportedFormat is returned for formats other than png and jpeg.
	ErrUnsupportedFormat = errors.New("screenshot: unsupported format")
)

// Image is an encoded screenshot.
type Image struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// Config controls capture and encoding.
type Config struct {
	// Display is the display index; 0 is the primary display.
	Display int

	// Format is "png" or "jpeg".
	Format string

	// Quality is the JPEG quality, 1-100.
	Quality int

	// MaxWidth downscales wider captures, keeping aspect ratio. 0 disables.
	MaxWidth int
}

// DefaultConfig returns PNG capture of the primary display.
func DefaultConfig() Config {
	return Config{Format: "png", Quality: 85}
}

// Validate normalizes the format and checks ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "png":
		c.Format = "png"
	case "jpg", "jpeg":
		c.Format = "jpeg"
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, c.Format)
	}
	if c.Quality <= 0 || c.Quality > 100 {
		c.Quality = 85
	}
	if c.MaxWidth < 0 {
		c.MaxWidth = 0
	}
	return nil
}

// GrabFunc captures a display as an RGBA image.
type GrabFunc func(display int) (*image.RGBA, error)

// Capturer takes screenshots.
type Capturer struct {
	config Config
	grab   GrabFunc
	logger *slog.Logger
}

// New creates a Capturer for the local desktop.
func New(cfg Config, logger *slog.Logger) (*Capturer, error) {
	return NewWithGrabber(cfg, grabDisplay, logger)
}

// NewWithGrabber creates a Capturer using grab instead of the OS display.
func NewWithGrabber(cfg Config, grab GrabFunc, logger *slog.Logger) (*Capturer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Capturer{
		config: cfg,
		grab:   grab,
		logger: logger.With("component", "screenshot"),
	}, nil
}

// Capture grabs the configured display and encodes it.
func (c *Capturer) Capture(ctx context.Context) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := c.grab(c.config.Display)
	if err != nil {
		return nil, err
	}

	out, err := encode(img, c.config)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("screenshot captured",
		"width", out.Width,
		"height", out.Height,
		"bytes", len(out.Data),
		"format", c.config.Format,
	)
	return out, nil
}

// Save captures a screenshot and writes it to path.
func (c *Capturer) Save(ctx context.Context, path string) (*Image, error) {
	img, err := c.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create screenshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write screenshot: %w", err)
	}
	c.logger.Info("screenshot saved", "path", path)
	return img, nil
}

func grabDisplay(display int) (*image.RGBA, error) {
	n := screenshot.NumActiveDisplays()
	if display < 0 || display >= n {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoDisplay, display, n)
	}
	img, err := screenshot.CaptureRect(screenshot.GetDisplayBounds(display))
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", display, err)
	}
	return img, nil
}

// scaledSize returns the output size for a w x h capture.
func scaledSize(w, h, maxWidth int) (int, int) {
	if maxWidth <= 0 || w <= maxWidth {
		return w, h
	}
	nh := h * maxWidth / w
	if nh < 1 {
		nh = 1
	}
	return maxWidth, nh
}
