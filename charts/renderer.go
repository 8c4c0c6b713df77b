package charts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

const (
	DefaultWidth  = 8.0
	DefaultHeight = 6.0
	DefaultFormat = "png"
	DateFormat    = "2006-01-02"
)

var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"svg":  "image/svg+xml",
}

// Settings sizes every chart, width and height are in inches.
type Settings struct {
	Width  float64
	Height float64
	Format string
}

// Renderer draws analysis results with gonum/plot. It holds no plotting state between calls
// so one instance serves every request.
type Renderer struct {
	width  vg.Length
	height vg.Length
	format string
	logger *log.Logger
}

func NewRenderer(settings Settings, logger *log.Logger) (*Renderer, error) {
	if settings.Width <= 0 {
		settings.Width = DefaultWidth
	}
	if settings.Height <= 0 {
		settings.Height = DefaultHeight
	}
	if settings.Format == "" {
		settings.Format = DefaultFormat
	}
	if _, ok := mimeTypes[settings.Format]; !ok {
		return nil, fmt.Errorf("unsupported chart format %q", settings.Format)
	}

	return &Renderer{
		width:  vg.Length(settings.Width) * vg.Inch,
		height: vg.Length(settings.Height) * vg.Inch,
		format: settings.Format,
		logger: logger,
	}, nil
}

// MimeType is the media type of the bytes this renderer produces.
func (r *Renderer) MimeType() string {
	return mimeTypes[r.format]
}

func (r *Renderer) encode(p *plot.Plot, name string) ([]byte, error) {
	start := time.Now()

	wt, err := p.WriterTo(r.width, r.height, r.format)
	if err != nil {
		return nil, fmt.Errorf("error preparing %s chart: %w", name, err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("error encoding %s chart: %w", name, err)
	}

	r.logger.Debug().Str("chart", name).Int("bytes", buf.Len()).Dur("elapsed", time.Since(start)).Msg("chart rendered")
	return buf.Bytes(), nil
}
