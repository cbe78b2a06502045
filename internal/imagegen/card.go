package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lox/migrationforecast/internal/metrics"
)

var (
	fontTitle   font.Face
	fontFigure  font.Face
	fontRegular font.Face
	fontOnce    sync.Once
	fontErr     error
)

func newFace(data []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func loadFonts() {
	fontOnce.Do(func() {
		if fontTitle, fontErr = newFace(gobold.TTF, 56); fontErr != nil {
			fontErr = fmt.Errorf("create title face: %w", fontErr)
			return
		}
		if fontFigure, fontErr = newFace(gobold.TTF, 96); fontErr != nil {
			fontErr = fmt.Errorf("create figure face: %w", fontErr)
			return
		}
		if fontRegular, fontErr = newFace(goregular.TTF, 30); fontErr != nil {
			fontErr = fmt.Errorf("create regular face: %w", fontErr)
		}
	})
}

// CardData is the forecast summary drawn on a share card.
type CardData struct {
	District  string
	Years     int
	Inflow    string // predicted inflow, as displayed
	Outflow   string
	AvgGrowth string // percent, without the sign
	Reasons   []string
}

// Card dimensions follow the Open Graph image size.
const (
	CardWidth  = 1200
	CardHeight = 630
)

var (
	cardTop    = color.RGBA{40, 16, 64, 255}
	cardBottom = color.RGBA{12, 6, 24, 255}
	titleColor = color.RGBA{216, 180, 255, 255} // #d8b4ff
	inflowCol  = color.RGBA{178, 102, 255, 255} // #b266ff
	outflowCol = color.RGBA{255, 95, 195, 255}  // #ff5fc3
	white      = color.RGBA{255, 255, 255, 255}
	lightGray  = color.RGBA{200, 200, 200, 255}
)

// GenerateCard draws a summary card for a forecast and encodes it as PNG.
func GenerateCard(data CardData) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	drawGradient(img)

	drawText(img, "Migration Forecast for "+data.District, 60, 100, titleColor, fontTitle)
	if data.Years > 0 {
		drawText(img, fmt.Sprintf("Next %d years", data.Years), 60, 150, lightGray, fontRegular)
	}

	drawFigure(img, 60, "Inflow", data.Inflow, inflowCol)
	drawFigure(img, 440, "Outflow", data.Outflow, outflowCol)
	drawFigure(img, 820, "Avg growth", data.AvgGrowth+"%", white)

	y := 470
	for _, r := range data.Reasons {
		drawText(img, "• "+r, 60, y, white, fontRegular)
		y += 42
	}
	drawText(img, "Uttarakhand migration forecast", 60, CardHeight-30, lightGray, fontRegular)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	metrics.ImagesRendered.WithLabelValues("card").Inc()
	return buf.Bytes(), nil
}

func drawFigure(img *image.RGBA, x int, label, value string, col color.Color) {
	drawText(img, label, x, 250, lightGray, fontRegular)
	if value == "" || value == "%" {
		value = "-"
	}
	drawText(img, value, x, 350, col, fontFigure)
}

// drawGradient fills the card with a vertical purple gradient.
func drawGradient(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		progress := float64(y-b.Min.Y) / float64(b.Dy())
		c := color.RGBA{
			R: lerp(cardTop.R, cardBottom.R, progress),
			G: lerp(cardTop.G, cardBottom.G, progress),
			B: lerp(cardTop.B, cardBottom.B, progress),
			A: 255,
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
