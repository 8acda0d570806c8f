// Package imageexport renders board images with a defect marker and an
// information panel for repair instructions and reports.
package imageexport

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/aoikanri/aoidata/internal/models"
)

const (
	defaultTextAreaWidth = 300
	defaultQuality       = 85
	markerRadius         = 12
)

var markerColor = color.NRGBA{R: 220, G: 30, B: 30, A: 255}

// Options controls marker export output.
type Options struct {
	// Format is "png" (default), "jpeg" or "bmp".
	Format string
	// MaxImageSize limits the image portion, e.g. "800x600". Larger images
	// are scaled down preserving aspect ratio, smaller ones keep their size.
	// Accepts "x", "*" and "×" as separators. Empty keeps the original size.
	MaxImageSize string
	// TextAreaWidth is the info panel width appended on the right.
	TextAreaWidth int
	// Quality applies to JPEG output.
	Quality int
	// Filename without extension. Empty derives one from the defect identity.
	Filename string
}

// Export draws the defect marker onto the board image, appends the info
// panel and writes the result into outputDir. Returns the written path.
func Export(defect models.DefectRecord, imagePath, outputDir string, opts Options) (string, error) {
	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to open board image %s: %w", imagePath, err)
	}

	if opts.MaxImageSize != "" {
		maxWidth, maxHeight, err := parseMaxSize(opts.MaxImageSize)
		if err != nil {
			return "", err
		}
		if img.Bounds().Dx() > maxWidth || img.Bounds().Dy() > maxHeight {
			img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
		}
	}

	canvas := imaging.Clone(img)
	width := canvas.Bounds().Dx()
	height := canvas.Bounds().Dy()

	// Marker coordinates are normalized to the image dimensions, so they
	// survive any resize above.
	drawMarker(canvas, int(defect.X*float64(width)), int(defect.Y*float64(height)))

	textAreaWidth := opts.TextAreaWidth
	if textAreaWidth <= 0 {
		textAreaWidth = defaultTextAreaWidth
	}

	out := imaging.New(width+textAreaWidth, height, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	out = imaging.Paste(out, canvas, image.Pt(0, 0))
	drawInfoPanel(out, defect, width, textAreaWidth)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	ext, saveOpts, err := formatOptions(opts)
	if err != nil {
		return "", err
	}

	filename := opts.Filename
	if filename == "" {
		filename = autoFilename(defect)
	}
	outPath := filepath.Join(outputDir, filename+ext)

	if err := imaging.Save(out, outPath, saveOpts...); err != nil {
		return "", fmt.Errorf("failed to save exported image: %w", err)
	}
	return outPath, nil
}

// parseMaxSize parses a "WxH" size limit. The line tools emit "*" and "×"
// separators as well.
func parseMaxSize(size string) (int, int, error) {
	normalized := strings.NewReplacer("*", "x", "×", "x", "X", "x").Replace(size)
	parts := strings.Split(normalized, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid image size %q, expected WIDTHxHEIGHT", size)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid image width in %q: %w", size, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid image height in %q: %w", size, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("image size %q must be positive", size)
	}
	return width, height, nil
}

func formatOptions(opts Options) (string, []imaging.EncodeOption, error) {
	quality := opts.Quality
	if quality <= 0 {
		quality = defaultQuality
	}
	switch strings.ToLower(opts.Format) {
	case "", "png":
		return ".png", nil, nil
	case "jpeg", "jpg":
		return ".jpeg", []imaging.EncodeOption{imaging.JPEGQuality(quality)}, nil
	case "bmp":
		return ".bmp", nil, nil
	}
	return "", nil, fmt.Errorf("unsupported image format %q", opts.Format)
}

func autoFilename(defect models.DefectRecord) string {
	return fmt.Sprintf("%s_%d_%d_marked_%s",
		defect.LotNumber, defect.CurrentBoardIndex, defect.DefectNumber,
		time.Now().Format("20060102_150405"))
}

// drawMarker draws a circle with a crosshair centered on the defect.
func drawMarker(img *image.NRGBA, cx, cy int) {
	bounds := img.Bounds()
	set := func(x, y int) {
		if image.Pt(x, y).In(bounds) {
			img.SetNRGBA(x, y, markerColor)
		}
	}

	// Two concentric circles give a 2px stroke.
	for _, r := range []int{markerRadius, markerRadius - 1} {
		x, y, d := r, 0, 1-r
		for x >= y {
			set(cx+x, cy+y)
			set(cx+y, cy+x)
			set(cx-y, cy+x)
			set(cx-x, cy+y)
			set(cx-x, cy-y)
			set(cx-y, cy-x)
			set(cx+y, cy-x)
			set(cx+x, cy-y)
			y++
			if d < 0 {
				d += 2*y + 1
			} else {
				x--
				d += 2*(y-x) + 1
			}
		}
	}

	for offset := -markerRadius * 2; offset <= markerRadius*2; offset++ {
		set(cx+offset, cy)
		set(cx, cy+offset)
	}
}

// drawInfoPanel renders the defect fields into the panel right of the image.
func drawInfoPanel(img *image.NRGBA, defect models.DefectRecord, panelX, panelWidth int) {
	lines := []string{
		"Lot:       " + defect.LotNumber,
		"Board:     " + strconv.Itoa(defect.CurrentBoardIndex),
		"Defect no: " + strconv.Itoa(defect.DefectNumber),
		"Name:      " + defect.DefectName,
		"Reference: " + defect.Reference,
		"Serial:    " + defect.Serial,
		"Model:     " + defect.ModelCode,
		"Line:      " + defect.LineName,
		fmt.Sprintf("Position:  (%.3f, %.3f)", defect.X, defect.Y),
	}
	if !defect.InsertDatetime.IsZero() {
		lines = append(lines, "Detected:  "+defect.InsertDatetime.Format(time.DateTime))
	}

	// Separator between the board image and the panel.
	for y := 0; y < img.Bounds().Dy(); y++ {
		img.SetNRGBA(panelX, y, color.NRGBA{R: 180, G: 180, B: 180, A: 255})
	}

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{A: 255}),
		Face: face,
	}

	margin := 10
	maxTextWidth := fixed.I(panelWidth - 2*margin)
	lineHeight := face.Metrics().Height.Ceil() + 4
	for i, line := range lines {
		y := margin + (i+1)*lineHeight
		if y >= img.Bounds().Dy() {
			break
		}
		runes := []rune(line)
		for len(runes) > 0 && drawer.MeasureString(string(runes)) > maxTextWidth {
			runes = runes[:len(runes)-1]
		}
		drawer.Dot = fixed.P(panelX+margin, y)
		drawer.DrawString(string(runes))
	}
}
