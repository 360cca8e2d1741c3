package wordcloud

import (
	"fmt"
	"image/color"
	"image/png"
	"os"

	"github.com/psykhi/wordclouds"
	"github.com/rs/zerolog/log"
)

const (
	imgWidth  = 800
	imgHeight = 400

	maxFontSize = 128
	minFontSize = 12
)

// Render draws the term cloud as a PNG. An empty term list is a no-op, not
// an error, so the pipeline can call it unconditionally. fontPath must point
// to a TTF file; rendering is skipped with a log entry when it is unset or
// unreadable, because the drawing layer cannot fall back to a built-in font.
func Render(terms []string, outPath, fontPath string) error {
	if len(terms) == 0 {
		log.Warn().Msg("no terms for word cloud, skipping")
		return nil
	}
	if fontPath == "" {
		log.Warn().Msg("no word cloud font configured, skipping")
		return nil
	}
	if _, err := os.Stat(fontPath); err != nil {
		log.Warn().Str("font", fontPath).Err(err).Msg("word cloud font not readable, skipping")
		return nil
	}

	// Earlier terms rank higher; weight them accordingly so the cloud
	// reflects the analysis order.
	weights := make(map[string]int, len(terms))
	for i, term := range terms {
		weights[term] = len(terms) - i
	}

	w := wordclouds.NewWordcloud(
		weights,
		wordclouds.FontFile(fontPath),
		wordclouds.FontMaxSize(maxFontSize),
		wordclouds.FontMinSize(minFontSize),
		wordclouds.Height(imgHeight),
		wordclouds.Width(imgWidth),
		wordclouds.BackgroundColor(color.White),
		wordclouds.Colors([]color.Color{
			color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
			color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
			color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
			color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
		}),
	)
	img := w.Draw()

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create word cloud file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode word cloud: %w", err)
	}
	log.Info().Str("path", outPath).Int("terms", len(terms)).Msg("word cloud written")
	return nil
}
