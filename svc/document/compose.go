package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/go-pdf/fpdf"
)

// A4 page size in millimetres.
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
)

// Placement is where the raster lands on the page, in millimetres.
type Placement struct {
	X, Y, W, H float64
}

// Fit places a width×height raster on an A4 page. The raster spans the page
// width; if that makes it taller than the page it is scaled down uniformly
// to the page height and centred horizontally.
func Fit(width, height int) Placement {
	h := float64(height) * PageWidthMM / float64(width)
	if h <= PageHeightMM {
		return Placement{X: 0, Y: 0, W: PageWidthMM, H: h}
	}
	scale := PageHeightMM / h
	w := PageWidthMM * scale
	return Placement{X: (PageWidthMM - w) / 2, Y: 0, W: w, H: PageHeightMM}
}

// Metadata is written into the PDF info dictionary.
type Metadata struct {
	Title   string
	Author  string
	Subject string
}

// Compose encodes img as JPEG and embeds it as the only image of a one-page
// A4 PDF.
func Compose(img image.Image, quality int, meta Metadata) ([]byte, error) {
	if img == nil {
		return nil, ErrInvalidImage
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, b)
	}

	// JPEG has no alpha; flatten onto white like a printed page.
	flat := image.NewRGBA(b)
	draw.Draw(flat, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flat, b, img, b.Min, draw.Over)

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Join(ErrCompose, err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetCreator("emission", true)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("note", opts, &jpg)
	p := Fit(b.Dx(), b.Dy())
	pdf.ImageOptions("note", p.X, p.Y, p.W, p.H, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, errors.Join(ErrCompose, err)
	}
	return out.Bytes(), nil
}
