package media

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// CombineToPDF normalizes each image and lays them out one per page, in
// order, each page sized to its image. Any undecodable page aborts the whole
// document.
func CombineToPDF(images [][]byte) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	pages := make([]*Image, len(images))
	for i, raw := range images {
		img, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages[i] = img
	}

	first := pageSize(pages[0])
	pdf := fpdf.NewCustom(&fpdf.InitType{UnitStr: "pt", Size: first})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	for i, img := range pages {
		name := fmt.Sprintf("page-%d", i+1)
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))

		size := pageSize(img)
		pdf.AddPageFormat("P", size)
		pdf.ImageOptions(name, 0, 0, size.Wd, size.Ht, false, opts, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return out.Bytes(), nil
}

func pageSize(img *Image) fpdf.SizeType {
	return fpdf.SizeType{Wd: float64(img.Width), Ht: float64(img.Height)}
}
