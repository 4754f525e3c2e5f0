// Package zxing adapts the gozxing barcode library to the scan.Decoder
// interface.
package zxing

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"

	"github.com/pantrypal/backend/internal/scan"
)

// Decoder reads retail UPC/EAN product barcodes from single frames. Not
// safe for concurrent use; each scan session gets its own decoder.
type Decoder struct {
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewDecoder creates a multi-format UPC/EAN decoder with TRY_HARDER set,
// since camera frames are rarely well aligned.
func NewDecoder() *Decoder {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return &Decoder{
		reader: oned.NewMultiFormatUPCEANReader(hints),
		hints:  hints,
	}
}

// Decode extracts a barcode string from img. Frames without a readable code
// return scan.ErrNoCode; that is the common case, not a failure.
func (d *Decoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", scan.ErrNoCode
	}
	result, err := d.reader.Decode(bmp, d.hints)
	if err != nil {
		return "", scan.ErrNoCode
	}
	return result.GetText(), nil
}
