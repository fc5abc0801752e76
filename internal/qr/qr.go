// Package qr generates student QR codes and decodes them from still
// frames. Decoding sits behind a narrow capability interface so camera
// pipelines can be swapped or mocked.
package qr

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"
)

// GeneratePNG renders a QR code carrying the student ID.
func GeneratePNG(studentID string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(studentID, qrcode.Medium, size)
}

// Decoder extracts a payload from one frame. The boolean is false on a
// clean miss (no code in the frame); errors are reserved for broken input.
type Decoder interface {
	Decode(img image.Image) (string, bool, error)
}

// ZXingDecoder decodes QR codes with the zxing port.
type ZXingDecoder struct {
	reader gozxing.Reader
}

// NewDecoder creates a QR frame decoder.
func NewDecoder() *ZXingDecoder {
	return &ZXingDecoder{reader: zxqr.NewQRCodeReader()}
}

// Decode scans one frame for a QR payload.
func (d *ZXingDecoder) Decode(img image.Image) (string, bool, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false, err
	}
	result, err := d.reader.Decode(bmp, nil)
	if err != nil {
		if _, miss := err.(gozxing.NotFoundException); miss {
			return "", false, nil
		}
		return "", false, err
	}
	return result.GetText(), true, nil
}

// DecodeImage parses encoded image bytes (PNG or JPEG) and scans them.
func DecodeImage(d Decoder, data []byte) (string, bool, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false, err
	}
	return d.Decode(img)
}
