// Package qrcode renders provisioning URIs as QR codes and reads them
// back. Rendering is the only part the enrollment flow needs; decoding
// exists for the import path, which accepts QR images exported from other
// authenticator tools.
package qrcode

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// DefaultSize is the rendered QR edge length in pixels, comfortable for
// phone cameras at typical screen DPI.
const DefaultSize = 256

// RenderPNG encodes text into a size x size QR code and returns the PNG
// bytes. A non-positive size uses DefaultSize.
func RenderPNG(text string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	matrix, err := qrcode.NewQRCodeWriter().Encode(
		text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		return nil, fmt.Errorf("encode QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, matrix); err != nil {
		return nil, fmt.Errorf("render QR PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePNG extracts the text payload of the QR code in a PNG image.
func DecodePNG(r io.Reader) (string, error) {
	img, err := png.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("prepare image for QR reading: %w", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("no readable QR code in image: %w", err)
	}
	return result.GetText(), nil
}

// DecodeProvisioningPNG decodes a QR image and checks that it carries an
// otpauth URI before handing it back.
func DecodeProvisioningPNG(r io.Reader) (string, error) {
	text, err := DecodePNG(r)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(text, "otpauth://") {
		return "", fmt.Errorf("QR code does not contain an otpauth URI")
	}
	return text, nil
}
