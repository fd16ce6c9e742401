package render

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// EncodeQR renders the verification URL as a PNG QR code.
func EncodeQR(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, 512)
	if err != nil {
		return nil, fmt.Errorf("QR encode error: %w", err)
	}
	return png, nil
}
