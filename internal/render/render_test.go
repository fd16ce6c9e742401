package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeQR(t *testing.T) {
	png, err := EncodeQR("https://example.com/api/gatepasses/verify?pass_id=abc&phone=%2B263771234567")
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG signature
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestRenderProducesPDF(t *testing.T) {
	qrPNG, err := EncodeQR("https://example.com/verify")
	require.NoError(t, err)

	renderer := NewPassRenderer("TEST SCHOOL")
	issued := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	pdfBytes, err := renderer.Render(PassData{
		StudentID:      "S1",
		StudentName:    "Tawanda Nkomo",
		PassID:         "5e7a0d4c-1111-2222-3333-444455556666",
		IssuedAt:       issued,
		ExpiresAt:      issued.Add(30 * 24 * time.Hour),
		PaymentPercent: 80,
		WhatsAppNumber: "+263771234567",
	}, qrPNG)
	require.NoError(t, err)
	assert.True(t, len(pdfBytes) > 1000)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}
