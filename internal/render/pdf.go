// Package render produces the gate-pass credential document and its QR code.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

var (
	colorHeading  = [3]int{0, 0, 139}     // dark blue
	colorRowFill  = [3]int{250, 250, 210} // light goldenrod
	colorGridLine = [3]int{128, 128, 128}
	colorMuted    = [3]int{127, 140, 141}
)

// PassData is everything printed on a gate pass.
type PassData struct {
	StudentID      string
	StudentName    string
	PassID         string
	IssuedAt       time.Time
	ExpiresAt      time.Time
	PaymentPercent float64
	WhatsAppNumber string
}

// PassRenderer generates branded gate-pass PDFs.
type PassRenderer struct {
	schoolName string
}

func NewPassRenderer(schoolName string) *PassRenderer {
	return &PassRenderer{schoolName: schoolName}
}

// Render builds the credential document embedding the pass details and the
// scannable QR code, returning the PDF bytes.
func (r *PassRenderer) Render(data PassData, qrPNG []byte) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()

	// Faint school-name watermark across the page
	pdf.SetFont("Arial", "B", 48)
	pdf.SetTextColor(235, 235, 235)
	pdf.TransformBegin()
	pdf.TransformRotate(45, pageWidth/2, pageHeight/2)
	pdf.Text(pageWidth/2-80, pageHeight/2, r.schoolName)
	pdf.TransformEnd()

	// Header
	pdf.SetY(25)
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(colorHeading[0], colorHeading[1], colorHeading[2])
	pdf.CellFormat(0, 10, r.schoolName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.CellFormat(0, 7, "GATE PASS", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	// Info table: bold labels, values beside them
	rows := [][2]string{
		{"Student ID:", data.StudentID},
		{"Name:", data.StudentName},
		{"Pass ID:", data.PassID},
		{"Issued:", data.IssuedAt.Format("2006-01-02")},
		{"Expires:", data.ExpiresAt.Format("2006-01-02")},
		{"Payment:", fmt.Sprintf("%.1f%%", data.PaymentPercent)},
		{"Valid for:", data.WhatsAppNumber},
	}

	pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
	pdf.SetFillColor(colorRowFill[0], colorRowFill[1], colorRowFill[2])
	pdf.SetTextColor(colorHeading[0], colorHeading[1], colorHeading[2])
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(50, 10, row[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(110, 10, row[1], "1", 1, "L", true, 0, "")
	}
	pdf.Ln(10)

	// QR code, centered
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	qrSize := 50.0
	pdf.ImageOptions("qr", (pageWidth-qrSize)/2, pdf.GetY(), qrSize, qrSize, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + qrSize + 10)

	// Authorization mark
	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, "Authorized Signature", "", 1, "L", false, 0, "")
	pdf.SetY(pdf.GetY() + 12)
	pdf.Line(20, pdf.GetY(), 90, pdf.GetY())

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}
