package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

const (
	pageWidthMM  = 297.0
	pageHeightMM = 210.0

	backgroundWidthPx  = 1754
	backgroundHeightPx = 1240

	IssuedOnLayout = "January 2, 2006"
)

type CertificateDocument struct {
	Number        string
	RecipientName string
	CourseLabel   string
	IssuedOn      time.Time
}

// Renderer produces a PDF for a certificate.
type Renderer interface {
	Render(document CertificateDocument) ([]byte, error)
}

// CertificateRenderer overlays text on a background template when one is configured
// and draws a bordered standalone layout otherwise.
type CertificateRenderer struct {
	background []byte
}

func NewCertificateRenderer(backgroundPath string) (*CertificateRenderer, error) {
	renderer := &CertificateRenderer{}
	if strings.TrimSpace(backgroundPath) == "" {
		return renderer, nil
	}

	file, err := os.Open(backgroundPath)
	if err != nil {
		return nil, fmt.Errorf("open certificate template: %w", err)
	}
	defer file.Close()

	source, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode certificate template: %w", err)
	}
	fitted := imaging.Fill(source, backgroundWidthPx, backgroundHeightPx, imaging.Center, imaging.Lanczos)

	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, fitted, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode certificate template: %w", err)
	}
	renderer.background = encoded.Bytes()
	return renderer, nil
}

func (renderer *CertificateRenderer) HasTemplate() bool {
	return len(renderer.background) > 0
}

func (renderer *CertificateRenderer) Render(document CertificateDocument) ([]byte, error) {
	if strings.TrimSpace(document.Number) == "" {
		return nil, errors.New("certificate number is required")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate "+document.Number, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	if renderer.HasTemplate() {
		options := fpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader("certificate-template", options, bytes.NewReader(renderer.background))
		pdf.ImageOptions("certificate-template", 0, 0, pageWidthMM, pageHeightMM, false, options, 0, "")
	} else {
		drawStandaloneFrame(pdf, translate)
	}

	pdf.SetTextColor(30, 30, 60)
	pdf.SetFont("Helvetica", "", 16)
	pdf.SetXY(0, 78)
	pdf.CellFormat(pageWidthMM, 10, translate("This is to certify that"), "", 0, "C", false, 0, "")

	pdf.SetFont("Times", "BI", 34)
	pdf.SetXY(0, 92)
	pdf.CellFormat(pageWidthMM, 16, translate(pdfSafe(document.RecipientName)), "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 16)
	pdf.SetXY(0, 114)
	pdf.CellFormat(pageWidthMM, 10, translate("has successfully completed"), "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(0, 126)
	pdf.CellFormat(pageWidthMM, 12, translate(pdfSafe(document.CourseLabel)), "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(30, 170)
	pdf.CellFormat(110, 8, translate("Issued on "+document.IssuedOn.Format(IssuedOnLayout)), "", 0, "L", false, 0, "")
	pdf.SetXY(pageWidthMM-140, 170)
	pdf.CellFormat(110, 8, translate("Certificate No. "+document.Number), "", 0, "R", false, 0, "")

	if pdf.Err() {
		return nil, fmt.Errorf("render certificate: %w", pdf.Error())
	}

	var output bytes.Buffer
	if err := pdf.Output(&output); err != nil {
		return nil, fmt.Errorf("write certificate pdf: %w", err)
	}
	return output.Bytes(), nil
}

func drawStandaloneFrame(pdf *fpdf.Fpdf, translate func(string) string) {
	pdf.SetFillColor(252, 249, 240)
	pdf.Rect(0, 0, pageWidthMM, pageHeightMM, "F")

	pdf.SetDrawColor(150, 120, 40)
	pdf.SetLineWidth(2.5)
	pdf.Rect(10, 10, pageWidthMM-20, pageHeightMM-20, "D")
	pdf.SetLineWidth(0.6)
	pdf.Rect(16, 16, pageWidthMM-32, pageHeightMM-32, "D")

	pdf.SetTextColor(150, 120, 40)
	pdf.SetFont("Times", "B", 40)
	pdf.SetXY(0, 36)
	pdf.CellFormat(pageWidthMM, 18, translate("Certificate of Completion"), "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetXY(0, 56)
	pdf.CellFormat(pageWidthMM, 8, translate("International Foreign Language Academy"), "", 0, "C", false, 0, "")
}

// pdfSafe drops runes the core fonts cannot draw, such as flag emoji.
func pdfSafe(value string) string {
	var builder strings.Builder
	for _, char := range value {
		if char > 0x2FFF {
			continue
		}
		if !unicode.IsPrint(char) {
			continue
		}
		builder.WriteRune(char)
	}
	return strings.Join(strings.Fields(builder.String()), " ")
}

// CourseLabel formats "<flag> <language> • <level>".
func CourseLabel(flag string, language string, levelDisplay string) string {
	label := strings.TrimSpace(language) + " • " + strings.TrimSpace(levelDisplay)
	if strings.TrimSpace(flag) == "" {
		return label
	}
	return strings.TrimSpace(flag) + " " + label
}
