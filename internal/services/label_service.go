package services

import (
	"bytes"
	"fmt"

	"garage/internal/models"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// LabelLayout describes the label grid on an A4 page, in millimetres.
type LabelLayout struct {
	Cols       int
	Rows       int
	MarginTop  float64
	MarginLeft float64
	GapX       float64
	GapY       float64
}

// DefaultLabelLayout fits ten 95x53mm labels per page.
var DefaultLabelLayout = LabelLayout{Cols: 2, Rows: 5, MarginTop: 10, MarginLeft: 8, GapX: 4, GapY: 2}

// LabelService renders printable QR label sheets for boxes.
type LabelService struct {
	qr     *QRService
	layout LabelLayout
	log    *zap.SugaredLogger
}

// NewLabelService creates a LabelService using DefaultLabelLayout.
func NewLabelService(qr *QRService, log *zap.SugaredLogger) *LabelService {
	return &LabelService{qr: qr, layout: DefaultLabelLayout, log: log}
}

// Render returns a PDF with one label per box: its QR code, name and location.
// The QR codes are encoded afresh, so labels do not depend on stored images.
func (s *LabelService) Render(boxes []models.Box) ([]byte, error) {
	cfg := s.layout
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Garage Inventory Labels", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, pageHeight := pdf.GetPageSize()
	labelW := (pageWidth - 2*cfg.MarginLeft - float64(cfg.Cols-1)*cfg.GapX) / float64(cfg.Cols)
	labelH := (pageHeight - 2*cfg.MarginTop - float64(cfg.Rows-1)*cfg.GapY) / float64(cfg.Rows)
	perPage := cfg.Cols * cfg.Rows

	if len(boxes) == 0 {
		pdf.AddPage()
	}
	for i, box := range boxes {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		col := (i % perPage) % cfg.Cols
		row := (i % perPage) / cfg.Cols
		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		png, err := s.qr.PNG(box.ID)
		if err != nil {
			s.log.Errorw("failed to encode label QR code", "box_id", box.ID, "error", err)
			return nil, err
		}
		imgName := fmt.Sprintf("qr_box_%d", box.ID)
		imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(png))

		qrSize := labelH - 6
		pdf.ImageOptions(imgName, x+2, y+3, qrSize, qrSize, false, imgOptions, 0, "")

		textX := x + qrSize + 6
		textW := labelW - qrSize - 8
		pdf.SetXY(textX, y+6)
		pdf.SetFont("Arial", "B", 14)
		pdf.MultiCell(textW, 6, tr(box.Name), "", "L", false)

		if box.Location != "" {
			pdf.SetX(textX)
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(textW, 5, tr(box.Location), "", "L", false)
		}

		pdf.SetXY(textX, y+labelH-8)
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(textW, 4, QRPayload(box.ID), "", 0, "L", false, 0, "")

		pdf.SetDrawColor(200, 200, 200)
		pdf.Rect(x, y, labelW, labelH, "D")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render labels: %w", err)
	}
	return buf.Bytes(), nil
}
