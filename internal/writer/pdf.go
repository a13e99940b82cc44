package writer

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

func WritePDF(t Transcript, outPath string) error {
	chs := t.narrated()
	if len(chs) == 0 {
		return fmt.Errorf("WritePDF: no chapters provided")
	}

	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetMargins(18, 18, 18)
	pdf.SetTitle(t.Title, true)
	pdf.SetAuthor(t.Author, true)
	// core fonts are cp1252; translate UTF-8 input
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 22)
	pdf.MultiCell(0, 10, tr(t.Title), "", "C", false)
	pdf.SetFont("Helvetica", "", 14)
	pdf.MultiCell(0, 8, tr(t.Author), "", "C", false)

	for _, ch := range chs {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.MultiCell(0, 8, tr(ch.Title()), "", "L", false)
		pdf.Ln(3)

		pdf.SetFont("Helvetica", "", 12)
		for _, p := range paragraphs(ch.Text) {
			pdf.MultiCell(0, 5.5, tr(p), "", "L", false)
			pdf.Ln(2)
		}
	}
	return pdf.OutputFileAndClose(outPath)
}
