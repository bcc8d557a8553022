package infra

// pdf.go — proposal summary generation using go-pdf/fpdf.
// Produces an A4 document with:
//   - Proposal number, buyer and state header
//   - Warehouse list
//   - Item table (code, product, supplier id, quantity, unit cost, subtotal)
//   - Bold grand total
//
// The output file is saved to storagePath/propuesta_{numero}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"backoffice/internal/model"
)

// GeneratePropuestaPDF writes the summary PDF of a purchase proposal.
// storagePath is the directory where the PDF will be written (created if
// needed). Returns the absolute path to the generated file.
func GeneratePropuestaPDF(p *model.PropuestaCompra, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("propuesta_%s.pdf", p.Numero)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Propuesta de Compra "+p.Numero, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	if p.Comprador != nil {
		pdf.CellFormat(contentW, 6, "Comprador: "+p.Comprador.NombreCompleto(), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 6, "Estado: "+p.Estado, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 6, "Fecha: "+p.CreatedAt.Format("02/01/2006"), "", 1, "L", false, 0, "")

	if len(p.Almacenes) > 0 {
		nombres := make([]string, 0, len(p.Almacenes))
		for _, a := range p.Almacenes {
			nombres = append(nombres, a.Nombre)
		}
		pdf.CellFormat(contentW, 6, "Almacenes: "+strings.Join(nombres, ", "), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// ── Items table ──────────────────────────────────────────────────────────
	col := []float64{
		contentW * 0.14, // codigo
		contentW * 0.34, // producto
		contentW * 0.12, // proveedor
		contentW * 0.12, // cantidad
		contentW * 0.14, // costo
		contentW * 0.14, // subtotal
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col[0], 6, "Código", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col[1], 6, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col[2], 6, "Prov.", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col[3], 6, "Cantidad", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col[4], 6, "Costo", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col[5], 6, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	total := decimal.Zero
	for _, item := range p.Items {
		nombre := item.Producto
		if len(nombre) > 38 {
			nombre = nombre[:37] + "…"
		}
		proveedor := "-"
		if item.ProveedorID != nil {
			proveedor = fmt.Sprintf("%d", *item.ProveedorID)
		}
		pdf.CellFormat(col[0], 5, item.Codigo, "", 0, "L", false, 0, "")
		pdf.CellFormat(col[1], 5, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col[2], 5, proveedor, "", 0, "C", false, 0, "")
		pdf.CellFormat(col[3], 5, item.CantidadPropuesta.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col[4], 5, "$"+item.Costo.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col[5], 5, "$"+item.Subtotal().StringFixed(2), "", 1, "R", false, 0, "")
		total = total.Add(item.Subtotal())
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col[0]+col[1]+col[2]+col[3]+col[4], 7, "TOTAL:", "", 0, "R", false, 0, "")
	pdf.CellFormat(col[5], 7, "$"+total.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
