// Package export renders the pending approval queue as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tbourn/go-warehouse-approvals/internal/services"
)

// Sheet names.
const (
	SheetPending = "Pending"
	SheetItems   = "Items"
	SheetInfo    = "Info"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var pendingHeaders = []string{
	"Type", "Code", "ID", "Kind", "Partner", "Partner Code", "Created At",
	"Document Date", "Total Amount", "Items", "Created By", "Note",
}

var itemHeaders = []string{
	"Document Type", "Document Code", "Document ID", "Product", "Product Code",
	"Quantity", "Unit Price", "Amount",
}

// FileName is the suggested download name for a queue loaded at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("pending-approvals-%s.xlsx", t.UTC().Format("20060102-150405"))
}

// WriteQueue writes q as a workbook to w.
func WriteQueue(w io.Writer, q services.Queue) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetPending); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetItems); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetInfo); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	sw := sheetWriter{f: f}
	sw.headers(SheetPending, pendingHeaders, header)
	sw.headers(SheetItems, itemHeaders, header)

	itemRow := 2
	for i, d := range q.Documents {
		row := i + 2
		sw.row(SheetPending, row,
			d.Type.Label(), d.Code, d.ID, d.KindLabel(), d.Partner.Name, d.Partner.Code,
			timeCell(d.CreatedAt), timeCell(d.DocumentDate), d.TotalAmount.InexactFloat64(),
			len(d.Items), d.CreatedBy, d.Note,
		)
		sw.style(SheetPending, 9, row, money)

		for _, it := range d.Items {
			sw.row(SheetItems, itemRow,
				d.Type.Label(), d.Code, d.ID, it.ProductName, it.ProductCode,
				it.Quantity.InexactFloat64(), it.UnitPrice.InexactFloat64(), it.Amount.InexactFloat64(),
			)
			sw.style(SheetItems, 7, itemRow, money)
			sw.style(SheetItems, 8, itemRow, money)
			itemRow++
		}
	}

	failed := make([]string, 0, len(q.Failed))
	for _, t := range q.Failed {
		failed = append(failed, t.Label())
	}
	info := [][]any{
		{"Loaded At", timeCell(q.LoadedAt)},
		{"Documents", len(q.Documents)},
		{"Unavailable Sources", strings.Join(failed, ", ")},
	}
	for i, r := range info {
		sw.row(SheetInfo, i+1, r...)
		sw.style(SheetInfo, 1, i+1, header)
	}

	if sw.err != nil {
		return sw.err
	}
	if idx, err := f.GetSheetIndex(SheetPending); err == nil {
		f.SetActiveSheet(idx)
	}
	_, err = f.WriteTo(w)
	return err
}

// sheetWriter keeps the first cell error so rows can be written without
// checking each call.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (s *sheetWriter) headers(sheet string, hs []string, style int) {
	vals := make([]any, len(hs))
	for i, h := range hs {
		vals[i] = h
	}
	s.row(sheet, 1, vals...)
	for i := range hs {
		s.style(sheet, i+1, 1, style)
	}
}

func (s *sheetWriter) row(sheet string, row int, vals ...any) {
	for i, v := range vals {
		if s.err != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			s.err = err
			return
		}
		s.err = s.f.SetCellValue(sheet, cell, v)
	}
}

func (s *sheetWriter) style(sheet string, col, row, style int) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(sheet, cell, cell, style)
}

func timeCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
