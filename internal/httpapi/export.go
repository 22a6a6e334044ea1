package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xuri/excelize/v2"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/service"
)

func (a *API) writeSummaryExport(w http.ResponseWriter, summary domain.TransactionSummary, format string) {
	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case "xlsx":
		body, err = summaryToXLSX(summary)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		body, err = summaryToCSV(summary)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("export summary %s: %w", format, err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.SummaryFilename(summary, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func summaryToCSV(summary domain.TransactionSummary) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	rows := [][]string{
		{"section", "key", "value"},
		{"summary", "date", summary.Date},
		{"summary", "total_transactions", strconv.Itoa(summary.TotalTransactions)},
		{"summary", "total_sales", summary.TotalSales.StringFixed(2)},
		{"summary", "total_discount", summary.TotalDiscount.StringFixed(2)},
		{"summary", "total_items", strconv.Itoa(summary.TotalItems)},
		{"summary", "average_transaction", summary.AverageTransaction.StringFixed(2)},
	}
	for _, method := range summary.ByPaymentMethod {
		rows = append(rows,
			[]string{"payment", method.PaymentMethod + "_count", strconv.Itoa(method.Count)},
			[]string{"payment", method.PaymentMethod + "_total", method.Total.StringFixed(2)},
		)
	}
	for _, hour := range summary.HourlyBreakdown {
		if hour.Count == 0 {
			continue
		}
		label := fmt.Sprintf("%02d:00", hour.Hour)
		rows = append(rows,
			[]string{"hourly", label + "_count", strconv.Itoa(hour.Count)},
			[]string{"hourly", label + "_total", hour.Total.StringFixed(2)},
		)
	}

	if err := cw.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func summaryToXLSX(summary domain.TransactionSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	writeRow := func(sheet string, row int, values ...any) {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}
	writeHeaders := func(sheet string, headers ...string) {
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
			f.SetCellStyle(sheet, cell, cell, headerStyle)
		}
	}

	sheetSummary := "Ringkasan"
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	writeHeaders(sheetSummary, "Keterangan", "Nilai")
	writeRow(sheetSummary, 2, "Tanggal", summary.Date)
	writeRow(sheetSummary, 3, "Jumlah Transaksi", summary.TotalTransactions)
	writeRow(sheetSummary, 4, "Total Penjualan", summary.TotalSales.InexactFloat64())
	writeRow(sheetSummary, 5, "Total Diskon", summary.TotalDiscount.InexactFloat64())
	writeRow(sheetSummary, 6, "Total Item", summary.TotalItems)
	writeRow(sheetSummary, 7, "Rata-rata Transaksi", summary.AverageTransaction.InexactFloat64())
	f.SetColWidth(sheetSummary, "A", "B", 24)

	sheetPayment := "Metode Bayar"
	if _, err := f.NewSheet(sheetPayment); err != nil {
		return nil, err
	}
	writeHeaders(sheetPayment, "Metode", "Label", "Jumlah", "Total")
	for i, method := range summary.ByPaymentMethod {
		writeRow(sheetPayment, i+2, method.PaymentMethod, method.Label, method.Count, method.Total.InexactFloat64())
	}
	f.SetColWidth(sheetPayment, "A", "D", 16)

	sheetHourly := "Per Jam"
	if _, err := f.NewSheet(sheetHourly); err != nil {
		return nil, err
	}
	writeHeaders(sheetHourly, "Jam", "Jumlah", "Total")
	for i, hour := range summary.HourlyBreakdown {
		writeRow(sheetHourly, i+2, fmt.Sprintf("%02d:00", hour.Hour), hour.Count, hour.Total.InexactFloat64())
	}
	f.SetPanes(sheetHourly, &excelize.Panes{Freeze: true, Split: true, YSplit: 1})

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
