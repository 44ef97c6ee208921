// Package export renders ledger data as spreadsheets
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ContentTypeXLSX is the MIME type of the rendered workbook
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const registerSheet = "Sales Register"

var registerHeadings = []string{
	"Invoice", "Sale Date", "Customer", "Phone", "Status", "Payment Method",
	"Subtotal", "Discount", "GST %", "Tax", "Grand Total", "Paid", "Remaining", "Order",
}

// firstMoneyColumn is the 1-based index of "Subtotal"
const firstMoneyColumn = 7

var titleCaser = cases.Title(language.English)

// Label turns an enum value such as IN_PRODUCTION into "In Production"
func Label(value string) string {
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(value), "_", " "))
}

// WriteSalesRegister renders sales as one worksheet with a totals row and
// writes the workbook to w. Cancelled sales are listed but left out of the
// totals.
func WriteSalesRegister(w io.Writer, sales []trade.Sale, from, to time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return err
	}

	title := fmt.Sprintf("Sales register %s to %s", from.Format("2006-01-02"), to.AddDate(0, 0, -1).Format("2006-01-02"))
	if err := f.SetCellValue(registerSheet, "A1", title); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	headings := make([]interface{}, len(registerHeadings))
	for i, h := range registerHeadings {
		headings[i] = h
	}
	if err := f.SetSheetRow(registerSheet, "A3", &headings); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(registerHeadings))
	if err := f.SetCellStyle(registerSheet, "A3", lastCol+"3", headerStyle); err != nil {
		return err
	}

	var totals [5]decimal.Decimal // subtotal, discount, tax, grand total, paid
	row := 4
	for i := range sales {
		s := &sales[i]
		order := ""
		if s.OrderID != nil {
			order = s.OrderID.String()
		}
		values := []interface{}{
			s.InvoiceNumber,
			s.SaleDate.Format("2006-01-02"),
			s.CustomerName,
			s.CustomerPhone,
			Label(string(s.Status)),
			Label(string(s.PaymentMethod)),
			s.Subtotal.InexactFloat64(),
			s.OverallDiscount.InexactFloat64(),
			s.GSTPercentage.InexactFloat64(),
			s.TaxAmount.InexactFloat64(),
			s.GrandTotal.InexactFloat64(),
			s.AmountPaid.InexactFloat64(),
			s.RemainingAmount.InexactFloat64(),
			order,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(registerSheet, cell, &values); err != nil {
			return err
		}
		if s.Status != trade.SaleStatusCancelled {
			totals[0] = totals[0].Add(s.Subtotal)
			totals[1] = totals[1].Add(s.OverallDiscount)
			totals[2] = totals[2].Add(s.TaxAmount)
			totals[3] = totals[3].Add(s.GrandTotal)
			totals[4] = totals[4].Add(s.AmountPaid)
		}
		row++
	}

	totalRow := []interface{}{
		"Total", fmt.Sprintf("%d sales", len(sales)), "", "", "", "",
		totals[0].InexactFloat64(),
		totals[1].InexactFloat64(),
		"",
		totals[2].InexactFloat64(),
		totals[3].InexactFloat64(),
		totals[4].InexactFloat64(),
		totals[3].Sub(totals[4]).InexactFloat64(),
	}
	totalCell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(registerSheet, totalCell, &totalRow); err != nil {
		return err
	}
	if err := f.SetCellStyle(registerSheet, totalCell, lastCol+fmt.Sprint(row), headerStyle); err != nil {
		return err
	}

	moneyFrom, _ := excelize.CoordinatesToCellName(firstMoneyColumn, 4)
	moneyTo, _ := excelize.CoordinatesToCellName(firstMoneyColumn+6, row)
	if err := f.SetCellStyle(registerSheet, moneyFrom, moneyTo, moneyStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(registerSheet, "A", "C", 20); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
