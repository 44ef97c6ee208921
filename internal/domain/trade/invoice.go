package trade

import (
	"fmt"
	"strconv"
	"strings"
)

// InvoicePrefix starts every invoice number
const InvoicePrefix = "INV"

// FormatInvoiceNumber renders INV-{year}-{seq:04d}
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", InvoicePrefix, year, seq)
}

// ParseInvoiceNumber splits an invoice number into year and sequence
func ParseInvoiceNumber(number string) (int, int64, error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != InvoicePrefix {
		return 0, 0, fmt.Errorf("malformed invoice number %q", number)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed invoice year in %q: %w", number, err)
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed invoice sequence in %q: %w", number, err)
	}
	return year, seq, nil
}
