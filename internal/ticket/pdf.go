// Package ticket renders downloadable e-tickets.
package ticket

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/vkirilenko/busbooker/internal/domain"
)

// BuildPDF renders an A4 e-ticket for the booking and returns the document
// bytes with a download filename.
func BuildPDF(b *domain.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BUS E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking Reference : %s", b.Reference),
		fmt.Sprintf("Route             : %s -> %s", b.Origin, b.Destination),
		fmt.Sprintf("Operator          : %s", b.OperatorName),
		fmt.Sprintf("Departure         : %s", b.DepartureTime.Format("Mon, 02 Jan 2006 15:04")),
		fmt.Sprintf("Arrival           : %s", b.ArrivalTime.Format("Mon, 02 Jan 2006 15:04")),
		fmt.Sprintf("Duration          : %s", b.Duration),
		fmt.Sprintf("Seats             : %s", strings.Join(b.SeatNumbers, ", ")),
		fmt.Sprintf("Status            : %s", b.Status),
		fmt.Sprintf("Total Paid        : %.2f", float64(b.TotalAmountCents)/100),
		fmt.Sprintf("Payment           : %s (%s)", b.PaymentMethod, b.TransactionID),
		fmt.Sprintf("Issued            : %s", b.BookingDate.Format(time.RFC1123)),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Passengers")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 12)
	for _, p := range b.Passengers {
		pdf.Cell(0, 7, fmt.Sprintf("%s (age %d) - seat %s", p.Name, p.Age, p.SeatNumber))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please arrive at the departure terminal at least 30 minutes before departure and present this ticket with a valid ID.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), fmt.Sprintf("ticket-%s.pdf", b.Reference), nil
}
