package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/spec-kit/event-tickets/internal/domain"
)

const ticketSubject = "Your event ticket"

// FormatTicketBody renders the fixed-structure plain-text ticket message.
func FormatTicketBody(ticket *domain.Ticket) string {
	var b strings.Builder
	b.WriteString("Your event ticket\n\n")
	fmt.Fprintf(&b, "Name: %s\n", ticket.HolderName)
	fmt.Fprintf(&b, "Phone: %s\n", ticket.HolderPhone)
	fmt.Fprintf(&b, "Ticket type: %s\n", ticket.Type)
	fmt.Fprintf(&b, "Created: %s\n\n", ticket.CreatedAt.Format("02.01.2006"))
	b.WriteString("This ticket is valid and can be used at the entrance.\n\n")
	b.WriteString("Please keep this ticket for verification.")
	return b.String()
}

// FormatTicketHTML renders the same content for mail clients.
func FormatTicketHTML(ticket *domain.Ticket) string {
	var b strings.Builder
	b.WriteString("<h2>Your event ticket</h2>\n<ul>\n")
	fmt.Fprintf(&b, "<li><strong>Name:</strong> %s</li>\n", html.EscapeString(ticket.HolderName))
	fmt.Fprintf(&b, "<li><strong>Phone:</strong> %s</li>\n", html.EscapeString(ticket.HolderPhone))
	fmt.Fprintf(&b, "<li><strong>Ticket type:</strong> %s</li>\n", html.EscapeString(string(ticket.Type)))
	fmt.Fprintf(&b, "<li><strong>Created:</strong> %s</li>\n", ticket.CreatedAt.Format("02.01.2006"))
	b.WriteString("</ul>\n<p>This ticket is valid and can be used at the entrance.</p>\n")
	b.WriteString("<p>Please keep this ticket for verification.</p>")
	return b.String()
}
