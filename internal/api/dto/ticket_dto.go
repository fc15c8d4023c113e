package dto

import "github.com/branchops/branch-queue/internal/domain"

// AppendTicketRequest is one ticket record as posted by a kiosk. The
// field shapes match the persisted ledger exactly.
type AppendTicketRequest struct {
	Number    string `json:"number"`
	Prefix    string `json:"prefix"`
	Service   string `json:"service"`
	Branch    string `json:"branch"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// Ticket converts the payload to the domain type.
func (r AppendTicketRequest) Ticket() domain.Ticket {
	return domain.Ticket{
		Number:    r.Number,
		Prefix:    r.Prefix,
		Service:   r.Service,
		Branch:    r.Branch,
		Status:    domain.TicketStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// CallNextRequest asks for the next waiting ticket of a service.
type CallNextRequest struct {
	Service string `json:"service"`
}

// LedgerResponse is the read-ledger body: the document's tickets array
// at the top level, matching the persisted layout.
type LedgerResponse struct {
	Tickets []domain.Ticket `json:"tickets"`
}
