package domain

import "time"

// TicketStatus enumerates lifecycle states for queue tickets. A ticket
// is created waiting and may only ever move to called.
type TicketStatus string

const (
	TicketStatusWaiting TicketStatus = "waiting"
	TicketStatusCalled  TicketStatus = "called"
)

// Service names as they appear on the branch displays. The set is
// fixed; anything else maps to the sentinel prefix.
const (
	ServiceTeller          = "Teller"
	ServiceCustomerService = "Customer Service"
	ServiceCredit          = "Layanan Kredit / KPR"
	ServiceAccountOpening  = "Pembukaan Rekening"
	ServiceCardATM         = "Layanan ATM / Kartu"
)

// KnownServices lists the fixed service set in counter order.
var KnownServices = []string{
	ServiceTeller,
	ServiceCustomerService,
	ServiceCredit,
	ServiceAccountOpening,
	ServiceCardATM,
}

// Ticket is the unit of record on the queue ledger. Number, Prefix,
// Service, Branch and CreatedAt are immutable once appended; only
// Status transitions.
type Ticket struct {
	Number    string       `json:"number"`
	Prefix    string       `json:"prefix"`
	Service   string       `json:"service"`
	Branch    string       `json:"branch"`
	Status    TicketStatus `json:"status"`
	CreatedAt string       `json:"createdAt"`
}

// Ledger is the persisted document: a single ordered, append-only
// sequence of tickets. Position in the sequence is the authoritative
// ordering.
type Ledger struct {
	Tickets []Ticket `json:"tickets"`
}

// createdAtLayout matches the ISO-8601 form the web clients write.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// NewTicket builds a waiting ticket stamped with the current time.
func NewTicket(number, prefix, service, branch string) Ticket {
	return Ticket{
		Number:    number,
		Prefix:    prefix,
		Service:   service,
		Branch:    branch,
		Status:    TicketStatusWaiting,
		CreatedAt: NowCreatedAt(),
	}
}

// NowCreatedAt formats the current time as a ticket timestamp.
func NowCreatedAt() string {
	return time.Now().UTC().Format(createdAtLayout)
}
