package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/branchops/branch-queue/internal/api/dto"
	"github.com/branchops/branch-queue/internal/domain"
	"github.com/branchops/branch-queue/internal/service"
	apperrors "github.com/branchops/branch-queue/pkg/util"
)

// QueueHandler exposes the ledger read/append operations.
type QueueHandler struct {
	service *service.QueueService
}

// NewQueueHandler constructs handler.
func NewQueueHandler(queueService *service.QueueService) *QueueHandler {
	return &QueueHandler{service: queueService}
}

// ReadLedger GET /api/queue.
func (h *QueueHandler) ReadLedger(c *fiber.Ctx) error {
	tickets, err := h.service.ReadLedger(c.UserContext())
	if err != nil {
		return err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	// clients must always see current state on an explicit refresh
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(dto.LedgerResponse{Tickets: tickets})
}

// AppendTicket POST /api/queue. The response carries no echo of the
// assigned state; the caller already knows what it sent and refetches
// on the change signal anyway.
func (h *QueueHandler) AppendTicket(c *fiber.Ctx) error {
	var req dto.AppendTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.AppendTicket(c.UserContext(), req.Ticket()); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// CallNext POST /api/queue/call.
func (h *QueueHandler) CallNext(c *fiber.Ctx) error {
	var req dto.CallNextRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CallNext(c.UserContext(), req.Service)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}
