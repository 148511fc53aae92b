package ledger

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/minledger/minledger/internal/balance"
	"github.com/minledger/minledger/internal/event"
)

// Handler exposes the ledger over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds a ledger HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type eventRequest struct {
	Type        string `json:"type"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Amount      int64  `json:"amount"`
}

type entryResponse struct {
	Seq         uint64    `json:"seq"`
	Type        string    `json:"type"`
	Origin      string    `json:"origin,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Amount      int64     `json:"amount"`
	Signed      int64     `json:"signed_amount"`
	Balance     int64     `json:"balance"`
	Created     time.Time `json:"created"`
}

// Event applies a deposit, withdraw or transfer.
func (h *Handler) Event(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	kind, ok := event.ParseKind(req.Type)
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "unknown event type "+strconv.Quote(req.Type))
	}

	ctx := c.UserContext()
	switch kind {
	case event.KindDeposit:
		acct, err := h.service.Deposit(ctx, req.Destination, req.Amount)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{"destination": acct})
	case event.KindWithdraw:
		acct, err := h.service.Withdraw(ctx, req.Origin, req.Amount)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{"origin": acct})
	default:
		res, err := h.service.Transfer(ctx, req.Origin, req.Destination, req.Amount)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"origin":      res.Origin,
			"destination": res.Destination,
		})
	}
}

// Balance returns the cached balance as a bare integer.
func (h *Handler) Balance(c *fiber.Ctx) error {
	bal, err := h.service.Balance(c.UserContext(), c.Query("account_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusOK).SendString(strconv.FormatInt(bal, 10))
}

// Accounts lists every account.
func (h *Handler) Accounts(c *fiber.Ctx) error {
	accounts, err := h.service.Accounts(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(accounts)
}

// OpenAccount creates an empty account with a generated id.
func (h *Handler) OpenAccount(c *fiber.Ctx) error {
	acct, err := h.service.OpenAccount(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(acct)
}

// History returns the account's events, oldest first.
func (h *Handler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return fail(c, err)
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Reset wipes accounts and events.
func (h *Handler) Reset(c *fiber.Ctx) error {
	if err := h.service.Reset(c.UserContext()); err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusOK).SendString("OK")
}

// ResetAccounts wipes account snapshots only.
func (h *Handler) ResetAccounts(c *fiber.Ctx) error {
	if err := h.service.ResetAccounts(c.UserContext()); err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusOK).SendString("OK")
}

func toEntryResponse(e balance.Entry) entryResponse {
	resp := entryResponse{
		Seq:     e.Event.Sequence(),
		Type:    string(e.Event.Kind()),
		Amount:  e.Event.Value(),
		Signed:  e.Signed,
		Balance: e.Balance,
		Created: e.Event.CreatedAt(),
	}
	switch ev := e.Event.(type) {
	case event.Deposit:
		resp.Destination = ev.Destination
	case event.Transfer:
		resp.Origin = ev.Origin
		resp.Destination = ev.Destination
	case event.Withdraw:
		resp.Origin = ev.Origin
	}
	return resp
}

// fail maps ledger errors onto HTTP responses. Not found keeps the "0" body
// existing clients parse.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return c.Status(http.StatusNotFound).SendString("0")
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidAccountID):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrStorage):
		return fiber.NewError(http.StatusServiceUnavailable, "ledger storage unavailable")
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}
