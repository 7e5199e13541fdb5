package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentflow/internal/app/commands"
	"rentflow/internal/app/dto"
	bookingapp "rentflow/internal/app/handlers/booking"
	"rentflow/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ListingID      string     `json:"listing_id"`
	CheckIn        time.Time  `json:"check_in"`
	CheckOut       time.Time  `json:"check_out"`
	ExtensionDate  *time.Time `json:"extension_date"`
	SpecialRequest string     `json:"special_request"`
}

type updateBookingStatusRequest struct {
	Status            string  `json:"status"`
	AdditionalCharges float64 `json:"additional_charges"`
	IsExtendApproval  bool    `json:"is_extend_approval"`
}

type submitPinRequest struct {
	Pin string `json:"pin"`
}

func (h BookingHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		ActorID:         actor,
		ListingID:       strings.TrimSpace(req.ListingID),
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		SpecialRequest:  req.SpecialRequest,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	if req.ExtensionDate != nil {
		cmd.ExtensionDate = *req.ExtensionDate
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req updateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.UpdateBookingStatusCommand{
		ActorID:           actor,
		BookingID:         strings.TrimSpace(c.Param("id")),
		Status:            strings.TrimSpace(req.Status),
		AdditionalCharges: req.AdditionalCharges,
		IsExtendApproval:  req.IsExtendApproval,
		IdempotencyKeyV:   c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *bookingapp.UpdateBookingStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) SubmitHandoverPin(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req submitPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.SubmitHandoverPinCommand{
		ActorID:   actor,
		BookingID: strings.TrimSpace(c.Param("id")),
		Pin:       strings.TrimSpace(req.Pin),
	}
	result, err := commands.Dispatch[bookingapp.SubmitHandoverPinCommand, *bookingapp.SubmitHandoverPinResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	query := bookingapp.GetBookingQuery{
		ActorID:   actor,
		BookingID: strings.TrimSpace(c.Param("id")),
	}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.BookingWithChain](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
