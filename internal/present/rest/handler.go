package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/loandesk/internal/domain"
	"github.com/totegamma/loandesk/internal/present/rest/presenter"
	"github.com/totegamma/loandesk/internal/service"
	"github.com/totegamma/loandesk/internal/usecase"
)

// Records groups the per-collection write paths.
type Records struct {
	Enquiries           *usecase.RecordUsecase[domain.Enquiry]
	Documents           *usecase.RecordUsecase[domain.Document]
	Shortlists          *usecase.RecordUsecase[domain.Shortlist]
	Staff               *usecase.RecordUsecase[domain.Staff]
	Transactions        *usecase.RecordUsecase[domain.Transaction]
	PaymentApplications *usecase.RecordUsecase[domain.PaymentApplication]
}

type Handler struct {
	records    Records
	loan       *usecase.LoanUsecase
	sync       *usecase.SyncUsecase
	dispatcher *usecase.Dispatcher
	signal     *service.SignalService
}

// NewHandler builds the REST surface. signal may be nil, in which case the
// live stream answers 503.
func NewHandler(
	records Records,
	loan *usecase.LoanUsecase,
	sync *usecase.SyncUsecase,
	dispatcher *usecase.Dispatcher,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		records:    records,
		loan:       loan,
		sync:       sync,
		dispatcher: dispatcher,
		signal:     signal,
	}
}

// Validator adapts go-playground/validator to echo.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}

	e.GET("/health", h.handleHealth)

	api := e.Group("/api/v1")
	registerRecords(api, "/enquiries", h.records.Enquiries)
	registerRecords(api, "/documents", h.records.Documents)
	registerRecords(api, "/staff", h.records.Staff)
	registerRecords(api, "/transactions", h.records.Transactions)

	// shortlist and application writes go through the loan workflows
	if h.loan != nil {
		registerRecordsWith(api, "/shortlists", h.records.Shortlists, h.loan.CreateShortlist, h.loan.UpdateShortlist)
		registerRecordsWith(api, "/payment-applications", h.records.PaymentApplications, h.loan.CreatePaymentApplication, h.loan.UpdatePaymentApplication)

		api.POST("/enquiries/:id/shortlist", h.handleShortlist)
		api.POST("/shortlists/:id/payment-applications", h.handleApplyForPayment)
		api.POST("/documents/:id/verify", h.handleVerifyDocument)
	}

	sync := e.Group("/sync")
	sync.GET("/status", h.handleSyncStatus)
	sync.GET("/test", h.handleSyncTest)
	sync.POST("/force", h.handleSyncForce)
	sync.GET("/report", h.handleSyncReport)
	sync.GET("/stream", h.handleSyncStream)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

// respondError maps usecase errors onto status codes.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return presenter.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return presenter.Conflict(c, err)
	case errors.Is(err, domain.ErrUnknownEntityType):
		return presenter.BadRequest(c, err)
	default:
		return presenter.InternalError(c, err)
	}
}

func registerRecords[T usecase.Entity[T]](g *echo.Group, path string, uc *usecase.RecordUsecase[T]) {
	if uc == nil {
		return
	}
	registerRecordsWith(g, path, uc, uc.Create, uc.Update)
}

// registerRecordsWith serves reads and deletes from uc and writes through
// create and update.
func registerRecordsWith[T usecase.Entity[T]](
	g *echo.Group,
	path string,
	uc *usecase.RecordUsecase[T],
	create func(context.Context, T) (T, error),
	update func(context.Context, string, T) (T, error),
) {
	if uc == nil {
		return
	}

	g.GET(path, func(c echo.Context) error {
		items, err := uc.List(c.Request().Context())
		if err != nil {
			return respondError(c, err)
		}
		return presenter.OK(c, items)
	})

	g.GET(path+"/:id", func(c echo.Context) error {
		item, err := uc.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return presenter.OK(c, item)
	})

	g.POST(path, func(c echo.Context) error {
		var input T
		if err := c.Bind(&input); err != nil {
			return presenter.BadRequest(c, err)
		}
		if err := c.Validate(&input); err != nil {
			return presenter.BadRequest(c, err)
		}
		created, err := create(c.Request().Context(), input)
		if err != nil {
			return respondError(c, err)
		}
		return presenter.Created(c, created)
	})

	g.PUT(path+"/:id", func(c echo.Context) error {
		var input T
		if err := c.Bind(&input); err != nil {
			return presenter.BadRequest(c, err)
		}
		if err := c.Validate(&input); err != nil {
			return presenter.BadRequest(c, err)
		}
		updated, err := update(c.Request().Context(), c.Param("id"), input)
		if err != nil {
			return respondError(c, err)
		}
		return presenter.OK(c, updated)
	})

	g.DELETE(path+"/:id", func(c echo.Context) error {
		if err := uc.Delete(c.Request().Context(), c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return presenter.OK(c, echo.Map{"status": "ok"})
	})
}

type shortlistRequest struct {
	StaffID string `json:"staffId"`
}

func (h *Handler) handleShortlist(c echo.Context) error {
	var req shortlistRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	shortlist, err := h.loan.ShortlistEnquiry(c.Request().Context(), c.Param("id"), req.StaffID)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.Created(c, shortlist)
}

func (h *Handler) handleApplyForPayment(c echo.Context) error {
	var terms domain.LoanTerms
	if err := c.Bind(&terms); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := c.Validate(&terms); err != nil {
		return presenter.BadRequest(c, err)
	}
	app, err := h.loan.ApplyForPayment(c.Request().Context(), c.Param("id"), terms)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.Created(c, app)
}

type verifyRequest struct {
	VerifierID string `json:"verifierId" validate:"required"`
}

func (h *Handler) handleVerifyDocument(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	doc, err := h.loan.VerifyDocument(c.Request().Context(), c.Param("id"), req.VerifierID)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, doc)
}

func (h *Handler) handleSyncStatus(c echo.Context) error {
	return presenter.OK(c, h.sync.Status(c.Request().Context()))
}

func (h *Handler) handleSyncTest(c echo.Context) error {
	ctx := c.Request().Context()
	status := h.sync.Status(ctx)
	return presenter.OK(c, echo.Map{
		"status": status,
		"tables": h.sync.TestConnection(ctx),
	})
}

// handleSyncForce runs a full catch-up sync, or queues one collection when
// the type query parameter is given.
func (h *Handler) handleSyncForce(c echo.Context) error {
	if name := c.QueryParam("type"); name != "" {
		t, err := domain.ParseEntityType(name)
		if err != nil {
			return presenter.BadRequest(c, err)
		}
		if h.dispatcher == nil {
			return presenter.ServiceUnavailable(c, "sync dispatcher is not configured")
		}
		if !h.dispatcher.Publish(domain.ChangeEvent{Type: t}) {
			return presenter.ServiceUnavailable(c, "sync queue is full")
		}
		return presenter.Accepted(c, echo.Map{"status": "queued", "type": t})
	}

	// the run outlives a disconnecting client
	ctx := context.WithoutCancel(c.Request().Context())
	report, err := h.sync.SyncAll(ctx, "manual")
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, report)
}

type queueStats struct {
	Pending int   `json:"pending"`
	Dropped int64 `json:"dropped"`
}

type reportResponse struct {
	domain.SyncDiagnostics
	Queue queueStats `json:"queue"`
}

func (h *Handler) handleSyncReport(c echo.Context) error {
	resp := reportResponse{
		SyncDiagnostics: h.sync.Report(c.Request().Context()),
	}
	if h.dispatcher != nil {
		resp.Queue = queueStats{
			Pending: h.dispatcher.Pending(),
			Dropped: h.dispatcher.Dropped(),
		}
	}
	return presenter.OK(c, resp)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleSyncStream(c echo.Context) error {
	if h.signal == nil {
		return presenter.ServiceUnavailable(c, "live stream requires redis")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "stream"),
		)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan domain.SyncEvent)
	go h.signal.Realtime(ctx, output)

	quit := make(chan struct{})
	go func() {
		defer close(quit)
		for {
			// clients only send heartbeats; reading surfaces the close frame
			if _, _, err := ws.ReadMessage(); err != nil {
				var wsErr *websocket.CloseError
				if errors.As(err, &wsErr) {
					if wsErr.Code != websocket.CloseNormalClosure && wsErr.Code != websocket.CloseGoingAway {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "stream"),
						)
					}
				} else {
					slog.DebugContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "stream"),
					)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			if err := ws.WriteJSON(event); err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "stream"),
				)
				return nil
			}
		}
	}
}
