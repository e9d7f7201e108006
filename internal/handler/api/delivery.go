package api

import (
	"net/http"

	reqdto "delivery-scheduler/internal/handler/dto/request"
	resdto "delivery-scheduler/internal/handler/dto/response"
	"delivery-scheduler/internal/handler/httperr"
	"delivery-scheduler/internal/pkg/errs"
	"delivery-scheduler/internal/usecase/commands"
	"delivery-scheduler/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DeliveryHandler struct {
	cmds          commands.DeliveryCommands
	windows       queries.WindowQueries
	notifications queries.NotificationQueries
}

func NewDeliveryHandler(cmds commands.DeliveryCommands, windows queries.WindowQueries, notifications queries.NotificationQueries) *DeliveryHandler {
	return &DeliveryHandler{cmds: cmds, windows: windows, notifications: notifications}
}

// @Summary Schedule delivery
// @Description Compute the delivery window for a trigger, book it and notify the customer. Accepts the trigger JSON or an SNS envelope.
// @Tags deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.TriggerRequest true "Trigger payload"
// @Success 201 {object} resdto.ScheduleResponse
// @Success 200 {object} resdto.ScheduleResponse "Duplicate trigger replayed"
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /deliveries [post]
func (h *DeliveryHandler) Trigger(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	req, err := reqdto.DecodeTrigger(raw)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", err.Error())
		return
	}

	result, err := h.cmds.Schedule(c.Request.Context(), req.ToDomain())
	if err != nil {
		status, msg := scheduleErrorStatus(err)
		var detail any
		if result != nil {
			detail = gin.H{"run_id": result.RunID.String(), "stage": result.Stage}
		}
		httperr.AbortWithError(c, status, err, msg, detail)
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromScheduleResult(result))
}

// @Summary Preview delivery window
// @Description Compute the window a trigger received at the given time would book, without side effects
// @Tags deliveries
// @Produce json
// @Param receivedAt query string true "Received timestamp (RFC 3339 or RFC 2822)"
// @Param hours query int false "Window length in hours"
// @Success 200 {object} resdto.WindowPreviewResponse
// @Failure 400 {object} httperr.Response
// @Router /deliveries/window [get]
func (h *DeliveryHandler) PreviewWindow(c *gin.Context) {
	var q reqdto.WindowPreviewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", err.Error())
		return
	}

	view, err := h.windows.Preview(c.Request.Context(), q.ReceivedAt, q.Hours)
	if err != nil {
		if errs.Is(err, queries.ErrInvalidWindowQuery) {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to compute window", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromWindowView(view))
}

// @Summary List notifications of a run
// @Description List the logged notification attempts of one scheduling run
// @Tags deliveries
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {array} resdto.NotificationJobResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /deliveries/{runId}/notifications [get]
func (h *DeliveryHandler) ListNotifications(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid run id", nil)
		return
	}

	jobs, err := h.notifications.ListByRun(c.Request.Context(), runID)
	if err != nil {
		if errs.Is(err, queries.ErrNotificationLogDisabled) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Notification log is disabled", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to list notifications", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromNotificationJobViews(jobs))
}

func scheduleErrorStatus(err error) (int, string) {
	switch {
	case errs.Is(err, commands.ErrInvalidPayload):
		return http.StatusBadRequest, "Invalid trigger payload"
	case errs.Is(err, commands.ErrIdempotencyInProgress):
		return http.StatusConflict, "Trigger is already being processed"
	case errs.Is(err, commands.ErrAuthFailed):
		return http.StatusBadGateway, "Calendar authentication failed"
	case errs.Is(err, commands.ErrBookingFailed):
		return http.StatusBadGateway, "Calendar booking failed"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
