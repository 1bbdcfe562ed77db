package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shopops/revsync/internal/application/revenue"
	"github.com/shopops/revsync/internal/domain/integration"
	"github.com/shopops/revsync/internal/interfaces/http/dto"
)

const defaultRunsLimit = 20

// SyncService is the part of the daily sync service the HTTP API drives
type SyncService interface {
	Location() *time.Location
	RunDailySync(ctx context.Context, req revenue.SyncRequest) (*revenue.SyncReport, error)
	RecentRuns(ctx context.Context, limit int) ([]integration.SyncRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*integration.SyncRun, error)
	ListTableColumns(ctx context.Context, override integration.PivotTarget) ([]string, error)
}

var _ SyncService = (*revenue.DailySyncService)(nil)

// SyncHandler exposes daily sync runs over HTTP
type SyncHandler struct {
	BaseHandler
	service SyncService
	now     func() time.Time
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncService) *SyncHandler {
	return &SyncHandler{service: service, now: time.Now}
}

// RunDaily godoc
// @ID           runDailySync
// @Summary      Run the daily revenue sync
// @Description  Aggregates one day of orders per SKU and writes the totals into the day column of the pivot table. The date defaults to yesterday in the marketplace time zone. A failed run returns the error together with the partial report.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        request body dto.DailySyncRequest false "Date and optional target table override"
// @Success      200 {object} dto.Response{data=dto.SyncReportResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{data=dto.SyncReportResponse,error=dto.ErrorInfo}
// @Failure      504 {object} dto.Response{data=dto.SyncReportResponse,error=dto.ErrorInfo}
// @Router       /api/v1/sync/daily [post]
func (h *SyncHandler) RunDaily(c *gin.Context) {
	var req dto.DailySyncRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ErrorWithCode(c, dto.ErrCodeInvalidJSON, err.Error())
			return
		}
	}

	date, err := revenue.ParseSyncDate(req.Date, h.now(), h.service.Location())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	report, err := h.service.RunDailySync(c.Request.Context(), revenue.SyncRequest{
		Date:    date,
		Trigger: revenue.TriggerHTTP,
		Target:  integration.PivotTarget{AppToken: req.AppToken, TableID: req.TableID},
	})
	if err != nil {
		// a failed run still reports what it got through
		if report != nil {
			resp := dto.NewErrorResponse(errorCode(err), err.Error(), getRequestID(c))
			resp.Data = dto.ToSyncReportResponse(report)
			_ = c.Error(err)
			c.JSON(dto.GetHTTPStatus(errorCode(err)), resp)
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToSyncReportResponse(report))
}

// ListRuns godoc
// @ID           listSyncRuns
// @Summary      List recent sync runs
// @Description  Returns the most recent runs from the run history, newest first
// @Tags         sync
// @Produce      json
// @Param        limit query int false "Maximum number of runs" minimum(1) maximum(200) default(20)
// @Success      200 {object} dto.Response{data=[]dto.SyncRunResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/sync/runs [get]
func (h *SyncHandler) ListRuns(c *gin.Context) {
	var query dto.SyncRunsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultRunsLimit
	}

	runs, err := h.service.RecentRuns(c.Request.Context(), query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, dto.ToSyncRunResponses(runs), len(runs), query.Limit)
}

// GetRun godoc
// @ID           getSyncRun
// @Summary      Get a sync run
// @Tags         sync
// @Produce      json
// @Param        id path string true "Run ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.SyncRunResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/sync/runs/{id} [get]
func (h *SyncHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid run ID format")
		return
	}

	run, err := h.service.GetRun(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToSyncRunResponse(run))
}

// ListColumns godoc
// @ID           listTableColumns
// @Summary      List pivot table columns
// @Description  Lists the field names populated in the first row of a Bitable table
// @Tags         tables
// @Produce      json
// @Param        table_id  path  string true  "Bitable table ID"
// @Param        app_token query string false "Bitable app token, defaults to pivot.app_token"
// @Success      200 {object} dto.Response{data=dto.TableColumnsResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/tables/{table_id}/columns [get]
func (h *SyncHandler) ListColumns(c *gin.Context) {
	var query dto.TableColumnsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	tableID := c.Param("table_id")

	columns, err := h.service.ListTableColumns(c.Request.Context(), integration.PivotTarget{
		AppToken: query.AppToken,
		TableID:  tableID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.TableColumnsResponse{TableID: tableID, Columns: columns})
}
