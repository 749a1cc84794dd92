package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/surveyreport-backend/internal/http/response"
	"github.com/yungbote/surveyreport-backend/internal/services"
)

type ReportHandler struct {
	reports services.ReportService
}

func NewReportHandler(reports services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type createReportRequest struct {
	SurveyID      uuid.UUID `json:"survey_id" binding:"required"`
	ParticipantID uuid.UUID `json:"participant_id" binding:"required"`
}

type requeueRequest struct {
	Reason string `json:"reason"`
}

// POST /api/reports
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	report, res, err := h.reports.Create(c.Request.Context(), req.SurveyID, req.ParticipantID)
	if err != nil {
		response.RespondServiceError(c, err, "create_report_failed")
		return
	}
	response.RespondAccepted(c, gin.H{
		"report":          report,
		"company_average": res.AverageTotal.StringFixed(2),
	})
}

// GET /api/reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_report_id", err)
		return
	}
	view, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err, "load_report_failed")
		return
	}
	response.RespondOK(c, view)
}

// POST /api/reports/:id/requeue
func (h *ReportHandler) RequeueReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_report_id", err)
		return
	}
	var req requeueRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	report, err := h.reports.Requeue(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.RespondServiceError(c, err, "requeue_failed")
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}

// GET /api/reports/stats
func (h *ReportHandler) ReportStats(c *gin.Context) {
	counts, err := h.reports.Stats(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err, "report_stats_failed")
		return
	}
	response.RespondOK(c, gin.H{"reports": counts})
}

// POST /api/companies/:id/recompute-average
func (h *ReportHandler) RecomputeCompanyAverage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_company_id", err)
		return
	}
	res, err := h.reports.RecomputeAverage(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err, "recompute_failed")
		return
	}
	response.RespondOK(c, gin.H{
		"company_id":    res.CompanyID,
		"average_total": res.AverageTotal.StringFixed(2),
		"report_count":  res.ReportCount,
	})
}
