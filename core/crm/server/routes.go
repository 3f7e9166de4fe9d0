package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/koscakluka/ema-live/core/crm"
)

type createLeadRequest struct {
	Name   string `json:"name" binding:"required"`
	Phone  string `json:"phone" binding:"required"`
	City   string `json:"city" binding:"required"`
	Source string `json:"source"`
}

type createLeadResponse struct {
	LeadID string     `json:"lead_id"`
	Status crm.Status `json:"status"`
}

type scheduleVisitRequest struct {
	LeadID    string `json:"lead_id" binding:"required"`
	VisitTime string `json:"visit_time" binding:"required"`
	Notes     string `json:"notes"`
}

type scheduleVisitResponse struct {
	VisitID string `json:"visit_id"`
	Status  string `json:"status"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type updateStatusResponse struct {
	LeadID string     `json:"lead_id"`
	Status crm.Status `json:"status"`
}

const leadNotFoundDetail = "Lead not found"

func registerRoutes(router *gin.Engine, service *crm.Service) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	g := router.Group("/crm")

	g.POST("/leads", func(c *gin.Context) {
		var req createLeadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			unprocessable(c, err)
			return
		}
		lead, err := service.CreateLead(c.Request.Context(), crm.NewLead{
			Name:   req.Name,
			Phone:  req.Phone,
			City:   req.City,
			Source: req.Source,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, createLeadResponse{LeadID: lead.ID, Status: lead.Status})
	})

	g.GET("/leads", func(c *gin.Context) {
		leads, err := service.Leads(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"leads": leads})
	})

	g.GET("/leads/:id", func(c *gin.Context) {
		lead, err := service.Lead(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, lead)
	})

	g.GET("/leads/:id/history", func(c *gin.Context) {
		history, err := service.History(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": history})
	})

	g.POST("/leads/:id/status", func(c *gin.Context) {
		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			unprocessable(c, err)
			return
		}
		status, err := crm.ParseStatus(req.Status)
		if err != nil {
			unprocessable(c, err)
			return
		}
		update, err := service.UpdateLeadStatus(c.Request.Context(), c.Param("id"), status, req.Notes)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, updateStatusResponse{LeadID: update.LeadID, Status: update.NewStatus})
	})

	g.POST("/visits", func(c *gin.Context) {
		var req scheduleVisitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			unprocessable(c, err)
			return
		}
		visitTime, err := crm.ParseVisitTime(req.VisitTime)
		if err != nil {
			unprocessable(c, err)
			return
		}
		visit, err := service.ScheduleVisit(c.Request.Context(), crm.NewVisit{
			LeadID:    req.LeadID,
			VisitTime: visitTime,
			Notes:     req.Notes,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, scheduleVisitResponse{VisitID: visit.ID, Status: visit.Status})
	})

	g.GET("/visits", func(c *gin.Context) {
		visits, err := service.Visits(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"visits": visits})
	})
}

func unprocessable(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, crm.ErrLeadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": leadNotFoundDetail})
	case errors.Is(err, crm.ErrInvalidStatus), errors.Is(err, crm.ErrInvalidInput):
		unprocessable(c, err)
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": http.StatusText(http.StatusInternalServerError)})
	}
}
