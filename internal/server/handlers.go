package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harrison/labourcheck/internal/funnel"
	"github.com/harrison/labourcheck/internal/models"
	"github.com/harrison/labourcheck/internal/report"
)

type startRequest struct {
	Email       string `json:"email" binding:"required"`
	BuilderName string `json:"builderName"`
}

type answerRequest struct {
	QuestionID int    `json:"questionId" binding:"required"`
	Text       string `json:"text"`
}

type answerResponse struct {
	*funnel.Step
	DeliveryError string `json:"deliveryError,omitempty"`
}

type phoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type phoneResponse struct {
	SessionID string `json:"sessionId"`
	Phone     string `json:"phone"`
	SMSError  string `json:"smsError,omitempty"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime"`
	LiveSessions int    `json:"liveSessions"`
}

func (s *Server) handleHealth(c *gin.Context) {
	ok(c, http.StatusOK, healthResponse{
		Status:       "ok",
		Uptime:       time.Since(s.startTime).Round(time.Second).String(),
		LiveSessions: s.funnel.Live(),
	})
}

func (s *Server) handleCatalog(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"questions": s.funnel.Catalog().Questions()})
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	started, err := s.funnel.Start(c.Request.Context(), models.Identity{Email: req.Email, BuilderName: req.BuilderName})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, started)
}

func (s *Server) handleAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	step, err := s.funnel.Answer(c.Request.Context(), c.Param("id"), req.QuestionID, req.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := answerResponse{Step: step}
	if step.DeliveryErr != nil {
		resp.DeliveryError = "report saved but delivery was incomplete"
	}
	ok(c, http.StatusOK, resp)
}

func (s *Server) handleProgress(c *gin.Context) {
	status, err := s.funnel.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, http.StatusOK, status)
}

// handleReport returns the report as JSON, or as HTML or PDF with ?format=.
func (s *Server) handleReport(c *gin.Context) {
	rep, err := s.funnel.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		ok(c, http.StatusOK, rep)
	case "html":
		html, err := report.RenderHTML(rep)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	case "pdf":
		pdf, err := report.RenderPDF(rep)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="labour-pipeline-report.pdf"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	default:
		c.JSON(http.StatusBadRequest, APIResponse{Error: "format must be one of: json, html, pdf"})
	}
}

func (s *Server) handlePhone(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	id := c.Param("id")
	if _, err := s.funnel.Status(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	sess, err := s.followUps.SubmitPhone(c.Request.Context(), id, req.Phone)
	if err != nil && sess == nil {
		s.fail(c, err)
		return
	}
	resp := phoneResponse{SessionID: sess.ID, Phone: sess.Phone}
	if err != nil {
		// the number is stored; only the text failed
		s.log.LogWarn(err.Error())
		resp.SMSError = "follow-up text could not be sent"
	}
	ok(c, http.StatusOK, resp)
}

// handleFollowUp records the conversion behind a tracked link and redirects to the landing page.
func (s *Server) handleFollowUp(c *gin.Context) {
	if _, err := s.followUps.RecordFollowUp(c.Request.Context(), c.Param("token")); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, s.cfg.LandingURL)
}
