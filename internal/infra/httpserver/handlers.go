package httpserver

import (
	"encoding/xml"
	"errors"
	"net/http"
	"time"

	"daily_trivia_bot/internal/app"
	"daily_trivia_bot/internal/domain/question"
	idb "daily_trivia_bot/internal/infra/database"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type handlers struct {
	answerService   app.AnswerService
	adminService    *app.AdminService
	scheduleService app.ScheduleService
	dispatchService app.DispatchService
	logger          *logrus.Logger
}

// twimlResponse is the minimal TwiML document telling the SMS provider what
// to text back to the sender.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

func (h *handlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// InboundSMS receives the provider's webhook for an incoming message. The
// provider retries on timeouts, so the same logical message can arrive more
// than once; the reconciler's conditional reply write makes that harmless.
func (h *handlers) InboundSMS(c *gin.Context) {
	requestID := uuid.NewString()
	from := c.PostForm("From")
	body := c.PostForm("Body")

	logCtx := h.logger.WithFields(logrus.Fields{
		"request_id":   requestID,
		"phone_number": from,
	})

	if from == "" {
		logCtx.Warn("Inbound webhook without From field")
		c.XML(http.StatusOK, twimlResponse{})
		return
	}
	logCtx.Info("Inbound SMS received")

	reply, err := h.answerService.HandleInbound(c.Request.Context(), from, body)
	if err != nil {
		logCtx.WithError(err).Error("Failed to handle inbound SMS")
		// Respond 200 with no reply body: a 5xx would trigger a provider
		// retry of an event we may have partially processed.
		c.XML(http.StatusOK, twimlResponse{})
		return
	}

	c.XML(http.StatusOK, twimlResponse{Message: reply})
}

type signupRequest struct {
	PhoneNumber  string   `json:"phone_number" binding:"required"`
	DeliveryTime string   `json:"delivery_time" binding:"required"`
	Timezone     string   `json:"timezone" binding:"required"`
	Categories   []string `json:"categories" binding:"required"`
}

func (h *handlers) SignupUser(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.adminService.SignupUser(c.Request.Context(), req.PhoneNumber, req.DeliveryTime, req.Timezone, req.Categories)
	if err != nil {
		switch {
		case err == app.ErrUserAlreadyExists:
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
		case errors.Is(err, app.ErrInvalidSignup):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Signup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *handlers) ListUsers(c *gin.Context) {
	var err error
	var users any
	if c.Query("scope") == "all" {
		users, err = h.adminService.ListAllUsers(c.Request.Context())
	} else {
		users, err = h.adminService.ListActiveUsers(c.Request.Context())
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *handlers) DeactivateUser(c *gin.Context) {
	u, err := h.adminService.DeactivateUser(c.Request.Context(), c.Param("phone"))
	if err != nil {
		switch err {
		case idb.ErrUserNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case app.ErrUserAlreadyInactive:
			c.JSON(http.StatusOK, u)
		default:
			h.logger.WithError(err).Error("Deactivation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "deactivation failed"})
		}
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *handlers) ReactivateUser(c *gin.Context) {
	u, err := h.adminService.ReactivateUser(c.Request.Context(), c.Param("phone"))
	if err != nil {
		if err == idb.ErrUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.WithError(err).Error("Reactivation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reactivation failed"})
		return
	}
	c.JSON(http.StatusOK, u)
}

type addQuestionRequest struct {
	Text          string `json:"text" binding:"required"`
	OptionA       string `json:"option_a" binding:"required"`
	OptionB       string `json:"option_b" binding:"required"`
	OptionC       string `json:"option_c" binding:"required"`
	OptionD       string `json:"option_d" binding:"required"`
	CorrectOption string `json:"correct_option" binding:"required"`
	Explanation   string `json:"explanation"`
	Category      string `json:"category" binding:"required"`
	Difficulty    string `json:"difficulty"`
}

func (h *handlers) AddQuestion(c *gin.Context) {
	var req addQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q := &question.Question{
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
		Explanation:   req.Explanation,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
	}
	if err := h.adminService.AddQuestion(c.Request.Context(), q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, q)
}

// QueueStatus reports per-status entry counts for one day (default: today).
func (h *handlers) QueueStatus(c *gin.Context) {
	day := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	counts, err := h.adminService.QueueStatus(c.Request.Context(), day)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read queue status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read queue status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format("2006-01-02"), "counts": counts})
}

type populateRequest struct {
	Date string `json:"date" binding:"required"` // YYYY-MM-DD
}

// PopulateQueue lets an operator (re-)populate a day's queue by hand, e.g.
// after a missed cron run. Population is idempotent, so re-triggering is safe.
func (h *handlers) PopulateQueue(c *gin.Context) {
	var req populateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	if err := h.scheduleService.PopulateQueue(c.Request.Context(), day); err != nil {
		h.logger.WithError(err).Error("Manual queue population failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "population failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "populated", "date": req.Date})
}

// RunDispatch triggers one dispatch cycle outside the cron cadence.
func (h *handlers) RunDispatch(c *gin.Context) {
	if err := h.dispatchService.RunDispatchCycle(c.Request.Context(), time.Now().UTC()); err != nil {
		h.logger.WithError(err).Error("Manual dispatch cycle failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dispatch failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "dispatched"})
}
