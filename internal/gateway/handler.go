package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hostelmess/internal/chat"
	"hostelmess/internal/meals"
	"hostelmess/internal/qr"
	"hostelmess/internal/speech"
	"hostelmess/internal/store"
	"hostelmess/internal/webhook"
)

// Manual student IDs are restricted to alphanumerics and underscores, same
// as the manual-entry widget.
var studentIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// MessAPI is the slice of the mess webhook client the handlers use.
type MessAPI interface {
	SubmitMeal(ctx context.Context, sub webhook.MealSubmission) error
	FetchMeals(ctx context.Context, studentID string) ([]meals.MealRecord, error)
}

// Handler exposes the chat and mess operations over HTTP. Each endpoint
// maps to one of the original pages.
type Handler struct {
	chat        *chat.Service
	mess        MessAPI
	keys        store.ClientKeys
	decoder     qr.Decoder
	transcriber speech.Transcriber
}

// New creates a gateway handler.
func New(chatSvc *chat.Service, mess MessAPI, keys store.ClientKeys, decoder qr.Decoder, transcriber speech.Transcriber) *Handler {
	return &Handler{chat: chatSvc, mess: mess, keys: keys, decoder: decoder, transcriber: transcriber}
}

// Register mounts all gateway routes. Mutating mess routes go through the
// provided staff middleware.
func (h *Handler) Register(r gin.IRouter, staff gin.HandlerFunc) {
	r.POST("/v1/chat/sessions", h.createSession)
	r.GET("/v1/chat/sessions/:id", h.getSession)
	r.POST("/v1/chat/sessions/:id/messages", h.sendMessage)
	r.POST("/v1/chat/sessions/:id/reset", h.resetSession)

	r.GET("/v1/menu", h.menu)
	r.POST("/v1/meals", staff, h.submitMeal)
	r.POST("/v1/meals/history", h.mealHistory)

	r.GET("/v1/qr/:studentID", h.qrImage)
	r.POST("/v1/qr/decode", h.qrDecode)

	r.POST("/v1/speech/transcribe", h.transcribe)

	r.GET("/v1/clients/:clientID/student", h.getStudent)
	r.PUT("/v1/clients/:clientID/student", staff, h.putStudent)
	r.GET("/v1/clients/:clientID/chat-user", h.getChatUser)
	r.PUT("/v1/clients/:clientID/chat-user", h.putChatUser)
}

type sessionView struct {
	SessionID     string         `json:"session_id"`
	UserID        string         `json:"user_id"`
	State         chat.State     `json:"state"`
	ExchangesLeft int            `json:"exchanges_left"`
	Messages      []chat.Message `json:"messages"`
}

func viewSession(s *chat.Session) sessionView {
	return sessionView{
		SessionID:     s.ID(),
		UserID:        s.UserID(),
		State:         s.State(),
		ExchangesLeft: s.ExchangesLeft(),
		Messages:      s.Messages(),
	}
}

func (h *Handler) createSession(c *gin.Context) {
	var req struct {
		ClientID string `json:"client_id"`
	}
	_ = c.ShouldBindJSON(&req)

	userID := ""
	if req.ClientID != "" {
		stored, err := h.keys.Get(c.Request.Context(), req.ClientID, store.KeyChatUser)
		if err != nil {
			logrus.WithError(err).Warn("chat user lookup failed")
		}
		if stored == "" {
			stored = chat.NewUserID()
			if err := h.keys.Set(c.Request.Context(), req.ClientID, store.KeyChatUser, stored); err != nil {
				logrus.WithError(err).Warn("chat user store failed")
			}
		}
		userID = stored
	}

	sess := h.chat.Create(userID)
	c.JSON(http.StatusCreated, viewSession(sess))
}

func (h *Handler) getSession(c *gin.Context) {
	sess, err := h.chat.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, viewSession(sess))
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		chatExchanges.WithLabelValues("rejected").Inc()
		switch {
		case errors.Is(err, chat.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, chat.ErrSessionExpired), errors.Is(err, chat.ErrSendInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	chatExchanges.WithLabelValues("ok").Inc()
	sess, _ := h.chat.Get(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{
		"message":        msg,
		"state":          sess.State(),
		"exchanges_left": sess.ExchangesLeft(),
	})
}

func (h *Handler) resetSession(c *gin.Context) {
	sess, err := h.chat.Reset(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, viewSession(sess))
}

func (h *Handler) menu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": meals.Menu()})
}

func (h *Handler) submitMeal(c *gin.Context) {
	var req struct {
		ClientID  string `json:"client_id"`
		StudentID string `json:"student_id"`
		FoodItem  string `json:"food_item" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	studentID, ok := h.resolveStudent(c, req.StudentID, req.ClientID)
	if !ok {
		return
	}

	option, found := meals.LookupOption(req.FoodItem)
	if !found {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown food item"})
		return
	}
	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}
	if qty > 10 {
		qty = 10
	}

	sub := webhook.MealSubmission{
		StudentID:  studentID,
		FoodItem:   option.Name,
		Quantity:   qty,
		UnitPrice:  option.UnitPrice,
		TotalPrice: option.UnitPrice * float64(qty),
		Date:       time.Now().UTC().Format("2006-01-02"),
	}
	if err := h.mess.SubmitMeal(c.Request.Context(), sub); err != nil {
		mealSubmissions.WithLabelValues("error").Inc()
		// the remote's failure is surfaced verbatim, never retried
		c.JSON(http.StatusBadGateway, gin.H{"error": "Error logging meal: " + err.Error()})
		return
	}
	mealSubmissions.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, gin.H{"status": "logged", "order": sub})
}

type historyRequest struct {
	ClientID    string   `json:"client_id"`
	StudentID   string   `json:"student_id"`
	DateFrom    string   `json:"date_from"`
	DateTo      string   `json:"date_to"`
	FoodItem    string   `json:"food_item"`
	MinPrice    *float64 `json:"min_price"`
	MaxPrice    *float64 `json:"max_price"`
	MinQuantity *float64 `json:"min_quantity"`
	MaxQuantity *float64 `json:"max_quantity"`
	SortBy      string   `json:"sort_by"`
	SortOrder   string   `json:"sort_order"`
}

func (h *Handler) mealHistory(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	studentID, ok := h.resolveStudent(c, req.StudentID, req.ClientID)
	if !ok {
		return
	}

	filter, err := buildFilter(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.mess.FetchMeals(c.Request.Context(), studentID)
	switch {
	case err == nil:
	case errors.Is(err, webhook.ErrNoMealsFound):
		historyFetches.WithLabelValues("empty").Inc()
		c.JSON(http.StatusOK, gin.H{
			"student_id": studentID,
			"meals":      []meals.MealRecord{},
			"message":    "No meals found for this student.",
		})
		return
	default:
		var vErr *webhook.RemoteValidationError
		if errors.As(err, &vErr) {
			historyFetches.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": vErr.Reason})
			return
		}
		historyFetches.WithLabelValues("error").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	filtered := meals.Apply(records, filter)
	agg := meals.Reduce(filtered)
	historyFetches.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"student_id":     studentID,
		"meals":          filtered,
		"count":          len(filtered),
		"total_spent":    agg.TotalSpent(),
		"aggregate":      agg,
		"daily_series":   agg.DailySeries(),
		"monthly_series": agg.MonthlySeries(),
	})
}

// buildFilter translates the request body into a meals.Filter.
func buildFilter(req historyRequest) (meals.Filter, error) {
	f := meals.Filter{
		FoodItem:    req.FoodItem,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
		MinQuantity: req.MinQuantity,
		MaxQuantity: req.MaxQuantity,
		SortBy:      meals.SortKey(req.SortBy),
		SortOrder:   meals.SortOrder(req.SortOrder),
	}
	if req.DateFrom != "" {
		t, err := time.Parse("2006-01-02", req.DateFrom)
		if err != nil {
			return meals.Filter{}, errors.New("date_from must be YYYY-MM-DD")
		}
		f.DateFrom = &t
	}
	if req.DateTo != "" {
		t, err := time.Parse("2006-01-02", req.DateTo)
		if err != nil {
			return meals.Filter{}, errors.New("date_to must be YYYY-MM-DD")
		}
		f.DateTo = &t
	}
	switch f.SortBy {
	case "", meals.SortByDate, meals.SortByPrice, meals.SortByQuantity, meals.SortByFoodItem:
	default:
		return meals.Filter{}, errors.New("unknown sort_by")
	}
	switch f.SortOrder {
	case "", meals.Asc, meals.Desc:
	default:
		return meals.Filter{}, errors.New("sort_order must be asc or desc")
	}
	return f, nil
}

func (h *Handler) qrImage(c *gin.Context) {
	studentID := c.Param("studentID")
	if !studentIDPattern.MatchString(studentID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student id must be alphanumeric or underscore"})
		return
	}
	size := 256
	if v := c.Query("size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 1024 {
			size = parsed
		}
	}
	png, err := qr.GeneratePNG(studentID, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// qrDecode accepts a multipart file or a JSON base64 payload, scans it for
// a QR code, and remembers the decoded student ID for the client.
func (h *Handler) qrDecode(c *gin.Context) {
	clientID := c.Query("client_id")

	var data []byte
	switch {
	case strings.Contains(c.ContentType(), "multipart/form-data"):
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
			return
		}
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
	default:
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 image>\"}"})
			return
		}
		raw := body.Data
		if idx := strings.Index(raw, ","); idx >= 0 && strings.HasPrefix(raw, "data:") {
			raw = raw[idx+1:]
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid base64 image"})
			return
		}
		data = decoded
	}

	studentID, found, err := qr.DecodeImage(h.decoder, data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image: " + err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}

	if clientID != "" {
		if err := h.keys.Set(c.Request.Context(), clientID, store.KeyScannedStudent, studentID); err != nil {
			logrus.WithError(err).Warn("student id store failed")
		}
	}
	c.JSON(http.StatusOK, gin.H{"found": true, "student_id": studentID})
}

// transcribe turns an uploaded audio clip into text. Without a backend it
// answers 501 so the chat page can hide its microphone button.
func (h *Handler) transcribe(c *gin.Context) {
	audio, err := io.ReadAll(io.LimitReader(c.Request.Body, 4<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read audio failed"})
		return
	}
	text, err := h.transcriber.Transcribe(c.Request.Context(), audio)
	if err != nil {
		if errors.Is(err, speech.ErrUnsupported) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (h *Handler) getStudent(c *gin.Context) {
	studentID, err := h.keys.Get(c.Request.Context(), c.Param("clientID"), store.KeyScannedStudent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"student_id": studentID})
}

func (h *Handler) putStudent(c *gin.Context) {
	var req struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	if !studentIDPattern.MatchString(req.StudentID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student id must be alphanumeric or underscore"})
		return
	}
	if err := h.keys.Set(c.Request.Context(), c.Param("clientID"), store.KeyScannedStudent, req.StudentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"student_id": req.StudentID})
}

func (h *Handler) getChatUser(c *gin.Context) {
	clientID := c.Param("clientID")
	userID, err := h.keys.Get(c.Request.Context(), clientID, store.KeyChatUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if userID == "" {
		userID = chat.NewUserID()
		if err := h.keys.Set(c.Request.Context(), clientID, store.KeyChatUser, userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID})
}

func (h *Handler) putChatUser(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.keys.Set(c.Request.Context(), c.Param("clientID"), store.KeyChatUser, req.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": req.UserID})
}

// resolveStudent picks the explicit student ID or falls back to the one
// stored for the client. Writes a response and returns false when neither
// is available.
func (h *Handler) resolveStudent(c *gin.Context, explicit, clientID string) (string, bool) {
	studentID := strings.TrimSpace(explicit)
	if studentID == "" && clientID != "" {
		stored, err := h.keys.Get(c.Request.Context(), clientID, store.KeyScannedStudent)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return "", false
		}
		studentID = stored
	}
	if studentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please scan a QR code first or enter a Student ID"})
		return "", false
	}
	return studentID, true
}
