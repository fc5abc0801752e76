package hookstub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hostelmess/internal/meals"
	"hostelmess/internal/webhook"
)

// Handler serves the three webhook endpoints the clients expect.
type Handler struct {
	store MealStore
}

// NewHandler creates a stub handler over the given store.
func NewHandler(store MealStore) *Handler {
	return &Handler{store: store}
}

// Register mounts the webhook routes.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.chatReply)
	r.POST("/api/webhook/mess-log", h.messLog)
	r.POST("/api/webhook/:workflow/get-meals/:studentID", h.getMeals)
}

// chatReply answers the chat relay in the array-wrapped shape the real
// workflow uses most of the time.
func (h *Handler) chatReply(c *gin.Context) {
	message := strings.TrimSpace(c.Query("message"))
	userID := c.Query("userId")
	if message == "" {
		// workflow ran, produced nothing: an empty 200 body
		c.Status(http.StatusOK)
		return
	}

	var reply string
	switch strings.ToLower(message) {
	case "hello", "hi":
		reply = "Hello! How can I help you with the mess today?"
	default:
		reply = fmt.Sprintf("You asked: %q. The mess is open 7am-9pm daily.", message)
	}
	logrus.WithFields(logrus.Fields{"user_id": userID}).Debug("stub chat reply")
	c.JSON(http.StatusOK, []gin.H{{"output": reply}})
}

func (h *Handler) messLog(c *gin.Context) {
	var sub webhook.MealSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if sub.StudentID == "" || sub.FoodItem == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id and food_item required"})
		return
	}
	if sub.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be at least 1"})
		return
	}

	rec := meals.MealRecord{
		FoodItem:   sub.FoodItem,
		Quantity:   meals.Number(sub.Quantity),
		UnitPrice:  meals.Number(sub.UnitPrice),
		TotalPrice: meals.Number(sub.TotalPrice),
		Date:       sub.Date,
	}
	if err := h.store.SaveMeal(c.Request.Context(), sub.StudentID, rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged"})
}

// getMeals answers in the doubly-wrapped, code-fenced shape the deployed
// workflow produces, so clients exercise their full normalizer against it.
func (h *Handler) getMeals(c *gin.Context) {
	studentID := c.Param("studentID")

	records, known, err := h.store.ListMeals(c.Request.Context(), studentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var payload any
	if !known {
		payload = gin.H{"valid": false, "error": "Student not found"}
	} else {
		payload = gin.H{"valid": true, "meals": records}
	}

	inner, err := json.Marshal([]gin.H{{"output": payload}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	fenced := "```json\n" + string(inner) + "\n```"
	c.JSON(http.StatusOK, []gin.H{{"output": fenced}})
}
