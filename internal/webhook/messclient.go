package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"hostelmess/internal/meals"
)

// MealSubmission is the payload for logging one meal order.
type MealSubmission struct {
	StudentID  string  `json:"student_id"`
	FoodItem   string  `json:"food_item"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Date       string  `json:"date"`
}

// MessClient calls the mess workflow webhooks: meal logging and history.
type MessClient struct {
	BaseURL    string
	WorkflowID string
	HTTP       *http.Client
	Skip       bool
}

// NewMess creates a client with a configurable timeout. With skip set the
// client returns canned data and never touches the network.
func NewMess(baseURL, workflowID string, timeout time.Duration, skip bool) *MessClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MessClient{
		BaseURL:    baseURL,
		WorkflowID: workflowID,
		Skip:       skip,
		HTTP:       &http.Client{Timeout: timeout},
	}
}

// SubmitMeal logs one meal order. Any non-2xx response is surfaced verbatim.
func (c *MessClient) SubmitMeal(ctx context.Context, sub MealSubmission) error {
	if c.Skip {
		return nil
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/webhook/mess-log", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// FetchMeals retrieves the meal history for one student, normalizing the
// workflow's nested response shapes. ErrNoMealsFound marks a valid empty
// result; RemoteValidationError carries an explicit server rejection.
func (c *MessClient) FetchMeals(ctx context.Context, studentID string) ([]meals.MealRecord, error) {
	if c.Skip {
		return []meals.MealRecord{
			{FoodItem: "Rice", Quantity: 2, UnitPrice: 50, TotalPrice: 100, Date: "2025-01-15"},
		}, nil
	}

	payload, err := json.Marshal(map[string]string{
		"student_id":   studentID,
		"request_type": "fetch_meals",
	})
	if err != nil {
		return nil, err
	}

	reqURL := c.BaseURL + "/api/webhook/" + c.WorkflowID + "/get-meals/" + url.PathEscape(studentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}
	return ExtractMeals(body)
}
