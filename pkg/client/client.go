package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/terra-clan/aptitude-engine/internal/assessment"
	"github.com/terra-clan/aptitude-engine/internal/models"
	"github.com/terra-clan/aptitude-engine/internal/scoring"
)

// Client is a Go SDK for the aptitude-engine API
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken starts the client with an existing session token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new aptitude-engine client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Token returns the session token used for authenticated calls
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the session token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// APIError is a failed API call carrying the server's error code
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s - %s", e.Status, e.Code, e.Message)
}

// Session is the payload of every sign-in style call
type Session struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	Identity  *models.Identity    `json:"identity"`
	Profile   *models.Profile     `json:"profile"`
	Scores    []models.ScoreEntry `json:"scores"`
}

// DifficultyLevel describes one difficulty offered by a topic
type DifficultyLevel struct {
	Difficulty    models.Difficulty `json:"difficulty"`
	Label         string            `json:"label"`
	BudgetSeconds int               `json:"budget_seconds"`
	Available     int               `json:"available"`
}

// TopicDetail is a topic with its per-difficulty availability
type TopicDetail struct {
	models.Topic
	Levels []DifficultyLevel `json:"levels"`
}

// PersonalBest is the best percentage for one topic and difficulty
type PersonalBest struct {
	Topic      string            `json:"topic"`
	Difficulty models.Difficulty `json:"difficulty"`
	Best       float64           `json:"best"`
	Attempts   int               `json:"attempts"`
}

// ImportResult reports an accepted score import
type ImportResult struct {
	Imported int             `json:"imported"`
	Summary  scoring.Summary `json:"summary"`
}

// SignUp creates an identity and stores the returned token
func (c *Client) SignUp(ctx context.Context, req models.SignUpRequest) (*Session, error) {
	return c.signIn(ctx, "/auth/signup", req)
}

// Login signs in with email or phone and password
func (c *Client) Login(ctx context.Context, req models.SignInRequest) (*Session, error) {
	return c.signIn(ctx, "/auth/login", req)
}

// SendPhoneCode asks the server to send a one-time code to phone
func (c *Client) SendPhoneCode(ctx context.Context, phone string) error {
	return c.do(ctx, http.MethodPost, "/auth/otp/send", models.PhoneCodeRequest{Phone: phone}, nil)
}

// VerifyPhoneCode exchanges a one-time code for a session
func (c *Client) VerifyPhoneCode(ctx context.Context, phone, code string) (*Session, error) {
	return c.signIn(ctx, "/auth/otp/verify", models.VerifyPhoneCodeRequest{Phone: phone, Code: code})
}

// Logout revokes the current token and forgets it
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Session restores the signed-in state of the current token
func (c *Client) Session(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodGet, "/auth/session", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) signIn(ctx context.Context, path string, body interface{}) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, path, body, &s); err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s, nil
}

// ListTopics retrieves the catalog topics
func (c *Client) ListTopics(ctx context.Context) ([]*models.Topic, error) {
	var result struct {
		Topics []*models.Topic `json:"topics"`
		Total  int             `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/topics", nil, &result); err != nil {
		return nil, err
	}
	return result.Topics, nil
}

// GetTopic retrieves a topic by ID
func (c *Client) GetTopic(ctx context.Context, id string) (*TopicDetail, error) {
	var t TopicDetail
	if err := c.do(ctx, http.MethodGet, "/api/v1/topics/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// StartAssessment begins a timed assessment
func (c *Client) StartAssessment(ctx context.Context, req models.StartAssessmentRequest) (*models.SessionView, error) {
	return c.sessionCall(ctx, http.MethodPost, "/api/v1/assessments", req)
}

// GetAssessment retrieves the current view of an assessment
func (c *Client) GetAssessment(ctx context.Context, id string) (*models.SessionView, error) {
	return c.sessionCall(ctx, http.MethodGet, assessmentPath(id), nil)
}

// Answer selects an option for the current question
func (c *Client) Answer(ctx context.Context, id string, option int) (*models.SessionView, error) {
	return c.sessionCall(ctx, http.MethodPut, assessmentPath(id)+"/answer", models.AnswerRequest{Option: option})
}

// Navigate moves to the next or previous question ("next", "prev")
func (c *Client) Navigate(ctx context.Context, id, direction string) (*models.SessionView, error) {
	return c.sessionCall(ctx, http.MethodPost, assessmentPath(id)+"/navigate", models.NavigateRequest{Direction: direction})
}

// JumpTo moves to the question at index
func (c *Client) JumpTo(ctx context.Context, id string, index int) (*models.SessionView, error) {
	return c.sessionCall(ctx, http.MethodPost, assessmentPath(id)+"/navigate", models.NavigateRequest{To: &index})
}

// Submit scores the assessment
func (c *Client) Submit(ctx context.Context, id string) (*assessment.Result, error) {
	var r assessment.Result
	if err := c.do(ctx, http.MethodPost, assessmentPath(id)+"/submit", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Discard abandons an assessment without recording a score
func (c *Client) Discard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, assessmentPath(id), nil, nil)
}

// GetResult retrieves the result of a finished assessment
func (c *Client) GetResult(ctx context.Context, id string) (*assessment.Result, error) {
	var r assessment.Result
	if err := c.do(ctx, http.MethodGet, "/api/v1/results/"+url.PathEscape(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) sessionCall(ctx context.Context, method, path string, body interface{}) (*models.SessionView, error) {
	var v models.SessionView
	if err := c.do(ctx, method, path, body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func assessmentPath(id string) string {
	return "/api/v1/assessments/" + url.PathEscape(id)
}

// ListScores retrieves the score history of the signed-in identity
func (c *Client) ListScores(ctx context.Context) ([]models.ScoreEntry, error) {
	var result struct {
		Scores []models.ScoreEntry `json:"scores"`
		Total  int                 `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/scores", nil, &result); err != nil {
		return nil, err
	}
	return result.Scores, nil
}

// Summary retrieves the dashboard aggregates
func (c *Client) Summary(ctx context.Context) (*scoring.Summary, error) {
	var s scoring.Summary
	if err := c.do(ctx, http.MethodGet, "/api/v1/scores/summary", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// PersonalBest retrieves the best percentage for a topic and difficulty
func (c *Client) PersonalBest(ctx context.Context, topic string, difficulty models.Difficulty) (*PersonalBest, error) {
	q := url.Values{}
	q.Set("topic", topic)
	q.Set("difficulty", string(difficulty))

	var b PersonalBest
	if err := c.do(ctx, http.MethodGet, "/api/v1/scores/best?"+q.Encode(), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ImportScores appends previously recorded entries
func (c *Client) ImportScores(ctx context.Context, entries []models.ScoreEntry) (*ImportResult, error) {
	body := struct {
		Scores []models.ScoreEntry `json:"scores"`
	}{Scores: entries}

	var r ImportResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/scores/import", body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetProfile retrieves the profile of the signed-in identity
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/v1/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile applies a partial profile edit
func (c *Client) UpdateProfile(ctx context.Context, u models.ProfileUpdate) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodPatch, "/api/v1/profile", u, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do performs an HTTP request and decodes the envelope's data into out
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Code: "http_error", Message: string(respBody)}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !env.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Code: "unknown_error"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
