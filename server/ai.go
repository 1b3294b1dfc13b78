package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrAIGeneration marks any failure between us and a usable model answer:
// transport errors, non-200 responses, empty candidates, or a reply that does
// not parse into the requested shape. Handlers map it to a retryable 502 and
// never retry on the caller's behalf.
var ErrAIGeneration = errors.New("generation failed")

// AIClient talks to the Gemini REST API. A nil client means the feature is
// not configured and every operation fails fast.
type AIClient struct {
	http  *resty.Client
	model string
}

func NewAIClient(baseURL, apiKey, model string) *AIClient {
	if apiKey == "" {
		return nil
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("x-goog-api-key", apiKey)
	return &AIClient{http: c, model: model}
}

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate sends one prompt and returns the raw text of the first candidate.
// When schema is non-nil the model is constrained to JSON of that shape;
// callers still validate every required field before trusting it.
func (c *AIClient) generate(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	if c == nil {
		return "", fmt.Errorf("%w: no api key configured", ErrAIGeneration)
	}
	req := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}
	if schema != nil {
		req.GenerationConfig = &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		}
	}
	var out geminiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		aiRequests.WithLabelValues("transport_error").Inc()
		return "", fmt.Errorf("%w: %v", ErrAIGeneration, err)
	}
	if resp.IsError() {
		aiRequests.WithLabelValues("upstream_error").Inc()
		return "", fmt.Errorf("%w: upstream status %d", ErrAIGeneration, resp.StatusCode())
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		aiRequests.WithLabelValues("empty").Inc()
		return "", fmt.Errorf("%w: empty response", ErrAIGeneration)
	}
	aiRequests.WithLabelValues("ok").Inc()
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func (c *AIClient) generateJSON(ctx context.Context, prompt string, schema map[string]any, into any) error {
	text, err := c.generate(ctx, prompt, schema)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), into); err != nil {
		return fmt.Errorf("%w: unparseable reply: %v", ErrAIGeneration, err)
	}
	return nil
}

// --- schema helpers --------------------------------------------------------

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "ARRAY", "items": items}
}

func objectOf(props map[string]any, required ...string) map[string]any {
	o := map[string]any{"type": "OBJECT", "properties": props}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

var stringType = map[string]any{"type": "STRING"}

// --- operations ------------------------------------------------------------

// BreakDownTask turns a card into a handful of actionable checklist steps.
func (c *AIClient) BreakDownTask(ctx context.Context, title, description string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Break the following task into 3-7 short, actionable checklist steps. "+
			"Task: %q. Details: %q. Reply with a JSON array of step strings.",
		title, description)
	var steps []string
	if err := c.generateJSON(ctx, prompt, arrayOf(stringType), &steps); err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no steps returned", ErrAIGeneration)
	}
	return steps, nil
}

type generatedCard struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type generatedList struct {
	Title string          `json:"title"`
	Cards []generatedCard `json:"cards"`
}

type generatedBoard struct {
	Title string          `json:"title"`
	Lists []generatedList `json:"lists"`
}

// GenerateBoard produces a full board layout from a one-line project
// description. The returned Board carries fresh ids and no team binding.
func (c *AIClient) GenerateBoard(ctx context.Context, description string) (Board, error) {
	prompt := fmt.Sprintf(
		"Design a kanban board for this project: %q. "+
			"Produce a short board title and 3-5 lists (the last one named \"Done\"), "+
			"each with 0-5 starter cards.",
		description)
	schema := objectOf(map[string]any{
		"title": stringType,
		"lists": arrayOf(objectOf(map[string]any{
			"title": stringType,
			"cards": arrayOf(objectOf(map[string]any{
				"title":       stringType,
				"description": stringType,
			}, "title")),
		}, "title")),
	}, "title", "lists")

	var gen generatedBoard
	if err := c.generateJSON(ctx, prompt, schema, &gen); err != nil {
		return Board{}, err
	}
	if gen.Title == "" || len(gen.Lists) == 0 {
		return Board{}, fmt.Errorf("%w: board missing title or lists", ErrAIGeneration)
	}
	b := Board{ID: newID("board"), Title: gen.Title}
	for _, gl := range gen.Lists {
		if gl.Title == "" {
			continue
		}
		l := List{ID: newID("list"), Title: gl.Title, Cards: []Card{}}
		for _, gc := range gl.Cards {
			if gc.Title == "" {
				continue
			}
			l.Cards = append(l.Cards, Card{
				ID:          newID("card"),
				Title:       gc.Title,
				Description: gc.Description,
				Labels:      []Label{},
				Members:     []User{},
			})
		}
		b.Lists = append(b.Lists, l)
	}
	if len(b.Lists) == 0 {
		return Board{}, fmt.Errorf("%w: all generated lists were unusable", ErrAIGeneration)
	}
	return b, nil
}

type assigneeSuggestion struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// SuggestAssignee picks the best-fitted team member for a card based on
// member profile summaries. The returned id is checked against the roster.
func (c *AIClient) SuggestAssignee(ctx context.Context, card Card, members []User) (User, string, error) {
	var roster strings.Builder
	for _, m := range members {
		fmt.Fprintf(&roster, "- id=%s name=%s profile=%q\n", m.ID, m.Name, m.ProfileSummary)
	}
	prompt := fmt.Sprintf(
		"Given the task %q (%q) and this roster:\n%s"+
			"Pick the single best assignee. Reply with their user_id and a one-sentence reason.",
		card.Title, card.Description, roster.String())
	schema := objectOf(map[string]any{
		"user_id": stringType,
		"reason":  stringType,
	}, "user_id", "reason")

	var sug assigneeSuggestion
	if err := c.generateJSON(ctx, prompt, schema, &sug); err != nil {
		return User{}, "", err
	}
	for _, m := range members {
		if m.ID == sug.UserID {
			return m, sug.Reason, nil
		}
	}
	return User{}, "", fmt.Errorf("%w: suggested user %q is not on the roster", ErrAIGeneration, sug.UserID)
}

// SuggestLabels maps a card onto the fixed label palette by name. Unknown
// names are dropped rather than invented.
func (c *AIClient) SuggestLabels(ctx context.Context, card Card, palette []Label) ([]Label, error) {
	names := make([]string, len(palette))
	for i, l := range palette {
		names[i] = l.Text
	}
	prompt := fmt.Sprintf(
		"Choose up to 3 labels for the task %q (%q) from exactly this set: %s. "+
			"Reply with a JSON array of the chosen label names.",
		card.Title, card.Description, strings.Join(names, ", "))
	var chosen []string
	if err := c.generateJSON(ctx, prompt, arrayOf(stringType), &chosen); err != nil {
		return nil, err
	}
	var out []Label
	for _, name := range chosen {
		for _, l := range palette {
			if strings.EqualFold(l.Text, name) {
				out = append(out, l)
				break
			}
		}
	}
	return out, nil
}

// SummarizeCard is the one free-text operation: no response schema, the raw
// prose comes back as-is.
func (c *AIClient) SummarizeCard(ctx context.Context, card Card) (string, error) {
	var checklist strings.Builder
	if card.Checklist != nil {
		for _, it := range card.Checklist.Items {
			state := "open"
			if it.Completed {
				state = "done"
			}
			fmt.Fprintf(&checklist, "- [%s] %s\n", state, it.Text)
		}
	}
	prompt := fmt.Sprintf(
		"Summarize this task in 2-3 plain sentences for a status update. "+
			"Title: %q. Description: %q. Checklist:\n%s",
		card.Title, card.Description, checklist.String())
	text, err := c.generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty summary", ErrAIGeneration)
	}
	return strings.TrimSpace(text), nil
}

type boardAnalysis struct {
	Summary     string   `json:"summary"`
	Risks       []string `json:"risks"`
	Suggestions []string `json:"suggestions"`
}

// AnalyzeBoard reviews board state (list balance, overdue work, unassigned
// cards) and returns a structured assessment.
func (c *AIClient) AnalyzeBoard(ctx context.Context, b Board, now time.Time) (boardAnalysis, error) {
	m := computeBoardMetrics(b, now)
	var shape strings.Builder
	for _, l := range b.Lists {
		fmt.Fprintf(&shape, "- %s: %d cards\n", l.Title, len(l.Cards))
	}
	prompt := fmt.Sprintf(
		"Analyze this kanban board. Title: %q. Progress: %d%%. Overdue tasks: %d. Lists:\n%s"+
			"Reply with a short summary, the main risks, and concrete suggestions.",
		b.Title, m.Progress, m.OverdueTasks, shape.String())
	schema := objectOf(map[string]any{
		"summary":     stringType,
		"risks":       arrayOf(stringType),
		"suggestions": arrayOf(stringType),
	}, "summary")

	var out boardAnalysis
	if err := c.generateJSON(ctx, prompt, schema, &out); err != nil {
		return boardAnalysis{}, err
	}
	if out.Summary == "" {
		return boardAnalysis{}, fmt.Errorf("%w: analysis missing summary", ErrAIGeneration)
	}
	return out, nil
}

type teamAnalysis struct {
	Summary         string   `json:"summary"`
	WorkloadBalance string   `json:"workload_balance"`
	Suggestions     []string `json:"suggestions"`
}

// AnalyzeTeam reviews workload distribution across members.
func (c *AIClient) AnalyzeTeam(ctx context.Context, t Team, users []User) (teamAnalysis, error) {
	var load strings.Builder
	for _, w := range computeWorkload(t, users) {
		fmt.Fprintf(&load, "- %s: %d cards\n", w.UserName, w.TaskCount)
	}
	prompt := fmt.Sprintf(
		"Analyze the workload of team %q across %d boards. Cards per member:\n%s"+
			"Reply with a summary, a judgement of workload balance, and suggestions.",
		t.Name, len(t.Boards), load.String())
	schema := objectOf(map[string]any{
		"summary":          stringType,
		"workload_balance": stringType,
		"suggestions":      arrayOf(stringType),
	}, "summary", "workload_balance")

	var out teamAnalysis
	if err := c.generateJSON(ctx, prompt, schema, &out); err != nil {
		return teamAnalysis{}, err
	}
	if out.Summary == "" || out.WorkloadBalance == "" {
		return teamAnalysis{}, fmt.Errorf("%w: analysis missing required fields", ErrAIGeneration)
	}
	return out, nil
}

// TeamReport produces a markdown status report suitable for pasting into a
// weekly update.
func (c *AIClient) TeamReport(ctx context.Context, t Team, users []User, now time.Time) (string, error) {
	m := computeTeamMetrics(t, users, now)
	var boards strings.Builder
	for _, b := range t.Boards {
		bm := computeBoardMetrics(b, now)
		fmt.Fprintf(&boards, "- %s: %d tasks, %d%% done, %d overdue\n",
			b.Title, bm.TotalTasks, bm.Progress, bm.OverdueTasks)
	}
	prompt := fmt.Sprintf(
		"Write a concise markdown status report for team %q. "+
			"Overall: %d tasks, %d%% done, %d overdue. Boards:\n%s",
		t.Name, m.TotalTasks, m.Progress, m.OverdueTasks, boards.String())
	text, err := c.generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty report", ErrAIGeneration)
	}
	return strings.TrimSpace(text), nil
}
