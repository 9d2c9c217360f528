package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fieldmind/fieldmind-go-backend/internal/models"
)

// Config holds connection details for the vision model endpoint
// (OpenAI-compatible chat completions API).
type Config struct {
	URL    string
	APIKey string
	Model  string
}

// Client calls the vision model to classify one machine component from a
// photo and/or the inspector's spoken note. The HTTP client carries a hard
// timeout so a stalled classification resolves instead of hanging the
// recording request.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 45 * time.Second},
	}
}

// ClassifyRequest carries the evidence for one component plus read-only
// context hints (weather snapshot, prior machine history).
type ClassifyRequest struct {
	ComponentName  string
	SectionName    string
	VoiceNote      string
	ImageBase64    string
	Language       string
	WeatherContext string
	MachineHistory string
}

// Classification is the validated shape this backend accepts from the
// model. Anything that does not parse into it is treated as a classifier
// failure, never partially trusted.
type Classification struct {
	Status          string
	Confidence      int
	Finding         string
	ImmediateAction string
	PartsNeeded     []models.Part
	Raw             string
}

const systemPromptTemplate = `You are FieldMind Inspector Agent, built on Caterpillar & JCB inspection standards.

LANGUAGE: %s

ASSESSMENT CRITERIA:
GO: No visible damage. Normal wear. Fluids normal. No leaks. Safe to operate.
CAUTION: Minor damage/wear. Fluid approaching minimum. Small leak or early crack. Schedule maintenance within 30 days.
NO-GO: Significant damage. Fluid critically low. Active leak. DO NOT OPERATE. Immediate repair required.

WEATHER: %s
Cold (<32F): seals brittle, hydraulics sluggish, battery reduced.
Hot (>95F): coolant critical, hydraulic overheating risk.
Rain/Snow: electrical and slip hazards elevated.
Adjust assessment accordingly.

LIFTING EQUIPMENT RULES (JCB/CAT telehandler/crane):
- Any crack in lifting mast/boom = immediate NO-GO
- Fork wear >10%% of original thickness = NO-GO
- SLI (Safe Load Indicator) not functional = NO-GO
- Load chain elongation >3%% = NO-GO
- Missing or defective safety latch on hook = NO-GO

MACHINE HISTORY: %s

RETURN ONLY VALID JSON:
{
  "assessment": { "status": "GO|CAUTION|NO-GO", "confidence": 0-100, "overall_finding": "summary of the component's state" },
  "action": { "immediate": "string", "parts_needed": [{ "part_number": "string", "part_name": "string", "quantity": 1 }] }
}`

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// assessmentPayload mirrors the JSON contract the system prompt asks for.
type assessmentPayload struct {
	Assessment struct {
		Status         string `json:"status"`
		Confidence     int    `json:"confidence"`
		OverallFinding string `json:"overall_finding"`
	} `json:"assessment"`
	Action struct {
		Immediate   string        `json:"immediate"`
		PartsNeeded []models.Part `json:"parts_needed"`
	} `json:"action"`
}

func languageInstruction(lang string) string {
	switch lang {
	case "es":
		return "Respond entirely in Spanish. Use construction/equipment terminology in Spanish. Part numbers always in English format."
	case "pt":
		return "Respond entirely in Portuguese."
	case "fr":
		return "Respond entirely in French."
	case "zh":
		return "Reply in Chinese."
	default:
		return "Respond in English."
	}
}

// Classify sends one component's evidence to the model and validates the
// response. Callers translate any error into the fail-safe CAUTION finding.
func (c *Client) Classify(ctx context.Context, req ClassifyRequest) (*Classification, error) {
	weather := req.WeatherContext
	if weather == "" {
		weather = "Not available"
	}
	history := req.MachineHistory
	if history == "" {
		history = "No previous inspection history."
	}
	systemPrompt := fmt.Sprintf(systemPromptTemplate, languageInstruction(req.Language), weather, history)

	userText := fmt.Sprintf("Inspect component: %s.", req.ComponentName)
	if req.VoiceNote != "" {
		userText += fmt.Sprintf("\nInspector says: %q", req.VoiceNote)
	}

	var userContent interface{}
	if req.ImageBase64 != "" {
		imageURL := req.ImageBase64
		if !strings.HasPrefix(imageURL, "data:") {
			imageURL = "data:image/jpeg;base64," + imageURL
		}
		userContent = []map[string]interface{}{
			{"type": "text", "text": userText},
			{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
		}
	} else {
		userContent = userText + "\nNo photo provided, assess from the description."
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		MaxTokens:      1000,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	content, err := c.complete(ctx, payload)
	if err != nil {
		return nil, err
	}

	var result assessmentPayload
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("unparsable classifier response: %w", err)
	}

	status := result.Assessment.Status
	if status != models.StatusGo && status != models.StatusCaution && status != models.StatusNoGo {
		return nil, fmt.Errorf("classifier returned unknown status %q", status)
	}
	confidence := result.Assessment.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	finding := result.Assessment.OverallFinding
	if finding == "" {
		return nil, fmt.Errorf("classifier returned empty finding")
	}

	return &Classification{
		Status:          status,
		Confidence:      confidence,
		Finding:         finding,
		ImmediateAction: result.Action.Immediate,
		PartsNeeded:     result.Action.PartsNeeded,
		Raw:             content,
	}, nil
}

// PartsRequest identifies a replacement part from a photo or description.
type PartsRequest struct {
	Description  string
	ImageBase64  string
	MachineModel string
	Language     string
}

// IdentifyParts asks the model to match a part against the CAT/JCB catalog.
// The response is returned as raw JSON for the caller to serve.
func (c *Client) IdentifyParts(ctx context.Context, req PartsRequest) (json.RawMessage, error) {
	langNote := ""
	if req.Language == "es" {
		langNote = "Responde en espanol. Nombres en espanol, numeros de parte en ingles."
	}
	model := req.MachineModel
	if model == "" {
		model = "unknown"
	}
	prompt := fmt.Sprintf(`Identify this CAT/JCB equipment part: %q. Machine: %s. %s Return JSON: {"parts":[{"rank":1,"part_number":"","part_name":"","confidence":0,"category":"","fits_models":[],"price_estimate":"","why":""}]}`,
		req.Description, model, langNote)

	var userContent interface{} = prompt
	if req.ImageBase64 != "" {
		imageURL := req.ImageBase64
		if !strings.HasPrefix(imageURL, "data:") {
			imageURL = "data:image/jpeg;base64," + imageURL
		}
		userContent = []map[string]interface{}{
			{"type": "text", "text": prompt},
			{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
		}
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a CAT/JCB parts expert. Return only valid JSON."},
			{Role: "user", Content: userContent},
		},
		MaxTokens:      800,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	content, err := c.complete(ctx, payload)
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("parts response is not valid JSON")
	}
	return json.RawMessage(content), nil
}

func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.cfg.URL, "/"))
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("model error %d: %s", resp.StatusCode, string(b))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}
