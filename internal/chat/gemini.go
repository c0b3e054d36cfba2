// Package chat answers visitor questions with Gemini, grounded on the
// published tour catalog.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/utils"
)

const (
	geminiBase  = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel = "gemini-2.0-flash"

	// MaxTours bounds the catalog snapshot sent with each prompt.
	MaxTours = 50
	// MaxHistory is how many prior turns are replayed.
	MaxHistory = 10

	descriptionLimit = 150
)

const systemPrompt = `You are a helpful travel assistant for GoFly Travel Agency. Your role is to assist customers with:
- Information about tours and travel packages (you have access to current tour data)
- Booking inquiries and procedures
- Travel recommendations based on available tours
- General travel-related questions

IMPORTANT RULES:
- You have access to tour information from the database - use this data to answer questions accurately
- Only provide information about published tours that are available
- Never share personal information (user emails, names, payment details, booking IDs)
- Never share secret information (API keys, passwords, internal system details)
- If asked about specific tours, locations, or prices, use the tour data provided
- Be friendly, professional, and concise
- If you don't have specific information, suggest they contact support or check the website`

var (
	ErrNotConfigured = errors.New("gemini api key not configured")
	ErrEmptyReply    = errors.New("invalid response from AI service")
)

// Turn is one prior message in the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client calls the generateContent endpoint.
type Client struct {
	http *http.Client
	base string
}

func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: 30 * time.Second}, base: geminiBase}
}

// WithBase points the client elsewhere; used by tests.
func (c *Client) WithBase(base string) *Client {
	c.base = strings.TrimRight(base, "/")
	return c
}

// BuildPrompt assembles the single user turn sent to the model: system
// prompt, tour snapshot, the last MaxHistory turns, then the new message.
func BuildPrompt(tours []model.Tour, currency string, history []Turn, message string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nAVAILABLE TOURS:\n")
	if len(tours) == 0 {
		b.WriteString("No tours currently available.\n\n")
	}
	if len(tours) > MaxTours {
		tours = tours[:MaxTours]
	}
	for _, t := range tours {
		fmt.Fprintf(&b, "- %s (%s, %s)\n", t.Title, t.LocationCity, t.LocationCountry)
		fmt.Fprintf(&b, "  Category: %s\n", t.Category)
		fmt.Fprintf(&b, "  Duration: %d days\n", t.DurationDays)
		if t.DiscountPrice != nil {
			fmt.Fprintf(&b, "  Price: %s (was %s)\n", utils.FormatMoney(*t.DiscountPrice, currency), utils.FormatMoney(t.BasePrice, currency))
		} else {
			fmt.Fprintf(&b, "  Price: %s\n", utils.FormatMoney(t.BasePrice, currency))
		}
		if t.MaxGroupSize > 0 {
			fmt.Fprintf(&b, "  Max Group Size: %d\n", t.MaxGroupSize)
		}
		fmt.Fprintf(&b, "  Description: %s\n", truncate(t.Description, descriptionLimit))
		fmt.Fprintf(&b, "  View at: /tours/%s\n\n", t.Slug)
	}
	b.WriteString("\n")

	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	for _, h := range history {
		if h.Role == "user" {
			fmt.Fprintf(&b, "User: %s\n\n", h.Content)
		} else {
			fmt.Fprintf(&b, "Assistant: %s\n\n", h.Content)
		}
	}
	b.WriteString("User: ")
	b.WriteString(message)
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		TopK            int     `json:"topK"`
		TopP            float64 `json:"topP"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends prompt and returns the model's reply text.
func (c *Client) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", ErrNotConfigured
	}
	var body generateRequest
	body.Contents = []content{{Role: "user", Parts: []part{{Text: prompt}}}}
	body.GenerationConfig.Temperature = 0.7
	body.GenerationConfig.TopK = 40
	body.GenerationConfig.TopP = 0.95
	body.GenerationConfig.MaxOutputTokens = 1024

	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.base, geminiModel, url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var out generateResponse
	_ = json.Unmarshal(data, &out)
	if resp.StatusCode != http.StatusOK {
		msg := "failed to get response from AI"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, msg)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyReply
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
