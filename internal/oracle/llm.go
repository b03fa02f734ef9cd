package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"oraclefeed/internal/models"
)

// LLMResponder is a single independent oracle responder backed by an LLM
// with web access. It asks the model to fetch the CoinGecko simple/price
// endpoint for one coin and hand back the numeric fields as strict JSON.
type LLMResponder struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewLLMResponder creates a responder using the given API key and model.
func NewLLMResponder(apiKey, model string) *LLMResponder {
	return &LLMResponder{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: 1.0,
	}
}

// NewLLMResponderWithClient creates a responder around an existing client.
// Useful when several responders share one API key but need distinct
// sampling behaviour.
func NewLLMResponderWithClient(client *openai.Client, model string, temperature float32) *LLMResponder {
	return &LLMResponder{client: client, model: model, temperature: temperature}
}

const responderSystemPrompt = `You are a market data extractor. You fetch live
cryptocurrency prices and answer with strict JSON only: no prose, no markdown.`

// buildPrompt renders the fetch-and-interpret instruction for one request.
func buildPrompt(req Request) string {
	return fmt.Sprintf(`Fetch the current price data for %[1]s from the CoinGecko API.

Use this endpoint:
https://api.coingecko.com/api/v3/simple/price?ids=%[1]s&vs_currencies=%[2]s&include_24hr_change=true&include_market_cap=true

Return ONLY a JSON object with this exact structure:
{"price": <number>, "change_24h": <number or null>, "market_cap": <number or null>}

If the data cannot be fetched, return exactly: {"no_data": true}
Do not include any other text, explanations, or markdown formatting.`, req.SourceID, req.Currency)
}

// Query performs one oracle call and parses the answer.
func (r *LLMResponder) Query(ctx context.Context, req Request) (*Response, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: r.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: responderSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: completion failed: %v", models.ErrOracleUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", models.ErrOracleUnavailable)
	}
	return ParsePayload(resp.Choices[0].Message.Content)
}

// payload mirrors the JSON shape the responder is instructed to emit.
// json.Number keeps full precision for the decimal conversion.
type payload struct {
	NoData    bool         `json:"no_data"`
	Price     *json.Number `json:"price"`
	Change24h *json.Number `json:"change_24h"`
	MarketCap *json.Number `json:"market_cap"`
}

// ParsePayload validates a raw responder answer and converts it to a
// Response. A missing or negative price is malformed; an explicit no_data
// marker or blank answer means the source had nothing to report. A price is
// never defaulted to zero.
func ParsePayload(raw string) (*Response, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: blank response", models.ErrOracleUnavailable)
	}

	var p payload
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	if p.NoData {
		return nil, fmt.Errorf("%w: source reported no data", models.ErrOracleUnavailable)
	}
	if p.Price == nil {
		return nil, fmt.Errorf("%w: price field missing", models.ErrMalformedResponse)
	}

	price, err := decimal.NewFromString(p.Price.String())
	if err != nil {
		return nil, fmt.Errorf("%w: price %q: %v", models.ErrMalformedResponse, p.Price.String(), err)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: negative price %s", models.ErrMalformedResponse, price)
	}

	out := &Response{Price: price}
	if p.Change24h != nil {
		change, err := decimal.NewFromString(p.Change24h.String())
		if err != nil {
			return nil, fmt.Errorf("%w: change_24h %q: %v", models.ErrMalformedResponse, p.Change24h.String(), err)
		}
		out.Change24h = &change
	}
	if p.MarketCap != nil {
		cap, err := decimal.NewFromString(p.MarketCap.String())
		if err != nil {
			return nil, fmt.Errorf("%w: market_cap %q: %v", models.ErrMalformedResponse, p.MarketCap.String(), err)
		}
		if cap.IsNegative() {
			return nil, fmt.Errorf("%w: negative market_cap %s", models.ErrMalformedResponse, cap)
		}
		out.MarketCap = &cap
	}
	return out, nil
}

// stripFences removes surrounding markdown code fences some models add
// despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
