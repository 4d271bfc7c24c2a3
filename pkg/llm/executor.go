// Package llm wraps the OpenAI chat and embedding APIs for classifier stages.
// Every chat call is bound to a strict JSON response schema and re-validated
// before the result is accepted.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Review comment tags attached to failed stages.
const (
	TagRateLimit   = "rate_limit_error"
	TagJSONParsing = "json_parsing_error"
	TagProcessing  = "processing_error"
)

const (
	maxRateLimitAttempts = 6 // 5 retries, fail on the 6th
	maxParseAttempts     = 3
	parseRetryPause      = time.Second
)

// StageError is a classifier failure captured inside the stage result. It is
// serialized into the aggregated output instead of aborting the pipeline.
type StageError struct {
	Message       string `json:"error"`
	ReviewComment string `json:"review_comment"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.ReviewComment, e.Message)
}

// ChatCompleter is the slice of the OpenAI client the executor needs. The
// concrete *openai.Client satisfies it; tests inject fakes.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Embedder is the embedding slice of the OpenAI client.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Request is a single schema-bound classifier invocation.
type Request struct {
	Stage        string
	SystemPrompt string
	UserPrompt   string
	TextSummary  string
	ImageURL     string // when set, the user message becomes multimodal
	Schema       json.RawMessage
	SchemaName   string
	// Validate re-checks the parsed response against the closed
	// enumerations. Nil skips semantic validation.
	Validate func([]byte) error
}

// Executor issues schema-constrained chat completions with per-call retry
// budgets for rate limits and malformed JSON.
type Executor struct {
	chat           ChatCompleter
	embedder       Embedder
	model          string
	embeddingModel openai.EmbeddingModel

	sleep func(time.Duration)
	log   *slog.Logger
}

// NewExecutor builds an executor on a shared OpenAI client.
func NewExecutor(client *openai.Client, model string) *Executor {
	return &Executor{
		chat:           client,
		embedder:       client,
		model:          model,
		embeddingModel: openai.LargeEmbedding3,
		sleep:          time.Sleep,
		log:            slog.With("component", "llm"),
	}
}

// NewExecutorWithClients allows chat/embedding injection for testing.
func NewExecutorWithClients(chat ChatCompleter, embedder Embedder, model string) *Executor {
	return &Executor{
		chat:           chat,
		embedder:       embedder,
		model:          model,
		embeddingModel: openai.LargeEmbedding3,
		sleep:          func(time.Duration) {},
		log:            slog.With("component", "llm"),
	}
}

// Run performs one classifier call and returns the validated raw JSON object.
// Failures come back as a StageError tagged for the review comment; Run never
// returns both a result and an error.
func (e *Executor) Run(ctx context.Context, req Request) (json.RawMessage, *StageError) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
		e.userMessage(req),
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    e.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: true,
			},
		},
	}

	rateLimitAttempts := 0
	parseAttempts := 0

	for {
		resp, err := e.chat.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			if isRateLimit(err) {
				rateLimitAttempts++
				if rateLimitAttempts >= maxRateLimitAttempts {
					e.log.Error("Rate limit budget exhausted", "stage", req.Stage, "attempts", rateLimitAttempts)
					return nil, &StageError{Message: err.Error(), ReviewComment: TagRateLimit}
				}
				wait := retryInterval(err, rateLimitAttempts)
				e.log.Warn("Rate limited, backing off", "stage", req.Stage, "attempt", rateLimitAttempts, "wait", wait)
				e.sleep(wait)
				continue
			}
			e.log.Error("Classifier call failed", "stage", req.Stage, "error", err)
			return nil, &StageError{Message: err.Error(), ReviewComment: TagProcessing}
		}

		if len(resp.Choices) == 0 {
			return nil, &StageError{Message: "no choices in response", ReviewComment: TagProcessing}
		}

		content := []byte(resp.Choices[0].Message.Content)
		if err := parseAndValidate(content, req.Validate); err != nil {
			parseAttempts++
			e.log.Warn("Classifier response failed validation", "stage", req.Stage, "attempt", parseAttempts, "error", err)
			if parseAttempts >= maxParseAttempts {
				return nil, &StageError{Message: err.Error(), ReviewComment: TagJSONParsing}
			}
			e.sleep(parseRetryPause)
			continue
		}

		return json.RawMessage(content), nil
	}
}

// Embed requests a dense vector for the given text.
func (e *Executor) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.embedder.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

func (e *Executor) userMessage(req Request) openai.ChatCompletionMessage {
	text := req.UserPrompt + "\n\n" + req.TextSummary
	if req.ImageURL == "" {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	}
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: text},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: req.ImageURL}},
		},
	}
}

func parseAndValidate(content []byte, validate func([]byte) error) error {
	var obj map[string]any
	if err := json.Unmarshal(content, &obj); err != nil {
		return fmt.Errorf("response is not a JSON object: %w", err)
	}
	if validate != nil {
		return validate(content)
	}
	return nil
}

func isRateLimit(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429
	}
	return false
}

var retryAfterPattern = regexp.MustCompile(`try again in (\d+(?:\.\d+)?)s`)

// retryInterval prefers the server-suggested wait embedded in the error
// message, falling back to exponential backoff with jitter.
func retryInterval(err error, attempt int) time.Duration {
	if m := retryAfterPattern.FindStringSubmatch(err.Error()); m != nil {
		if secs, perr := strconv.ParseFloat(m[1], 64); perr == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	backoff := 2*math.Pow(2, float64(attempt)) + rand.Float64()
	return time.Duration(backoff * float64(time.Second))
}
