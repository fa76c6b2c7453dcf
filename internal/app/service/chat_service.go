package service

import (
	"context"
	"fmt"
	"strings"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const (
	chatRoleUser  = "user"
	chatRoleModel = "model"
)

type ChatPart struct {
	Text string `json:"text" validate:"required"`
}

type ChatMessage struct {
	Role  string     `json:"role" validate:"required,oneof=user model"`
	Parts []ChatPart `json:"parts" validate:"required,min=1,dive"`
}

// ChatRequest is the running conversation plus the problem the user is
// working on.
type ChatRequest struct {
	Messages    []ChatMessage           `json:"messages" validate:"required,min=1,dive"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	TestCases   []model.VisibleTestCase `json:"test_cases"`
	StartCode   []model.CodeSnippet     `json:"start_code"`
}

type ChatResponse struct {
	Message string `json:"message"`
}

type ChatService interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// sendFunc sends prompt after history under the given system instruction
// and returns the reply text.
type sendFunc func(ctx context.Context, system string, history []*genai.Content, prompt []genai.Part) (string, error)

type GeminiChatService struct {
	client *genai.Client
	model  string
	send   sendFunc
}

// NewGeminiChatService returns a service that answers 503 when apiKey is
// empty.
func NewGeminiChatService(ctx context.Context, apiKey, modelName string) (*GeminiChatService, error) {
	s := &GeminiChatService{model: modelName}
	if apiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. AI chat will not function.")
		return s, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	s.client = client
	s.send = s.sendGemini
	return s, nil
}

func (s *GeminiChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != chatRoleUser {
		return nil, fmt.Errorf("last message must come from the user: %w", common.ErrBadRequest)
	}
	if s.send == nil {
		return nil, fmt.Errorf("AI chat is not configured: %w", common.ErrServiceUnavailable)
	}

	reply, err := s.send(ctx, systemInstruction(req), chatHistory(req.Messages[:len(req.Messages)-1]), toParts(last.Parts))
	if err != nil {
		log.Error().Err(err).Msg("Error generating chat reply from Gemini")
		return nil, fmt.Errorf("AI provider failed: %w", common.ErrServiceUnavailable)
	}
	return &ChatResponse{Message: reply}, nil
}

func (s *GeminiChatService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *GeminiChatService) sendGemini(ctx context.Context, system string, history []*genai.Content, prompt []genai.Part) (string, error) {
	gm := s.client.GenerativeModel(s.model)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	cs := gm.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, prompt...)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String(), nil
}

// chatHistory converts earlier turns. Gemini requires history to open with
// a user turn, so leading model turns are dropped.
func chatHistory(msgs []ChatMessage) []*genai.Content {
	start := 0
	for start < len(msgs) && msgs[start].Role != chatRoleUser {
		start++
	}
	history := make([]*genai.Content, 0, len(msgs)-start)
	for _, m := range msgs[start:] {
		history = append(history, &genai.Content{Role: m.Role, Parts: toParts(m.Parts)})
	}
	return history
}

func toParts(parts []ChatPart) []genai.Part {
	out := make([]genai.Part, len(parts))
	for i, p := range parts {
		out[i] = genai.Text(p.Text)
	}
	return out
}

func systemInstruction(req ChatRequest) string {
	var b strings.Builder
	b.WriteString("You are a data structures and algorithms tutor helping a student with one coding problem.\n")
	b.WriteString("Give hints, explain approaches and complexity, review their code and point out bugs.\n")
	b.WriteString("Only reveal a full solution when the student explicitly asks for it.\n")
	b.WriteString("If asked about anything unrelated to this problem or to DSA, politely decline.\n\n")

	fmt.Fprintf(&b, "Problem: %s\n", req.Title)
	if req.Description != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", req.Description)
	}
	for i, tc := range req.TestCases {
		fmt.Fprintf(&b, "Example %d:\ninput: %s\noutput: %s\n", i+1, tc.Input, tc.Output)
		if tc.Explanation != "" {
			fmt.Fprintf(&b, "explanation: %s\n", tc.Explanation)
		}
	}
	for _, sc := range req.StartCode {
		fmt.Fprintf(&b, "Starter code (%s):\n%s\n", sc.Language, sc.Code)
	}
	return b.String()
}
