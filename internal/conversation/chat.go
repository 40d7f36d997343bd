package conversation

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/leadbridge/internal/apperrors"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

var chatTracer = otel.Tracer("leadbridge.internal.conversation.chat")

// MaxMessageLength is the longest chat message accepted, in characters.
const MaxMessageLength = 800

const chatSystemPrompt = `You are the assistant on the Leadbridge website. Leadbridge helps small and mid-sized businesses adopt AI: strategy assessments, integrating AI with existing tools, custom AI development, workflow automation, team training and ongoing support.
Answer questions about these services in two to four short sentences. Be warm and concrete. Do not invent prices, client names or guarantees. When someone seems ready to talk, suggest the guided walkthrough or booking an intro call on the site.`

// ChatService answers single-turn questions from site visitors. Nothing is
// remembered between calls.
type ChatService struct {
	llm    LLMClient
	logger *logging.Logger
}

// NewChatService creates a chat service. A nil llm makes every Reply fail
// with a configuration error.
func NewChatService(llm LLMClient, logger *logging.Logger) *ChatService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatService{llm: llm, logger: logger}
}

// Reply validates message and returns the model's answer.
func (s *ChatService) Reply(ctx context.Context, message string) (string, error) {
	const op = "conversation.Reply"
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.Validation(op, "Message is required.")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", apperrors.Validation(op, "Message must be 800 characters or fewer.")
	}
	if s.llm == nil {
		return "", apperrors.Configuration(op, "Chat is not configured.")
	}

	ctx, span := chatTracer.Start(ctx, "conversation.reply")
	defer span.End()
	span.SetAttributes(attribute.Int("leadbridge.chat.message_length", utf8.RuneCountInString(message)))

	resp, err := s.llm.Complete(ctx, SingleTurn(chatSystemPrompt, message, 400, 0.6))
	if err != nil {
		span.RecordError(err)
		return "", apperrors.Upstream(op, "The assistant is unavailable right now. Please try again shortly.", err)
	}
	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		return "", apperrors.Upstream(op, "The assistant is unavailable right now. Please try again shortly.", nil)
	}

	span.SetAttributes(
		attribute.Int("leadbridge.chat.output_tokens", int(resp.Usage.OutputTokens)),
	)
	return reply, nil
}
