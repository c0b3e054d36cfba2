package handler

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/travel-agency-booking/internal/apperror"
    "github.com/iliyamo/travel-agency-booking/internal/chat"
    "github.com/iliyamo/travel-agency-booking/internal/metrics"
    "github.com/iliyamo/travel-agency-booking/internal/repository"
    "github.com/iliyamo/travel-agency-booking/internal/response"
    "github.com/iliyamo/travel-agency-booking/internal/settings"
)

const chatTimeout = 40 * time.Second

type ChatHandler struct {
    Tours    *repository.TourRepo
    Client   *chat.Client
    Settings *settings.Resolver
}

func NewChatHandler(t *repository.TourRepo, cl *chat.Client, s *settings.Resolver) *ChatHandler {
    if t == nil || cl == nil || s == nil {
        panic("nil dependency passed to NewChatHandler")
    }
    return &ChatHandler{Tours: t, Client: cl, Settings: s}
}

type chatReq struct {
    Message             string      `json:"message" validate:"required,max=2000"`
    ConversationHistory []chat.Turn `json:"conversation_history"`
}

// Status: GET /v1/chat.
func (h *ChatHandler) Status(c echo.Context) error {
    return response.Success(c, echo.Map{"message": "Chat endpoint is available. Send a POST request with your message."})
}

// Chat: POST /v1/chat.  The reply is grounded on the published catalog.
func (h *ChatHandler) Chat(c echo.Context) error {
    var req chatReq
    if err := bind(c, &req); err != nil {
        return response.FromError(c, err)
    }
    msg := strings.TrimSpace(req.Message)
    if msg == "" {
        return response.BadRequest(c, "message is required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), chatTimeout)
    defer cancel()

    key := h.Settings.GeminiKey(ctx)
    if key == "" {
        return response.FromError(c, apperror.NotConfigured("AI chat is not configured"))
    }
    tours, err := h.Tours.ListPublishedForChat(ctx, chat.MaxTours)
    if err != nil {
        // The assistant can still answer general questions without the catalog.
        log.Warn().Err(err).Msg("chat: load tours failed")
        tours = nil
    }

    prompt := chat.BuildPrompt(tours, h.Settings.Currency(ctx), req.ConversationHistory, msg)
    reply, err := h.Client.Generate(ctx, key, prompt)
    if err != nil {
        metrics.IntegrationFailed("chat")
        if errors.Is(err, chat.ErrNotConfigured) {
            return response.FromError(c, apperror.NotConfigured("AI chat is not configured"))
        }
        log.Error().Err(err).Msg("chat: generate failed")
        return response.FromError(c, apperror.Integration("Failed to get response from AI", err))
    }
    return response.Success(c, echo.Map{"message": reply})
}
