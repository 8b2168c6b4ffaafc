// Package webhook receives LINE webhook deliveries, verifies them through
// the SDK, and feeds message events into the command dispatcher.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chiahsuan/eatwhat-linebot-go/internal/bot"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/config"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/ctxutil"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/logger"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/metrics"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/sentry"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"golang.org/x/sync/errgroup"
)

// Handler handles LINE webhook events
type Handler struct {
	channelSecret string
	client        *messaging_api.MessagingApiAPI
	metrics       *metrics.Metrics
	logger        *logger.Logger
	dispatcher    *bot.Dispatcher
	wg            sync.WaitGroup // tracks async batch processing

	webhookTimeout      time.Duration
	maxEventsPerWebhook int
	minReplyTokenLength int
	maxEventsInFlight   int
}

// HandlerConfig holds configuration for creating a new Handler
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	BotConfig     *config.BotConfig
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	Dispatcher    *bot.Dispatcher
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	client, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}

	return &Handler{
		channelSecret:       cfg.ChannelSecret,
		client:              client,
		metrics:             cfg.Metrics,
		logger:              cfg.Logger.WithModule("webhook"),
		dispatcher:          cfg.Dispatcher,
		webhookTimeout:      cfg.BotConfig.WebhookTimeout,
		maxEventsPerWebhook: cfg.BotConfig.MaxEventsPerWebhook,
		minReplyTokenLength: cfg.BotConfig.MinReplyTokenLength,
		maxEventsInFlight:   cfg.BotConfig.MaxEventsInFlight,
	}, nil
}

// Handle is the Gin handler for the webhook endpoint.
// ParseRequest verifies the x-line-signature HMAC against the channel
// secret before any event is looked at. LINE expects a 200 promptly, so
// events are processed after the response is written.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusOK)

	if len(cb.Events) > h.maxEventsPerWebhook {
		h.logger.WithField("event_count", len(cb.Events)).
			WithField("limit", h.maxEventsPerWebhook).
			Warn("Too many events in webhook batch; truncating")
		cb.Events = cb.Events[:h.maxEventsPerWebhook]
	}

	// Copy events so the batch survives the request lifecycle. The
	// processing context is detached from the request but keeps its
	// tracing values.
	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)
	processingCtx := ctxutil.PreserveTracing(c.Request.Context())

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
				sentry.CaptureException(fmt.Errorf("webhook batch panic: %v", r))
			}
		}()

		// Events in a batch are independent; no ordering guarantee between
		// them. Lines within one message still run serially in Dispatch.
		var g errgroup.Group
		g.SetLimit(h.maxEventsInFlight)
		for _, event := range events {
			g.Go(func() error {
				h.processEvent(processingCtx, event)
				return nil
			})
		}
		_ = g.Wait()
	})
}

// processEvent handles a single webhook event asynchronously
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, h.webhookTimeout)
	defer cancel()

	eventID := extractEventID(event)
	if eventID != "" {
		ctx = ctxutil.WithRequestID(ctx, eventID)
	}

	log := h.logger
	if eventID != "" {
		log = log.WithRequestID(eventID)
	}

	var eventType, reply, replyToken string
	var err error

	switch e := event.(type) {
	case webhook.MessageEvent:
		eventType = "message"
		reply, err = h.processMessage(ctx, e)
		replyToken = e.ReplyToken
	case webhook.FollowEvent:
		eventType = "follow"
		reply = bot.Greeting()
		replyToken = e.ReplyToken
	case webhook.JoinEvent:
		eventType = "join"
		reply = bot.Greeting()
		replyToken = e.ReplyToken
	case webhook.UnfollowEvent:
		// User blocked the bot. Their records go with them; no reply token
		// exists for this event class.
		eventType = "unfollow"
		err = h.dispatcher.PurgeConversation(ctx, bot.GetChatID(e.Source))
	case webhook.LeaveEvent:
		eventType = "leave"
		err = h.dispatcher.PurgeConversation(ctx, bot.GetChatID(e.Source))
	default:
		log.WithField("event_type", fmt.Sprintf("%T", e)).Debug("Unsupported event type")
		return
	}

	status := "success"
	if err != nil {
		status = "error"
		log.WithError(err).WithField("event_type", eventType).Error("Failed to handle event")
		sentry.CaptureExceptionWithContext(ctx, err)
	}
	h.metrics.RecordWebhook(eventType, status, time.Since(start).Seconds())

	if reply != "" && err == nil {
		h.sendReply(log, eventType, replyToken, reply, start)
	}

	log.WithField("event_type", eventType).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Event processed")
}

// processMessage runs the command dispatcher over a text message.
// Non-text messages produce no reply.
func (h *Handler) processMessage(ctx context.Context, e webhook.MessageEvent) (string, error) {
	textMsg, ok := e.Message.(webhook.TextMessageContent)
	if !ok {
		return "", nil
	}

	chatID := bot.GetChatID(e.Source)
	if chatID == "" {
		return "", nil
	}

	ctx = ctxutil.WithChatID(ctx, chatID)
	if userID := bot.GetUserID(e.Source); userID != "" {
		ctx = ctxutil.WithUserID(ctx, userID)
	}

	return h.dispatcher.Dispatch(ctx, chatID, bot.IsPersonalChat(e.Source), textMsg.Text), nil
}

func (h *Handler) sendReply(log *logger.Logger, eventType, replyToken, reply string, start time.Time) {
	if replyToken == "" || len(replyToken) < h.minReplyTokenLength {
		log.WithField("token_length", len(replyToken)).Debug("Invalid reply token, skipping reply")
		h.metrics.RecordReply("skipped")
		return
	}

	if _, err := h.client.ReplyMessage(
		&messaging_api.ReplyMessageRequest{
			ReplyToken: replyToken,
			Messages: []messaging_api.MessageInterface{
				messaging_api.TextMessage{Text: reply},
			},
		},
	); err != nil {
		if strings.Contains(err.Error(), "Invalid reply token") {
			log.WithError(err).Debug("Reply token already used or invalid")
		} else {
			log.WithError(err).Error("Failed to send reply")
		}
		h.metrics.RecordReply("error")
		h.metrics.RecordWebhook(eventType, "reply_error", time.Since(start).Seconds())
		return
	}
	h.metrics.RecordReply("success")
}

func extractEventID(event webhook.EventInterface) string {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.WebhookEventId
	case webhook.FollowEvent:
		return e.WebhookEventId
	case webhook.JoinEvent:
		return e.WebhookEventId
	case webhook.UnfollowEvent:
		return e.WebhookEventId
	case webhook.LeaveEvent:
		return e.WebhookEventId
	default:
		return ""
	}
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
