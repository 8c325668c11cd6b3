// Package bot wires the conversation pipeline: inbound Telegram messages
// are answered by the Qwen application with the full per-chat history as
// context, and replies are chunked back to the chat.
package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Maksimnp/TelegramBotQwen/internal/chunk"
	"github.com/Maksimnp/TelegramBotQwen/internal/format"
	"github.com/Maksimnp/TelegramBotQwen/internal/history"
	"github.com/Maksimnp/TelegramBotQwen/internal/qwen"
	"github.com/Maksimnp/TelegramBotQwen/internal/store"
	"github.com/Maksimnp/TelegramBotQwen/internal/telegram"
)

// User-visible replies, kept verbatim from the original bot.
const (
	greetingText   = "Привет! Я бот, который взаимодействует с Qwen 2.5 Max API. Отправь мне запрос."
	typingText     = "Печатает..."
	noResponseText = "Не удалось получить ответ от API. Попробуйте позже."
	genericErrText = "Произошла ошибка при отправке запроса."
	clearedText    = "История успешно удалена."
	clearFailText  = "Произошла ошибка при удалении истории."
)

// Transport is the chat platform collaborator.
type Transport interface {
	GetUpdates(offset int64, timeout int) ([]telegram.Update, error)
	SendMessage(chatID int64, text string) (int64, error)
	DeleteMessage(chatID, messageID int64) error
}

// Model is the LLM collaborator.
type Model interface {
	Complete(ctx context.Context, prompt string, messages []history.Turn) (string, error)
}

// Bot runs the update loop and the per-message conversation pipeline.
type Bot struct {
	logger    *zap.Logger
	store     store.Store
	model     Model
	transport Transport

	pollTimeout int
	sleep       time.Duration
	chunkLimit  int

	wg sync.WaitGroup
}

// New creates a Bot with the transport's message size ceiling as the chunk
// limit.
func New(logger *zap.Logger, st store.Store, model Model, transport Transport, pollTimeout, sleepSeconds int) *Bot {
	return &Bot{
		logger:      logger,
		store:       st,
		model:       model,
		transport:   transport,
		pollTimeout: pollTimeout,
		sleep:       time.Duration(sleepSeconds) * time.Second,
		chunkLimit:  telegram.MaxMessageLen,
	}
}

// Run long-polls for updates until ctx is cancelled. Every inbound message
// is handled as an independent unit of work, so one chat's slow exchange
// never blocks another chat. Messages from the same chat are assumed to be
// serialized by the user waiting for a reply; a same-chat race ends in
// last-writer-wins history, which is accepted.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.wg.Wait()
			return ctx.Err()
		default:
		}

		updates, err := b.transport.GetUpdates(offset, b.pollTimeout)
		if err != nil {
			b.logger.Error("getUpdates failed", zap.Error(err))
			select {
			case <-ctx.Done():
				b.wg.Wait()
				return ctx.Err()
			case <-time.After(b.sleep):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1

			if update.Message == nil || update.Message.Text == nil {
				continue
			}
			text := *update.Message.Text
			if text == "" {
				continue
			}
			chatID := update.Message.Chat.ID

			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.dispatch(ctx, chatID, text)
			}()
		}
	}
}

// dispatch routes one inbound message to the command or conversation path.
// Commands without a handler are dropped; they are never treated as
// conversation input.
func (b *Bot) dispatch(ctx context.Context, chatID int64, text string) {
	switch cmd := command(text); cmd {
	case "/start":
		b.handleStart(chatID)
	case "/clearhistory":
		b.handleClearHistory(ctx, chatID)
	case "":
		b.handleMessage(ctx, chatID, text)
	default:
		b.logger.Debug("ignoring unknown command",
			zap.Int64("chat_id", chatID), zap.String("command", cmd))
	}
}

func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	// Commands may carry the bot mention suffix, e.g. "/start@MyBot".
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd
}

// handleStart answers the /start command with the static greeting.
func (b *Bot) handleStart(chatID int64) {
	if _, err := b.transport.SendMessage(chatID, greetingText); err != nil {
		b.logger.Error("failed to send greeting", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// handleClearHistory deletes the stored context for the chat. It does not
// touch in-flight exchanges of other chats.
func (b *Bot) handleClearHistory(ctx context.Context, chatID int64) {
	if err := b.store.Delete(ctx, chatID); err != nil {
		b.logger.Error("failed to delete context", zap.Int64("chat_id", chatID), zap.Error(err))
		b.report(chatID, clearFailText)
		return
	}
	b.logger.Info("context deleted", zap.Int64("chat_id", chatID))
	b.report(chatID, clearedText)
}

// handleMessage runs one full exchange: load context, append the user turn,
// call the model, format, chunk, dispatch, persist. Any unexpected failure
// is contained here; the process keeps serving other messages.
func (b *Bot) handleMessage(ctx context.Context, chatID int64, text string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("message handler panicked",
				zap.Int64("chat_id", chatID), zap.Any("panic", r))
			b.report(chatID, genericErrText)
		}
	}()

	h, err := b.store.Load(ctx, chatID)
	if err != nil {
		// Degrade to a fresh context rather than blocking the user on a
		// storage outage.
		b.logger.Warn("context load failed, starting empty",
			zap.Int64("chat_id", chatID), zap.Error(err))
		h = history.History{}
	}

	cleaned := format.StripEscapes(text)
	h = history.Append(h, history.RoleUser, cleaned)
	messages := history.RequestMessages(h)

	// Ephemeral typing hint; the real reply does not depend on it.
	typingID, typingErr := b.transport.SendMessage(chatID, typingText)
	if typingErr != nil {
		b.logger.Debug("typing placeholder not delivered",
			zap.Int64("chat_id", chatID), zap.Error(typingErr))
	}

	reply, err := b.model.Complete(ctx, cleaned, messages)
	if err != nil {
		if errors.Is(err, qwen.ErrNoOutput) {
			b.logger.Warn("model returned no output", zap.Int64("chat_id", chatID))
			b.report(chatID, noResponseText)
			b.deletePlaceholder(chatID, typingID, typingErr)
			return
		}
		b.logger.Error("model call failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.report(chatID, genericErrText)
		return
	}

	formatted := format.StripEscapes(format.NormalizeLists(reply))

	if err := b.sendChunks(chatID, formatted); err != nil {
		// Best-effort degrade path: retry with the unformatted reply.
		b.logger.Error("failed to deliver formatted reply, falling back to raw",
			zap.Int64("chat_id", chatID), zap.Error(err))
		if err := b.sendChunks(chatID, reply); err != nil {
			b.logger.Error("fallback delivery failed", zap.Int64("chat_id", chatID), zap.Error(err))
			b.report(chatID, genericErrText)
			return
		}
	}

	h = history.Append(h, history.RoleAssistant, formatted)
	if err := b.store.Save(ctx, chatID, h); err != nil {
		// The reply is already delivered; the lost turn is only logged.
		b.logger.Error("failed to save context", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	b.deletePlaceholder(chatID, typingID, typingErr)
}

// sendChunks splits text at the transport ceiling and dispatches the pieces
// in order, waiting for each delivery before the next.
func (b *Bot) sendChunks(chatID int64, text string) error {
	for _, piece := range chunk.Split(text, b.chunkLimit) {
		if _, err := b.transport.SendMessage(chatID, piece); err != nil {
			return err
		}
	}
	return nil
}

// report sends a user-visible status message, best effort.
func (b *Bot) report(chatID int64, text string) {
	if _, err := b.transport.SendMessage(chatID, text); err != nil {
		b.logger.Error("failed to send status message",
			zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// deletePlaceholder removes the typing hint if it was delivered. Failures
// are ignored; the hint has no correctness role.
func (b *Bot) deletePlaceholder(chatID, messageID int64, sendErr error) {
	if sendErr != nil {
		return
	}
	if err := b.transport.DeleteMessage(chatID, messageID); err != nil {
		b.logger.Debug("failed to delete typing placeholder",
			zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
