package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/stock-ledger/internal/domain/stock"
)

// Sender то, что нужно от *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram шлёт предупреждения об остатках в админ-чат и дополнительным получателям.
type Telegram struct {
	api     Sender
	log     *slog.Logger
	chats   []int64
	timeout time.Duration
}

// DefaultSendTimeout предел на одну отправку.
const DefaultSendTimeout = 5 * time.Second

func NewTelegram(api Sender, log *slog.Logger, adminChat int64, recipients ...int64) *Telegram {
	// один chat_id: одно сообщение
	seen := map[int64]struct{}{}
	var chats []int64
	for _, id := range append([]int64{adminChat}, recipients...) {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		chats = append(chats, id)
	}
	return &Telegram{api: api, log: log, chats: chats, timeout: DefaultSendTimeout}
}

// WithTimeout задаёт предел на одну отправку; d <= 0 оставляет значение по умолчанию.
func (t *Telegram) WithTimeout(d time.Duration) *Telegram {
	if d > 0 {
		t.timeout = d
	}
	return t
}

// Connect создаёт клиента Bot API по токену. timeout ограничивает каждый HTTP-запрос к API.
func Connect(token string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return api, nil
}

// LowStock отправляет одно сообщение на каждый чат. Ошибка: последняя из неудачных отправок.
func (t *Telegram) LowStock(ctx context.Context, a stock.Alert) error {
	text := Text(a)
	var lastErr error
	for _, chatID := range t.chats {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.send(ctx, tgbotapi.NewMessage(chatID, text)); err != nil {
			t.log.Error("telegram send failed", "chat_id", chatID, "material", a.Material.Name, "err", err)
			lastErr = err
		}
	}
	return lastErr
}

// send ждёт ответа не дольше timeout и не дольше ctx. Запрос, брошенный по таймауту,
// завершится сам по таймауту HTTP-клиента.
func (t *Telegram) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := t.api.Send(msg)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("telegram send to %d: %w", msg.ChatID, ctx.Err())
	}
}

// Text текст предупреждения.
func Text(a stock.Alert) string {
	m := a.Material
	switch a.Status {
	case stock.OutOfStock:
		return fmt.Sprintf("⚠️ Остатки\n— %s — закончились.", m.Name)
	default:
		return fmt.Sprintf("⚠️ Остатки\n— %s — %s %s — мало (порог %s)",
			m.Name, m.Quantity.String(), m.Unit, m.Threshold().String())
	}
}
