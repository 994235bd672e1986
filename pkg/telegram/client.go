package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends operational notifications to the configured chat.
type Notifier interface {
	SendMessage(text string) error
	NotifyPublishResult(article, platform string, success bool, message string) error
	NotifySyncSummary(job string, processed int, failed int) error
}

type client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient creates a new Telegram notifier client. An empty token returns a
// notifier that drops every message.
func NewClient(botToken string, chatID int64) (Notifier, error) {
	if botToken == "" {
		return noopNotifier{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{bot: bot, chatID: chatID}, nil
}

// SendMessage sends a message to the configured Telegram chat.
func (c *client) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.bot.Send(msg)
	return err
}

func (c *client) NotifyPublishResult(article, platform string, success bool, message string) error {
	status := "✅ 发布成功"
	if !success {
		status = "❌ 发布失败"
	}
	return c.SendMessage(fmt.Sprintf("*%s*\n文章: %s\n平台: %s\n%s", status, article, platform, message))
}

func (c *client) NotifySyncSummary(job string, processed int, failed int) error {
	return c.SendMessage(fmt.Sprintf("*同步完成* %s\nprocessed: %d, failed: %d", job, processed, failed))
}

type noopNotifier struct{}

func (noopNotifier) SendMessage(string) error                                { return nil }
func (noopNotifier) NotifyPublishResult(string, string, bool, string) error  { return nil }
func (noopNotifier) NotifySyncSummary(string, int, int) error                { return nil }
