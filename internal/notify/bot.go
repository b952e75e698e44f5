// Package notify talks to Telegram: the /start command of the bot and the
// push of newly stored jobs to the manager chat.
package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

const greeting = "Hi! This bot collects job posts from Facebook groups and feeds.\n" +
	"Open the mini app, add the groups to watch and wait for notifications ✨"

// Sender delivers one Bot API request. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// botAPI is the subset of *tgbotapi.BotAPI the command loop uses.
type botAPI interface {
	Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// NewAPI logs in with token. endpoint overrides the Bot API URL (tests);
// empty uses the public one.
func NewAPI(token, endpoint string) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return api, nil
}

// Bot answers chat commands.
type Bot struct {
	api       botAPI
	webAppURL string
	logger    logger.Logger
}

func NewBot(api botAPI, webAppURL string, log logger.Logger) *Bot {
	return &Bot{api: api, webAppURL: webAppURL, logger: log}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("🤖 telegram bot started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("✅ telegram bot stopped cleanly")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handle(upd)
		}
	}
}

func (b *Bot) handle(upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	var reply tgbotapi.MessageConfig
	switch msg.Command() {
	case "start":
		reply = tgbotapi.NewMessage(msg.Chat.ID, greeting)
		if b.webAppURL != "" {
			reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonURL("📋 Open jobs", b.webAppURL),
				),
			)
		}
	case "id":
		// Lets an operator find the value for JOBSCOUT_MANAGER_CHAT_ID.
		reply = tgbotapi.NewMessage(msg.Chat.ID, "chat id: "+strconv.FormatInt(msg.Chat.ID, 10))
	default:
		return
	}

	if _, err := b.api.Send(reply); err != nil {
		b.logger.Warn("failed to answer command",
			logger.String("command", msg.Command()),
			logger.Error(err))
	}
}
