package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/shoecare/internal/config"
	orderdomain "github.com/smallbiznis/shoecare/internal/order/domain"
	"github.com/smallbiznis/shoecare/internal/receipt"
	"github.com/ttacon/libphonenumber"
	"go.uber.org/zap"
)

var ErrInvalidRecipient = errors.New("invalid_recipient")

// Sender delivers a text message to an E.164 number.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// WhatsAppNotifier sends the "ready for pickup" message.
type WhatsAppNotifier struct {
	sender   Sender
	shopName string
	log      *zap.Logger
}

func NewWhatsAppNotifier(sender Sender, shopName string, log *zap.Logger) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		sender:   sender,
		shopName: strings.TrimSpace(shopName),
		log:      log.Named("notification.whatsapp"),
	}
}

func (n *WhatsAppNotifier) OrderReady(ctx context.Context, notice orderdomain.ReadyNotice) error {
	to, err := E164(notice.WhatsApp)
	if err != nil {
		return err
	}
	sid, err := n.sender.Send(ctx, to, ReadyMessage(n.shopName, notice))
	if err != nil {
		return fmt.Errorf("send whatsapp: %w", err)
	}
	n.log.Info("ready notification sent",
		zap.String("order_id", notice.OrderID.String()),
		zap.String("message_sid", sid),
	)
	return nil
}

// ReadyMessage renders the pickup message body.
func ReadyMessage(shopName string, notice orderdomain.ReadyNotice) string {
	name := strings.TrimSpace(notice.CustomerName)
	if name == "" {
		name = "Kak"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Halo %s, pesanan #%s (%d pasang) sudah siap diambil.", name, notice.OrderID.String(), notice.ItemCount)
	fmt.Fprintf(&b, " Total: %s.", receipt.FormatRupiah(notice.Total))
	if shopName != "" {
		fmt.Fprintf(&b, " Terima kasih, %s.", shopName)
	}
	return b.String()
}

// E164 converts stored digits into "+<country><number>".
func E164(digits string) (string, error) {
	digits = strings.TrimSpace(digits)
	if digits == "" {
		return "", ErrInvalidRecipient
	}
	parsed, err := libphonenumber.Parse("+"+strings.TrimPrefix(digits, "+"), "ID")
	if err != nil {
		return "", ErrInvalidRecipient
	}
	return libphonenumber.Format(parsed, libphonenumber.E164), nil
}

// LogNotifier records notices without sending them. Used when Twilio is
// not configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notification.log")}
}

func (n *LogNotifier) OrderReady(ctx context.Context, notice orderdomain.ReadyNotice) error {
	n.log.Info("ready notification skipped, whatsapp sender not configured",
		zap.String("order_id", notice.OrderID.String()),
		zap.Int("items", notice.ItemCount),
	)
	return nil
}

// New picks the Twilio notifier when credentials are present.
func New(cfg config.Config, log *zap.Logger) orderdomain.Notifier {
	if !cfg.Twilio.Enabled() {
		return NewLogNotifier(log)
	}
	return NewWhatsAppNotifier(NewTwilioSender(cfg.Twilio), cfg.ShopName, log)
}
