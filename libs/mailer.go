package libs

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"gopkg.in/gomail.v2"

	"order-desk/config"
	"order-desk/logger"
	"order-desk/models"
)

// Mailer sends notification e-mails over SMTP. Sends run in the background;
// failures are logged and never reach the caller.
type Mailer struct {
	from string
	send func(*gomail.Message) error
	wg   sync.WaitGroup
}

func NewMailer(cfg *config.Config) (*Mailer, error) {
	if !cfg.SMTPEnabled() {
		return nil, fmt.Errorf("SMTP configuration missing")
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	return &Mailer{
		from: cfg.SMTPFrom,
		send: func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}, nil
}

func (m *Mailer) UserRegistered(ctx context.Context, user models.User) {
	body := fmt.Sprintf(`<h2>Welcome, %s!</h2>
<p>Your Order Desk account for <strong>%s</strong> is ready. You can sign in and place your first order.</p>`,
		html.EscapeString(user.Name), html.EscapeString(user.Email))

	m.deliver(ctx, user.Email, "Welcome to Order Desk", body)
}

func (m *Mailer) OrderStatusChanged(ctx context.Context, owner models.User, order models.Order) {
	var rows strings.Builder
	for _, it := range order.Items {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%d</td><td>%.2f</td></tr>", html.EscapeString(it.Name), it.Quantity, it.Price)
	}

	body := fmt.Sprintf(`<h2>Order update</h2>
<p>Hello %s, your order <strong>%s</strong> is now <strong>%s</strong>.</p>
<table><tr><th>Item</th><th>Qty</th><th>Price</th></tr>%s</table>
<p><strong>Total:</strong> %.2f</p>`,
		html.EscapeString(owner.Name), order.ID, order.Status, rows.String(), order.TotalPrice)

	m.deliver(ctx, owner.Email, fmt.Sprintf("Order %s is %s", order.ID, order.Status), body)
}

func (m *Mailer) deliver(ctx context.Context, to, subject, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	log := logger.WithCtx(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.send(msg); err != nil {
			log.Error("failed to send email", "subject", subject, "error", err)
			return
		}
		log.Debug("email sent", "subject", subject)
	}()
}

// Wait blocks until pending sends are done.
func (m *Mailer) Wait() {
	m.wg.Wait()
}
