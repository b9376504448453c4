// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/order"
)

// Service sends transactional email over SMTP. Callers treat sends as
// best-effort; a failed confirmation never fails the order.
type Service struct {
	config *config.Config
	logger *logrus.Logger
}

// NewService creates the email service
func NewService(cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{config: cfg, logger: logger}
}

// SendOrderConfirmation sends the post-purchase confirmation email
func (s *Service) SendOrderConfirmation(ctx context.Context, to string, o *order.Order) error {
	subject := fmt.Sprintf("Order Confirmation - %s", o.ID)
	return s.send(to, subject, s.renderOrderConfirmation(o))
}

func (s *Service) renderOrderConfirmation(o *order.Order) string {
	var body bytes.Buffer
	body.WriteString("<html><body>")
	fmt.Fprintf(&body, "<h1>Thanks for your order!</h1>")
	fmt.Fprintf(&body, "<p>Order <strong>%s</strong> placed %s.</p>", o.ID, o.CreatedAt.Format("January 2, 2006"))

	body.WriteString("<table><tr><th>Item</th><th>Qty</th><th>Price</th></tr>")
	for _, line := range o.Lines {
		fmt.Fprintf(&body, "<tr><td>%s %s %s</td><td>%d</td><td>%s</td></tr>",
			line.Name, line.Size, line.Color, line.Quantity, formatCents(line.UnitPrice*int64(line.Quantity)))
	}
	body.WriteString("</table>")

	fmt.Fprintf(&body, "<p>Subtotal: %s</p>", formatCents(o.Subtotal))
	fmt.Fprintf(&body, "<p>Shipping: %s</p>", formatCents(o.ShippingCost))
	if o.Discount > 0 {
		fmt.Fprintf(&body, "<p>Discount: -%s</p>", formatCents(o.Discount))
	}
	fmt.Fprintf(&body, "<p><strong>Total: %s</strong></p>", formatCents(o.Total))
	fmt.Fprintf(&body, "<p>Shipping to: %s, %s, %s, %s %s</p>",
		o.ShippingName, o.ShippingStreet, o.ShippingCity, o.ShippingState, o.ShippingZip)
	body.WriteString("</body></html>")
	return body.String()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// send delivers one message over SMTP
func (s *Service) send(to, subject, htmlContent string) error {
	emailCfg := s.config.External.Email
	if emailCfg.SMTPHost == "" {
		return fmt.Errorf("SMTP configuration incomplete: missing host")
	}

	var auth smtp.Auth
	if emailCfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", emailCfg.SMTPUser, emailCfg.SMTPPass, emailCfg.SMTPHost)
	}

	from := emailCfg.FromEmail
	if emailCfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", emailCfg.FromName, emailCfg.FromEmail)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlContent)

	addr := fmt.Sprintf("%s:%d", emailCfg.SMTPHost, emailCfg.SMTPPort)
	if err := smtp.SendMail(addr, auth, emailCfg.FromEmail, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("Email sent")
	return nil
}
