package email

import (
	"context"
	"fmt"

	"github.com/JoseAlvarezDev/BusCar/internal/entity"
)

// Notifier turns matched listings into one alert email per recipient.
type Notifier struct {
	sender      Sender
	renderLimit int
}

func NewNotifier(sender Sender, renderLimit int) *Notifier {
	return &Notifier{sender: sender, renderLimit: renderLimit}
}

func (n *Notifier) NotifyMatches(ctx context.Context, alert *entity.Alert, matches []*entity.Listing) error {
	if len(matches) == 0 {
		return nil
	}

	html, text, err := RenderMatches(alert, matches, n.renderLimit)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("BusCar: %d coches nuevos para tu alerta", len(matches))
	return n.sender.Send(ctx, []string{alert.Email}, subject, html, text)
}
