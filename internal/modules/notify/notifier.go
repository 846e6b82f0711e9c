// Package notify observes match lifecycle events and emails the affected
// party. Delivery is strictly best-effort: a failed or unaddressable email
// never disturbs matching.
package notify

import (
	"context"
	"fmt"

	"parcel-relay/internal/models"
	"parcel-relay/pkg/email"

	"go.uber.org/zap"
)

// EmailNotifier implements the matching engine's Notifier contract.
type EmailNotifier struct {
	sender    email.ServiceInterface
	templates *email.TemplateManager
	contacts  ContactDirectory
	log       *zap.Logger
}

// NewEmailNotifier creates a notifier sending through the given email service.
func NewEmailNotifier(sender email.ServiceInterface, templates *email.TemplateManager, contacts ContactDirectory, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender:    sender,
		templates: templates,
		contacts:  contacts,
		log:       log,
	}
}

// MatchCreated tells the courier a candidate parcel appeared on their trip.
func (n *EmailNotifier) MatchCreated(ctx context.Context, parcel *models.Parcel, trip *models.Trip, score float64) {
	data := email.MatchTemplateData{Route: routeLabel(parcel), Score: score}
	html, err := n.templates.MatchFoundHTML(data)
	if err != nil {
		n.log.Error("render match found email", zap.Error(err))
		return
	}
	text := fmt.Sprintf("A parcel along %s matches your trip with a score of %.2f/100.", data.Route, score)
	n.send(ctx, trip.CourierID, "A parcel matches your trip", text, html)
}

// MatchAccepted tells the sender a courier committed to their parcel.
func (n *EmailNotifier) MatchAccepted(ctx context.Context, parcel *models.Parcel, trip *models.Trip) {
	data := email.MatchTemplateData{Route: routeLabel(parcel)}
	html, err := n.templates.MatchAcceptedHTML(data)
	if err != nil {
		n.log.Error("render match accepted email", zap.Error(err))
		return
	}
	text := fmt.Sprintf("Your parcel on %s has been accepted by a courier.", data.Route)
	n.send(ctx, parcel.SenderID, "A courier accepted your delivery", text, html)
}

// MatchExpired prompts the sender that their delivery needs re-matching.
func (n *EmailNotifier) MatchExpired(ctx context.Context, parcel *models.Parcel, trip *models.Trip) {
	data := email.MatchTemplateData{Route: routeLabel(parcel)}
	html, err := n.templates.MatchExpiredHTML(data)
	if err != nil {
		n.log.Error("render match expired email", zap.Error(err))
		return
	}
	text := fmt.Sprintf("The match for your parcel on %s was released; we are looking for new couriers.", data.Route)
	n.send(ctx, parcel.SenderID, "Your delivery needs re-matching", text, html)
}

func (n *EmailNotifier) send(ctx context.Context, userID, subject, text, html string) {
	to, err := n.contacts.EmailFor(ctx, userID)
	if err != nil {
		n.log.Warn("no contact address for user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return
	}
	if err := n.sender.SendEmail(ctx, to, subject, text, html); err != nil {
		n.log.Error("send notification email",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func routeLabel(parcel *models.Parcel) string {
	return parcel.PickupAddress + " -> " + parcel.DeliveryAddress
}
