package engine

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/match"
	"github.com/orderline/orderline/internal/pricing"
	"github.com/orderline/orderline/pkg/models"
)

var (
	zipRe   = regexp.MustCompile(`\b(\d{5})\b`)
	phoneRe = regexp.MustCompile(`\b(\d{3})[\s.-]?(\d{3})[\s.-]?(\d{4})\b`)
)

// handleCheckout walks the checkout stages in order: order type, delivery
// address (delivery only), name, payment method, contact phone (card link
// only). Each stage re-asks on unusable input.
func (e *Engine) handleCheckout(ctx context.Context, snap *catalog.Snapshot, m *match.Matcher, ord *models.OrderTask, norm, raw string) string {
	switch ord.CheckoutStage {
	case models.StageOrderType:
		return e.checkoutOrderType(snap, ord, norm)
	case models.StageAddress:
		return e.checkoutAddress(snap, ord, norm, raw)
	case models.StageName:
		return e.checkoutName(ord, raw)
	case models.StagePaymentMethod:
		return e.checkoutPayment(ctx, snap, ord, norm)
	case models.StageContact:
		return e.checkoutContact(ctx, snap, ord, norm)
	default:
		return e.finishCheckout(ctx, snap, ord)
	}
}

func (e *Engine) checkoutOrderType(snap *catalog.Snapshot, ord *models.OrderTask, norm string) string {
	switch {
	case match.ContainsWholePhrase(norm, "pickup") || match.ContainsWholePhrase(norm, "pick up") ||
		match.ContainsWholePhrase(norm, "takeout") || match.ContainsWholePhrase(norm, "take out"):
		ord.OrderType = "pickup"
		ord.CheckoutStage = models.StageName
		return "Pickup it is. Can I get a name for the order?"
	case match.ContainsWholePhrase(norm, "delivery") || match.ContainsWholePhrase(norm, "deliver") ||
		match.ContainsWholePhrase(norm, "delivered"):
		ord.OrderType = "delivery"
		ord.CheckoutStage = models.StageAddress
		return "Sure, delivery. What's the address?"
	default:
		return "Will that be pickup or delivery?"
	}
}

func (e *Engine) checkoutAddress(snap *catalog.Snapshot, ord *models.OrderTask, norm, raw string) string {
	zip := zipRe.FindString(norm)
	if zip == "" {
		return "I'll need the full street address with a zip code, please."
	}
	if len(snap.Store.DeliveryZips) > 0 && !containsStr(snap.Store.DeliveryZips, zip) {
		return "Sorry, we don't deliver to " + zip + ". Would pickup work instead?"
	}
	ord.DeliveryAddress = strings.TrimSpace(raw)
	ord.CheckoutStage = models.StageName
	return "Got it. Can I get a name for the order?"
}

func (e *Engine) checkoutName(ord *models.OrderTask, raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "Sorry, what name should I put on the order?"
	}
	// Strip the common lead-ins so "it's for Dana" records "Dana".
	lower := strings.ToLower(name)
	for _, prefix := range []string{"it's for ", "its for ", "for ", "my name is ", "the name is ", "this is ", "under "} {
		if strings.HasPrefix(lower, prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}
	ord.Customer.Name = name
	ord.CheckoutStage = models.StagePaymentMethod
	return "Thanks, " + name + ". How would you like to pay — in store, cash on delivery, or card by payment link?"
}

func (e *Engine) checkoutPayment(ctx context.Context, snap *catalog.Snapshot, ord *models.OrderTask, norm string) string {
	switch {
	case match.ContainsWholePhrase(norm, "in store") || match.ContainsWholePhrase(norm, "at the store") ||
		match.ContainsWholePhrase(norm, "at the register") || match.ContainsWholePhrase(norm, "counter"):
		ord.Payment = models.PayInStore
	case match.ContainsWholePhrase(norm, "cash"):
		if ord.OrderType == "delivery" {
			ord.Payment = models.PayCashDelivery
		} else {
			ord.Payment = models.PayInStore
		}
	case match.ContainsWholePhrase(norm, "card") || match.ContainsWholePhrase(norm, "credit") ||
		match.ContainsWholePhrase(norm, "link"):
		ord.Payment = models.PayCardLink
	default:
		return "You can pay in store, cash on delivery, or by card payment link — which works for you?"
	}

	if ord.Payment == models.PayCardLink {
		if phone := phoneRe.FindString(norm); phone != "" {
			ord.Customer.Phone = phone
			return e.finishCheckout(ctx, snap, ord)
		}
		ord.CheckoutStage = models.StageContact
		return "What phone number should I text the payment link to?"
	}
	return e.finishCheckout(ctx, snap, ord)
}

func (e *Engine) checkoutContact(ctx context.Context, snap *catalog.Snapshot, ord *models.OrderTask, norm string) string {
	phone := phoneRe.FindString(norm)
	if phone == "" {
		return "Sorry, I need a 10-digit phone number for the payment link."
	}
	ord.Customer.Phone = phone
	return e.finishCheckout(ctx, snap, ord)
}

// finishCheckout confirms the order and, for card link payment, fires the
// payment link. A failed link send never fails the order; staff follow up.
func (e *Engine) finishCheckout(ctx context.Context, snap *catalog.Snapshot, ord *models.OrderTask) string {
	ord.CheckoutStage = models.StageComplete
	ord.Confirmed = true
	ord.Phase = models.PhaseDone

	totals := pricing.OrderTotals(snap, ord)

	if ord.Payment == models.PayCardLink && ord.Customer.Phone != "" {
		if err := e.notifier.SendPaymentLink(ctx, ord.Customer.Phone, totals.Total, ord.ID); err != nil {
			log.Warn().Err(err).Str("order_id", ord.ID).Msg("payment link send failed")
		}
	}

	if e.archive != nil {
		if _, err := e.archive.ArchiveOrder(ctx, ord); err != nil {
			log.Warn().Err(err).Str("order_id", ord.ID).Msg("order archive failed")
		}
	}

	closing := "You're all set"
	if ord.Customer.Name != "" {
		closing += ", " + ord.Customer.Name
	}
	switch {
	case ord.Payment == models.PayCardLink:
		closing += " — your total is " + money(totals.Total) + " and a payment link is on its way to your phone."
	case ord.OrderType == "delivery":
		closing += " — your total is " + money(totals.Total) + ", due on delivery."
	default:
		closing += " — your total is " + money(totals.Total) + ", payable at pickup."
	}
	return closing
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
