package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"github.com/cppla/snackstopper/models"
)

const notificationTitle = "SnackStopper"

// VAPIDCredentials identify this server to push services.
type VAPIDCredentials struct {
	PublicKey  string
	PrivateKey string
	// Subscriber is the contact URI, e.g. "mailto:me@example.com".
	Subscriber string
}

// PushSender delivers one encrypted payload. It returns the push service status code when a
// response was received, and an error for transport failures and non-2xx responses.
type PushSender interface {
	Send(ctx context.Context, sub *webpush.Subscription, payload []byte, creds VAPIDCredentials) (int, error)
}

// WebPushSender sends notifications with the standard web-push protocol.
type WebPushSender struct {
	// Client overrides the HTTP client; nil uses a default client.
	Client webpush.HTTPClient
	// TTL is how long, in seconds, the push service keeps an undelivered message.
	TTL int
}

// Send implements PushSender.
func (w *WebPushSender) Send(ctx context.Context, sub *webpush.Subscription, payload []byte, creds VAPIDCredentials) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		HTTPClient: w.Client,
		// webpush-go adds the mailto: scheme itself
		Subscriber:      strings.TrimPrefix(creds.Subscriber, "mailto:"),
		TTL:             w.TTL,
		Urgency:         webpush.UrgencyNormal,
		VAPIDPublicKey:  creds.PublicKey,
		VAPIDPrivateKey: creds.PrivateKey,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("push service responded %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return resp.StatusCode, nil
}

// SubscriptionPruner removes subscriptions that push services reported as gone.
type SubscriptionPruner interface {
	Delete(ctx context.Context, id uint) error
}

// DispatchResult counts the outcome of one Dispatch call.
type DispatchResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Pruned int `json:"pruned"`
}

// Dispatcher fans a message out to every subscription, one at a time.
type Dispatcher struct {
	sender PushSender
	pruner SubscriptionPruner
	log    *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sender PushSender, pruner SubscriptionPruner, log *zap.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, pruner: pruner, log: log}
}

type notificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Dispatch delivers message to each subscription. A failure for one subscription never stops
// delivery to the rest: endpoints that are gone (404/410) are deleted, other failures are
// logged and skipped. There are no retries.
func (d *Dispatcher) Dispatch(ctx context.Context, message string, subs []models.PushSubscription, creds VAPIDCredentials) DispatchResult {
	var res DispatchResult
	payload, err := json.Marshal(notificationPayload{Title: notificationTitle, Body: message})
	if err != nil {
		// Unreachable for a struct of strings.
		d.log.Error("encode notification payload", zap.Error(err))
		return res
	}

	for i := range subs {
		sub := &subs[i]
		var target webpush.Subscription
		if err := json.Unmarshal([]byte(sub.Payload), &target); err != nil {
			res.Failed++
			pushFailed.Inc()
			d.log.Error("undecodable push subscription", zap.Uint("subscription_id", sub.ID), zap.Error(err))
			continue
		}

		status, err := d.sender.Send(ctx, &target, payload, creds)
		if err == nil {
			res.Sent++
			pushSent.Inc()
			continue
		}

		d.log.Warn("push failed", zap.Uint("subscription_id", sub.ID), zap.Int("status", status), zap.Error(err))
		if isGone(status) {
			if derr := d.pruner.Delete(ctx, sub.ID); derr != nil {
				res.Failed++
				pushFailed.Inc()
				d.log.Error("prune expired subscription", zap.Uint("subscription_id", sub.ID), zap.Error(derr))
				continue
			}
			res.Pruned++
			pushPruned.Inc()
			continue
		}
		res.Failed++
		pushFailed.Inc()
	}
	return res
}

func isGone(status int) bool {
	return status == http.StatusNotFound || status == http.StatusGone
}
