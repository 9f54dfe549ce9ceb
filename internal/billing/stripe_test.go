package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_test_secret"

func sign(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(typ, object string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","object":"event","api_version":%q,"type":%q,"data":{"object":%s}}`,
		stripe.APIVersion, typ, object,
	))
}

func newTestProvider() *StripeProvider {
	return NewStripeProvider("sk_test_unused", testWebhookSecret, zerolog.Nop())
}

func TestParseEventSubscriptionUpdated(t *testing.T) {
	end := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	payload := eventPayload("customer.subscription.updated", fmt.Sprintf(
		`{"id":"sub_1","object":"subscription","customer":"cus_9","status":"active",
		  "current_period_end":%d,"metadata":{"planId":"premium"}}`, end.Unix()))

	ev, err := newTestProvider().ParseEvent(context.Background(), payload, sign(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventSubscriptionUpdated || ev.CustomerID != "cus_9" {
		t.Fatalf("event %+v", ev)
	}
	s := ev.Subscription
	if s == nil || s.ID != "sub_1" || s.Status != "active" || s.PlanID != "premium" || !s.CurrentPeriodEnd.Equal(end) {
		t.Fatalf("subscription %+v", s)
	}
}

func TestParseEventPlanFromPriceLookupKey(t *testing.T) {
	payload := eventPayload("customer.subscription.deleted",
		`{"id":"sub_2","object":"subscription","customer":"cus_3","status":"canceled",
		  "items":{"object":"list","data":[{"id":"si_1","object":"subscription_item",
		  "price":{"id":"price_1","object":"price","lookup_key":"basic"}}]}}`)

	ev, err := newTestProvider().ParseEvent(context.Background(), payload, sign(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventSubscriptionDeleted || ev.Subscription.PlanID != "basic" || ev.Subscription.Status != "canceled" {
		t.Fatalf("event %+v sub %+v", ev, ev.Subscription)
	}
}

func TestParseEventIgnoresOtherTypes(t *testing.T) {
	payload := eventPayload("charge.refunded", `{"id":"ch_1","object":"charge"}`)
	ev, err := newTestProvider().ParseEvent(context.Background(), payload, sign(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventIgnored {
		t.Fatalf("type %q, want ignored", ev.Type)
	}
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	payload := eventPayload("customer.subscription.updated", `{"id":"sub_1","object":"subscription"}`)

	tests := map[string]string{
		"wrong secret": sign(payload, "whsec_other", time.Now()),
		"stale":        sign(payload, testWebhookSecret, time.Now().Add(-time.Hour)),
		"missing":      "",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newTestProvider().ParseEvent(context.Background(), payload, header)
			if !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("err = %v, want ErrInvalidSignature", err)
			}
		})
	}
}
