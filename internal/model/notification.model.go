package model

import "github.com/tidwall/gjson"

const NotificationTypePayment = "payment"

// Notification is the part of a gateway callback the reconciler acts on.
type Notification struct {
	Type   string
	DataID string
}

func (n Notification) IsPayment() bool {
	return n.Type == NotificationTypePayment && n.DataID != ""
}

type NotificationOutcome string

const (
	OutcomeIgnored          NotificationOutcome = "ignored"
	OutcomeFetchFailed      NotificationOutcome = "fetch_failed"
	OutcomeUncorrelated     NotificationOutcome = "uncorrelated"
	OutcomeUnknownReference NotificationOutcome = "unknown_reference"
	OutcomePersistFailed    NotificationOutcome = "persist_failed"
	OutcomeSaleFailed       NotificationOutcome = "sale_failed"
	OutcomeApplied          NotificationOutcome = "applied"
)

// ParseNotification reads the webhook envelope from the JSON body first and
// falls back to the query forms "type=payment&data.id=" and the older
// "topic=payment&id=". arg may be nil.
func ParseNotification(body []byte, arg func(key string) string) Notification {
	var n Notification
	if len(body) > 0 && gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)
		n.Type = doc.Get("type").String()
		if n.Type == "" {
			n.Type = doc.Get("topic").String()
		}
		n.DataID = doc.Get("data.id").String()
	}
	if arg == nil {
		return n
	}
	if n.Type == "" {
		n.Type = arg("type")
		if n.Type == "" {
			n.Type = arg("topic")
		}
	}
	if n.DataID == "" {
		n.DataID = arg("data.id")
		if n.DataID == "" {
			n.DataID = arg("id")
		}
	}
	return n
}
