package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedNotification is returned when the inbound event does not have the
// SNS wrapper shape or its message body is not a JSON object.
var ErrMalformedNotification = errors.New("malformed alarm notification")

// AlarmNotification is a CloudWatch alarm state change, decoded once per invocation.
type AlarmNotification struct {
	Name        string
	Description string
	NewState    string
	StateReason string
	Timestamp   string
}

type snsEvent struct {
	Records []struct {
		Sns *struct {
			Message *string `json:"Message"`
		} `json:"Sns"`
	} `json:"Records"`
}

type alarmMessage struct {
	AlarmName        *string `json:"AlarmName"`
	AlarmDescription *string `json:"AlarmDescription"`
	NewStateValue    *string `json:"NewStateValue"`
	NewStateReason   *string `json:"NewStateReason"`
	StateChangeTime  *string `json:"StateChangeTime"`
}

// ParseNotification decodes an SNS event carrying a CloudWatch alarm message.
// Only the first record is used. Missing alarm fields are defaulted; now supplies
// the timestamp when StateChangeTime is absent.
func ParseNotification(raw []byte, now time.Time) (AlarmNotification, error) {
	var event snsEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return AlarmNotification{}, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}

	if len(event.Records) == 0 {
		return AlarmNotification{}, fmt.Errorf("%w: no records in event", ErrMalformedNotification)
	}

	sns := event.Records[0].Sns
	if sns == nil || sns.Message == nil {
		return AlarmNotification{}, fmt.Errorf("%w: record has no Sns.Message", ErrMalformedNotification)
	}

	var msg *alarmMessage
	if err := json.Unmarshal([]byte(*sns.Message), &msg); err != nil {
		return AlarmNotification{}, fmt.Errorf("%w: message body: %v", ErrMalformedNotification, err)
	}
	if msg == nil {
		return AlarmNotification{}, fmt.Errorf("%w: message body is null", ErrMalformedNotification)
	}

	return AlarmNotification{
		Name:        valueOr(msg.AlarmName, "Unknown"),
		Description: valueOr(msg.AlarmDescription, "No description"),
		NewState:    valueOr(msg.NewStateValue, "UNKNOWN"),
		StateReason: valueOr(msg.NewStateReason, ""),
		Timestamp:   valueOr(msg.StateChangeTime, now.UTC().Format(time.RFC3339)),
	}, nil
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
