package request

import (
	"encoding/json"
	"errors"
	"strings"

	"delivery-scheduler/internal/domain/delivery"

	"github.com/gin-gonic/gin/binding"
)

var ErrEmptyEnvelope = errors.New("notification envelope has no message")

type TriggerRequest struct {
	ReceivedTimestamp string `json:"sReceivedTimestamp" binding:"required"`
	CustomerName      string `json:"sCustomerName" binding:"required,max=200"`
	CustomerEmail     string `json:"sCustomerEmail" binding:"required,email"`
	CustomerNumber    string `json:"sCustomerNumber" binding:"omitempty,max=40"`
}

// SNSEnvelope is the topic-notification wrapper some publishers put around
// the trigger. Only the first record is used.
type SNSEnvelope struct {
	Records []struct {
		Sns struct {
			Message string `json:"Message"`
		} `json:"Sns"`
	} `json:"Records"`
}

type WindowPreviewQuery struct {
	ReceivedAt string `form:"receivedAt" binding:"required"`
	Hours      int    `form:"hours" binding:"omitempty,min=1,max=24"`
}

// DecodeTrigger accepts the trigger JSON directly or wrapped in an
// SNSEnvelope whose Message holds the trigger JSON as a string.
func DecodeTrigger(raw []byte) (*TriggerRequest, error) {
	var envelope SNSEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Records) > 0 {
		msg := strings.TrimSpace(envelope.Records[0].Sns.Message)
		if msg == "" {
			return nil, ErrEmptyEnvelope
		}
		raw = []byte(msg)
	}

	var req TriggerRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *TriggerRequest) ToDomain() delivery.TriggerPayload {
	return delivery.TriggerPayload{
		ReceivedTimestamp: r.ReceivedTimestamp,
		CustomerName:      r.CustomerName,
		CustomerEmail:     r.CustomerEmail,
		CustomerNumber:    r.CustomerNumber,
	}
}
