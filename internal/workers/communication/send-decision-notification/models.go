// internal/workers/communication/send-decision-notification/models.go
package senddecisionnotification

import "time"

// Input names the decided proposal. Decision may be omitted, in which case it
// is taken from the stored proposal status.
type Input struct {
	ProposalID string `json:"proposalId"`
	Decision   string `json:"decision,omitempty"`
}

type Output struct {
	NotificationID string    `json:"notificationId"`
	ProposalID     string    `json:"proposalId"`
	CompanyID      string    `json:"companyId"`
	Type           string    `json:"notificationType"`
	Channels       []string  `json:"channels"`
	EmailMessageID string    `json:"emailMessageId,omitempty"`
	SMSMessageID   string    `json:"smsMessageId,omitempty"`
	SentAt         time.Time `json:"sentAt"`
}
