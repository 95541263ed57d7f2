// internal/models/notification.go
package models

const (
	NotificationTypeProposalSelected = "proposal_selected"
	NotificationTypeProposalRejected = "proposal_rejected"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// NotificationTemplate holds the subject/body pair for one notification type.
// Placeholders use the {{name}} form.
type NotificationTemplate struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DecisionNotificationTemplates are the built-in templates for proposal decisions.
var DecisionNotificationTemplates = map[string]NotificationTemplate{
	NotificationTypeProposalSelected: {
		Type:    NotificationTypeProposalSelected,
		Subject: "Your proposal was selected",
		Body:    "Congratulations {{companyName}}! Your proposal {{proposalId}} for \"{{requestTitle}}\" was selected by the requester.",
	},
	NotificationTypeProposalRejected: {
		Type:    NotificationTypeProposalRejected,
		Subject: "Update on your proposal",
		Body:    "Hello {{companyName}}, the requester of \"{{requestTitle}}\" has decided not to proceed with proposal {{proposalId}}.",
	},
}
