// internal/workers/communication/send-decision-notification/service.go
package senddecisionnotification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/metrics"
	"quote-workers/internal/models"
)

// Reader loads the proposal, request and company behind a decision.
type Reader interface {
	GetProposal(ctx context.Context, id string) (*models.Proposal, error)
	GetRequest(ctx context.Context, id string) (*models.Request, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type ServiceDependencies struct {
	Reader Reader
	Email  EmailSender
	// SMS may be nil when SMS is disabled.
	SMS    SMSSender
	Logger logger.Logger
}

type Service struct {
	config *Config
	reader Reader
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
	now    func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		reader: deps.Reader,
		email:  deps.Email,
		sms:    deps.SMS,
		logger: deps.Logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ProposalID == "" {
		return nil, errors.NewInvalidInputError("proposalId is required")
	}

	p, err := s.reader.GetProposal(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}

	notificationType, err := decisionType(input.Decision, p.Status)
	if err != nil {
		return nil, err
	}
	tmpl := models.DecisionNotificationTemplates[notificationType]

	request, err := s.reader.GetRequest(ctx, p.RequestID)
	if err != nil {
		return nil, err
	}
	company, err := s.reader.GetCompany(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	vars := map[string]string{
		"companyName":  company.Name,
		"proposalId":   p.ID,
		"requestTitle": requestTitle(request),
	}
	subject := Render(tmpl.Subject, vars)
	body := Render(tmpl.Body, vars)

	out := &Output{
		NotificationID: uuid.New().String(),
		ProposalID:     p.ID,
		CompanyID:      company.ID,
		Type:           notificationType,
		Channels:       []string{},
	}

	if s.config.EmailEnabled {
		if company.Email == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("company %s has no email address", company.ID))
		}
		id, err := s.email.SendEmail(ctx, company.Email, subject, body)
		if err != nil {
			return nil, errors.NewNotificationSendFailedError(models.ChannelEmail, err)
		}
		out.EmailMessageID = id
		out.Channels = append(out.Channels, models.ChannelEmail)
		metrics.NotificationsSent.WithLabelValues(models.ChannelEmail, notificationType).Inc()
	}

	if s.wantsSMS(notificationType, company) {
		id, err := s.sms.SendSMS(ctx, company.Phone, body)
		if err != nil {
			if len(out.Channels) == 0 {
				return nil, errors.NewNotificationSendFailedError(models.ChannelSMS, err)
			}
			// Email was delivered; the job completes without SMS.
			s.logger.Warn("sms delivery failed", map[string]interface{}{
				"proposalId": p.ID,
				"companyId":  company.ID,
				"error":      err.Error(),
			})
		} else {
			out.SMSMessageID = id
			out.Channels = append(out.Channels, models.ChannelSMS)
			metrics.NotificationsSent.WithLabelValues(models.ChannelSMS, notificationType).Inc()
		}
	}

	out.SentAt = s.now()
	s.logger.Info("decision notification sent", map[string]interface{}{
		"notificationId": out.NotificationID,
		"proposalId":     p.ID,
		"companyId":      company.ID,
		"type":           notificationType,
		"channels":       out.Channels,
	})
	return out, nil
}

func (s *Service) wantsSMS(notificationType string, company *models.Company) bool {
	if !s.config.SMSEnabled || s.sms == nil || company.Phone == "" {
		return false
	}
	return notificationType == models.NotificationTypeProposalSelected || !s.config.SMSOnSelectionOnly
}

// decisionType resolves the notification type. An explicit decision must agree
// with the stored status; open proposals have nothing to notify about.
func decisionType(decision string, status models.ProposalStatus) (string, error) {
	if decision != "" {
		want, err := models.ParseProposalStatus(strings.ToUpper(decision))
		if err != nil {
			return "", errors.NewInvalidInputError(err.Error())
		}
		if want != status {
			return "", errors.NewStateConflictError(fmt.Sprintf("proposal is %s, not %s", status, want))
		}
	}

	switch status {
	case models.ProposalStatusSelected:
		return models.NotificationTypeProposalSelected, nil
	case models.ProposalStatusRejected:
		return models.NotificationTypeProposalRejected, nil
	}
	return "", errors.NewStateConflictError(fmt.Sprintf("proposal is %s, no decision to notify", status))
}

func requestTitle(r *models.Request) string {
	if r.Title != "" {
		return r.Title
	}
	return r.ID
}

// Render substitutes {{name}} placeholders. Unknown placeholders are left as is.
func Render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
