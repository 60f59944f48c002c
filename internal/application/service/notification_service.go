package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/societyhub/internal/application/dispatcher"
	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/event"
	"github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/google/uuid"
)

// Event payload keys shared with the onboarding service
const (
	payloadName              = "name"
	payloadEmail             = "email"
	payloadRole              = "role"
	payloadSocietyName       = "society_name"
	payloadTemporaryPassword = "temporary_password"
	payloadAdminEmail        = "admin_email"
)

var statusPhrases = map[workflow.State]string{
	workflow.StatePendingOnSociety:        "is now pending on society for action",
	workflow.StatePendingOnAgent:          "has been assigned to an agent for review",
	workflow.StatePendingForClarification: "requires clarification from the society",
	workflow.StateCompleted:               "has been completed successfully",
}

// NotificationService renders notifications and delivers them through every configured channel
type NotificationService interface {
	port.TransactionNotifier
	NotifyUserCreated(ctx context.Context, user *entity.User, temporaryPassword, societyName string) error
	NotifySocietyCreated(ctx context.Context, society *entity.Society, adminEmail string) error

	// Subscribe registers the onboarding event handlers on d
	Subscribe(d dispatcher.Dispatcher)
}

type notificationServiceImpl struct {
	store    port.Store
	channels []port.NotificationChannel
	logger   Logger
	now      func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	store port.Store,
	channels []port.NotificationChannel,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		store:    store,
		channels: channels,
		logger:   orNop(logger),
		now:      time.Now,
	}
}

// NotifyTransactionUpdate tells the creator of txn about its new status
func (s *notificationServiceImpl) NotifyTransactionUpdate(
	ctx context.Context,
	txn *entity.Transaction,
	actor entity.Actor,
	newStatus workflow.State,
	remark string,
) error {
	if txn == nil {
		return fmt.Errorf("notify transaction update: nil transaction")
	}

	recipient := txn.CreatedBy
	creator, err := s.store.Users().GetByID(ctx, txn.CreatedBy)
	if err != nil {
		s.logger.Warn("Failed to resolve transaction creator, using user ID as recipient",
			"transaction_id", txn.ID, "created_by", txn.CreatedBy, "error", err)
	} else if creator != nil && creator.Email != "" {
		recipient = creator.Email
	}

	msg := port.OutboundMessage{
		Type:          entity.NotificationTypeTransactionUpdate,
		Recipient:     recipient,
		Subject:       fmt.Sprintf("Transaction Update: %s", txn.VendorName),
		Body:          transactionUpdateBody(txn, actor, newStatus, remark),
		TransactionID: txn.ID,
	}

	if err := s.deliver(ctx, msg); err != nil {
		return fmt.Errorf("notify transaction %s: %w", txn.ID, err)
	}

	s.logger.Info("Notification sent for transaction status update",
		"transaction_id", txn.ID,
		"status", newStatus,
		"recipient", recipient,
	)
	return nil
}

// NotifyUserCreated sends the welcome message with the temporary password
func (s *notificationServiceImpl) NotifyUserCreated(ctx context.Context, user *entity.User, temporaryPassword, societyName string) error {
	if user == nil {
		return fmt.Errorf("notify user created: nil user")
	}

	roleLabel := "Processing Agent"
	if user.Role == entity.RoleSocietyUser {
		roleLabel = "Society User"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", user.Name)
	b.WriteString("Your account has been created for SocietyHub management platform.\n\n")
	b.WriteString("Login Details:\n")
	fmt.Fprintf(&b, "- Email: %s\n", user.Email)
	fmt.Fprintf(&b, "- Temporary Password: %s\n", temporaryPassword)
	fmt.Fprintf(&b, "- Society: %s\n", societyName)
	fmt.Fprintf(&b, "- Role: %s\n\n", roleLabel)
	b.WriteString("Please log in to your account and change your password immediately.\n\n")
	b.WriteString("For security reasons, please do not share these credentials with anyone.\n\n")
	b.WriteString(signature)

	msg := port.OutboundMessage{
		Type:      entity.NotificationTypeUserCreation,
		Recipient: user.Email,
		Subject:   "Welcome to SocietyHub - Account Created",
		Body:      b.String(),
	}
	if err := s.deliver(ctx, msg); err != nil {
		return fmt.Errorf("notify user %s created: %w", user.ID, err)
	}

	s.logger.Info("User creation notification sent", "user_id", user.ID, "recipient", user.Email)
	return nil
}

// NotifySocietyCreated tells the administrator that the society is ready for onboarding
func (s *notificationServiceImpl) NotifySocietyCreated(ctx context.Context, society *entity.Society, adminEmail string) error {
	if society == nil {
		return fmt.Errorf("notify society created: nil society")
	}

	var b strings.Builder
	b.WriteString("Dear Administrator,\n\n")
	fmt.Fprintf(&b, "A new society %q has been successfully created in SocietyHub.\n\n", society.Name)
	b.WriteString("You can now:\n")
	b.WriteString("- Add users (managers, treasurers, agents) to this society\n")
	b.WriteString("- Configure society-specific settings\n")
	b.WriteString("- Monitor transactions and activities\n\n")
	b.WriteString("Next steps:\n")
	b.WriteString("1. Create initial users for the society\n")
	b.WriteString("2. Assign appropriate roles and permissions\n")
	b.WriteString("3. Guide society users through the onboarding process\n\n")
	b.WriteString(signature)

	msg := port.OutboundMessage{
		Type:      entity.NotificationTypeSocietyCreation,
		Recipient: adminEmail,
		Subject:   "New Society Created - SocietyHub",
		Body:      b.String(),
	}
	if err := s.deliver(ctx, msg); err != nil {
		return fmt.Errorf("notify society %s created: %w", society.ID, err)
	}

	s.logger.Info("Society creation notification sent", "society_id", society.ID, "recipient", adminEmail)
	return nil
}

// Subscribe wires the onboarding events to their notifications
func (s *notificationServiceImpl) Subscribe(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeSocietyCreated, "notify-society-created", s.onSocietyCreated)
	d.SubscribeNamed(event.TypeUserCreated, "notify-user-created", s.onUserCreated)
}

func (s *notificationServiceImpl) onSocietyCreated(ctx context.Context, evt *event.Event) error {
	society, err := s.store.Societies().GetByID(ctx, evt.AggregateID)
	if err != nil {
		return fmt.Errorf("get society: %w", err)
	}
	if society == nil {
		s.logger.Warn("Society from event no longer exists", "society_id", evt.AggregateID)
		return nil
	}
	return s.NotifySocietyCreated(ctx, society, evt.GetPayloadString(payloadAdminEmail))
}

func (s *notificationServiceImpl) onUserCreated(ctx context.Context, evt *event.Event) error {
	user, err := s.store.Users().GetByID(ctx, evt.AggregateID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		s.logger.Warn("User from event no longer exists", "user_id", evt.AggregateID)
		return nil
	}
	return s.NotifyUserCreated(ctx, user,
		evt.GetPayloadString(payloadTemporaryPassword),
		evt.GetPayloadString(payloadSocietyName),
	)
}

// deliver records one notification row per channel and tracks its outcome.
// Bookkeeping failures are logged; only send failures are returned.
func (s *notificationServiceImpl) deliver(ctx context.Context, msg port.OutboundMessage) error {
	if len(s.channels) == 0 {
		s.logger.Warn("No notification channels configured, dropping message",
			"type", msg.Type, "recipient", msg.Recipient)
		return nil
	}

	var sendErrs []error
	for _, ch := range s.channels {
		record := &entity.Notification{
			ID:            uuid.NewString(),
			Type:          msg.Type,
			Recipient:     msg.Recipient,
			Subject:       msg.Subject,
			Body:          msg.Body,
			TransactionID: msg.TransactionID,
			Channel:       ch.Name(),
			Status:        entity.NotificationStatusPending,
			CreatedAt:     s.now().UTC(),
		}
		recorded := true
		if err := s.store.Notifications().Create(ctx, record); err != nil {
			recorded = false
			s.logger.Error("Failed to create notification record", "error", err, "channel", ch.Name())
		}

		if err := ch.Send(ctx, msg); err != nil {
			sendErrs = append(sendErrs, fmt.Errorf("%s: %w", ch.Name(), err))
			s.logger.Error("Failed to send notification", "error", err,
				"channel", ch.Name(), "recipient", msg.Recipient, "type", msg.Type)
			if recorded {
				if uerr := s.store.Notifications().UpdateStatus(ctx, record.ID, entity.NotificationStatusFailed, err.Error()); uerr != nil {
					s.logger.Error("Failed to update notification status", "error", uerr, "notification_id", record.ID)
				}
			}
			continue
		}

		if recorded {
			if err := s.store.Notifications().MarkSent(ctx, record.ID); err != nil {
				s.logger.Error("Failed to mark notification as sent", "error", err, "notification_id", record.ID)
			}
		}
	}

	return errors.Join(sendErrs...)
}

const signature = "Best regards,\nSocietyHub Team\n"

func transactionUpdateBody(txn *entity.Transaction, actor entity.Actor, newStatus workflow.State, remark string) string {
	phrase, ok := statusPhrases[newStatus]
	if !ok {
		phrase = "has been updated"
	}

	var b strings.Builder
	b.WriteString("Dear User,\n\n")
	fmt.Fprintf(&b, "Your transaction with vendor %q %s.\n\n", txn.VendorName, phrase)
	b.WriteString("Transaction Details:\n")
	fmt.Fprintf(&b, "- Vendor: %s\n", txn.VendorName)
	fmt.Fprintf(&b, "- Nature: %s\n", txn.Nature)
	fmt.Fprintf(&b, "- Status: %s\n", newStatus.Label())
	if txn.Amount != nil && !txn.Amount.IsZero() {
		fmt.Fprintf(&b, "- Amount: ₹%s\n", txn.Amount.String())
	}
	if remark = strings.TrimSpace(remark); remark != "" {
		author := actor.Name
		if author == "" {
			author = actor.ID
		}
		fmt.Fprintf(&b, "\nRemark from %s: %s\n", author, remark)
	}
	b.WriteString("\nYou can view the full details by logging into your SocietyHub account.\n\n")
	b.WriteString(signature)
	return b.String()
}
