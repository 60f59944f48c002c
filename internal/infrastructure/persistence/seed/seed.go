// Package seed loads the demo data set: two societies, one admin, society
// users, an agent and three transactions in different workflow states.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Demo credentials, also printed by the server on startup when seeding
const (
	AdminPassword = "admin123"
	UserPassword  = "user123"
	AgentPassword = "agent123"
)

// PasswordHasher turns a plain password into its stored form
type PasswordHasher func(password string) (string, error)

// Demo loads the demo data set into store. It does nothing if the data is already present.
func Demo(ctx context.Context, store port.Store, hash PasswordHasher, logger *zap.Logger) error {
	existing, err := store.Societies().GetByID(ctx, "society1")
	if err != nil {
		return fmt.Errorf("failed to check for demo data: %w", err)
	}
	if existing != nil {
		logger.Debug("Demo data already present, skipping seed")
		return nil
	}

	hashes := make(map[string]string, 3)
	for _, pw := range []string{AdminPassword, UserPassword, AgentPassword} {
		h, err := hash(pw)
		if err != nil {
			return fmt.Errorf("failed to hash demo password: %w", err)
		}
		hashes[pw] = h
	}

	now := time.Now()
	day := 24 * time.Hour

	err = store.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, s := range demoSocieties(now) {
			if err := store.Societies().Create(txCtx, s); err != nil {
				return fmt.Errorf("failed to seed society %s: %w", s.ID, err)
			}
		}
		for _, u := range demoUsers(now, hashes) {
			if err := store.Users().Create(txCtx, u); err != nil {
				return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
			}
		}
		for _, t := range demoTransactions(now, day) {
			if err := store.Transactions().Create(txCtx, t); err != nil {
				return fmt.Errorf("failed to seed transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Demo data seeded",
		zap.String("backend", store.Backend()),
		zap.String("admin_email", "admin@societyhub.com"))
	return nil
}

func demoSocieties(now time.Time) []*entity.Society {
	return []*entity.Society{
		{
			ID:   "society1",
			Name: "Green Valley Residents Association",
			Address: entity.Address{
				Street:  "123 Green Valley Road",
				City:    "Mumbai",
				State:   "Maharashtra",
				ZipCode: "400001",
				Country: entity.DefaultCountry,
			},
			RegistrationNumber: "REG001",
			ContactInfo: entity.ContactInfo{
				Phone:   "+91-9876543210",
				Email:   "contact@greenvalley.org",
				Website: "www.greenvalley.org",
			},
			Status:    entity.SocietyStatusActive,
			CreatedBy: "admin1",
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:   "society2",
			Name: "Sunrise Heights Society",
			Address: entity.Address{
				Street:  "456 Sunrise Avenue",
				City:    "Delhi",
				State:   "Delhi",
				ZipCode: "110001",
				Country: entity.DefaultCountry,
			},
			RegistrationNumber: "REG002",
			ContactInfo: entity.ContactInfo{
				Phone: "+91-9876543211",
				Email: "info@sunriseheights.org",
			},
			Status:    entity.SocietyStatusActive,
			CreatedBy: "admin1",
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func demoUsers(now time.Time, hashes map[string]string) []*entity.User {
	society1, society2 := "society1", "society2"
	user := func(id, name, email string, role entity.Role, society *string, pw string, perms entity.Permissions) *entity.User {
		return &entity.User{
			ID:              id,
			Name:            name,
			Email:           email,
			PasswordHash:    hashes[pw],
			Role:            role,
			SocietyID:       society,
			Permissions:     perms,
			IsEmailVerified: true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}
	full := entity.Permissions{CanRead: true, CanWrite: true}
	readOnly := entity.Permissions{CanRead: true}

	return []*entity.User{
		user("admin1", "System Administrator", "admin@societyhub.com", entity.RoleAdmin, nil, AdminPassword, full),
		user("manager1", "John Manager", "manager@greenvalley.org", entity.RoleSocietyUser, &society1, UserPassword, full),
		user("treasurer1", "Sarah Treasurer", "treasurer@greenvalley.org", entity.RoleSocietyUser, &society1, UserPassword, readOnly),
		user("agent1", "Processing Agent", "agent@societyhub.com", entity.RoleAgent, &society1, AgentPassword, full),
		user("manager2", "Mike Manager", "manager@sunriseheights.org", entity.RoleSocietyUser, &society2, UserPassword, full),
	}
}

func demoTransactions(now time.Time, day time.Duration) []*entity.Transaction {
	agent := "agent1"
	amount := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	completedAt := now

	return []*entity.Transaction{
		{
			ID:         "txn1",
			VendorName: "ABC Maintenance Services",
			Nature:     "Building Maintenance",
			Amount:     amount(25000),
			Status:     workflow.StatePendingOnAgent,
			Remarks: []entity.Remark{
				{Text: "Initial submission for monthly maintenance work", Author: "manager1", Timestamp: now, Type: workflow.RemarkInfo},
			},
			Attachments: []entity.Attachment{
				{
					ID:         "att1",
					FileName:   "maintenance_invoice.pdf",
					FilePath:   "transactions/txn1/maintenance_invoice.pdf",
					FileSize:   245678,
					MimeType:   "application/pdf",
					UploadedBy: "manager1",
					UploadedAt: now,
				},
			},
			CreatedBy:       "manager1",
			SocietyID:       "society1",
			AssignedToAgent: &agent,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		{
			ID:         "txn2",
			VendorName: "XYZ Security Agency",
			Nature:     "Security Services",
			Amount:     amount(15000),
			Status:     workflow.StateCompleted,
			Remarks: []entity.Remark{
				{Text: "Monthly security service payment", Author: "manager1", Timestamp: now.Add(-day), Type: workflow.RemarkInfo},
				{Text: "Approved and processed", Author: "agent1", Timestamp: now, Type: workflow.RemarkApproval},
			},
			Attachments:     []entity.Attachment{},
			CreatedBy:       "manager1",
			SocietyID:       "society1",
			AssignedToAgent: &agent,
			CreatedAt:       now.Add(-day),
			UpdatedAt:       now,
			CompletedAt:     &completedAt,
		},
		{
			ID:         "txn3",
			VendorName: "DEF Electrical Works",
			Nature:     "Electrical Repairs",
			Amount:     amount(8500),
			Status:     workflow.StatePendingForClarification,
			Remarks: []entity.Remark{
				{Text: "Emergency electrical repair in Block A", Author: "manager1", Timestamp: now.Add(-2 * day), Type: workflow.RemarkInfo},
				{Text: "Need detailed breakdown of costs and work description", Author: "agent1", Timestamp: now, Type: workflow.RemarkClarification},
			},
			Attachments:     []entity.Attachment{},
			CreatedBy:       "manager1",
			SocietyID:       "society1",
			AssignedToAgent: &agent,
			CreatedAt:       now.Add(-2 * day),
			UpdatedAt:       now,
		},
	}
}
