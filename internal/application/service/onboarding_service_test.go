package service

import (
	"context"
	"testing"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
	"github.com/garyjia/societyhub/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSocietyRequest() CreateSocietyRequest {
	return CreateSocietyRequest{
		Name: "Lake View Apartments",
		Address: entity.Address{
			Street:  "9 Lake Road",
			City:    "Pune",
			State:   "Maharashtra",
			ZipCode: "411001",
		},
		RegistrationNumber: "REG009",
	}
}

func TestCreateSociety(t *testing.T) {
	tests := []struct {
		name    string
		actor   entity.Actor
		mutate  func(r *CreateSocietyRequest)
		wantErr error
	}{
		{"valid", adminActor, func(r *CreateSocietyRequest) {}, nil},
		{"non-admin", managerActor, func(r *CreateSocietyRequest) {}, errs.ErrForbidden},
		{"missing name", adminActor, func(r *CreateSocietyRequest) { r.Name = "" }, errs.ErrInvalidArgument},
		{"incomplete address", adminActor, func(r *CreateSocietyRequest) { r.Address.ZipCode = " " }, errs.ErrInvalidArgument},
		{"duplicate name", adminActor, func(r *CreateSocietyRequest) { r.Name = "sunrise heights society" }, errs.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{}
			svc := NewOnboardingService(newSeededStore(t), newHasher(), d, nil)
			req := validSocietyRequest()
			tt.mutate(&req)

			society, err := svc.CreateSociety(context.Background(), tt.actor, req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, d.last())
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, society.ID)
			assert.Equal(t, entity.DefaultCountry, society.Address.Country)
			assert.Equal(t, entity.SocietyStatusActive, society.Status)
			assert.Equal(t, adminActor.ID, society.CreatedBy)

			evt := d.last()
			require.NotNil(t, evt)
			assert.Equal(t, event.TypeSocietyCreated, evt.Type)
			assert.Equal(t, society.ID, evt.AggregateID)
			assert.Equal(t, adminActor.Email, evt.GetPayloadString(payloadAdminEmail))
		})
	}
}

func TestCreateSociety_NotifiesAdmin(t *testing.T) {
	store := newSeededStore(t)
	d := &mockDispatcher{}
	ch := &mockChannel{name: "test"}
	NewNotificationService(store, []port.NotificationChannel{ch}, nil).Subscribe(d)
	svc := NewOnboardingService(store, newHasher(), d, nil)

	_, err := svc.CreateSociety(context.Background(), adminActor, validSocietyRequest())
	require.NoError(t, err)

	msgs := ch.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, adminActor.Email, msgs[0].Recipient)
	assert.Contains(t, msgs[0].Body, "Lake View Apartments")
}

func TestGetSociety(t *testing.T) {
	svc := NewOnboardingService(newSeededStore(t), newHasher(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   entity.Actor
		id      string
		wantErr error
	}{
		{"admin reads any", adminActor, "society2", nil},
		{"member reads own", managerActor, "society1", nil},
		{"agent reads own", agentActor, "society1", nil},
		{"member of another society", otherManager, "society1", errs.ErrForbidden},
		{"missing", adminActor, "society9", errs.ErrNotFound},
		{"empty id", adminActor, "", errs.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			society, err := svc.GetSociety(ctx, tt.actor, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, society.ID)
		})
	}
}

func TestListSocieties(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)
	svc := NewOnboardingService(store, newHasher(), nil, nil)

	suspended := "suspended"
	_, err := svc.UpdateSociety(ctx, adminActor, "society2", SocietyUpdate{Status: &suspended})
	require.NoError(t, err)

	societies, err := svc.ListSocieties(ctx, adminActor)
	require.NoError(t, err)
	require.Len(t, societies, 1)
	assert.Equal(t, "society1", societies[0].ID)

	_, err = svc.ListSocieties(ctx, managerActor)
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestUpdateSociety(t *testing.T) {
	ctx := context.Background()

	t.Run("applies changes and keeps identity", func(t *testing.T) {
		svc := NewOnboardingService(newSeededStore(t), newHasher(), nil, nil)
		before, err := svc.GetSociety(ctx, adminActor, "society1")
		require.NoError(t, err)

		name := "Green Valley RWA"
		society, err := svc.UpdateSociety(ctx, adminActor, "society1", SocietyUpdate{
			Name:        &name,
			ContactInfo: &entity.ContactInfo{Phone: "+91-1111111111"},
		})
		require.NoError(t, err)
		assert.Equal(t, "society1", society.ID)
		assert.Equal(t, name, society.Name)
		assert.Equal(t, "+91-1111111111", society.ContactInfo.Phone)
		assert.Equal(t, before.CreatedBy, society.CreatedBy)
		assert.Equal(t, before.CreatedAt, society.CreatedAt)
		assert.Equal(t, before.Address, society.Address)
	})

	t.Run("rejections", func(t *testing.T) {
		svc := NewOnboardingService(newSeededStore(t), newHasher(), nil, nil)
		empty, taken, bogus := " ", "Sunrise Heights Society", "closed"

		_, err := svc.UpdateSociety(ctx, managerActor, "society1", SocietyUpdate{})
		assert.ErrorIs(t, err, errs.ErrForbidden)
		_, err = svc.UpdateSociety(ctx, adminActor, "society9", SocietyUpdate{})
		assert.ErrorIs(t, err, errs.ErrNotFound)
		_, err = svc.UpdateSociety(ctx, adminActor, "society1", SocietyUpdate{Name: &empty})
		assert.ErrorIs(t, err, errs.ErrInvalidArgument)
		_, err = svc.UpdateSociety(ctx, adminActor, "society1", SocietyUpdate{Name: &taken})
		assert.ErrorIs(t, err, errs.ErrConflict)
		_, err = svc.UpdateSociety(ctx, adminActor, "society1", SocietyUpdate{Status: &bogus})
		assert.ErrorIs(t, err, errs.ErrInvalidArgument)
		_, err = svc.UpdateSociety(ctx, adminActor, "society1", SocietyUpdate{Address: &entity.Address{City: "Pune"}})
		assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	})
}

func TestCreateSocietyUser(t *testing.T) {
	base := CreateUserRequest{
		Name:      "Ravi",
		Email:     "ravi@greenvalley.org",
		Role:      "society_user",
		SocietyID: "society1",
	}

	tests := []struct {
		name      string
		actor     entity.Actor
		mutate    func(r *CreateUserRequest)
		wantErr   error
		wantPerms entity.Permissions
	}{
		{"society user", adminActor, func(r *CreateUserRequest) {}, nil, entity.Permissions{CanRead: true, CanWrite: true}},
		{"agent", adminActor, func(r *CreateUserRequest) { r.Role = "agent" }, nil, entity.Permissions{CanRead: true}},
		{"explicit permissions", adminActor, func(r *CreateUserRequest) {
			r.Permissions = &entity.Permissions{CanRead: true}
		}, nil, entity.Permissions{CanRead: true}},
		{"non-admin", managerActor, func(r *CreateUserRequest) {}, errs.ErrForbidden, entity.Permissions{}},
		{"admin role not allowed", adminActor, func(r *CreateUserRequest) { r.Role = "admin" }, errs.ErrInvalidArgument, entity.Permissions{}},
		{"missing society", adminActor, func(r *CreateUserRequest) { r.SocietyID = "" }, errs.ErrInvalidArgument, entity.Permissions{}},
		{"unknown society", adminActor, func(r *CreateUserRequest) { r.SocietyID = "society9" }, errs.ErrInvalidArgument, entity.Permissions{}},
		{"duplicate email", adminActor, func(r *CreateUserRequest) { r.Email = "agent@societyhub.com" }, errs.ErrConflict, entity.Permissions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{}
			store := newSeededStore(t)
			svc := NewOnboardingService(store, newHasher(), d, nil)
			req := base
			tt.mutate(&req)

			created, err := svc.CreateSocietyUser(context.Background(), tt.actor, req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, created.TemporaryPassword, TemporaryPasswordLength)
			assert.Equal(t, tt.wantPerms, created.User.Permissions)
			assert.Equal(t, "society1", created.User.Society())
			assert.False(t, created.User.IsEmailVerified)

			// the temporary password is a working credential
			assert.True(t, newHasher().Check(created.TemporaryPassword, created.User.PasswordHash))

			evt := d.last()
			require.NotNil(t, evt)
			assert.Equal(t, event.TypeUserCreated, evt.Type)
			assert.Equal(t, created.User.ID, evt.AggregateID)
			assert.Equal(t, created.TemporaryPassword, evt.GetPayloadString(payloadTemporaryPassword))
			assert.Equal(t, "Green Valley Residents Association", evt.GetPayloadString(payloadSocietyName))
		})
	}
}

func TestListSocietyUsers(t *testing.T) {
	ctx := context.Background()
	svc := NewOnboardingService(newSeededStore(t), newHasher(), nil, nil)

	users, err := svc.ListSocietyUsers(ctx, managerActor, "society1")
	require.NoError(t, err)
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []string{"manager1", "treasurer1", "agent1"}, ids)

	users, err = svc.ListSocietyUsers(ctx, adminActor, "society2")
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = svc.ListSocietyUsers(ctx, otherManager, "society1")
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.ListSocietyUsers(ctx, adminActor, "")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestUpdateUserPermissions(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)
	svc := NewOnboardingService(store, newHasher(), nil, nil)

	perms := entity.Permissions{CanRead: true, CanWrite: true}
	user, err := svc.UpdateUserPermissions(ctx, adminActor, "treasurer1", perms)
	require.NoError(t, err)
	assert.Equal(t, perms, user.Permissions)

	stored, err := store.Users().GetByID(ctx, "treasurer1")
	require.NoError(t, err)
	assert.Equal(t, perms, stored.Permissions)

	_, err = svc.UpdateUserPermissions(ctx, managerActor, "treasurer1", perms)
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = svc.UpdateUserPermissions(ctx, adminActor, "nobody", perms)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
