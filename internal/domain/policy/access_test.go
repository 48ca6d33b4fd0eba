package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
)

var (
	admin   = Actor{ID: "a", Role: entity.RoleAdmin}
	coach   = Actor{ID: "c", Role: entity.RoleCoach}
	student = Actor{ID: "s1", Role: entity.RoleStudent}
	other   = Actor{ID: "s2", Role: entity.RoleStudent}
)

func TestAuthorizeAccountActions(t *testing.T) {
	cases := []struct {
		actor  Actor
		action Action
		allow  bool
	}{
		{admin, ListUsers, true},
		{coach, ListUsers, true},
		{student, ListUsers, false},
		{coach, GetUser, true},
		{student, GetUser, false},
		{admin, UpdateUser, true},
		{coach, UpdateUser, false},
		{admin, DeleteUser, true},
		{coach, DeleteUser, false},
		{admin, StorageStats, true},
		{coach, StorageStats, false},
		{admin, RunRetention, true},
		{student, RunRetention, false},
		{student, ListTrades, true},
		{coach, ListTrades, true},
		{student, CreateTrade, true},
		{coach, CreateTrade, false},
		{admin, CreateTrade, false},
	}
	for _, tc := range cases {
		d := Authorize(tc.actor, tc.action, nil)
		assert.Equal(t, tc.allow, d.Allowed, "%s %s", tc.actor.Role, tc.action)
		if !tc.allow {
			assert.NotEmpty(t, d.Reason)
		}
	}
}

func TestAuthorizeTradeOwnership(t *testing.T) {
	trade := &entity.Trade{ID: "t1", UserID: student.ID}
	for _, action := range []Action{GetTrade, UpdateTrade, DeleteTrade} {
		assert.True(t, Authorize(student, action, trade).Allowed, action)
		assert.True(t, Authorize(coach, action, trade).Allowed, action)
		assert.True(t, Authorize(admin, action, trade).Allowed, action)
		assert.True(t, Authorize(other, action, trade).Denied(), action)
		assert.True(t, Authorize(student, action, nil).Denied(), action)
	}
}

func TestAuthorizeRejectsUnknownCallers(t *testing.T) {
	assert.True(t, Authorize(Actor{Role: entity.RoleAdmin}, ListUsers, nil).Denied())
	assert.True(t, Authorize(Actor{ID: "x", Role: "guest"}, ListTrades, nil).Denied())
	assert.True(t, Authorize(admin, Action("users:impersonate"), nil).Denied())
}

func TestScopeTrades(t *testing.T) {
	f := entity.TradeFilter{OwnerID: other.ID, Status: entity.TradeStatusReviewed, Limit: 10}

	scoped := ScopeTrades(student, f)
	assert.Equal(t, student.ID, scoped.OwnerID)
	assert.Equal(t, entity.TradeStatusReviewed, scoped.Status)
	assert.Equal(t, 10, scoped.Limit)

	assert.Equal(t, f, ScopeTrades(coach, f))
	assert.Equal(t, "", ScopeTrades(admin, entity.TradeFilter{}).OwnerID)
}
