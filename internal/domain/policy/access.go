// Package policy holds the role and ownership rules applied before any store call.
package policy

import "github.com/oksasatya/uptrade-api/internal/domain/entity"

// Actor is the authenticated caller, taken from the bearer token claims.
type Actor struct {
	ID    string
	Email string
	Role  entity.Role
}

type Action string

const (
	ListUsers    Action = "users:list"
	GetUser      Action = "users:get"
	UpdateUser   Action = "users:update"
	DeleteUser   Action = "users:delete"
	ListTrades   Action = "trades:list"
	GetTrade     Action = "trades:get"
	CreateTrade  Action = "trades:create"
	UpdateTrade  Action = "trades:update"
	DeleteTrade  Action = "trades:delete"
	StorageStats Action = "admin:storage-stats"
	RunRetention Action = "admin:retention"
)

// Decision is the outcome of Authorize. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }
func (d Decision) Denied() bool   { return !d.Allowed }

// Authorize decides whether actor may perform action. target is the trade being read or
// mutated and is only consulted for trade actions; pass nil otherwise.
func Authorize(actor Actor, action Action, target *entity.Trade) Decision {
	if actor.ID == "" || !actor.Role.Valid() {
		return deny("unknown caller")
	}
	switch action {
	case ListUsers, GetUser:
		if actor.Role.Elevated() {
			return allow()
		}
		return deny("admin or coach role required")
	case UpdateUser, DeleteUser, StorageStats, RunRetention:
		if actor.Role == entity.RoleAdmin {
			return allow()
		}
		return deny("admin role required")
	case ListTrades:
		return allow()
	case CreateTrade:
		if actor.Role == entity.RoleStudent {
			return allow()
		}
		return deny("only students can create trades")
	case GetTrade, UpdateTrade, DeleteTrade:
		if actor.Role.Elevated() {
			return allow()
		}
		if target == nil || target.UserID != actor.ID {
			return deny("not the owner of this trade")
		}
		return allow()
	}
	return deny("unknown action")
}

// ScopeTrades forces students onto their own trades regardless of the requested filter.
func ScopeTrades(actor Actor, f entity.TradeFilter) entity.TradeFilter {
	if actor.Role == entity.RoleStudent {
		f.OwnerID = actor.ID
	}
	return f
}
