package engine

import (
	"github.com/google/uuid"

	"github.com/Sri-Express/Backend-sub004/internal/domain"
)

// ChannelAll is the channel every connection joins on admission.
const ChannelAll = "all_connections"

// Named group channels, addressable directly as recipient tags.
const (
	ChannelSystemAdmins    = "system_admins"
	ChannelAdmins          = "admins"
	ChannelFleetManagers   = "fleet_managers"
	ChannelRouteAdmins     = "routeadmins"
	ChannelCustomerService = "customer_service"
	ChannelUsers           = "users"
)

// RoleChannel returns the per-role channel key.
func RoleChannel(role domain.Role) string {
	return "role:" + string(role)
}

// AlertChannel returns the ephemeral per-alert channel key.
func AlertChannel(alertID string) string {
	return "alert:" + alertID
}

// roleChannelTable maps a role to the group channels it joins in addition
// to all_connections and role:<role>. Read-only; extend here, never in
// dispatch logic.
var roleChannelTable = map[domain.Role][]string{
	domain.RoleSystemAdmin:     {ChannelSystemAdmins, ChannelAdmins},
	domain.RoleCompanyAdmin:    {ChannelFleetManagers, ChannelAdmins},
	domain.RoleRouteAdmin:      {ChannelRouteAdmins, ChannelAdmins},
	domain.RoleCustomerService: {ChannelCustomerService},
	domain.RoleClient:          {ChannelUsers},
}

// ChannelsForRole returns the ordered channel set a connection joins for a
// role: all_connections, role:<role>, then the role's group channels.
// Unknown roles get only the two base channels.
func ChannelsForRole(role domain.Role) []string {
	channels := []string{ChannelAll, RoleChannel(role)}
	return append(channels, roleChannelTable[role]...)
}

// Router handles channel assignment and client-driven per-alert
// subscriptions on top of the registry's membership state.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// JoinAlertChannel subscribes a connection to an alert's ephemeral channel.
// Idempotent.
func (r *Router) JoinAlertChannel(connID uuid.UUID, alertID string) {
	r.registry.Join(connID, AlertChannel(alertID))
}

// LeaveAlertChannel unsubscribes a connection from an alert's channel.
// Leaving an unjoined channel is a no-op.
func (r *Router) LeaveAlertChannel(connID uuid.UUID, alertID string) {
	r.registry.Leave(connID, AlertChannel(alertID))
}
