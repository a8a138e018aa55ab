package client

import "net/url"

const (
	PathSignIn          = "/auth/signin"
	PathProfile         = "/auth/profile"
	PathAgentApartments = "/apartment/getAgentApartments"
	PathManualBookings  = "/bookings/manual"
	PathHealth          = "/health"
)

func ManualBookingPath(agentID string) string {
	return PathManualBookings + "/" + url.PathEscape(agentID)
}
