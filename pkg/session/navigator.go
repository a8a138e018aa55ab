package session

import "context"

// Destination is one of the two places the session can send the agent.
type Destination string

const (
	BookingCreation Destination = "/bookings/add"
	SignIn          Destination = "/signin"
)

// Navigator performs the navigation side effects of the session. It must
// not call back into the Manager synchronously.
type Navigator interface {
	Navigate(ctx context.Context, dest Destination)
}

type NavigatorFunc func(ctx context.Context, dest Destination)

func (f NavigatorFunc) Navigate(ctx context.Context, dest Destination) {
	f(ctx, dest)
}

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, Destination) {}
