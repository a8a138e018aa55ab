package client

import (
	"afribook/pkg/errors"
	"afribook/pkg/model"
	"context"
	"fmt"
	"net/http"
)

// AgentAPI is the typed surface of the bookings API used by agents.
type AgentAPI struct {
	gateway *Gateway
}

func NewAgentAPI(gateway *Gateway) *AgentAPI {
	return &AgentAPI{gateway: gateway}
}

func (a *AgentAPI) Gateway() *Gateway {
	return a.gateway
}

// SignIn posts the credentials. The caller decides success from the
// response marker; only transport and status failures are errors here.
func (a *AgentAPI) SignIn(ctx context.Context, identifier, password string) (*model.SignInResponse, error) {
	resp, err := a.gateway.POST(ctx, PathSignIn, model.SignInRequest{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return nil, err
	}

	var out model.SignInResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("could not decode sign-in response: %w", err)
	}
	return &out, nil
}

// Profile returns the agent profile, unwrapped from its `_doc` envelope.
func (a *AgentAPI) Profile(ctx context.Context) (map[string]any, error) {
	resp, err := a.gateway.GET(ctx, PathProfile)
	if err != nil {
		return nil, err
	}

	profile, err := model.UnwrapProfile(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not decode profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("profile response is empty")
	}
	return profile, nil
}

func (a *AgentAPI) Apartments(ctx context.Context) ([]model.Apartment, error) {
	resp, err := a.gateway.GET(ctx, PathAgentApartments)
	if err != nil {
		return nil, err
	}

	var out model.ApartmentsResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("could not decode apartments: %w", err)
	}
	return out.Apartments, nil
}

// CreateManualBooking submits the multipart booking form. Only 200 and 201
// count as success; any other 2xx is reported as a server error.
func (a *AgentAPI) CreateManualBooking(ctx context.Context, agentID string, form *MultipartForm) (*model.ManualBookingResult, error) {
	resp, err := a.gateway.POSTMultipart(ctx, ManualBookingPath(agentID), form)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.FromStatus(resp.StatusCode, GetErrorMessage(resp))
	}

	result := &model.ManualBookingResult{Status: resp.StatusCode}
	if len(resp.Body) > 0 {
		// the body is informational; an unexpected shape does not undo the booking
		_ = resp.DecodeJSON(result)
	}
	return result, nil
}
