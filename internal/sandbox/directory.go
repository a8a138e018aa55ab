// Package sandbox is a local stand-in for the bookings API. It implements
// the agent-facing contract (sign-in, profile, apartments, manual bookings)
// over in-memory data so the client can be exercised end to end.
package sandbox

import (
	"afribook/pkg/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAgentDisabled      = errors.New("agent account is disabled")
	ErrDuplicateAgent     = errors.New("agent identifier already registered")
)

type Agent struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Disabled     bool
	passwordHash []byte
}

// Profile is the agent as the API returns it.
func (a *Agent) Profile() map[string]any {
	return map[string]any{
		"_id":       a.ID,
		"firstName": a.FirstName,
		"lastName":  a.LastName,
		"email":     a.Email,
		"phone":     a.Phone,
	}
}

type SeedAgent struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Password   string
	Disabled   bool
	Apartments []model.Apartment
}

type Booking struct {
	ID           string
	AgentID      string
	PropertyID   string
	CheckIn      time.Time
	CheckOut     time.Time
	ActualPrice  string
	SellingPrice string
	Client       map[string]string
	Invoices     []string
	CreatedAt    time.Time
}

type Directory struct {
	mu           sync.RWMutex
	cost         int
	agents       map[string]*Agent
	byIdentifier map[string]string
	apartments   map[string][]model.Apartment
	bookings     []Booking
}

// NewDirectory hashes passwords with the given bcrypt cost; zero means
// bcrypt.DefaultCost.
func NewDirectory(cost int) *Directory {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Directory{
		cost:         cost,
		agents:       make(map[string]*Agent),
		byIdentifier: make(map[string]string),
		apartments:   make(map[string][]model.Apartment),
	}
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// AddAgent registers the agent under its email and phone.
func (d *Directory) AddAgent(seed SeedAgent) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), d.cost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", seed.ID, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	identifiers := []string{}
	for _, id := range []string{seed.Email, seed.Phone} {
		if key := normalizeIdentifier(id); key != "" {
			if _, taken := d.byIdentifier[key]; taken {
				return fmt.Errorf("%w: %s", ErrDuplicateAgent, id)
			}
			identifiers = append(identifiers, key)
		}
	}

	d.agents[seed.ID] = &Agent{
		ID:           seed.ID,
		FirstName:    seed.FirstName,
		LastName:     seed.LastName,
		Email:        seed.Email,
		Phone:        seed.Phone,
		Disabled:     seed.Disabled,
		passwordHash: hash,
	}
	for _, key := range identifiers {
		d.byIdentifier[key] = seed.ID
	}
	d.apartments[seed.ID] = append(d.apartments[seed.ID], seed.Apartments...)
	return nil
}

func (d *Directory) Authenticate(identifier, password string) (*Agent, error) {
	d.mu.RLock()
	id, ok := d.byIdentifier[normalizeIdentifier(identifier)]
	agent := d.agents[id]
	d.mu.RUnlock()

	if !ok || agent == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(agent.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if agent.Disabled {
		return nil, ErrAgentDisabled
	}
	return agent, nil
}

func (d *Directory) Agent(id string) (*Agent, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	agent, ok := d.agents[id]
	return agent, ok
}

func (d *Directory) Apartments(agentID string) []model.Apartment {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.Apartment{}, d.apartments[agentID]...)
}

func (d *Directory) RecordBooking(b Booking) Booking {
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.bookings = append(d.bookings, b)
	return b
}

func (d *Directory) Bookings(agentID string) []Booking {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Booking
	for _, b := range d.bookings {
		if b.AgentID == agentID {
			out = append(out, b)
		}
	}
	return out
}

func (d *Directory) Ready(context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.agents) == 0 {
		return errors.New("no agents seeded")
	}
	return nil
}

// DefaultSeed is the data the sandbox binary starts with.
func DefaultSeed() []SeedAgent {
	return []SeedAgent{
		{
			ID:        "65f1c2ab9d0e4a0012a1b001",
			FirstName: "Ada",
			LastName:  "Obi",
			Email:     "agent1@afribook.test",
			Phone:     "+2348031234567",
			Password:  "password123",
			Apartments: []model.Apartment{
				{ID: "65f1c2ab9d0e4a0012b2c001", ApartmentName: "Ikoyi Loft", Address: "12 Bourdillon Road", City: "Lagos", Beds: 2},
				{ID: "65f1c2ab9d0e4a0012b2c002", ApartmentName: "Lekki Studio", Address: "4 Admiralty Way", City: "Lagos", Beds: 1},
			},
		},
		{
			ID:        "65f1c2ab9d0e4a0012a1b002",
			FirstName: "Kwame",
			LastName:  "Mensah",
			Email:     "suspended@afribook.test",
			Password:  "password123",
			Disabled:  true,
		},
	}
}
