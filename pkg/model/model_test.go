package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_JSONKeepsUnknownFields(t *testing.T) {
	raw := `{"_id":"A1","firstName":"Ada","agency":{"name":"Lagos Stays"},"verified":true}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.Equal(t, "A1", u.ID)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, true, u.Extra["verified"])

	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestUser_MergeOverwritesShallowly(t *testing.T) {
	u := &User{ID: "A1", FirstName: "Ada", AccessToken: "T1", Extra: map[string]any{"city": "Lagos"}}

	merged := u.Merge(map[string]any{
		"firstName": "Adaeze",
		"lastName":  "Okafor",
		"city":      "Abuja",
	})

	assert.Equal(t, "A1", merged.ID)
	assert.Equal(t, "T1", merged.AccessToken, "fields absent from the patch survive")
	assert.Equal(t, "Adaeze Okafor", merged.DisplayName())
	assert.Equal(t, "Abuja", merged.Extra["city"])
	assert.Equal(t, "Ada", u.FirstName, "receiver is not mutated")
}

func TestUser_MergeKeepsClearedFields(t *testing.T) {
	u := &User{ID: "A1", FirstName: "Ada", Phone: "+2348012345678"}

	merged := u.Merge(map[string]any{"firstName": "", "phone": ""})
	assert.Empty(t, merged.FirstName)

	out, err := json.Marshal(merged)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"A1","firstName":"","phone":""}`, string(out))

	reparsed, err := ParseUser(string(out))
	require.NoError(t, err)
	assert.Contains(t, reparsed.Fields(), "firstName")
	assert.NotContains(t, reparsed.Extra, "firstName")

	refilled := reparsed.Merge(map[string]any{"firstName": "Adaeze"})
	assert.Equal(t, "Adaeze", refilled.Fields()["firstName"])
}

func TestUser_MergeOntoNil(t *testing.T) {
	var u *User
	merged := u.Merge(map[string]any{"_id": "A1"})
	assert.Equal(t, "A1", merged.AgentID())
}

func TestUser_AgentIDFallsBackToAlias(t *testing.T) {
	assert.Equal(t, "alias", (&User{AltID: "alias"}).AgentID())
	assert.Equal(t, "primary", (&User{ID: "primary", AltID: "alias"}).AgentID())
	assert.Equal(t, "", (*User)(nil).AgentID())
}

func TestParseUser(t *testing.T) {
	u, err := ParseUser(`{"_id":"A1","email":"a@b.co"}`)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", u.Email)

	_, err = ParseUser(`{not json`)
	assert.Error(t, err)

	_, err = ParseUser(`null`)
	assert.Error(t, err)

	_, err = ParseUser(`{"email":"a@b.co"}`)
	assert.Error(t, err, "a user without id is not a session")
}

func TestUnwrapProfile(t *testing.T) {
	wrapped, err := UnwrapProfile([]byte(`{"_doc":{"_id":"A1","phone":"+2348012345678"},"$isNew":false}`))
	require.NoError(t, err)
	assert.Equal(t, "+2348012345678", wrapped["phone"])
	assert.NotContains(t, wrapped, "$isNew")

	direct, err := UnwrapProfile([]byte(`{"_id":"A1","phone":"1"}`))
	require.NoError(t, err)
	assert.Equal(t, "A1", direct["_id"])
}

func TestSignInResponse_Succeeded(t *testing.T) {
	assert.True(t, (&SignInResponse{Message: LoginSuccessMessage, AccessToken: "T1"}).Succeeded())
	assert.False(t, (&SignInResponse{Message: "Invalid credentials", AccessToken: "T1"}).Succeeded())
	assert.False(t, (&SignInResponse{Message: LoginSuccessMessage}).Succeeded())
	assert.False(t, (*SignInResponse)(nil).Succeeded())
}

func TestParseBookingDate(t *testing.T) {
	d, err := ParseBookingDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10T00:00:00.000Z", FormatISO(d))

	d, err = ParseBookingDate("2025-03-10T14:00:00+01:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10T13:00:00.000Z", FormatISO(d))

	_, err = ParseBookingDate("10/03/2025")
	assert.Error(t, err)
}

func TestFindApartment(t *testing.T) {
	apts := []Apartment{{ID: "P1", ApartmentName: "Ikoyi Loft"}, {ID: "P2"}}

	apt, ok := FindApartment(apts, "P1")
	assert.True(t, ok)
	assert.Equal(t, "Ikoyi Loft", apt.ApartmentName)

	_, ok = FindApartment(apts, "P9")
	assert.False(t, ok)
}
