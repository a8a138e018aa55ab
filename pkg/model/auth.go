package model

import "encoding/json"

// LoginSuccessMessage is the marker the sign-in endpoint returns on success.
// Any other message is a failed login regardless of the HTTP status.
const LoginSuccessMessage = "Agent login successful"

type SignInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type SignInResponse struct {
	Message     string         `json:"message"`
	Agent       map[string]any `json:"agent"`
	AccessToken string         `json:"accessToken"`
}

func (r *SignInResponse) Succeeded() bool {
	return r != nil && r.Message == LoginSuccessMessage && r.AccessToken != ""
}

// UnwrapProfile returns the profile object, unwrapping the `_doc` envelope
// when the server sends one.
func UnwrapProfile(body []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if doc, ok := payload["_doc"].(map[string]any); ok {
		return doc, nil
	}
	return payload, nil
}
