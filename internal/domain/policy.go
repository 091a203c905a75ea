package domain

// PolicyInput is the document shape handed to the signing-policy engine.
type PolicyInput struct {
	Action      string      `json:"action"`
	Role        string      `json:"role"`
	AccessLevel AccessLevel `json:"access_level"`
	Department  string      `json:"department"`
}

type PolicyDenial struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PolicyResult struct {
	Allow bool           `json:"allow"`
	Deny  []PolicyDenial `json:"deny,omitempty"`
}
