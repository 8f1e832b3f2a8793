package domain

import (
	"time"
)

// User represents a registered user in the system. Users are created
// implicitly on first OAuth login and keyed by email or provider username.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	Email          string    `json:"email"`
	GitHubUsername string    `json:"github_username,omitempty"`

	// Credential holds the user's provider access token encrypted at
	// rest. Nil when the user has never linked a provider account.
	Credential *EncryptedCredential `json:"-"`

	// CredentialVersion is the Unix-millisecond timestamp of the last
	// credential rotation. Session tokens minted before this instant
	// are revoked.
	CredentialVersion int64 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCredential reports whether the user has a linked provider credential.
func (u *User) HasCredential() bool {
	return u.Credential != nil
}

// EncryptedCredential is an AES-GCM sealed secret in its storage form.
// All three fields are base64-encoded.
type EncryptedCredential struct {
	Ciphertext string `json:"-"`
	IV         string `json:"-"`
	AuthTag    string `json:"-"`
}

// Profile is the subset of provider account data used to create or
// update a local user account.
type Profile struct {
	ProviderID int64  `json:"id"`
	Username   string `json:"login"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}
