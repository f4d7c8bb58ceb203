package profile

// Info represents profile information for listing.
type Info struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Realm   string `json:"realm,omitempty"`
	Current bool   `json:"current"`
}

// Status represents comprehensive profile information, including its keypair.
type Status struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	Realm         string `json:"realm,omitempty"`
	Role          string `json:"role,omitempty"`
	PrivateKey    string `json:"privkey"`
	PublicKey     string `json:"pubkey"`
	Keyring       bool   `json:"keyring,omitempty"`
	TLSSkipVerify bool   `json:"tls_skip_verify,omitempty"`
	CACert        string `json:"ca_cert,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	PublicKeyHex  string `json:"public_key,omitempty"`
	KeyError      string `json:"key_error,omitempty"`
}
