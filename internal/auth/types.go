package auth

// AccountTier separates regular office accounts from professional ones.
// The tier is fixed at login and drives the capability matrix.
type AccountTier string

const (
	TierNormal       AccountTier = "normal"
	TierProfessional AccountTier = "pro"
)

// ParseTier maps a wire value to a known tier. Both "pro" and "professional"
// are accepted for the professional tier.
func ParseTier(raw string) (AccountTier, bool) {
	switch raw {
	case "normal":
		return TierNormal, true
	case "pro", "professional":
		return TierProfessional, true
	default:
		return "", false
	}
}

// User is an authenticated account. Immutable for the session's lifetime.
type User struct {
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Email       string      `json:"email,omitempty"`
	Tier        AccountTier `json:"account_type"`
}
