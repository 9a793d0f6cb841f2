package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const defaultEmailDomain = "forvismazars.es"

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("carta-dummy-credential"), bcrypt.DefaultCost)

// Directory resolves login attempts against registered account records.
// Normal accounts only need a username; professional accounts carry a bcrypt
// credential hash and must present the matching secret.
type Directory struct {
	emailDomain  string
	professional map[string]professionalAccount
	suggestions  []string
}

type professionalAccount struct {
	username    string
	displayName string
	hash        string
}

// NewDirectory creates an empty directory. An empty domain falls back to the
// office default used for derived normal-account emails.
func NewDirectory(emailDomain string) *Directory {
	if strings.TrimSpace(emailDomain) == "" {
		emailDomain = defaultEmailDomain
	}
	return &Directory{
		emailDomain:  emailDomain,
		professional: make(map[string]professionalAccount),
	}
}

// RegisterProfessional stores a professional account with its hashed
// credential. Registration replaces any previous record for the username.
func (d *Directory) RegisterProfessional(username, displayName, credential string) error {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = deriveDisplayName(username)
	}
	d.professional[username] = professionalAccount{
		username:    username,
		displayName: displayName,
		hash:        string(hash),
	}
	return nil
}

// SuggestNormal adds usernames shown on the login screen's account picker.
func (d *Directory) SuggestNormal(usernames ...string) {
	for _, u := range usernames {
		u = strings.TrimSpace(strings.ToLower(u))
		if u != "" {
			d.suggestions = append(d.suggestions, u)
		}
	}
}

// ResolveNormal authenticates a normal-tier login. A non-empty username is
// sufficient; the email suffix is stripped when present and the display name
// and service email are derived from the cleaned username.
func (d *Directory) ResolveNormal(username string) (User, error) {
	clean := strings.TrimSpace(strings.ToLower(username))
	clean = strings.TrimSuffix(clean, "@"+d.emailDomain)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return User{}, ErrInvalidCredentials
	}
	return User{
		Username:    clean,
		DisplayName: deriveDisplayName(clean),
		Email:       clean + "@" + d.emailDomain,
		Tier:        TierNormal,
	}, nil
}

// ResolveProfessional authenticates a professional-tier login. Both the
// username and the credential must match a registered record.
func (d *Directory) ResolveProfessional(username, credential string) (User, error) {
	clean := strings.TrimSpace(strings.ToLower(username))
	if clean == "" || credential == "" {
		return User{}, ErrInvalidCredentials
	}
	rec, ok := d.professional[clean]
	if !ok {
		// Burn a comparison anyway so unknown usernames cost the same as
		// known ones with a wrong credential.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(credential))
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.hash), []byte(credential)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	var email string
	if strings.Contains(rec.username, "@") {
		email = rec.username
	}
	return User{
		Username:    rec.username,
		DisplayName: rec.displayName,
		Email:       email,
		Tier:        TierProfessional,
	}, nil
}

// NormalAccounts lists the suggested normal usernames with the email suffix.
func (d *Directory) NormalAccounts() []string {
	out := make([]string, 0, len(d.suggestions))
	for _, u := range d.suggestions {
		out = append(out, u+"@"+d.emailDomain)
	}
	return out
}

// ProfessionalHints lists registered professional usernames for the login UI.
func (d *Directory) ProfessionalHints() []string {
	out := make([]string, 0, len(d.professional))
	for u := range d.professional {
		out = append(out, u)
	}
	return out
}

func deriveDisplayName(username string) string {
	name := username
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
