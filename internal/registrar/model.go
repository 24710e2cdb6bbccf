// Package registrar models the clients that sponsor registry resources.
package registrar

// Registrar is a provisioning client of the registry.
type Registrar struct {
	ID          string
	Name        string
	AllowedTLDs []string
	Superuser   bool
}

// MayAccessTLD reports whether the registrar is permitted to provision
// resources in the given namespace.
func (r Registrar) MayAccessTLD(tld string) bool {
	for _, allowed := range r.AllowedTLDs {
		if allowed == tld {
			return true
		}
	}
	return false
}
