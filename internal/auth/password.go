package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash using the cost from AuthConfig. An
// out-of-range cost would only surface as an error on the first login
// attempt, so it is clamped to the library default here instead.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword checks a login attempt against the stored hash. The
// returned error is deliberately opaque; callers map it to the generic
// invalid-credentials response.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
