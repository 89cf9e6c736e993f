package transport

import (
	"os"
	"strings"
)

// Credentials are the basic auth pair of a pulse.eco account.
type Credentials struct {
	Username string
	Password string
}

// CredentialsFunc resolves the credentials to use for a city.
type CredentialsFunc func(city string) (Credentials, bool)

// Environment keys consulted by CredentialsFromEnv. The city variants take
// the city name upper-cased first, then as given.
const (
	EnvUsername           = "PULSE_ECO_USERNAME"
	EnvPassword           = "PULSE_ECO_PASSWORD"
	envCityUsernameFormat = "PULSE_ECO_%s_USERNAME"
	envCityPasswordFormat = "PULSE_ECO_%s_PASSWORD"
)

// StaticCredentials uses the same pair for every city.
func StaticCredentials(c Credentials) CredentialsFunc {
	return func(string) (Credentials, bool) { return c, true }
}

// CredentialsFromEnv resolves credentials from PULSE_ECO_<CITY>_USERNAME and
// PULSE_ECO_<CITY>_PASSWORD, falling back to PULSE_ECO_USERNAME and
// PULSE_ECO_PASSWORD. A username without any password yields nothing.
// A nil lookup uses os.LookupEnv.
func CredentialsFromEnv(lookup func(string) (string, bool)) CredentialsFunc {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return func(city string) (Credentials, bool) {
		username, ok := firstSet(lookup,
			cityKey(envCityUsernameFormat, strings.ToUpper(city)),
			cityKey(envCityUsernameFormat, city),
			EnvUsername,
		)
		if !ok {
			return Credentials{}, false
		}
		password, ok := firstSet(lookup,
			cityKey(envCityPasswordFormat, strings.ToUpper(city)),
			cityKey(envCityPasswordFormat, city),
			EnvPassword,
		)
		if !ok {
			return Credentials{}, false
		}
		return Credentials{Username: username, Password: password}, true
	}
}

// ChainCredentials returns the first resolver that yields credentials.
func ChainCredentials(fns ...CredentialsFunc) CredentialsFunc {
	return func(city string) (Credentials, bool) {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if c, ok := fn(city); ok {
				return c, true
			}
		}
		return Credentials{}, false
	}
}

func cityKey(format, city string) string {
	return strings.Replace(format, "%s", city, 1)
}

func firstSet(lookup func(string) (string, bool), keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := lookup(k); ok {
			return v, true
		}
	}
	return "", false
}
