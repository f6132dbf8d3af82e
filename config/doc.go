// Package config loads gencached's settings.
//
// Settings come from GENCACHE_* environment variables, optionally seeded
// from a .env file. Credentials may be given literally, as ${VAR}
// references, or as secretref:<provider>:<ref> references resolved by the
// secret package. Cache lifetimes and the phase catalog can be overridden
// by a YAML policy file named by GENCACHE_POLICY_FILE.
package config
