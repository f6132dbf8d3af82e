// Package secret resolves credentials referenced from configuration.
//
// A configured value goes through two steps:
//
//  1. Strict environment expansion: ${VAR} is replaced by the variable's
//     value and a missing variable is an error. $$ emits a literal $.
//  2. Reference resolution: a value of the form secretref:<provider>:<ref>
//     is replaced by what the named Provider returns for ref. References
//     may also appear inline, as in "Bearer secretref:env:AI_TOKEN".
//
// Two providers are built in. EnvProvider reads process environment
// variables and FileProvider reads files from a mounted secrets directory:
//
//	r := secret.NewResolver(secret.EnvProvider{}, secret.NewFileProvider("/run/secrets"))
//	key, err := r.Resolve(ctx, "secretref:file:openai_api_key")
//
// Resolved values must never be logged.
package secret
