// Package bootstrap renders the first-boot script that turns a bare EC2
// instance into a running REMS host, and the pure helpers shared between
// the script and the operator tooling.
package bootstrap

import (
	"encoding/json"
	"fmt"
	"strings"
)

type secretMapping struct {
	SecretKey string
	EnvVar    string
}

// oidcEnv is the contract with the pre-provisioned Secrets Manager entry:
// which JSON keys it must carry and which environment variables the
// application reads them from. The same table drives script rendering and
// EnvFromSecretJSON, so the two cannot drift.
var oidcEnv = []secretMapping{
	{SecretKey: "oidc-metadata-url", EnvVar: "OIDC_METADATA_URL"},
	{SecretKey: "oidc-client-id", EnvVar: "OIDC_CLIENT_ID"},
	{SecretKey: "oidc-client-secret", EnvVar: "OIDC_CLIENT_SECRET"},
}

// EnvFromSecretJSON maps a secret payload to the environment variables the
// boot script exports from it. It fails when any required key is missing or
// empty, mirroring what jq -e does on the instance.
func EnvFromSecretJSON(payload []byte) (map[string]string, error) {
	var fields map[string]string
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("secret payload is not a JSON object of strings: %w", err)
	}

	env := make(map[string]string, len(oidcEnv))
	for _, m := range oidcEnv {
		value, ok := fields[m.SecretKey]
		if !ok || value == "" {
			return nil, fmt.Errorf("secret payload is missing required key %q", m.SecretKey)
		}
		env[m.EnvVar] = value
	}
	return env, nil
}

// PublicURL builds the application's public URL from the domain prefix and
// hosted zone. The application requires the trailing slash.
func PublicURL(prefix, hostedZoneDomain string) string {
	return "https://" + prefix + "." + hostedZoneDomain + "/"
}

// ensureTrailingSlash normalizes URLs handed in directly.
func ensureTrailingSlash(url string) string {
	if strings.HasSuffix(url, "/") {
		return url
	}
	return url + "/"
}
