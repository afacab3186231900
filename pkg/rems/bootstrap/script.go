package bootstrap

import (
	"fmt"
	"strings"
	"text/template"
)

const (
	defaultRepoURL        = "https://github.com/GenomicDataInfrastructure/starter-kit-rems.git"
	defaultInstallDir     = "/opt/rems"
	defaultComposeVersion = "v2.24.6"
	defaultDBName         = "rems"
	defaultDBUser         = "rems"
)

// Config files rewritten in place by the script. Relative to the install
// directory.
var defaultConfigFiles = []string{".env", "config/config.edn"}

// ScriptArgs parameterizes the first-boot script. Only the public URL and,
// when secrets are enabled, the SSM parameter holding the secret entry name
// are deployment specific; everything else has a fixed default.
type ScriptArgs struct {
	// SSM parameter whose value is the name of the Secrets Manager entry
	// with the OIDC credentials. Empty disables the whole secret step; the
	// OIDC variables must then reach the application some other way.
	SecretParameterName string
	// Public URL of the application. A trailing slash is appended when
	// missing; the application breaks without it.
	PublicURL string

	RepoURL        string
	InstallDir     string
	ComposeVersion string
	DBName         string
	DBUser         string
	ConfigFiles    []string
}

type scriptData struct {
	ScriptArgs
	OIDCEnv []secretMapping
}

// Script renders the first-boot shell script. The script is strictly
// sequential and fail-fast: it installs the runtime, clones the
// application, generates its signing keys, resolves the OIDC secret at run
// time, substitutes the configuration and starts the containers. There is
// no retry or rollback; a failed step leaves the instance unhealthy behind
// the load balancer.
func Script(args ScriptArgs) (string, error) {
	if args.PublicURL == "" {
		return "", fmt.Errorf("PublicURL is required")
	}
	args.PublicURL = ensureTrailingSlash(args.PublicURL)

	if args.RepoURL == "" {
		args.RepoURL = defaultRepoURL
	}
	if args.InstallDir == "" {
		args.InstallDir = defaultInstallDir
	}
	if args.ComposeVersion == "" {
		args.ComposeVersion = defaultComposeVersion
	}
	if args.DBName == "" {
		args.DBName = defaultDBName
	}
	if args.DBUser == "" {
		args.DBUser = defaultDBUser
	}
	if len(args.ConfigFiles) == 0 {
		args.ConfigFiles = defaultConfigFiles
	}

	var out strings.Builder
	err := scriptTemplate.Execute(&out, scriptData{ScriptArgs: args, OIDCEnv: oidcEnv})
	if err != nil {
		return "", fmt.Errorf("failed to render bootstrap script: %w", err)
	}
	return out.String(), nil
}

var scriptTemplate = template.Must(template.New("bootstrap").Parse(`#!/bin/bash
set -euo pipefail

dnf update -y
dnf install -y docker git pwgen jq gettext python3-pip
systemctl enable --now docker

curl -fsSL "https://github.com/docker/compose/releases/download/{{.ComposeVersion}}/docker-compose-linux-x86_64" -o /usr/local/bin/docker-compose
chmod +x /usr/local/bin/docker-compose

pip3 install authlib

git clone "{{.RepoURL}}" "{{.InstallDir}}"
cd "{{.InstallDir}}"

# The application refuses to start without its signing key set; generate it
# before the first container start.
install -d -m 700 keys
python3 - > keys/jwks.json <<'PYEOF'
import json
from authlib.jose import JsonWebKey

key = JsonWebKey.generate_key("RSA", 2048, is_private=True)
print(json.dumps({"keys": [key.as_dict(is_private=True, alg="RS256", use="sig")]}))
PYEOF
chmod 600 keys/jwks.json
{{if .SecretParameterName}}
TOKEN=$(curl -s -X PUT "http://169.254.169.254/latest/api/token" -H "X-aws-ec2-metadata-token-ttl-seconds: 21600")
REGION=$(curl -s -H "X-aws-ec2-metadata-token: $TOKEN" http://169.254.169.254/latest/meta-data/placement/region)

SECRET_NAME=$(aws ssm get-parameter --name "{{.SecretParameterName}}" --region "$REGION" --query "Parameter.Value" --output text)
SECRET_JSON=$(aws secretsmanager get-secret-value --secret-id "$SECRET_NAME" --region "$REGION" --query "SecretString" --output text)

# Assignment and export stay on separate lines: combining them makes the
# line return export's own status and would let a failed jq slide past
# set -e.
{{- range .OIDCEnv}}
{{.EnvVar}}=$(jq -er '."{{.SecretKey}}"' <<<"$SECRET_JSON")
export {{.EnvVar}}
{{- end}}
{{end}}
export DB_NAME="{{.DBName}}"
export DB_USER="{{.DBUser}}"
DB_PASSWORD=$(pwgen -s 32 1)
export DB_PASSWORD
export PUBLIC_URL="{{.PublicURL}}"

# Expand environment variables into a config file in place, keeping the
# file's mode and ownership. The temp-file-then-rename keeps readers from
# ever seeing a partial write, and re-running on an already substituted
# file is harmless.
substitute() {
    local file="$1"
    local tmp
    tmp=$(mktemp)
    envsubst < "$file" > "$tmp"
    chmod --reference="$file" "$tmp"
    chown --reference="$file" "$tmp"
    mv "$tmp" "$file"
}
{{range .ConfigFiles}}
substitute "{{.}}"
{{- end}}

docker-compose up -d db
docker-compose run --rm app migrate
docker-compose up -d app
`))
