package bootstrap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptRequiresPublicURL(t *testing.T) {
	_, err := Script(ScriptArgs{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PublicURL is required")
}

func TestScriptAppendsTrailingSlash(t *testing.T) {
	script, err := Script(ScriptArgs{PublicURL: "https://rems.test.example.org"})
	require.NoError(t, err)
	assert.Contains(t, script, `export PUBLIC_URL="https://rems.test.example.org/"`)
}

func TestScriptStepOrdering(t *testing.T) {
	script, err := Script(ScriptArgs{
		PublicURL:           "https://rems.test.example.org/",
		SecretParameterName: "/rems/secret-name",
	})
	require.NoError(t, err)

	// Fail-fast before anything else.
	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\nset -euo pipefail"))

	steps := []string{
		"dnf install -y docker git pwgen jq gettext python3-pip",
		"systemctl enable --now docker",
		"git clone",
		"keys/jwks.json",
		"aws ssm get-parameter",
		"aws secretsmanager get-secret-value",
		`DB_PASSWORD=$(pwgen -s 32 1)`,
		`substitute ".env"`,
		"docker-compose up -d db",
		"docker-compose run --rm app migrate",
		"docker-compose up -d app",
	}

	last := -1
	for _, step := range steps {
		idx := strings.Index(script, step)
		require.GreaterOrEqual(t, idx, 0, "script must contain %q", step)
		assert.Greater(t, idx, last, "%q must come after the previous step", step)
		last = idx
	}
}

func TestScriptExportsEveryOIDCVariable(t *testing.T) {
	script, err := Script(ScriptArgs{
		PublicURL:           "https://rems.test.example.org/",
		SecretParameterName: "/rems/secret-name",
	})
	require.NoError(t, err)

	assert.Contains(t, script, `--name "/rems/secret-name"`)
	for _, m := range oidcEnv {
		assert.Contains(t, script, m.EnvVar+`=$(jq -er '."`+m.SecretKey+`"' <<<"$SECRET_JSON")`)
		assert.Contains(t, script, "export "+m.EnvVar+"\n")
	}
}

// "export VAR=$(cmd)" reports export's status, not cmd's, so a failing
// substitution would slip past set -e. Every command substitution must be
// assigned on its own line and exported separately.
func TestScriptNeverExportsCommandSubstitutions(t *testing.T) {
	script, err := Script(ScriptArgs{
		PublicURL:           "https://rems.test.example.org/",
		SecretParameterName: "/rems/secret-name",
	})
	require.NoError(t, err)

	assert.NotRegexp(t, `export [A-Z_]+=\$\(`, script)
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(line, "export ") {
			assert.NotContains(t, line, "$(", "export must not carry a command substitution: %s", line)
		}
	}
}

// Without a secret parameter the script must not touch the instance
// metadata service, SSM or Secrets Manager at all.
func TestScriptOmitsSecretStepWhenDisabled(t *testing.T) {
	script, err := Script(ScriptArgs{PublicURL: "https://rems.test.example.org/"})
	require.NoError(t, err)

	assert.NotContains(t, script, "169.254.169.254")
	assert.NotContains(t, script, "aws ssm get-parameter")
	assert.NotContains(t, script, "secretsmanager")
	assert.NotContains(t, script, "OIDC_CLIENT_SECRET")
}

func TestScriptSubstitutesConfigFilesAtomically(t *testing.T) {
	script, err := Script(ScriptArgs{PublicURL: "https://rems.test.example.org/"})
	require.NoError(t, err)

	for _, marker := range []string{
		"tmp=$(mktemp)",
		`chmod --reference="$file"`,
		`chown --reference="$file"`,
		`mv "$tmp" "$file"`,
	} {
		assert.Contains(t, script, marker)
	}
	for _, file := range defaultConfigFiles {
		assert.Contains(t, script, `substitute "`+file+`"`)
	}
}

func TestScriptHonorsOverrides(t *testing.T) {
	script, err := Script(ScriptArgs{
		PublicURL:      "https://rems.test.example.org/",
		RepoURL:        "https://git.internal/rems-fork.git",
		InstallDir:     "/srv/rems",
		ComposeVersion: "v2.29.0",
		DBName:         "remsdb",
		DBUser:         "remsapp",
		ConfigFiles:    []string{"custom.env"},
	})
	require.NoError(t, err)

	assert.Contains(t, script, `git clone "https://git.internal/rems-fork.git" "/srv/rems"`)
	assert.Contains(t, script, "download/v2.29.0/docker-compose-linux-x86_64")
	assert.Contains(t, script, `export DB_NAME="remsdb"`)
	assert.Contains(t, script, `export DB_USER="remsapp"`)
	assert.Contains(t, script, `substitute "custom.env"`)
	assert.NotContains(t, script, `substitute ".env"`)
}
