package aws

import (
	"fmt"
	"strings"
)

// newResourceName joins the stack name and the resource suffix, truncating
// each part when the result would exceed maxLength. AWS caps ALB and target
// group names at 32 characters, so long stack names must shrink rather than
// fail at the provider.
func (r *RemsStack) newResourceName(suffix string, maxLength int) string {
	name := fmt.Sprintf("%s-%s", r.name, suffix)
	if len(name) <= maxLength {
		return name
	}

	surplus := len(name) - maxLength

	// Trim the stack name first; the suffix is what tells resources apart.
	prefix := r.name
	if surplus < len(prefix)-1 {
		prefix = prefix[:len(prefix)-surplus]
		surplus = 0
	} else {
		surplus -= len(prefix) - 1
		prefix = prefix[:1]
	}

	if surplus > 0 && surplus < len(suffix)-1 {
		suffix = suffix[:len(suffix)-surplus]
	}

	name = fmt.Sprintf("%s-%s", strings.TrimSuffix(prefix, "-"), strings.TrimSuffix(suffix, "-"))
	if len(name) > maxLength {
		name = name[:maxLength]
	}
	return strings.TrimSuffix(name, "-")
}
