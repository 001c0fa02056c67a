package phpfpm

import (
	_ "embed"
	"strings"
)

// Placeholder tokens recognised in the pool template.
const (
	UserToken     = "VALET_USER"
	HomePathToken = "VALET_HOME_PATH"
)

//go:embed stubs/fpm.conf
var defaultTemplate string

// DefaultTemplate returns the pool template shipped with the binary.
func DefaultTemplate() string {
	return defaultTemplate
}

// Render substitutes every occurrence of UserToken and HomePathToken in tmpl.
// Nothing else in the template is touched, and substituted values are not
// rescanned for tokens.
func Render(tmpl, user, homePath string) string {
	return strings.NewReplacer(UserToken, user, HomePathToken, homePath).Replace(tmpl)
}
