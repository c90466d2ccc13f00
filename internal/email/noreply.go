package email

import (
	"regexp"
	"strings"
)

// noReplyPattern matches GitHub's synthetic no-reply addresses, both the
// modern <id>+<login>@users.noreply.github.com form and the legacy
// <login>@users.noreply.github.com form.
var noReplyPattern = regexp.MustCompile(`^(?:\d+\+)?[A-Za-z0-9-]+@users\.noreply\.github\.com$`)

// Usable reports whether addr looks like a real, discoverable email address
// rather than a no-reply placeholder or garbage commit metadata.
func Usable(addr string) bool {
	if addr == "" || !strings.Contains(addr, "@") {
		return false
	}
	if noReplyPattern.MatchString(addr) {
		return false
	}
	if strings.HasPrefix(strings.ToLower(addr), "noreply") {
		return false
	}
	return true
}
