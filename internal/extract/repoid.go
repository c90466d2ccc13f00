package extract

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseRepoID turns a repository identifier into its owner and name. Both
// the short "owner/name" form and full github.com URLs are accepted; the URL
// form is normalized by stripping scheme and host.
func ParseRepoID(id string) (owner, name string, err error) {
	id = strings.TrimSpace(id)

	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		u, err := url.Parse(id)
		if err != nil {
			return "", "", fmt.Errorf("invalid repository URL %q: %w", id, err)
		}
		host := strings.TrimPrefix(u.Host, "www.")
		if host != "github.com" {
			return "", "", fmt.Errorf("only github.com repositories are supported, got host %q", u.Host)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("invalid GitHub repository URL: %s", id)
		}
		return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
	}

	parts := strings.Split(id, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository identifier %q: use 'owner/name' or a GitHub URL", id)
	}
	return parts[0], parts[1], nil
}
