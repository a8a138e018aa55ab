package client

import "strings"

const (
	ProductionBaseURL = "https://api.africartz.com/api"
	StagingBaseURL    = "https://staging-api.africartz.com/api"

	productionHost = "api.africartz.com"
	stagingHost    = "staging-api.africartz.com"
)

// ResolveBaseURL picks the API root: an explicit override wins, then the
// deployment hostname, then production.
func ResolveBaseURL(override, hostname string) string {
	if override = strings.TrimSpace(override); override != "" {
		return strings.TrimRight(override, "/")
	}

	host := strings.ToLower(hostname)
	switch {
	// staging first: the production host is a suffix of it
	case strings.Contains(host, stagingHost):
		return StagingBaseURL
	case strings.Contains(host, productionHost):
		return ProductionBaseURL
	}
	return ProductionBaseURL
}
