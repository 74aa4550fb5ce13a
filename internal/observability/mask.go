package observability

import "regexp"

var (
	rePassword = regexp.MustCompile(`(?i)(password=)([^\s;&]+)`)
	reToken    = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._-]+)`)
	reURLCreds = regexp.MustCompile(`(?i)(://)([^:/@\s]+):([^@\s]+)(@)`)
	reMySQLDSN = regexp.MustCompile(`(^|\s)([^:@/\s]+):([^@\s]+)@(tcp|unix)\(`)
	reAPIKey   = regexp.MustCompile(`(?i)(apikey=|api_key=|x-api-key:\s*)([^\s;&]+)`)
)

// Mask replaces credentials embedded in DSNs, headers and key=value pairs.
func Mask(s string) string {
	out := s
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reToken.ReplaceAllString(out, "$1***")
	out = reURLCreds.ReplaceAllString(out, "$1*:*$4")
	out = reMySQLDSN.ReplaceAllString(out, "$1*:*@$4(")
	out = reAPIKey.ReplaceAllString(out, "$1***")
	return out
}
