package logging

import "regexp"

const masked = "***"

var (
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]+`)

	jsonFieldPattern = regexp.MustCompile(
		`(?i)("(?:apiKey|api_key|authorization|accessToken|refreshToken|email)"\s*:\s*")[^"]*(")`,
	)

	paramPattern = regexp.MustCompile(
		`(?i)((?:password|apiKey|api_key|authorization|accessToken|refreshToken|secret)['"]?\s*[:=]\s*['"]?)[^'"\s,}&]+`,
	)

	emailParamPattern = regexp.MustCompile(
		`(?i)(email['"]?\s*[:=]\s*['"]?)[^'"\s,}&]+@[^'"\s,}&]+`,
	)
)

// Mask replaces bearer tokens, credentials and email addresses in s with
// "***". Non-sensitive content is returned unchanged.
func Mask(s string) string {
	if s == "" {
		return s
	}

	s = bearerPattern.ReplaceAllString(s, "Bearer "+masked)
	s = jsonFieldPattern.ReplaceAllString(s, "${1}"+masked+"${2}")
	s = paramPattern.ReplaceAllString(s, "${1}"+masked)
	s = emailParamPattern.ReplaceAllString(s, "${1}"+masked)

	return s
}
