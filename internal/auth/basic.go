package auth

import (
	"encoding/base64"
	"regexp"
	"strings"
)

var basicScheme = regexp.MustCompile(`(?i)^basic\s+`)

// DecodeCredentials extracts the username and password from an
// Authorization header value of the form "Basic base64(user:pass)".
//
// The scheme token is matched case-insensitively. The decoded payload is
// split on every colon: the first field is the username, the second the
// password. ok is false when the header is empty, lacks the scheme,
// is not valid base64, or decodes to text without a colon. Decoding never
// fails loudly; callers treat !ok as an authentication failure.
func DecodeCredentials(header string) (username, password string, ok bool) {
	header = strings.TrimSpace(header)
	loc := basicScheme.FindStringIndex(header)
	if loc == nil {
		return "", "", false
	}

	raw, err := decodeBase64(strings.TrimSpace(header[loc[1]:]))
	if err != nil {
		return "", "", false
	}

	fields := strings.Split(strings.ToValidUTF8(string(raw), "�"), ":")
	if len(fields) < 2 {
		return fields[0], "", false
	}
	return fields[0], fields[1], true
}

// decodeBase64 accepts padded and unpadded standard encoding.
func decodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
