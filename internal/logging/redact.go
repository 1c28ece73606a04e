package logging

import "strings"

const redacted = "[redacted]"

// secretKeys are attribute names whose values never reach log output. Group
// prefixes are ignored, so "request.authorization" matches too.
var secretKeys = map[string]bool{
	"password":      true,
	"authorization": true,
	"api_key":       true,
	"token":         true,
	"csrf_token":    true,
}

func isSecretKey(key string) bool {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	return secretKeys[strings.ToLower(key)]
}
