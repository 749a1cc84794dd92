package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const redacted = "[REDACTED]"

var secretKeyParts = []string{"token", "authorization", "password", "secret", "credentials", "api_key"}

// Participant names are personal data. They stay correlatable across lines
// without being readable.
var hashedKeyParts = []string{"participant_name", "full_name"}

type scrubber struct {
	salt string
}

// apply is safe on a nil receiver, which passes pairs through untouched.
func (s *scrubber) apply(kv []interface{}) []interface{} {
	if s == nil || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key := strings.ToLower(strings.TrimSpace(stringify(out[i])))
		switch {
		case key == "":
		case containsAny(key, secretKeyParts):
			out[i+1] = redacted
		case containsAny(key, hashedKeyParts):
			out[i+1] = s.hash(out[i+1])
		}
	}
	return out
}

func (s *scrubber) hash(v interface{}) string {
	raw := stringify(v)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func containsAny(key string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
