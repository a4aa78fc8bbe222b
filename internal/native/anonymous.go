package native

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const anonymousPrefix = "Anonymous_"

var anonymousPattern = regexp.MustCompile(`^Anonymous_((\w+_){4})(\w+)$`)

// GenerateAnonymousName returns a fresh name for an unnamed struct, union
// or enum. Names embed a random uuid so they never collide across
// translation units.
func GenerateAnonymousName() string {
	return anonymousPrefix + strings.ReplaceAll(uuid.NewString(), "-", "_")
}

// IsAnonymousName reports whether name was produced by GenerateAnonymousName
func IsAnonymousName(name string) bool {
	return anonymousPattern.MatchString(name)
}
