package export

import (
	"fmt"
	"strings"
)

// BackgroundPolicy controls how much page decoration is exported. Values are
// ordered: BackgroundNone < BackgroundUnruled < BackgroundAll. Ruling is
// drawn only above BackgroundUnruled, so new values must keep the order.
type BackgroundPolicy int

const (
	BackgroundNone BackgroundPolicy = iota
	BackgroundUnruled
	BackgroundAll
)

func (p BackgroundPolicy) String() string {
	switch p {
	case BackgroundNone:
		return "none"
	case BackgroundUnruled:
		return "unruled"
	case BackgroundAll:
		return "all"
	}
	return fmt.Sprintf("background(%d)", int(p))
}

// Transparent reports whether the page fill is omitted.
func (p BackgroundPolicy) Transparent() bool {
	return p == BackgroundNone
}

// SuppressRuling reports whether ruling and grid decoration is omitted.
func (p BackgroundPolicy) SuppressRuling() bool {
	return p <= BackgroundUnruled
}

// ParseBackgroundPolicy reads "none", "unruled" or "all".
func ParseBackgroundPolicy(s string) (BackgroundPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return BackgroundAll, nil
	case "unruled":
		return BackgroundUnruled, nil
	case "none":
		return BackgroundNone, nil
	}
	return BackgroundAll, NewError(KindValidation, fmt.Sprintf("unknown background policy %q", s), nil)
}
