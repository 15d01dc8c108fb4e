package importer

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindAvailableJobs Kind = "available_jobs"
	KindActiveBids    Kind = "active_bids"
)

var Kinds = []Kind{KindAvailableJobs, KindActiveBids}

// ParseKind accepts the storage name ("active_bids") or the URL slug
// ("active-bids") in any case.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

func (k Kind) Valid() bool {
	return k == KindAvailableJobs || k == KindActiveBids
}

func (k Kind) Slug() string {
	return strings.ReplaceAll(string(k), "_", "-")
}

func (k Kind) String() string {
	return string(k)
}
