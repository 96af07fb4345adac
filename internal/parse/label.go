package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var labelRe = regexp.MustCompile(`^([A-Za-z]{1,4})\s*[-_ ]?\s*(\d{1,4})$`)

// SlotLabel holds the structured data parsed from a slot label such as "A-01".
type SlotLabel struct {
	Zone   string
	Number int
}

// ID returns the slot identifier derived from the label, e.g. "A01".
func (l SlotLabel) ID() string {
	return fmt.Sprintf("%s%02d", l.Zone, l.Number)
}

// String returns the canonical human-readable label, e.g. "A-01".
func (l SlotLabel) String() string {
	return fmt.Sprintf("%s-%02d", l.Zone, l.Number)
}

// ParseSlotLabel extracts the zone code and slot number from a raw label.
// Zones are upper-cased; the number must be positive.
func ParseSlotLabel(raw string) (SlotLabel, error) {
	m := labelRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return SlotLabel{}, fmt.Errorf("unable to parse slot label: %q", raw)
	}

	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		return SlotLabel{}, fmt.Errorf("invalid slot number in label %q", raw)
	}

	return SlotLabel{Zone: strings.ToUpper(m[1]), Number: n}, nil
}
