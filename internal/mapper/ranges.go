package mapper

import (
	"fmt"
	"strconv"
	"strings"
)

// maxRangeSize bounds a single expanded range
const maxRangeSize = 4096

// splitName splits an interface name into its prefix and numeric suffix,
// e.g. "Ethernet12" into ("Ethernet", 12).
func splitName(name string) (string, int, error) {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) {
		return "", 0, fmt.Errorf("interface %q has no numeric suffix", name)
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil {
		return "", 0, fmt.Errorf("interface %q: %w", name, err)
	}
	return name[:i], n, nil
}

// ExpandRange expands an inclusive interface range such as
// Ethernet0..Ethernet3 into every name in between, in ascending order.
// Both ends must share a prefix and start must not exceed end.
func ExpandRange(start, end string) ([]string, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)

	startPrefix, from, err := splitName(start)
	if err != nil {
		return nil, err
	}
	endPrefix, to, err := splitName(end)
	if err != nil {
		return nil, err
	}
	if startPrefix != endPrefix {
		return nil, fmt.Errorf("range %s..%s mixes prefixes %q and %q", start, end, startPrefix, endPrefix)
	}
	if from > to {
		return nil, fmt.Errorf("range %s..%s is descending", start, end)
	}
	if to-from >= maxRangeSize {
		return nil, fmt.Errorf("range %s..%s exceeds %d members", start, end, maxRangeSize)
	}

	names := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		names = append(names, startPrefix+strconv.Itoa(n))
	}
	return names, nil
}
