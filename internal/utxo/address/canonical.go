// Package address turns the address set of an input or output into a single label.
package address

import (
	"sort"
	"strings"
)

// Separator joins the members of a multi-address label. It is not escaped.
const Separator = "-"

// Canonicalize returns the label of an address set: "" for no address, the address itself
// for one, and the addresses sorted byte-wise and joined with Separator otherwise.
// The argument is never reordered.
func Canonicalize(addresses []string) string {
	switch len(addresses) {
	case 0:
		return ""
	case 1:
		return addresses[0]
	}

	sorted := make([]string, len(addresses))
	copy(sorted, addresses)
	sort.Strings(sorted)
	return strings.Join(sorted, Separator)
}
