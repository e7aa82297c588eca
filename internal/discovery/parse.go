package discovery

import (
	"math/big"
	"regexp"
	"strconv"

	"github.com/kavanlabs/primewatch/internal/types"
)

// basesLinePattern locates the "Bases checked" line and its following
// line of comma-separated base numbers. Its own capture group only ever
// holds the last number in the run (Go's regexp, like Rust's regex crate,
// overwrites a repeated capture group on each repetition), so the fix is
// a secondary \d+ scan over the matched segment rather than trusting the
// capture group.
var basesLinePattern = regexp.MustCompile(`(?s)Bases checked[^\n]*\n[^\n]*(?:([0-9]+),? )+`)

var digitsAnywhere = regexp.MustCompile(`[0-9]+`)

// digitSizePattern extracts the decimal digit count the service reports
// for a number, e.g. "&lt;300&gt;".
var digitSizePattern = regexp.MustCompile(`&lt;([0-9]+)&gt;`)

// entryIDLinkPattern extracts ids referenced by index.php?id=N links on a
// listing page.
var entryIDLinkPattern = regexp.MustCompile(`index\.php\?id=([0-9]+)`)

// ParseBasesChecked extracts every base number reported as already
// checked from a PRP entry page body, by locating the "Bases checked"
// segment and then re-scanning it for every run of digits.
func ParseBasesChecked(body string) ([]int, bool) {
	loc := basesLinePattern.FindString(body)
	if loc == "" {
		return nil, false
	}
	matches := digitsAnywhere.FindAllString(loc, -1)
	bases := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil || n < 0 || n > types.MaxBase {
			continue
		}
		bases = append(bases, n)
	}
	return bases, len(bases) > 0
}

// BasesLeftMask builds the 256-bit "still to check" mask: every base in
// 0..=255 except the ones reported already checked.
func BasesLeftMask(checked []int) *big.Int {
	already := make(map[int]struct{}, len(checked))
	for _, b := range checked {
		already[b] = struct{}{}
	}
	mask := new(big.Int)
	for base := 0; base <= types.MaxBase; base++ {
		if _, done := already[base]; !done {
			mask.SetBit(mask, base, 1)
		}
	}
	return mask
}

// ParseDigitSize extracts the decimal digit count the service reports for
// an entry, if present.
func ParseDigitSize(body string) (uint64, bool) {
	m := digitSizePattern.FindStringSubmatch(body)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseListingIDs extracts every distinct entry id linked from a listing
// page, in the order first seen.
func ParseListingIDs(body string) []uint64 {
	matches := entryIDLinkPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[uint64]struct{}, len(matches))
	ids := make([]uint64, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
