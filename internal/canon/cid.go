package canon

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256 returns the CIDv1 string (raw codec, sha2-256 multihash)
// for data. Master receipts carry this as a portable content address
// alongside the plain content hash.
func CIDv1RawSHA256(data []byte) (string, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("multihash: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mh).String(), nil
}
