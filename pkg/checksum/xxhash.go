package checksum

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// SumBytes returns the hex encoded xxhash digest of data.
func SumBytes(data []byte) string {
	digest := xxhash.New()
	digest.Write(data)

	return hex.EncodeToString(digest.Sum(nil))
}
