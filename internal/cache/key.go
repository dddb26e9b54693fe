package cache

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Key derives a deterministic cache key for one logical provider request.
//
// params are serialized as JSON (map keys sorted, struct fields in
// declaration order) and digested, so identical requests collapse to one
// slot. Slices keep their order: a batch and its reordering are different
// requests.
func Key(provider, method string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", params))
	}
	return fmt.Sprintf("%s:%s:%016x", provider, method, xxhash.Sum64(data))
}
