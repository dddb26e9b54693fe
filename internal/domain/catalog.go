package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// IPFSGateway resolves content-addressed image references.
const IPFSGateway = "https://ipfs.io/ipfs/"

// CatalogEntry is a static token record from the local catalog.
// Loaded once per process and never mutated.
type CatalogEntry struct {
	Address         string      `json:"address"` // primary key, lowercase hex
	Name            string      `json:"name,omitempty"`
	Symbol          string      `json:"symbol,omitempty"`
	ImageURL        string      `json:"image_url,omitempty"`
	ImageCID        string      `json:"image_cid,omitempty"`
	Description     string      `json:"description,omitempty"`
	Web             string      `json:"web,omitempty"`
	Telegram        string      `json:"telegram,omitempty"`
	Twitter         string      `json:"twitter,omitempty"`
	CreatorAddress  string      `json:"creator_address,omitempty"`
	PairAddressHint string      `json:"pair_address,omitempty"` // known trading pair (optional)
	CreatedAt       UnixSeconds `json:"createdAt,omitempty"`    // launch time, 0 if unknown
}

// ImageRef returns the image URL, or the IPFS CID when no URL is set.
func (e CatalogEntry) ImageRef() string {
	if e.ImageURL != "" {
		return e.ImageURL
	}
	return e.ImageCID
}

// LogoURL resolves the image reference to a fetchable URL.
func (e CatalogEntry) LogoURL() string {
	if e.ImageURL != "" {
		return e.ImageURL
	}
	if e.ImageCID != "" {
		return IPFSGateway + e.ImageCID
	}
	return ""
}

// IsListable reports whether the entry has the identity needed for a listing row.
func (e CatalogEntry) IsListable() bool {
	return e.Address != "" && e.Symbol != "" && e.Name != ""
}

// UnixSeconds is a timestamp in seconds that decodes from a JSON number or numeric string.
type UnixSeconds int64

// UnmarshalJSON accepts 1700000000, "1700000000", "" and null.
func (u *UnixSeconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*u = 0
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*u = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("unix seconds %q: %w", s, err)
	}
	*u = UnixSeconds(f)
	return nil
}

// Millis returns the timestamp in milliseconds.
func (u UnixSeconds) Millis() int64 {
	return int64(u) * 1000
}
