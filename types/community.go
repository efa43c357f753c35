package types

import (
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

const geohashLen = 5

// CommunityIdentifier is a geohash cell plus a digest of the community's
// bootstrappers and locations.
type CommunityIdentifier struct {
	Geohash [5]byte
	Digest  [4]byte
}

// String renders the geohash followed by the base58 digest, e.g. "gbsuv7YXq9G".
func (c CommunityIdentifier) String() string {
	return string(c.Geohash[:]) + base58.Encode(c.Digest[:])
}

func ParseCommunityIdentifier(s string) (CommunityIdentifier, error) {
	var cid CommunityIdentifier
	if len(s) <= geohashLen {
		return cid, fmt.Errorf("community identifier %q too short", s)
	}
	digest, err := base58.Decode(s[geohashLen:])
	if err != nil {
		return cid, fmt.Errorf("community identifier %q: %w", s, err)
	}
	if len(digest) != len(cid.Digest) {
		return cid, fmt.Errorf("community identifier %q: digest must be %d bytes", s, len(cid.Digest))
	}
	copy(cid.Geohash[:], s[:geohashLen])
	copy(cid.Digest[:], digest)
	return cid, nil
}

func (c CommunityIdentifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *CommunityIdentifier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	cid, err := ParseCommunityIdentifier(s)
	if err != nil {
		return err
	}
	*c = cid
	return nil
}

// Location is a meetup place.
type Location struct {
	Lat Degree
	Lon Degree
}
