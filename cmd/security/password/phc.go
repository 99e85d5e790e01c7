package password

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const argon2Version = 19 // 0x13

var phcB64 = base64.RawStdEncoding

// phc is a decoded Argon2id hash string.
type phc struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (h phc) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		h.params.MemoryKiB,
		h.params.Iterations,
		h.params.Parallelism,
		phcB64.EncodeToString(h.salt),
		phcB64.EncodeToString(h.key),
	)
}

// parsePHC strictly decodes $argon2id$v=19$m=..,t=..,p=..$salt$hash.
func parsePHC(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return phc{}, ErrInvalidHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2Version) {
		return phc{}, ErrInvalidHash
	}

	mem, it, par, ok := parseCost(parts[3])
	if !ok {
		return phc{}, ErrInvalidHash
	}

	salt, err := phcB64.DecodeString(parts[4])
	if err != nil {
		return phc{}, ErrInvalidHash
	}
	key, err := phcB64.DecodeString(parts[5])
	if err != nil {
		return phc{}, ErrInvalidHash
	}

	return phc{
		params: Argon2idParams{
			MemoryKiB:   mem,
			Iterations:  it,
			Parallelism: par,
			SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by the encoded string length.
			KeyLength:   uint32(len(key)),  // #nosec G115 -- bounded by the encoded string length.
		},
		salt: salt,
		key:  key,
	}, nil
}

// parseCost reads "m=<kib>,t=<iter>,p=<par>" in exactly that order.
func parseCost(s string) (mem, it uint32, par uint8, ok bool) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return 0, 0, 0, false
	}
	vals := make([]uint64, 3)
	for i, name := range []string{"m=", "t=", "p="} {
		v, found := strings.CutPrefix(fields[i], name)
		if !found {
			return 0, 0, 0, false
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return 0, 0, 0, false
		}
		vals[i] = n
	}
	if vals[2] > 255 {
		return 0, 0, 0, false
	}
	return uint32(vals[0]), uint32(vals[1]), uint8(vals[2]), true // #nosec G115 -- parsed with bitSize 32, p checked above.
}

// withinBoundsOf accepts hashes made with older or smaller settings but
// rejects anything more than twice as expensive as limits.
func (p Argon2idParams) withinBoundsOf(limits Argon2idParams) bool {
	switch {
	case p.MemoryKiB > limits.MemoryKiB*2,
		p.Iterations > limits.Iterations*2,
		p.Parallelism > limits.Parallelism*2:
		return false
	case p.SaltLength < 8 || p.SaltLength > 64:
		return false
	case p.KeyLength < 16 || p.KeyLength > 128:
		return false
	}
	return true
}
