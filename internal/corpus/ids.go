package corpus

import "github.com/google/uuid"

// newOpaqueID returns a 128-bit opaque hex id, matching the source's
// uuid.uuid4().hex convention (32 lowercase hex characters, no dashes).
func newOpaqueID() string {
	u := uuid.New()
	return hexNoDashes(u)
}

func hexNoDashes(u uuid.UUID) string {
	const hexDigits = "0123456789abcdef"
	b := u[:]
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}
