package canonical

import (
	"encoding/base64"
	"net/url"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// ErrMalformedSlug marks a slug that cannot be decoded. Route handlers treat
// it as "not found", never as a server fault.
var ErrMalformedSlug = eris.New("canonical: malformed slug")

// EncodeSlug renders a key as a URL-path-safe opaque token:
// base64url over the UTF-8 wire format, then percent-escaped.
func EncodeSlug(k Key) string {
	b64 := base64.URLEncoding.EncodeToString([]byte(k.String()))
	return url.PathEscape(b64)
}

// DecodeSlug inverts EncodeSlug. It fails with ErrMalformedSlug when the input
// is not valid percent-encoding, not valid base64url, or does not decode to
// UTF-8. No further validation happens at this layer: a well-formed slug for a
// product that does not exist is the store's problem.
func DecodeSlug(slug string) (Key, error) {
	unescaped, err := url.PathUnescape(slug)
	if err != nil {
		return Key{}, eris.Wrapf(ErrMalformedSlug, "percent decode: %v", err)
	}

	raw, err := base64.URLEncoding.DecodeString(unescaped)
	if err != nil {
		return Key{}, eris.Wrapf(ErrMalformedSlug, "base64 decode: %v", err)
	}

	if !utf8.Valid(raw) {
		return Key{}, eris.Wrap(ErrMalformedSlug, "not valid UTF-8")
	}

	return ParseKey(string(raw)), nil
}
