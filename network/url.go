package network

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// AboutBlank is the empty document every new surface starts from.
const AboutBlank = "about:blank"

var hierarchicalScheme = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// opaqueSchemes are schemes that are written without "//".
var opaqueSchemes = []string{"about:", "data:", "mailto:", "javascript:"}

// HasScheme reports whether addr already starts with a scheme such as
// "https://" or "about:".
func HasScheme(addr string) bool {
	if hierarchicalScheme.MatchString(addr) {
		return true
	}
	lower := strings.ToLower(addr)
	for _, s := range opaqueSchemes {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}

// Fixup trims addr and prefixes "http://" when it has no scheme.
func Fixup(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" || HasScheme(addr) {
		return addr
	}
	return "http://" + addr
}

// Resolve resolves ref against base. Unparseable references resolve to "".
func Resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil || u.IsAbs() {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

// DataURL is a decoded data: URL.
type DataURL struct {
	MediaType string
	Charset   string
	Data      []byte
}

// ErrMalformedDataURL is returned for data: URLs without a comma separator.
var ErrMalformedDataURL = errors.New("malformed data URL")

// ParseDataURL decodes a data: URL.
func ParseDataURL(raw string) (*DataURL, error) {
	if !strings.HasPrefix(strings.ToLower(raw), "data:") {
		return nil, fmt.Errorf("not a data URL: %q", raw)
	}
	rest := raw[len("data:"):]

	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, ErrMalformedDataURL
	}
	meta, payload := rest[:comma], rest[comma+1:]

	d := &DataURL{MediaType: "text/plain", Charset: "us-ascii"}
	isBase64 := false
	for i, part := range strings.Split(meta, ";") {
		part = strings.TrimSpace(part)
		switch {
		case i == 0 && part != "":
			d.MediaType = strings.ToLower(part)
		case strings.EqualFold(part, "base64"):
			isBase64 = true
		case strings.HasPrefix(strings.ToLower(part), "charset="):
			d.Charset = strings.ToLower(part[len("charset="):])
		}
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to decode base64 data URL: %w", err)
			}
		}
		d.Data = data
		return d, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to unescape data URL: %w", err)
	}
	d.Data = []byte(decoded)
	return d, nil
}
