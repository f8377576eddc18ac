package cate

import (
	"fmt"
	"net/url"
	"strings"
)

const upperhex = "0123456789ABCDEF"

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isAllowedURLByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	// unreserved and reserved characters of RFC 3986
	return strings.IndexByte("-._~:/?#[]@!$&'()*+,;=", c) >= 0
}

// escapeUnsafe percent-encodes every byte that may not appear literally in a
// url, a '%' that does not start an escape sequence is encoded too.
func escapeUnsafe(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			out.WriteByte(c)
			continue
		}
		if c != '%' && isAllowedURLByte(c) {
			out.WriteByte(c)
			continue
		}
		out.WriteByte('%')
		out.WriteByte(upperhex[c>>4])
		out.WriteByte(upperhex[c&15])
	}
	return out.String()
}

var stripControl = strings.NewReplacer("\t", "", "\n", "", "\r", "")

// Resolve turns a link found in a page into an absolute, fetchable url.
// Relative links are joined against `base`, dot segments are resolved and the
// query is kept. The fragment is dropped since it never changes what is
// fetched.
func Resolve(candidate string, base *url.URL) (*url.URL, error) {
	cleaned := stripControl.Replace(strings.TrimSpace(candidate))
	if cleaned == "" {
		return nil, &MalformedURLError{Candidate: candidate, Err: fmt.Errorf("empty link")}
	}

	ref, err := url.Parse(escapeUnsafe(cleaned))
	if err != nil {
		return nil, &MalformedURLError{Candidate: candidate, Err: err}
	}

	resolved := ref
	if !ref.IsAbs() {
		if base == nil {
			return nil, &MalformedURLError{Candidate: candidate, Err: fmt.Errorf("relative link without a base")}
		}
		resolved = base.ResolveReference(ref)
	}

	scheme := strings.ToLower(resolved.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, &MalformedURLError{Candidate: candidate, Err: fmt.Errorf("unsupported scheme '%s'", resolved.Scheme)}
	}
	if resolved.Host == "" {
		return nil, &MalformedURLError{Candidate: candidate, Err: fmt.Errorf("missing host")}
	}

	resolved.Scheme = scheme
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved, nil
}

// MustResolve is Resolve for urls known at compile time.
func MustResolve(candidate string) *url.URL {
	u, err := Resolve(candidate, nil)
	if err != nil {
		panic(err)
	}
	return u
}
