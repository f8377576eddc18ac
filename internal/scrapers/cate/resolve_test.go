package cate

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		candidate string
		base      string
		expected  string
	}{
		{"../x/y.pdf", "https://host/a/b/", "https://host/a/x/y.pdf"},
		{"notes 1.pdf", "https://host/a/", "https://host/a/notes%201.pdf"},
		{"100%.pdf", "https://host/a/", "https://host/a/100%25.pdf"},
		{"slides%201.pdf", "https://host/a/", "https://host/a/slides%201.pdf"},
		{"#top", "https://host/a/index.html", "https://host/a/index.html"},
		{"lecture.pdf#page=2", "https://host/a/", "https://host/a/lecture.pdf"},
		{"  /a\tb\n.pdf  ", "https://host/x/", "https://host/ab.pdf"},
		{
			"showfile.cgi?key=2014:1:44:c2:DATA:lmc13",
			"https://cate.doc.ic.ac.uk/",
			"https://cate.doc.ic.ac.uk/showfile.cgi?key=2014:1:44:c2:DATA:lmc13",
		},
		{"HTTPS://other.org/file.zip", "https://host/", "https://other.org/file.zip"},
		{"//cdn.host/lib.tar.gz", "http://host/", "http://cdn.host/lib.tar.gz"},
	}

	for _, test := range cases {
		t.Run(test.candidate, func(t *testing.T) {
			base, err := url.Parse(test.base)
			require.NoError(t, err)

			resolved, err := Resolve(test.candidate, base)
			require.NoError(t, err)
			require.Equal(t, test.expected, resolved.String())
		})
	}
}

func TestResolveMalformed(t *testing.T) {
	base := MustResolve("https://host/a/")

	cases := []string{
		"",
		"   ",
		"mailto:someone@host",
		"javascript:void(0)",
		"ftp://host/file.pdf",
		"http://",
	}
	for _, candidate := range cases {
		_, err := Resolve(candidate, base)
		require.Error(t, err, candidate)

		var malformed *MalformedURLError
		require.ErrorAs(t, err, &malformed, candidate)
		require.Equal(t, candidate, malformed.Candidate)
	}

	_, err := Resolve("relative.pdf", nil)
	require.Error(t, err)
}
