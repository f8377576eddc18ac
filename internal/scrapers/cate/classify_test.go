package cate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		contentType string
		url         string
		expected    Kind
	}{
		{"application/pdf", "https://host/download", KIND_DOCUMENT},
		{"text/html; charset=utf-8", "https://host/notes.cgi?key=2014:275:c2:lmc13", KIND_INDEX},
		{"TEXT/HTML", "https://host/", KIND_INDEX},
		{"video/mp4", "https://host/lecture1.mp4", KIND_UNSUPPORTED},
		{"audio/mpeg", "https://host/podcast", KIND_UNSUPPORTED},
		{"text/plain", "https://host/README", KIND_DOCUMENT},
		{"application/vnd.openxmlformats-officedocument.presentationml.presentation", "https://host/x", KIND_DOCUMENT},
		{"", "https://host/x/lecture.pdf", KIND_DOCUMENT},
		{"", "https://host/showfile.cgi?key=2014:1:40:c2:SPECS:lmc13", KIND_DOCUMENT},
		{"", "https://piazza.com/class_profile/get_resource/hz5/abc", KIND_DOCUMENT},
		{"", "https://host/course/", KIND_INDEX},
		{"", "https://host/course/index.php", KIND_INDEX},
		{"application/octet-stream", "https://host/x/download", KIND_DOCUMENT},
		{"application/octet-stream", "https://host/x/tut1.hs", KIND_DOCUMENT},
	}

	for _, test := range cases {
		t.Run(test.contentType+" "+test.url, func(t *testing.T) {
			require.Equal(t, test.expected, Classify(test.contentType, MustResolve(test.url)))
		})
	}
}

func TestMediaType(t *testing.T) {
	require.Equal(t, "", MediaType(""))
	require.Equal(t, "text/html", MediaType("text/html; charset=ISO-8859-1"))
	require.Equal(t, "application/pdf", MediaType("Application/PDF"))
	require.Equal(t, "text/html", MediaType("text/html; charset"))
}

func TestGuessKind(t *testing.T) {
	kind, ok := GuessKind(MustResolve("https://host/a/b.zip"))
	require.True(t, ok)
	require.Equal(t, KIND_DOCUMENT, kind)

	kind, ok = GuessKind(MustResolve("https://host/a/page.htm"))
	require.True(t, ok)
	require.Equal(t, KIND_INDEX, kind)

	_, ok = GuessKind(MustResolve("https://host/a/"))
	require.False(t, ok)
}
