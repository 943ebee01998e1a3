package tracer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinks(t *testing.T) {
	body := "See [[0002]] and [[Fix login bug|the login fix]].\n" +
		"Again [[0002]], a section [[0003_setup#steps]], and [[ spaced ]].\n" +
		"Not links: [single], [[]], [[broken\nacross]]."

	require.Equal(t, []string{"0002", "Fix login bug", "0003_setup", "spaced"}, Links(body))
}

func TestLinks_None(t *testing.T) {
	require.Empty(t, Links("plain text"))
}
