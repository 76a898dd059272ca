package pager_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/dlog/internal/pager"
)

func TestCommand(t *testing.T) {
	t.Setenv("PAGER", "")
	assert.Equal(t, "less -R", pager.Command(""))
	assert.Equal(t, "", pager.Command(pager.Disabled))
	assert.Equal(t, "more", pager.Command(" more "))

	t.Setenv("PAGER", "most")
	assert.Equal(t, "most", pager.Command(""))
	assert.Equal(t, "bat --plain", pager.Command("bat --plain"))
}

func TestOpen_NotATerminal(t *testing.T) {
	var buf bytes.Buffer
	p, err := pager.Open(&buf, "less -R")
	require.NoError(t, err)
	assert.False(t, p.Paging())

	_, err = fmt.Fprint(p, "hello")
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.Equal(t, "hello", buf.String())
}
