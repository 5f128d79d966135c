package cli

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadLines(t *testing.T) {
	t.Parallel()
	var got []string
	ReadLines(bufio.NewScanner(strings.NewReader("b\n\n  x \r\nshow")), func(line string) { got = append(got, line) })
	assert.Equal(t, []string{"b", "x", "show"}, got)
}
