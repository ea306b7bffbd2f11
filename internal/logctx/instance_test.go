package logctx

import (
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceID(t *testing.T) {
	a, b := InstanceID(), InstanceID()

	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "-"+strconv.Itoa(os.Getpid())+"-")

	parts := strings.Split(a, "-")
	assert.Len(t, parts[len(parts)-1], 8)
}
