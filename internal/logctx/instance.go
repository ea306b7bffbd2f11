package logctx

import (
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// InstanceID identifies this process in logs: host, pid and a short random suffix.
func InstanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}

	suffix, _, _ := strings.Cut(uuid.NewString(), "-")

	return host + "-" + strconv.Itoa(os.Getpid()) + "-" + suffix
}
