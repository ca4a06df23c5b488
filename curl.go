package stele

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strconv"
	"time"
)

// curlRunner shells out to the curl binary. Some CDN edges reject
// Go's TLS fingerprint while accepting curl's, so the subprocess is
// kept as the last resort for both pages and images. All process
// handling stays behind this one type.
type curlRunner struct {
	path      string
	userAgent string
	timeout   time.Duration
}

// fetch runs curl and returns the response body captured from stdout.
func (c *curlRunner) fetch(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	binary, err := exec.LookPath(c.path)
	if err != nil {
		return nil, fmt.Errorf("curl is not available: %w", err)
	}

	args := []string{"-s", "-L", "--fail", "-A", c.userAgent}
	if c.timeout > 0 {
		args = append(args, "--max-time", strconv.Itoa(int(c.timeout.Seconds())))
	}

	for key, values := range headers {
		for _, value := range values {
			args = append(args, "-H", key+": "+value)
		}
	}

	args = append(args, url)

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("curl %s: %w", url, err)
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("curl %s: empty response", url)
	}

	return stdout.Bytes(), nil
}
