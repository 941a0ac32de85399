package utils

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// javaOutput runs the local JVM and returns what it printed. Replaced in tests.
var javaOutput = func(ctx context.Context) ([]byte, error) {
	java := "java"
	if home := os.Getenv("JAVA_HOME"); home != "" {
		java = filepath.Join(home, "bin", "java")
	}
	return exec.CommandContext(ctx, java, "-XshowSettings:properties", "-version").CombinedOutput()
}

// LocalJavaVersion returns java.version of the local JVM, or the Go runtime
// version when no JVM can be queried.
func LocalJavaVersion() string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := javaOutput(ctx)
	if err == nil {
		if v := parseJavaVersion(out); v != "" {
			log.Debug().Str("op", "utils/java-version").Msgf("Detected local java version %s", v)
			return v
		}
	}
	log.Warn().Str("op", "utils/java-version").Err(err).Msgf("Could not detect local java version, using %s", runtime.Version())
	return runtime.Version()
}

func parseJavaVersion(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, found := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if found && strings.TrimSpace(key) == "java.version" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
