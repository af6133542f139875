// Package integration builds the memoria binary, runs it against a scratch
// store file, and exposes helpers for driving it over HTTP.
package integration

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	integrationPort = "18080"
	healthPath      = "/health"

	// Credentials the test server is started with.
	Username = "integration"
	Password = "s3cret-pass"
)

// StartApp builds the binary, starts "memoria serve" with a fresh store in a
// temp dir, and waits for /health. The returned cleanup stops the process and
// removes the binary and store.
func StartApp() (baseURL string, cleanup func(), err error) {
	repoRoot, err := findRepoRoot()
	if err != nil {
		return "", nil, fmt.Errorf("find repo root: %w", err)
	}

	workDir, err := os.MkdirTemp("", "memoria-integration-*")
	if err != nil {
		return "", nil, fmt.Errorf("temp dir: %w", err)
	}

	binaryName := "memoria_integration_test"
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}
	binaryPath := filepath.Join(workDir, binaryName)

	build := exec.Command("go", "build", "-o", binaryPath, "./cmd/memoria")
	build.Dir = repoRoot
	build.Env = append(os.Environ(), "GOOS="+runtime.GOOS, "GOARCH="+runtime.GOARCH)
	if out, buildErr := build.CombinedOutput(); buildErr != nil {
		_ = os.RemoveAll(workDir)
		return "", nil, fmt.Errorf("build binary: %w\n%s", buildErr, out)
	}

	cmd := exec.Command(binaryPath, "serve")
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"MEMORIA_HOST=127.0.0.1",
		"MEMORIA_PORT="+integrationPort,
		"MEMORIA_STORE_PATH="+filepath.Join(workDir, "memory.json"),
		"MEMORIA_AUTH_USERNAME="+Username,
		"MEMORIA_AUTH_PASSWORD="+Password,
		"MEMORIA_CREDENTIALS=",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(workDir)
		return "", nil, fmt.Errorf("start app: %w", err)
	}

	baseURL = "http://127.0.0.1:" + integrationPort
	cleanup = func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		_ = os.RemoveAll(workDir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := waitForHealth(ctx, baseURL); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("wait for health: %w", err)
	}

	return baseURL, cleanup, nil
}

// AuthHeader returns the Authorization value for the test credentials.
func AuthHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(Username+":"+Password))
}

func findRepoRoot() (string, error) {
	if root := os.Getenv("INTEGRATION_REPO_ROOT"); root != "" {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root, nil
		}
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	startDir := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found from %s", startDir)
		}
		dir = parent
	}
}

func waitForHealth(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+healthPath, nil)
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// IsRunning returns true if a server responds on /health at baseURL.
func IsRunning(baseURL string) bool {
	resp, err := http.Get(strings.TrimSuffix(baseURL, "/") + healthPath)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
