// Tool that fetches the native libraries the local embedding backend links
// against: the ONNX Runtime shared library and the HuggingFace tokenizers
// static library.
//
// Required env: ORT_VERSION        (e.g. "1.23.2")
// Optional env: ORT_LIB_DIR        (default "./lib")
//               TOKENIZERS_VERSION (default "1.24.0")
//
// Usage: ORT_VERSION=1.23.2 go run ./tools/download-ort
package main

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// artifact is one native library to fetch: a release archive URL and the
// single file to extract from it.
type artifact struct {
	url      string
	filename string
}

func main() {
	ortVersion := os.Getenv("ORT_VERSION")
	if ortVersion == "" {
		fmt.Fprintln(os.Stderr, "ORT_VERSION env var is required")
		os.Exit(1)
	}

	tokVersion := os.Getenv("TOKENIZERS_VERSION")
	if tokVersion == "" {
		tokVersion = "1.24.0"
	}

	destDir := os.Getenv("ORT_LIB_DIR")
	if destDir == "" {
		destDir = "./lib"
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create directory: %v\n", err)
		os.Exit(1)
	}

	ort, err := ortArtifact(ortVersion)
	if err == nil {
		var tok artifact
		tok, err = tokenizersArtifact(tokVersion)
		if err == nil {
			err = install(destDir, ort, tok)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "download failed: %v\n", err)
		os.Exit(1)
	}
}

func install(destDir string, artifacts ...artifact) error {
	for _, a := range artifacts {
		destPath := filepath.Join(destDir, a.filename)
		if _, statErr := os.Stat(destPath); statErr == nil {
			fmt.Printf("%s already exists, skipping\n", destPath)
			continue
		}

		fmt.Printf("Downloading %s\n", a.url)
		if err := fetchAndExtract(a.url, destDir, a.filename); err != nil {
			return err
		}
		fmt.Printf("Installed %s\n", destPath)
	}
	return nil
}

func ortArtifact(version string) (artifact, error) {
	var platform, library string
	switch runtime.GOOS + "/" + runtime.GOARCH {
	case "linux/amd64":
		platform, library = "linux-x64", "libonnxruntime.so"
	case "linux/arm64":
		platform, library = "linux-aarch64", "libonnxruntime.so"
	case "darwin/arm64":
		platform, library = "osx-arm64", "libonnxruntime.dylib"
	case "darwin/amd64":
		platform, library = "osx-x86_64", "libonnxruntime.dylib"
	default:
		return artifact{}, fmt.Errorf("no ONNX Runtime archive for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	url := fmt.Sprintf(
		"https://github.com/microsoft/onnxruntime/releases/download/v%s/onnxruntime-%s-%s.tgz",
		version, platform, version,
	)
	return artifact{url: url, filename: library}, nil
}

func tokenizersArtifact(version string) (artifact, error) {
	var platform string
	switch runtime.GOOS + "/" + runtime.GOARCH {
	case "linux/amd64":
		platform = "linux-amd64"
	case "linux/arm64":
		platform = "linux-arm64"
	case "darwin/arm64":
		platform = "darwin-arm64"
	case "darwin/amd64":
		platform = "darwin-x86_64"
	default:
		return artifact{}, fmt.Errorf("no tokenizers archive for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	url := fmt.Sprintf(
		"https://github.com/daulet/tokenizers/releases/download/v%s/libtokenizers.%s.tar.gz",
		version, platform,
	)
	return artifact{url: url, filename: "libtokenizers.a"}, nil
}

func fetchAndExtract(url, destDir, filename string) error {
	delay := 2 * time.Second
	var err error
	for attempt := 0; attempt < 4; attempt++ {
		if attempt > 0 {
			fmt.Fprintf(os.Stderr, "retry in %s: %v\n", delay, err)
			time.Sleep(delay)
			delay *= 2
		}
		if err = tryFetchAndExtract(url, destDir, filename); err == nil {
			return nil
		}
	}
	return err
}

func tryFetchAndExtract(url, destDir, filename string) error {
	resp, err := http.Get(url) //nolint:gosec
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	return extractTgz(resp.Body, destDir, filename)
}

func extractTgz(body io.Reader, destDir, filename string) error {
	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close() //nolint:errcheck

	// Also match versioned variants like libonnxruntime.1.23.2.dylib.
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}

		// Skip symlinks and directories; only the real file is wanted.
		if header.Typeflag != tar.TypeReg {
			continue
		}

		base := filepath.Base(header.Name)
		if base != filename && !strings.HasPrefix(base, nameWithoutExt+".") {
			continue
		}

		return writeFile(filepath.Join(destDir, filename), tr)
	}

	return fmt.Errorf("%s not found in archive", filename)
}

func writeFile(path string, src io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return out.Close()
}
