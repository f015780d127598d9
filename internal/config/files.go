package config

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ResolveFiles enumerates the wallpaper candidates below path, keeping
// only files whose guessed media type is an image. A missing path or a
// non-directory path is a ConfigError.
func ResolveFiles(path string, recursive bool) ([]string, error) {
	path = expandPath(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, configErrorf("given path %s does not exist", path)
	}
	if !info.IsDir() {
		return nil, configErrorf("given path is not a directory: %s", path)
	}

	var files []string
	walkFn := func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !recursive && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		if IsImageMime(p) {
			files = append(files, p)
		}
		return nil
	}

	if err := filepath.Walk(path, walkFn); err != nil {
		return nil, &ConfigError{Reason: "failed to walk directory " + path, Err: err}
	}

	return files, nil
}

// IsImageMime reports whether the path's extension maps to an image/*
// media type.
func IsImageMime(path string) bool {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	return strings.HasPrefix(mt, "image/")
}

// VerifyImage reports whether the file exists, is not a directory and
// carries a decodable image header. Decoders for jpeg, png, gif, webp,
// bmp and tiff are registered.
func VerifyImage(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if !IsImageMime(path) {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err == nil
}
