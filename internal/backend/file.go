package backend

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// File is a named blob selected for upload.
type File struct {
	Name string
	Data []byte
}

// Size reports the file length in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// LoadFile reads path from disk. The stored name is the base name only.
func LoadFile(path string) (File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return File{}, errors.New("file path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{Name: info.Name(), Data: data}, nil
}
