package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// WriteJson writes a pretty-formatted JSON document to a file, creating parent
// directories if required. The write is atomic: the document is written to a
// temporary file in the same directory and renamed over the target.
func WriteJson(file string, obj interface{}) error {
	configDir, configFileName, err := prepareConfigFileDir(file)
	if err != nil {
		return err
	}

	bs, err := json.MarshalIndent(obj, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	return writeBytes(file, configDir, configFileName, bs)
}

func writeBytes(file, configDir, configFileName string, bs []byte) error {
	tempFile, err := os.CreateTemp(configDir, ".*"+configFileName)
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	tempFileName := tempFile.Name()

	if err := os.Chmod(tempFileName, 0600); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempFileName)
		return fmt.Errorf("set temp file permissions: %w", err)
	}

	if _, err = tempFile.Write(bs); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write: %w", err)
	}

	if err = tempFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tempFileName, err)
	}

	defer func() {
		if _, err := os.Stat(tempFileName); err == nil {
			_ = os.Remove(tempFileName)
		}
	}()

	if err = os.Rename(tempFileName, file); err != nil {
		return fmt.Errorf("move %s to %s: %w", tempFileName, file, err)
	}

	return nil
}

// ReadJson reads a JSON file and unmarshals it into the provided value.
func ReadJson(file string, res interface{}) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	bs, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	return json.Unmarshal(bs, res)
}

// RemoveFile removes the given file if it exists.
func RemoveFile(file string) error {
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := os.Remove(file); err != nil {
		return fmt.Errorf("failed to remove file %s: %w", file, err)
	}

	return nil
}

// EnsureDir creates dir (and parents) with restricted permissions if missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

func prepareConfigFileDir(file string) (string, string, error) {
	configDir, configFileName := filepath.Split(file)
	if configDir == "" {
		return filepath.Dir(file), configFileName, nil
	}

	err := os.MkdirAll(configDir, 0750)
	if err != nil {
		log.Errorf("failed creating config directory %s: %v", configDir, err)
		return "", "", err
	}

	return configDir, configFileName, err
}
