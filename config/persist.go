package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/cfw/errors"
)

// backupCount is the number of rotated backups kept next to a saved config
// (cfw.toml.back1 is the most recent).
const backupCount = 3

// Save writes the configuration as TOML, rotating backups of an existing file.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	if err := createBackup(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write config %s", path)
	}
	return nil
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

func backupPath(path string, n int) string {
	return fmt.Sprintf("%s.back%d", path, n)
}

// createBackup rotates path.back1 .. path.backN and copies path to path.back1.
func createBackup(path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %s for backup", path)
	}

	if err := os.Remove(backupPath(path, backupCount)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete oldest backup of %s", path)
	}
	for n := backupCount - 1; n >= 1; n-- {
		from := backupPath(path, n)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, backupPath(path, n+1)); err != nil {
			return errors.Wrapf(err, "failed to rotate %s", from)
		}
	}

	if err := os.WriteFile(backupPath(path, 1), content, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to create backup of %s", path)
	}
	return nil
}
