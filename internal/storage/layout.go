/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gocardlayout/internal/domain"
)

// BackupsDirName is the folder next to a layout file that holds its backups.
const BackupsDirName = "backups"

// OpenLayout reads and validates a layout file. If the file is missing or
// does not parse, the latest backup is used instead.
func OpenLayout(path string) (domain.Layout, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		l, berr := openFromLatestBackup(path)
		if berr != nil {
			return domain.Layout{}, fmt.Errorf("open layout: %w; backup attempt: %v", err, berr)
		}
		return l, nil
	}
	l, perr := domain.ParseLayout(b)
	if perr != nil {
		l, berr := openFromLatestBackup(path)
		if berr != nil {
			return domain.Layout{}, fmt.Errorf("parse layout: %w; backup attempt: %v", perr, berr)
		}
		return l, nil
	}
	return l, nil
}

// SaveLayout writes layout to path with transactional semantics and a
// timestamped backup of the previous file (if present).
func SaveLayout(path string, layout domain.Layout) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("layout path is required")
	}
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create layout dir: %w", err)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		if cerr := copyFile(path, backupPath(path, time.Now())); cerr != nil {
			return fmt.Errorf("backup current layout: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	base := filepath.Base(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp layout: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace layout: %w", rerr)
	}
	return nil
}

func backupPath(path string, at time.Time) string {
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(path), at.Format("20060102-150405"))
	return filepath.Join(filepath.Dir(path), BackupsDirName, name)
}

// Backups lists the backups of the layout at path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func openFromLatestBackup(path string) (domain.Layout, error) {
	candidates, err := Backups(path)
	if err != nil {
		return domain.Layout{}, err
	}
	if len(candidates) == 0 {
		return domain.Layout{}, errors.New("no backups found")
	}
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return domain.Layout{}, fmt.Errorf("read latest backup: %w", err)
	}
	l, err := domain.ParseLayout(b)
	if err != nil {
		return domain.Layout{}, fmt.Errorf("parse latest backup: %w", err)
	}
	return l, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
