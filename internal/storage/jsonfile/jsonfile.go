// Package jsonfile управляет каталогом данных и безопасным чтением/записью
// JSON-файлов хранилища.
//
// Запись всегда атомарна: данные пишутся во временный файл в том же каталоге
// и затем переименовываются поверх целевого. Прерванная запись никогда не
// оставляет наполовину записанный файл — на диске остаётся прежняя версия.
package jsonfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Load читает файл хранилища. Отсутствующий или пустой файл инициализируется
// пустым массивом и не считается ошибкой.
func Load(path string) ([]byte, error) {
	const op = "jsonfile.Load"

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data = nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		empty := []byte("[]")
		if err := WriteAtomic(path, empty); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return empty, nil
	}
	return data, nil
}

// WriteAtomic атомарно записывает данные: временный файл в каталоге цели,
// fsync, затем rename поверх целевого файла.
func WriteAtomic(path string, data []byte) error {
	const op = "jsonfile.WriteAtomic"

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
