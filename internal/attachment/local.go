package attachment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStore keeps attachments on the local filesystem, the default driver
// for development and single-node deployments.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("attachment root directory required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create attachment root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(_ context.Context, name, _ string, r io.Reader) (Ref, error) {
	key := objectKey(name, time.Now().UTC())
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return Ref(key), nil
}

func (s *LocalStore) Open(_ context.Context, ref Ref) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(string(ref))))
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	return f, nil
}

// objectKey builds a year/month-sharded key with a uuid prefix so uploads
// with the same filename never collide.
func objectKey(name string, now time.Time) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "attachment"
	}
	return fmt.Sprintf("%04d/%02d/%s-%s", now.Year(), now.Month(), uuid.NewString(), base)
}
