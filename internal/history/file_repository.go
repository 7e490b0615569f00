package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	xerrors "SLH-Bot/internal/errors"
)

// FileRepository appends events to a JSON-lines file. It suits single
// instance deployments; ListByUser scans the whole file.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates the parent directory of path if needed.
func NewFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "历史文件路径为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "创建历史目录失败")
	}
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) Append(_ context.Context, event Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "编码历史事件失败")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "打开历史文件失败")
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入历史文件失败")
	}
	return nil
}

func (r *FileRepository) ListByUser(_ context.Context, userID int64, limit int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "打开历史文件失败")
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.UserID == userID {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("读取历史文件 %s 失败", r.path))
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

var _ Repository = (*FileRepository)(nil)
