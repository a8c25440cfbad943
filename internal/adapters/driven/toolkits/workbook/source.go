package workbook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentllm/agentllm-core/internal/adapters/driven/toolkits/gdrive"
	"github.com/agentllm/agentllm-core/internal/core/domain"
)

// Source loads the raw CSV sheets for one user.
type Source interface {
	// Available reports whether the source can serve the user at all
	// (credentials present, path exists). Cheap; no full download.
	Available(ctx context.Context, userID string) (bool, error)

	// Load fetches all sheets as raw CSV keyed by sheet name.
	Load(ctx context.Context, userID string) (map[string]string, error)
}

// LocalDirSource reads sheets from "<dir>/<sheet name>.csv". Used in
// automation mode where no per-user Drive credentials exist.
type LocalDirSource struct {
	dir string
}

// NewLocalDirSource creates a LocalDirSource.
func NewLocalDirSource(dir string) *LocalDirSource {
	return &LocalDirSource{dir: dir}
}

func (s *LocalDirSource) Available(ctx context.Context, userID string) (bool, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (s *LocalDirSource) Load(ctx context.Context, userID string) (map[string]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading sheets directory: %w", err)
	}

	sheets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".csv")
		sheets[name] = string(data)
	}
	return sheets, nil
}

// DriveSource reads sheets from a Google Drive folder through the user's
// Drive credentials: each sheet is a spreadsheet named after the sheet,
// exported as CSV.
type DriveSource struct {
	drive    *gdrive.Config
	folderID string
}

// NewDriveSource creates a DriveSource over the shared Drive config.
func NewDriveSource(drive *gdrive.Config, folderID string) *DriveSource {
	return &DriveSource{drive: drive, folderID: folderID}
}

func (s *DriveSource) Available(ctx context.Context, userID string) (bool, error) {
	if s.folderID == "" {
		return false, nil
	}
	return s.drive.IsConfigured(ctx, userID)
}

func (s *DriveSource) Load(ctx context.Context, userID string) (map[string]string, error) {
	toolkit, err := s.drive.Toolkit(ctx, userID)
	if err != nil {
		return nil, err
	}
	client := toolkit.(*gdrive.Toolkit).Client()

	files, err := client.ListFiles(ctx, fmt.Sprintf("'%s' in parents and trashed = false", s.folderID))
	if err != nil {
		return nil, fmt.Errorf("listing workbook folder: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: workbook folder %s is empty", domain.ErrNotFound, s.folderID)
	}

	sheets := make(map[string]string, len(files))
	for _, file := range files {
		var content string
		switch {
		case file.MimeType == "application/vnd.google-apps.spreadsheet":
			content, err = client.ExportCSV(ctx, file.ID)
		case strings.HasSuffix(file.Name, ".csv"):
			content, err = client.Download(ctx, file.ID)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetching sheet %q: %w", file.Name, err)
		}
		sheets[strings.TrimSuffix(file.Name, ".csv")] = content
	}
	return sheets, nil
}
