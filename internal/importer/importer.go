// Package importer turns completed remote downloads into per-file import
// results. It walks the download's output path, pulls a title from each audio
// file's tags (falling back to the file name) and reports every file into the
// registry, where the Title Matcher resolves library identity.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"reeler/internal/constants"
	"reeler/internal/domain"
	"reeler/internal/logger"
	"reeler/internal/registry"
)

// History records import outcomes for the history view. Implemented by
// store.DB; nil disables recording.
type History interface {
	RecordImport(downloadID, file, title string, success bool) error
}

// Importer processes each completed download exactly once per tracking
// lifetime.
type Importer struct {
	registry *registry.Registry
	history  History
	log      *logger.Logger

	mu        sync.Mutex
	processed map[string]struct{}
}

// New creates an importer reporting into the given registry.
func New(reg *registry.Registry, history History, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Default()
	}
	return &Importer{
		registry:  reg,
		history:   history,
		log:       log.WithComponent("importer"),
		processed: make(map[string]struct{}),
	}
}

// Process imports one completed download. Repeated calls for the same
// download id are no-ops, so the poller can hand over the completed set every
// cycle.
func (i *Importer) Process(ctx context.Context, td domain.TrackedDownload) {
	i.mu.Lock()
	if _, done := i.processed[td.DownloadID]; done {
		i.mu.Unlock()
		return
	}
	i.processed[td.DownloadID] = struct{}{}
	i.mu.Unlock()

	log := i.log.WithDownload(td.DownloadID, td.ClientID)

	if td.OutputPath == "" {
		i.report(ctx, td.DownloadID, "", "", fmt.Errorf("download has no output path"))
		return
	}

	files, err := audioFiles(td.OutputPath)
	if err != nil {
		i.report(ctx, td.DownloadID, td.OutputPath, "", fmt.Errorf("scan output path: %w", err))
		return
	}
	if len(files) == 0 {
		i.report(ctx, td.DownloadID, td.OutputPath, "", fmt.Errorf("no audio files found"))
		return
	}

	log.Info("Importing completed download", "files", len(files))
	for _, file := range files {
		title, readErr := ReadTitle(file)
		if readErr != nil {
			i.report(ctx, td.DownloadID, file, "", readErr)
			continue
		}
		i.report(ctx, td.DownloadID, file, title, nil)
	}
}

func (i *Importer) report(ctx context.Context, downloadID, file, title string, err error) {
	i.registry.OnImportResult(ctx, downloadID, file, title, err)
	if i.history == nil {
		return
	}
	if histErr := i.history.RecordImport(downloadID, file, title, err == nil); histErr != nil {
		i.log.Warn("Failed to record import history", "download_id", downloadID, "error", histErr)
	}
}

// audioFiles returns the audio files under path. A path that is itself a file
// is returned as-is when it is an audio file.
func audioFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if isAudioFile(path) {
			return []string{path}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && isAudioFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case constants.ExtFLAC, constants.ExtMP3, constants.ExtM4A:
		return true
	}
	return false
}

// ReadTitle extracts the track title from an audio file's tags. It falls back
// to the bare file name when the file carries no usable title.
func ReadTitle(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case constants.ExtMP3:
		return readID3Title(path)
	case constants.ExtFLAC:
		return readFLACTitle(path)
	default:
		return baseTitle(path), nil
	}
}

func readID3Title(path string) (string, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return "", fmt.Errorf("failed to parse id3 tag: %w", err)
	}
	defer tag.Close()

	if title := strings.TrimSpace(tag.Title()); title != "" {
		return title, nil
	}
	return baseTitle(path), nil
}

func readFLACTitle(path string) (string, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse flac file: %w", err)
	}

	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}
		titles, err := cmt.Get(flacvorbis.FIELD_TITLE)
		if err == nil && len(titles) > 0 && strings.TrimSpace(titles[0]) != "" {
			return strings.TrimSpace(titles[0]), nil
		}
	}
	return baseTitle(path), nil
}

func baseTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
