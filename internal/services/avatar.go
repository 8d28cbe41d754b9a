package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/userhub/apiserver/internal/store"
	"github.com/userhub/apiserver/types"
)

const defaultMaxAvatarBytes = 10 << 20

// AvatarRepository defines persistence operations for avatar cache entries.
type AvatarRepository interface {
	FindByUserID(ctx context.Context, userID int) (types.AvatarEntry, error)
	Create(ctx context.Context, entry types.AvatarEntry) error
	FindAndDelete(ctx context.Context, userID int) (types.AvatarEntry, error)
	CountByHash(ctx context.Context, hash string) (int64, error)
}

// ObjectStore holds the cached avatar bytes keyed by content hash.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Location(key string) string
}

// Downloader fetches raw bytes over HTTP.
type Downloader interface {
	Download(ctx context.Context, url string, limit int64) ([]byte, error)
}

// AvatarService encapsulates avatar use-cases.
type AvatarService struct {
	repo       AvatarRepository
	objects    ObjectStore
	users      *UserService
	downloader Downloader
	maxBytes   int64
	now        func() time.Time
}

func NewAvatarService(repo AvatarRepository, objects ObjectStore, users *UserService, downloader Downloader, maxBytes int64) *AvatarService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxAvatarBytes
	}
	return &AvatarService{
		repo:       repo,
		objects:    objects,
		users:      users,
		downloader: downloader,
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

// Get returns the base64-encoded avatar of the user, fetching and caching it
// on first access.
func (s *AvatarService) Get(ctx context.Context, userID int) (string, error) {
	entry, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return s.readCached(ctx, entry)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("find avatar: %w", err)
	}

	profile, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(profile.Avatar) == "" {
		return "", ErrAvatarNotFound
	}

	data, err := s.downloader.Download(ctx, profile.Avatar, s.maxBytes)
	if err != nil {
		return "", fmt.Errorf("download avatar: %w", err)
	}

	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])

	if err := s.objects.Put(ctx, hash, bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	if err := s.repo.Create(ctx, types.AvatarEntry{
		UserID:    userID,
		Hash:      hash,
		FilePath:  s.objects.Location(hash),
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return "", fmt.Errorf("save avatar entry: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// Delete removes the cached avatar of the user. It is a no-op when nothing
// is cached. The file is kept while other users still reference the same hash.
func (s *AvatarService) Delete(ctx context.Context, userID int) error {
	entry, err := s.repo.FindAndDelete(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete avatar entry: %w", err)
	}

	refs, err := s.repo.CountByHash(ctx, entry.Hash)
	if err != nil {
		return fmt.Errorf("count avatar references: %w", err)
	}
	if refs > 0 {
		return nil
	}

	if err := s.objects.Delete(ctx, entry.Hash); err != nil {
		return fmt.Errorf("delete avatar file: %w", err)
	}
	return nil
}

func (s *AvatarService) readCached(ctx context.Context, entry types.AvatarEntry) (string, error) {
	rc, err := s.objects.Get(ctx, entry.Hash)
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if _, err := io.Copy(enc, rc); err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
