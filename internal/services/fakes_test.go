package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/userhub/apiserver/internal/store"
	"github.com/userhub/apiserver/types"
)

type memUserRepo struct {
	mu    sync.Mutex
	users []types.User
	err   error
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return types.User{}, r.err
	}
	r.users = append(r.users, user)
	return user, nil
}

type memAvatarRepo struct {
	mu      sync.Mutex
	entries map[int]types.AvatarEntry
	inserts int
}

func newMemAvatarRepo() *memAvatarRepo {
	return &memAvatarRepo{entries: make(map[int]types.AvatarEntry)}
}

func (r *memAvatarRepo) FindByUserID(ctx context.Context, userID int) (types.AvatarEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[userID]
	if !ok {
		return types.AvatarEntry{}, store.ErrNotFound
	}
	return entry, nil
}

func (r *memAvatarRepo) Create(ctx context.Context, entry types.AvatarEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if _, ok := r.entries[entry.UserID]; !ok {
		r.entries[entry.UserID] = entry
	}
	return nil
}

func (r *memAvatarRepo) FindAndDelete(ctx context.Context, userID int) (types.AvatarEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[userID]
	if !ok {
		return types.AvatarEntry{}, store.ErrNotFound
	}
	delete(r.entries, userID)
	return entry, nil
}

func (r *memAvatarRepo) CountByHash(ctx context.Context, hash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, entry := range r.entries {
		if entry.Hash == hash {
			n++
		}
	}
	return n, nil
}

type fakeProfiles struct {
	profiles map[int]types.Profile
	err      error
	calls    atomic.Int32
}

func (f *fakeProfiles) GetUser(ctx context.Context, id int) (types.Profile, error) {
	f.calls.Add(1)
	if f.err != nil {
		return types.Profile{}, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return types.Profile{}, errors.New("unexpected id")
	}
	return p, nil
}

type fakeDownloader struct {
	blobs map[string][]byte
	calls atomic.Int32
}

func (f *fakeDownloader) Download(ctx context.Context, url string, limit int64) ([]byte, error) {
	f.calls.Add(1)
	data, ok := f.blobs[url]
	if !ok {
		return nil, errors.New("404 " + url)
	}
	return data, nil
}

type emitted struct {
	pattern string
	payload any
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (e *recordingEmitter) Emit(pattern string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{pattern: pattern, payload: payload})
}
