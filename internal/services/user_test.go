package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userhub/apiserver/internal/upstream"
	"github.com/userhub/apiserver/types"
)

func TestCreateUser(t *testing.T) {
	repo := &memUserRepo{}
	events := &recordingEmitter{}
	svc := NewUserService(repo, &fakeProfiles{}, events)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	created, err := svc.Create(context.Background(), types.User{
		Email:     "george.bluth@reqres.in",
		FirstName: "George",
		LastName:  "Bluth",
		Avatar:    "https://reqres.in/img/faces/1-image.jpg",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "George Bluth", created.Name)
	require.Len(t, repo.users, 1)
	assert.Equal(t, created.ID, repo.users[0].ID)
	assert.Equal(t, svc.now(), repo.users[0].CreatedAt)

	out, err := json.Marshal(created)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Equal(t, created.ID, fields["id"])
	assert.Equal(t, "George", fields["first_name"])
	assert.Equal(t, "Bluth", fields["last_name"])
	assert.Equal(t, "https://reqres.in/img/faces/1-image.jpg", fields["avatar"])
	assert.NotContains(t, fields, "_id")
	assert.NotContains(t, fields, "created_at")

	require.Len(t, events.events, 2)
	assert.Equal(t, types.PatternUserCreated, events.events[0].pattern)
	assert.Equal(t, created, events.events[0].payload)
	assert.Equal(t, types.PatternSendEmail, events.events[1].pattern)
	assert.Equal(t, types.EmailEvent{
		Email:   "george.bluth@reqres.in",
		Subject: "Welcome",
		Message: "Welcome to our platform!",
	}, events.events[1].payload)
}

func TestCreateUserAllowsDuplicateEmails(t *testing.T) {
	repo := &memUserRepo{}
	svc := NewUserService(repo, &fakeProfiles{}, &recordingEmitter{})

	a, err := svc.Create(context.Background(), types.User{Email: "dup@example.com"})
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), types.User{Email: "dup@example.com"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, repo.users, 2)
}

func TestCreateUserStoreFailureEmitsNothing(t *testing.T) {
	events := &recordingEmitter{}
	svc := NewUserService(&memUserRepo{err: errors.New("db down")}, &fakeProfiles{}, events)

	_, err := svc.Create(context.Background(), types.User{Email: "a@b.c"})
	require.Error(t, err)
	assert.Empty(t, events.events)
}

func TestGetUserByID(t *testing.T) {
	want := types.Profile{ID: 2, Email: "janet.weaver@reqres.in", Avatar: "https://x/2.jpg"}
	svc := NewUserService(&memUserRepo{}, &fakeProfiles{profiles: map[int]types.Profile{2: want}}, &recordingEmitter{})

	got, err := svc.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetUserByIDErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"empty payload", upstream.ErrNoPayload, ErrUserNotFound},
		{"wrapped empty payload", fmt.Errorf("lookup: %w", upstream.ErrNoPayload), ErrUserNotFound},
		{"status", &upstream.StatusError{URL: "u", StatusCode: 404}, ErrUpstream},
		{"transport", errors.New("connection refused"), ErrUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewUserService(&memUserRepo{}, &fakeProfiles{err: tc.err}, &recordingEmitter{})
			_, err := svc.GetByID(context.Background(), 1)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
