package service_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/recipenest/recipenest-api/internal/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event models.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []models.ActivityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ActivityEvent(nil), p.events...)
}

type memoryImageStore struct {
	saved   map[string]string
	deleted []string
	next    int
}

func newMemoryImageStore() *memoryImageStore {
	return &memoryImageStore{saved: map[string]string{}}
}

func (m *memoryImageStore) Save(filename string, r io.Reader) (string, error) {
	if filename == "bad.exe" {
		return "", errors.New("unsupported image type")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.next++
	url := "/uploads/img-" + string(rune('a'+m.next-1)) + ".png"
	m.saved[url] = string(data)
	return url, nil
}

func (m *memoryImageStore) Delete(url string) error {
	m.deleted = append(m.deleted, url)
	delete(m.saved, url)
	return nil
}
