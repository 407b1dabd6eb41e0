package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type SessionEventType string

const (
	SessionLogin       SessionEventType = "login"
	SessionLoginFailed SessionEventType = "login_failed"
	SessionRefresh     SessionEventType = "refresh"
	SessionLogout      SessionEventType = "logout"
)

func (t SessionEventType) IsValid() bool {
	switch t {
	case SessionLogin, SessionLoginFailed, SessionRefresh, SessionLogout:
		return true
	}
	return false
}

type SessionEntry struct {
	Time   string           `json:"time"`
	Type   SessionEventType `json:"type"`
	UserID uint             `json:"userId,omitempty"`
	Email  string           `json:"email,omitempty"`
}

// SessionLog appends session events as JSON lines to one file per day
// under dir. A nil *SessionLog discards everything.
type SessionLog struct {
	mu      sync.Mutex
	current *os.File
	date    string
	dir     string
	now     func() time.Time
}

func NewSessionLog(dir string) (*SessionLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session log dir: %w", err)
	}
	l := &SessionLog{dir: dir, now: time.Now}
	if err := l.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *SessionLog) Record(eventType SessionEventType, userID uint, email string) SessionEntry {
	if l == nil {
		return SessionEntry{}
	}
	if !eventType.IsValid() {
		slog.Warn("Invalid session event type", "type", eventType)
		return SessionEntry{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := SessionEntry{
		Time:   l.now().Format(time.RFC3339),
		Type:   eventType,
		UserID: userID,
		Email:  email,
	}

	if err := l.rotateIfNeeded(); err != nil {
		slog.Error("Failed to rotate session log", "error", err)
		return entry
	}
	if err := json.NewEncoder(l.current).Encode(entry); err != nil {
		slog.Error("Failed to write session log", "error", err)
	}
	return entry
}

func (l *SessionLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return nil
	}
	err := l.current.Close()
	l.current = nil
	l.date = ""
	return err
}

// caller holds mu, except in NewSessionLog
func (l *SessionLog) rotateIfNeeded() error {
	today := l.now().Format("2006-01-02")
	if today == l.date && l.current != nil {
		return nil
	}

	if l.current != nil {
		_ = l.current.Close()
	}

	path := filepath.Join(l.dir, today+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}

	l.current = f
	l.date = today
	return nil
}
