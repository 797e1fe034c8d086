package presenter

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
)

// Level 提示级别
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notice 面向用户的提示，到期后自动消失
type Notice struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type noticeBoard struct {
	ttl   time.Duration
	items []Notice
}

func (b *noticeBoard) push(level Level, text string, now time.Time) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Text:      text,
		CreatedAt: now,
		ExpiresAt: now.Add(b.ttl),
	}
	b.items = append(b.items, n)
	return n
}

// active 清理过期提示并返回剩余提示
func (b *noticeBoard) active(now time.Time) []Notice {
	kept := b.items[:0]
	for _, n := range b.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	b.items = kept
	return append([]Notice(nil), kept...)
}

func (b *noticeBoard) dismiss(id string) bool {
	for i, n := range b.items {
		if n.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

func (b *noticeBoard) clear() {
	b.items = nil
}

// describeError 将客户端错误转换为用户可读的提示
func describeError(err error) string {
	msg := analysis.Message(err)
	switch {
	case analysis.IsTimeout(err):
		return "Analysis took too long. Spreadsheet too large or connectivity problems."
	case analysis.IsValidation(err):
		return msg
	case analysis.IsUnavailable(err):
		return "Backend server is not reachable: " + msg
	case analysis.IsServer(err):
		return fmt.Sprintf("Server error: %d %s", analysis.StatusCode(err), msg)
	case analysis.IsMalformed(err):
		return "Invalid response from server"
	case analysis.IsBusiness(err):
		return "Analysis failed: " + msg
	default:
		return "Analysis error: " + msg
	}
}
