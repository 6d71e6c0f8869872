package repositories

import (
	"fmt"
	"strings"
	"time"
)

const detailWidth = 48

// Entry is a readable view of one raw badger record, used by the store inspector.
type Entry struct {
	Key    string
	Kind   string
	At     string
	Detail string
}

// DescribeEntry decodes a record according to its key prefix.
// Unreadable values are reported in Detail rather than failing the whole dump.
func DescribeEntry(key, value []byte) Entry {
	entry := Entry{Key: string(key), Kind: "unknown"}

	switch {
	case strings.HasPrefix(entry.Key, "user:id:"):
		entry.Kind = "user"
		var record userRecord
		if err := unmarshal(value, &record); err != nil {
			entry.Detail = fmt.Sprintf("unreadable: %v", err)
			return entry
		}
		entry.At = time.Unix(record.CreatedAt, 0).UTC().Format(time.DateTime)
		entry.Detail = fmt.Sprintf("#%d %s", record.ID, record.Username)
	case strings.HasPrefix(entry.Key, "user:name:"):
		entry.Kind = "index"
		entry.Detail = "-> #" + string(value)
	case strings.HasPrefix(entry.Key, messagePrefix):
		entry.Kind = "message"
		var record messageRecord
		if err := unmarshal(value, &record); err != nil {
			entry.Detail = fmt.Sprintf("unreadable: %v", err)
			return entry
		}
		entry.At = time.Unix(0, record.At).UTC().Format(time.DateTime)
		entry.Detail = fmt.Sprintf("#%d %s", record.UserID, shorten(record.Text))
	case strings.HasPrefix(entry.Key, "seq:"):
		entry.Kind = "sequence"
	}
	return entry
}

func shorten(text string) string {
	runes := []rune(strings.ReplaceAll(text, "\n", " "))
	if len(runes) <= detailWidth {
		return string(runes)
	}
	return string(runes[:detailWidth-1]) + "…"
}
