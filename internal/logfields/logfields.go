package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyDataset    = "dataset"
	KeyDriver     = "driver"
	KeyRecordID   = "record_id"
	KeyTag        = "tag"
	KeyOp         = "op"
	KeyCount      = "count"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeySubject    = "subject"
	KeyListen     = "listen"
	KeyBytes      = "bytes"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Dataset(name string) slog.Attr     { return slog.String(KeyDataset, name) }
func Driver(d string) slog.Attr         { return slog.String(KeyDriver, d) }
func RecordID(id string) slog.Attr      { return slog.String(KeyRecordID, id) }
func Tag(t string) slog.Attr            { return slog.String(KeyTag, t) }
func Op(op string) slog.Attr            { return slog.String(KeyOp, op) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr         { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func RemoteAddr(addr string) slog.Attr  { return slog.String(KeyRemoteAddr, addr) }
func Subject(s string) slog.Attr        { return slog.String(KeySubject, s) }
func Listen(addr string) slog.Attr      { return slog.String(KeyListen, addr) }
func Bytes(n int64) slog.Attr           { return slog.Int64(KeyBytes, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
