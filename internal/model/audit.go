package model

import (
	"time"

	"itemapi/internal/actor"
	"itemapi/internal/model/field"
)

// Audit columns every entity table carries.
const (
	ColCID   = "cid"
	ColCTime = "ctime"
	ColMID   = "mid"
	ColMTime = "mtime"
)

// stampAudit returns a copy of fs with the modifier columns set to the caller and now.
// On create the creator columns are set too. Values already present in fs are overwritten.
func stampAudit(fs field.Fields, c actor.Ctx, now time.Time, isCreate bool) field.Fields {
	out := make(field.Fields, len(fs), len(fs)+4)
	copy(out, fs)

	uid := c.UserID()
	if isCreate {
		out.Push(ColCID, uid)
		out.Push(ColCTime, now)
	}
	out.Push(ColMID, uid)
	out.Push(ColMTime, now)
	return out
}
