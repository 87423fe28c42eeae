package discipline

import (
	"time"

	"github.com/trezcool/ecole/core"
)

type Type string

const (
	TypeBan       Type = "bannissement"
	TypeWarning   Type = "avertissement"
	TypeLate      Type = "retard"
	TypeAbsence   Type = "absence"
	TypeBehaviour Type = "comportement"
	TypeOther     Type = "autre"
)

// Record is an entry of a student's discipline file. Records are append-only;
// system records are written by the standing engine and cannot be deleted.
type Record struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	Type        Type      `json:"type"`
	Description string    `json:"description"`
	Motif       string    `json:"motif"`
	Sanction    string    `json:"sanction"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// NewRecord contains information needed to file a discipline record by hand.
type NewRecord struct {
	StudentID   string `json:"student_id" validate:"required,notblank"`
	Type        Type   `json:"type" validate:"required,oneof=bannissement avertissement retard absence comportement autre"`
	Description string `json:"description" validate:"required,notblank,max=1000"`
	Motif       string `json:"motif" validate:"max=255"`
	Sanction    string `json:"sanction" validate:"max=255"`
}

func (nr *NewRecord) Validate() error {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.Type = Type(core.CleanString(string(nr.Type), true /* lower */))
	nr.Description = core.CleanString(nr.Description)
	nr.Motif = core.CleanString(nr.Motif)
	nr.Sanction = core.CleanString(nr.Sanction)
	return core.Validate.Struct(nr)
}
