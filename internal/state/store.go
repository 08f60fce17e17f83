// Package state persists deployment receipts so status and doctor can show
// what was installed, when, and against which backup.
package state

import "time"

// Receipt kinds.
const (
	KindInstall   = "install"
	KindUninstall = "uninstall"
	KindRestore   = "restore"
)

// Receipt records one deployment-changing operation.
type Receipt struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Tools     []string  `json:"tools,omitempty"`
	ShimDir   string    `json:"shim_dir"`
	BackupID  string    `json:"backup_id,omitempty"` // empty for operations that took no backup
	Version   string    `json:"version"`             // quantumctl version that performed the operation
	CreatedAt time.Time `json:"created_at"`
}

// Verification records one doctor run.
type Verification struct {
	ID        string    `json:"id"`
	Score     int       `json:"score"`
	Passed    int       `json:"passed"`
	Warned    int       `json:"warned"`
	Failed    int       `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the receipts persistence interface.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	SaveReceipt(r *Receipt) error
	ListReceipts(limit int) ([]*Receipt, error)
	LastReceipt(kind string) (*Receipt, error)

	SaveVerification(v *Verification) error
	LastVerification() (*Verification, error)
}
