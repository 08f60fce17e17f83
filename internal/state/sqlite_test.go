package state

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore()
	require.NoError(t, s.Open(":memory:"))
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndListReceipts(t *testing.T) {
	s := openTestStore(t)

	r := &Receipt{
		Kind:     KindInstall,
		Tools:    []string{"rustc", "cargo"},
		ShimDir:  "/home/u/.quantum-rust/bin",
		BackupID: "20240101-120000",
		Version:  "1.0.0",
	}
	require.NoError(t, s.SaveReceipt(r))
	assert.NotEmpty(t, r.ID, "ID assigned on save")
	assert.False(t, r.CreatedAt.IsZero())

	require.NoError(t, s.SaveReceipt(&Receipt{
		Kind:      KindUninstall,
		Tools:     []string{"rustc"},
		CreatedAt: time.Now().UTC().Add(time.Second),
	}))

	receipts, err := s.ListReceipts(10)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, KindUninstall, receipts[0].Kind, "newest first")

	got := receipts[1]
	assert.Equal(t, []string{"rustc", "cargo"}, got.Tools)
	assert.Equal(t, "20240101-120000", got.BackupID)
	assert.Equal(t, "/home/u/.quantum-rust/bin", got.ShimDir)
}

func TestLastReceipt(t *testing.T) {
	s := openTestStore(t)

	last, err := s.LastReceipt(KindInstall)
	require.NoError(t, err)
	assert.Nil(t, last, "no receipts yet")

	base := time.Now().UTC()
	for i, id := range []string{"a", "b"} {
		require.NoError(t, s.SaveReceipt(&Receipt{
			ID:        id,
			Kind:      KindInstall,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, s.SaveReceipt(&Receipt{
		Kind:      KindRestore,
		CreatedAt: base.Add(time.Hour),
	}))

	last, err = s.LastReceipt(KindInstall)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "b", last.ID)
}

func TestReceiptWithoutTools(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveReceipt(&Receipt{Kind: KindRestore}))
	receipts, err := s.ListReceipts(1)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Nil(t, receipts[0].Tools, "empty tools stays nil, not [\"\"]")
}

func TestVerifications(t *testing.T) {
	s := openTestStore(t)

	last, err := s.LastVerification()
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, s.SaveVerification(&Verification{Score: 50, Passed: 3, Warned: 2, Failed: 1}))
	require.NoError(t, s.SaveVerification(&Verification{
		Score:     100,
		Passed:    6,
		CreatedAt: time.Now().UTC().Add(time.Minute),
	}))

	last, err = s.LastVerification()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 100, last.Score)
	assert.Equal(t, 6, last.Passed)
}

func TestNotOpened(t *testing.T) {
	s := NewSQLiteStore()

	assert.Error(t, s.SaveReceipt(&Receipt{Kind: KindInstall}))
	_, err := s.ListReceipts(1)
	assert.Error(t, err)
	_, err = s.LastReceipt(KindInstall)
	assert.Error(t, err)
	assert.Error(t, s.Migrate())
	assert.NoError(t, s.Close(), "closing an unopened store is fine")
}

func TestSaveReceiptDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO receipts").
		WillReturnError(errors.New("disk I/O error"))

	s := NewSQLiteStore()
	s.SetDB(db)

	err = s.SaveReceipt(&Receipt{Kind: KindInstall})
	assert.ErrorContains(t, err, "failed to save receipt")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReceiptsScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "kind", "tools", "shim_dir", "backup_id", "version", "created_at"}).
		AddRow("id1", KindInstall, "rustc", "", "", "", "not-a-timestamp")
	mock.ExpectQuery("SELECT (.+) FROM receipts").WillReturnRows(rows)

	s := NewSQLiteStore()
	s.SetDB(db)

	_, err = s.ListReceipts(5)
	assert.ErrorContains(t, err, "invalid receipt timestamp")
}
