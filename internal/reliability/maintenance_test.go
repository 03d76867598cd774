package reliability

import (
	"testing"

	testingutil "github.com/aristath/pricecast/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestStoreMaintenanceJob_Run(t *testing.T) {
	db := testingutil.NewTestDB(t, "prices")
	job := NewStoreMaintenanceJob(db, t.TempDir(), zerolog.Nop())

	assert.Equal(t, "store_maintenance", job.Name())
	assert.NoError(t, job.Run())
}

func TestStoreMaintenanceJob_ClosedDB(t *testing.T) {
	db := testingutil.NewTestDB(t, "prices")
	_ = db.Close()

	job := NewStoreMaintenanceJob(db, t.TempDir(), zerolog.Nop())
	assert.Error(t, job.Run())
}
