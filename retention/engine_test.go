package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AhmadShamli/DarkEye/mocks"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// writeSegment place a dummy segment file with a given age and size
func writeSegment(t *testing.T, path string, age time.Duration, sizeBytes int) {
	assert := assert.New(t)

	assert.Nil(os.MkdirAll(filepath.Dir(path), 0o755))
	assert.Nil(os.WriteFile(path, make([]byte, sizeBytes), 0o644))
	stamp := time.Now().Add(-age)
	assert.Nil(os.Chtimes(path, stamp, stamp))
}

func TestRetentionAgePass(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockDB := mocks.NewPersistenceManager(t)
	storageRoot := t.TempDir()

	mockDB.On("StoragePath", mock.Anything, mock.Anything).Return(storageRoot)
	mockDB.On("RetentionAge", mock.Anything).Return(time.Hour * 72)
	mockDB.On("MaxStorageBytes", mock.Anything).Return(int64(0))

	fresh := filepath.Join(storageRoot, "AAAAA", "fresh.mkv")
	aging := filepath.Join(storageRoot, "AAAAA", "aging.mkv")
	expired := filepath.Join(storageRoot, "BBBBB", "timelapse", "expired.mkv")
	writeSegment(t, fresh, time.Hour*10, 64)
	writeSegment(t, aging, time.Hour*70, 64)
	writeSegment(t, expired, time.Hour*200, 64)

	uut, err := NewEngine(utCtxt, mockDB, storageRoot)
	assert.Nil(err)

	assert.Nil(uut.RunCycle(utCtxt))

	assert.FileExists(fresh)
	assert.FileExists(aging)
	assert.NoFileExists(expired)
}

func TestRetentionQuotaPass(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockDB := mocks.NewPersistenceManager(t)
	storageRoot := t.TempDir()

	mockDB.On("StoragePath", mock.Anything, mock.Anything).Return(storageRoot)
	mockDB.On("RetentionAge", mock.Anything).Return(time.Duration(0))
	// Quota of 2 KiB over 4 KiB of segments, the two oldest must go
	mockDB.On("MaxStorageBytes", mock.Anything).Return(int64(2048))

	oldest := filepath.Join(storageRoot, "AAAAA", "seg-0.mkv")
	older := filepath.Join(storageRoot, "AAAAA", "seg-1.mkv")
	recent := filepath.Join(storageRoot, "AAAAA", "seg-2.mkv")
	newest := filepath.Join(storageRoot, "AAAAA", "seg-3.mkv")
	writeSegment(t, oldest, time.Hour*40, 1024)
	writeSegment(t, older, time.Hour*30, 1024)
	writeSegment(t, recent, time.Hour*20, 1024)
	writeSegment(t, newest, time.Hour*10, 1024)

	uut, err := NewEngine(utCtxt, mockDB, storageRoot)
	assert.Nil(err)

	assert.Nil(uut.RunCycle(utCtxt))

	assert.NoFileExists(oldest)
	assert.NoFileExists(older)
	assert.FileExists(recent)
	assert.FileExists(newest)
}

func TestRetentionDisabledPolicies(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockDB := mocks.NewPersistenceManager(t)
	storageRoot := t.TempDir()

	// Both policies disabled, nothing is deleted regardless of age or usage
	mockDB.On("StoragePath", mock.Anything, mock.Anything).Return(storageRoot)
	mockDB.On("RetentionAge", mock.Anything).Return(time.Duration(0))
	mockDB.On("MaxStorageBytes", mock.Anything).Return(int64(0))

	ancient := filepath.Join(storageRoot, "AAAAA", "ancient.mkv")
	writeSegment(t, ancient, time.Hour*10000, 4096)

	uut, err := NewEngine(utCtxt, mockDB, storageRoot)
	assert.Nil(err)

	assert.Nil(uut.RunCycle(utCtxt))
	assert.FileExists(ancient)
}

func TestRetentionMissingStorageRoot(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockDB := mocks.NewPersistenceManager(t)
	missingRoot := filepath.Join(t.TempDir(), "does-not-exist")

	mockDB.On("StoragePath", mock.Anything, mock.Anything).Return(missingRoot)
	mockDB.On("RetentionAge", mock.Anything).Return(time.Hour * 72)
	mockDB.On("MaxStorageBytes", mock.Anything).Return(int64(2048))

	uut, err := NewEngine(utCtxt, mockDB, missingRoot)
	assert.Nil(err)

	// A missing tree is an empty tree, not a failure
	assert.Nil(uut.RunCycle(utCtxt))
}
