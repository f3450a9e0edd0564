package retention

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/AhmadShamli/DarkEye/db"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// Engine enforces the recording storage policy. Each cycle rescans the storage
// tree and applies two passes: delete segments older than the retention age,
// then delete oldest-first until total usage fits the storage quota. Both
// passes are best-effort; a file that cannot be deleted is logged and skipped.
type Engine interface {
	/*
		RunCycle execute one retention cycle now

			@param ctxt context.Context - execution context
	*/
	RunCycle(ctxt context.Context) error

	/*
		Start begin periodic retention cycles. The cycle interval is re-read from
		settings after every cycle so interval changes take effect without restart.

			@param ctxt context.Context - execution context
	*/
	Start(ctxt context.Context) error

	/*
		Stop halt periodic retention cycles

			@param ctxt context.Context - execution context
	*/
	Stop(ctxt context.Context) error
}

// recordedFile one regular file found in the storage tree
type recordedFile struct {
	path    string
	modTime time.Time
	size    int64
}

// defaultCycleInterval retention cycle period used when the settings store has none
const defaultCycleInterval = time.Minute * 60

// engineImpl implements Engine
type engineImpl struct {
	goutils.Component
	db                 db.PersistenceManager
	defaultStoragePath string

	lock            sync.Mutex
	cycleTimer      goutils.IntervalTimer
	currentInterval time.Duration
	wg              sync.WaitGroup
	workerCtxt      context.Context
	workerCancel    context.CancelFunc
}

/*
NewEngine define a new storage retention engine

	@param parentCtxt context.Context - parent execution context
	@param dbClient db.PersistenceManager - DB access client
	@param defaultStoragePath string - recording tree root used when the settings store has none
	@returns new Engine
*/
func NewEngine(
	parentCtxt context.Context, dbClient db.PersistenceManager, defaultStoragePath string,
) (Engine, error) {
	logTags := log.Fields{"module": "retention", "component": "engine"}

	instance := &engineImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:                 dbClient,
		defaultStoragePath: defaultStoragePath,
	}
	instance.workerCtxt, instance.workerCancel = context.WithCancel(parentCtxt)

	cycleTimer, err := goutils.GetIntervalTimerInstance(
		instance.workerCtxt, &instance.wg, logTags,
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to define retention cycle timer")
		return nil, err
	}
	instance.cycleTimer = cycleTimer

	return instance, nil
}

func (e *engineImpl) Start(ctxt context.Context) error {
	logTags := e.GetLogTagsForContext(ctxt)

	e.lock.Lock()
	defer e.lock.Unlock()

	e.currentInterval = e.db.CleanupInterval(ctxt, defaultCycleInterval)
	if err := e.cycleTimer.Start(e.currentInterval, e.runTimedCycle, false); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to start retention cycle timer")
		return err
	}
	log.
		WithFields(logTags).
		WithField("interval", e.currentInterval.String()).
		Info("Retention cycles started")
	return nil
}

// runTimedCycle cycle timer callback. Restarts the timer when the configured
// interval changed since the last cycle.
func (e *engineImpl) runTimedCycle() error {
	logTags := e.GetLogTagsForContext(e.workerCtxt)

	if err := e.RunCycle(e.workerCtxt); err != nil {
		log.WithError(err).WithFields(logTags).Error("Retention cycle failed")
	}

	e.lock.Lock()
	defer e.lock.Unlock()
	newInterval := e.db.CleanupInterval(e.workerCtxt, defaultCycleInterval)
	if newInterval != e.currentInterval {
		log.
			WithFields(logTags).
			WithField("interval", newInterval.String()).
			Info("Retention cycle interval changed")
		e.currentInterval = newInterval
		_ = e.cycleTimer.Stop()
		if err := e.cycleTimer.Start(newInterval, e.runTimedCycle, false); err != nil {
			log.WithError(err).WithFields(logTags).Error("Unable to restart retention cycle timer")
			return err
		}
	}
	return nil
}

func (e *engineImpl) RunCycle(ctxt context.Context) error {
	logTags := e.GetLogTagsForContext(ctxt)

	storageRoot := e.db.StoragePath(ctxt, e.defaultStoragePath)
	retentionAge := e.db.RetentionAge(ctxt)
	maxBytes := e.db.MaxStorageBytes(ctxt)

	files, totalBytes, err := scanStorageTree(storageRoot)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to scan storage tree")
		return err
	}

	removedByAge := 0
	if retentionAge > 0 {
		cutoff := time.Now().Add(-retentionAge)
		remaining := files[:0]
		for _, entry := range files {
			if entry.modTime.Before(cutoff) {
				if err := os.Remove(entry.path); err != nil {
					log.WithError(err).WithFields(logTags).
						WithField("file", entry.path).
						Error("Unable to delete expired segment")
					remaining = append(remaining, entry)
					continue
				}
				totalBytes -= entry.size
				removedByAge++
				continue
			}
			remaining = append(remaining, entry)
		}
		files = remaining
	}

	removedByQuota := 0
	if maxBytes > 0 && totalBytes > maxBytes {
		sort.Slice(files, func(i, j int) bool {
			return files[i].modTime.Before(files[j].modTime)
		})
		for _, entry := range files {
			if totalBytes <= maxBytes {
				break
			}
			if err := os.Remove(entry.path); err != nil {
				log.WithError(err).WithFields(logTags).
					WithField("file", entry.path).
					Error("Unable to delete segment for quota")
				continue
			}
			totalBytes -= entry.size
			removedByQuota++
		}
	}

	log.
		WithFields(logTags).
		WithField("expired", removedByAge).
		WithField("over-quota", removedByQuota).
		WithField("remaining-bytes", totalBytes).
		Info("Retention cycle complete")
	return nil
}

// scanStorageTree enumerate regular files under the storage root. A missing
// root is an empty tree, not an error.
func scanStorageTree(root string) ([]recordedFile, int64, error) {
	files := []recordedFile{}
	totalBytes := int64(0)

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		files = append(files, recordedFile{
			path: path, modTime: info.ModTime(), size: info.Size(),
		})
		totalBytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return files, totalBytes, nil
}

func (e *engineImpl) Stop(ctxt context.Context) error {
	e.lock.Lock()
	_ = e.cycleTimer.Stop()
	e.lock.Unlock()

	e.workerCancel()
	return goutils.TimeBoundedWaitGroupWait(ctxt, &e.wg, time.Second*5)
}
