package stream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/media"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"
)

// Manager supervises on-demand live stream sessions. A session exists only
// while viewers keep sending heartbeats; a sweep loop reaps sessions whose last
// heartbeat is older than the idle threshold. Cameras registered as
// recorder-controlled never get a session: the recording pipeline owns the
// relay connection for those.
type Manager interface {
	/*
		Heartbeat signal continued viewer interest in a camera's live stream. Spawns
		the stream session if one is not already running.

			@param ctxt context.Context - execution context
			@param cameraID string - camera ID
			@param sourceURL string - relay stream locator to read
	*/
	Heartbeat(ctxt context.Context, cameraID string, sourceURL string) error

	/*
		RegisterRecorder mark a camera as recorder-controlled. Any live session for
		the camera is torn down, and future heartbeats will not spawn one. Idempotent.

			@param ctxt context.Context - execution context
			@param cameraID string - camera ID
	*/
	RegisterRecorder(ctxt context.Context, cameraID string)

	/*
		UnregisterRecorder clear the recorder-controlled mark. Idempotent.

			@param ctxt context.Context - execution context
			@param cameraID string - camera ID
	*/
	UnregisterRecorder(ctxt context.Context, cameraID string)

	/*
		Watching whether a live stream session currently exists for a camera

			@param cameraID string - camera ID
	*/
	Watching(cameraID string) bool

	/*
		Ready whether a camera's session has produced its playlist file yet

			@param cameraID string - camera ID
	*/
	Ready(cameraID string) bool

	/*
		Stop tear down all sessions and release the sweep loop

			@param ctxt context.Context - execution context
	*/
	Stop(ctxt context.Context) error
}

// streamSession one live on-demand stream session
type streamSession struct {
	process       media.Process
	outputDir     string
	lastHeartbeat time.Time
	ready         bool
}

// ManagerParams parameters for defining a stream manager
type ManagerParams struct {
	// Launcher stream subprocess launcher
	Launcher media.ProcessLauncher
	// FFmpegBin stream subprocess binary path
	FFmpegBin string
	// Config stream session settings
	Config common.StreamConfig
}

// managerImpl implements Manager
type managerImpl struct {
	goutils.Component
	params ManagerParams

	lock      sync.Mutex
	sessions  map[string]*streamSession
	recorders map[string]bool

	sweepTimer   goutils.IntervalTimer
	watcher      *fsnotify.Watcher
	wg           sync.WaitGroup
	workerCtxt   context.Context
	workerCancel context.CancelFunc
}

/*
NewManager define a new on-demand stream manager. The sweep loop starts
immediately.

	@param parentCtxt context.Context - parent execution context
	@param params ManagerParams - manager parameters
	@returns new Manager
*/
func NewManager(parentCtxt context.Context, params ManagerParams) (Manager, error) {
	logTags := log.Fields{"module": "stream", "component": "manager"}

	instance := &managerImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		params:    params,
		sessions:  map[string]*streamSession{},
		recorders: map[string]bool{},
	}
	instance.workerCtxt, instance.workerCancel = context.WithCancel(parentCtxt)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to define playlist watcher")
		return nil, err
	}
	instance.watcher = watcher

	sweepTimer, err := goutils.GetIntervalTimerInstance(
		instance.workerCtxt, &instance.wg, logTags,
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to define idle sweep timer")
		return nil, err
	}
	instance.sweepTimer = sweepTimer
	if err := sweepTimer.Start(params.Config.SweepInt(), instance.sweepIdleSessions, false); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to start idle sweep timer")
		return nil, err
	}

	instance.wg.Add(1)
	go instance.watchPlaylists()

	return instance, nil
}

func (m *managerImpl) Heartbeat(ctxt context.Context, cameraID string, sourceURL string) error {
	logTags := m.GetLogTagsForContext(ctxt)

	m.lock.Lock()
	defer m.lock.Unlock()

	// The recording pipeline owns the relay connection for this camera
	if m.recorders[cameraID] {
		return nil
	}

	if session, ok := m.sessions[cameraID]; ok {
		session.lastHeartbeat = time.Now()
		return nil
	}

	outputDir := filepath.Join(m.params.Config.OutputDir, cameraID)
	// Stale playlists from a previous session must not report as ready
	if err := os.RemoveAll(outputDir); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to clear stream output directory")
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to create stream output directory")
		return err
	}
	if err := m.watcher.Add(outputDir); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to watch stream output directory")
		return err
	}

	process, err := m.params.Launcher.Launch(ctxt, media.ProcessSpec{
		Name:   fmt.Sprintf("stream-%s", cameraID),
		Binary: m.params.FFmpegBin,
		Args:   media.HLSArgs(sourceURL, filepath.Join(outputDir, media.HLSPlaylistName)),
		OnExit: func(exitErr error) {
			m.handleSessionExit(cameraID, exitErr)
		},
	})
	if err != nil {
		_ = m.watcher.Remove(outputDir)
		log.WithError(err).WithFields(logTags).Error("Stream session failed to spawn")
		return err
	}

	m.sessions[cameraID] = &streamSession{
		process:       process,
		outputDir:     outputDir,
		lastHeartbeat: time.Now(),
	}
	log.WithFields(logTags).WithField("camera", cameraID).Info("Stream session started")
	return nil
}

// watchPlaylists playlist watcher event loop. Marks a session ready once its
// playlist file appears.
func (m *managerImpl) watchPlaylists() {
	defer m.wg.Done()
	logTags := m.GetLogTagsForContext(m.workerCtxt)

	for {
		select {
		case <-m.workerCtxt.Done():
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) || filepath.Base(event.Name) != media.HLSPlaylistName {
				continue
			}
			cameraID := filepath.Base(filepath.Dir(event.Name))
			m.lock.Lock()
			if session, found := m.sessions[cameraID]; found {
				session.ready = true
				log.WithFields(logTags).WithField("camera", cameraID).Info("Stream session ready")
			}
			m.lock.Unlock()
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).WithFields(logTags).Error("Playlist watcher failure")
		}
	}
}

// handleSessionExit stream subprocess exit callback
func (m *managerImpl) handleSessionExit(cameraID string, exitErr error) {
	logTags := m.GetLogTagsForContext(m.workerCtxt)

	m.lock.Lock()
	defer m.lock.Unlock()
	session, ok := m.sessions[cameraID]
	if !ok {
		return
	}
	_ = m.watcher.Remove(session.outputDir)
	delete(m.sessions, cameraID)
	if exitErr != nil {
		log.
			WithError(exitErr).
			WithFields(logTags).
			WithField("camera", cameraID).
			Warn("Stream session failed")
	} else {
		log.WithFields(logTags).WithField("camera", cameraID).Info("Stream session ended")
	}
}

// sweepIdleSessions sweep timer callback. Reaps sessions whose last heartbeat
// exceeds the idle threshold.
func (m *managerImpl) sweepIdleSessions() error {
	logTags := m.GetLogTagsForContext(m.workerCtxt)

	m.lock.Lock()
	defer m.lock.Unlock()

	now := time.Now()
	for cameraID, session := range m.sessions {
		if now.Sub(session.lastHeartbeat) <= m.params.Config.IdleTimeout() {
			continue
		}
		log.
			WithFields(logTags).
			WithField("camera", cameraID).
			WithField("idle", now.Sub(session.lastHeartbeat).String()).
			Info("Reaping idle stream session")
		m.teardownSessionLocked(m.workerCtxt, cameraID, session)
	}
	return nil
}

// teardownSessionLocked kill a session's subprocess and drop it from the
// registry. Caller must hold the lock.
func (m *managerImpl) teardownSessionLocked(
	ctxt context.Context, cameraID string, session *streamSession,
) {
	logTags := m.GetLogTagsForContext(ctxt)

	_ = m.watcher.Remove(session.outputDir)
	delete(m.sessions, cameraID)
	if err := session.process.Kill(ctxt); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to terminate stream session")
	}
}

func (m *managerImpl) RegisterRecorder(ctxt context.Context, cameraID string) {
	logTags := m.GetLogTagsForContext(ctxt)

	m.lock.Lock()
	defer m.lock.Unlock()

	m.recorders[cameraID] = true
	if session, ok := m.sessions[cameraID]; ok {
		log.
			WithFields(logTags).
			WithField("camera", cameraID).
			Info("Camera now recorder controlled, tearing down stream session")
		m.teardownSessionLocked(ctxt, cameraID, session)
	}
}

func (m *managerImpl) UnregisterRecorder(ctxt context.Context, cameraID string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.recorders, cameraID)
}

func (m *managerImpl) Watching(cameraID string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	_, ok := m.sessions[cameraID]
	return ok
}

func (m *managerImpl) Ready(cameraID string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	session, ok := m.sessions[cameraID]
	return ok && session.ready
}

func (m *managerImpl) Stop(ctxt context.Context) error {
	logTags := m.GetLogTagsForContext(ctxt)

	m.lock.Lock()
	_ = m.sweepTimer.Stop()
	for cameraID, session := range m.sessions {
		m.teardownSessionLocked(ctxt, cameraID, session)
	}
	m.lock.Unlock()

	if err := m.watcher.Close(); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to close playlist watcher")
	}
	m.workerCancel()
	return goutils.TimeBoundedWaitGroupWait(ctxt, &m.wg, time.Second*5)
}
