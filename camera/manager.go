package camera

import (
	"context"
	"sync"
	"time"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/db"
	"github.com/AhmadShamli/DarkEye/media"
	"github.com/AhmadShamli/DarkEye/record"
	"github.com/AhmadShamli/DarkEye/relay"
	"github.com/AhmadShamli/DarkEye/stream"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// SupervisorFactory builds recording supervisors. Injected so tests can
// substitute fakes.
type SupervisorFactory func(
	parentCtxt context.Context, params record.SupervisorParams,
) (record.Supervisor, error)

// Manager drives the runtime lifecycle of the camera fleet: it owns the
// id to session registry, coordinates relay config updates with supervisor
// starts, and reconciles the fleet against the DB on startup.
type Manager interface {
	/*
		Start bring a camera's pipelines up. When the relay config changed, the
		supervisor start is delayed until the restarted relay has had time to settle.

			@param ctxt context.Context - execution context
			@param config common.CameraConfig - camera to start
			@param regenerateRelay bool - whether the relay config must be republished first
	*/
	Start(ctxt context.Context, config common.CameraConfig, regenerateRelay bool) error

	/*
		Stop take a camera's pipelines down, cancelling any pending delayed start

			@param ctxt context.Context - execution context
			@param cameraID string - camera ID
			@param regenerateRelay bool - whether the relay config must be republished after
	*/
	Stop(ctxt context.Context, cameraID string, regenerateRelay bool) error

	/*
		Restart take a camera's pipelines down and bring them back up against the
		camera's current stored config

			@param ctxt context.Context - execution context
			@param cameraID string - camera ID
	*/
	Restart(ctxt context.Context, cameraID string) error

	/*
		Init reconcile runtime state with the DB: publish the relay config, start
		the relay, and start every record-enabled camera. Only a store failure
		aborts; per-camera failures are logged and skipped.

			@param ctxt context.Context - execution context
	*/
	Init(ctxt context.Context) error

	/*
		Recording whether a camera's main recording is currently running

			@param cameraID string - camera ID
	*/
	Recording(cameraID string) bool

	/*
		StopAll take all camera pipelines down

			@param ctxt context.Context - execution context
	*/
	StopAll(ctxt context.Context) error
}

// cameraEntry one camera's runtime session
type cameraEntry struct {
	config      common.CameraConfig
	settleTimer goutils.IntervalTimer
	supervisor  record.Supervisor
}

// ManagerParams parameters for defining a camera lifecycle manager
type ManagerParams struct {
	// DB persistence access
	DB db.PersistenceManager
	// Relay relay config publisher
	Relay relay.Publisher
	// Streams on-demand stream manager, informed of recorder-controlled cameras
	Streams stream.Manager
	// Launcher capture subprocess launcher
	Launcher media.ProcessLauncher
	// Capture capture subprocess settings
	Capture common.CaptureConfig
	// Recording recording supervisor settings
	Recording common.RecordingConfig
	// NewSupervisor recording supervisor factory
	NewSupervisor SupervisorFactory
}

// managerImpl implements Manager
type managerImpl struct {
	goutils.Component
	params ManagerParams

	lock    sync.Mutex
	cameras map[string]*cameraEntry

	wg           sync.WaitGroup
	workerCtxt   context.Context
	workerCancel context.CancelFunc
}

/*
NewManager define a new camera lifecycle manager

	@param parentCtxt context.Context - parent execution context
	@param params ManagerParams - manager parameters
	@returns new Manager
*/
func NewManager(parentCtxt context.Context, params ManagerParams) (Manager, error) {
	instance := &managerImpl{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "camera", "component": "manager"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		params:  params,
		cameras: map[string]*cameraEntry{},
	}
	instance.workerCtxt, instance.workerCancel = context.WithCancel(parentCtxt)
	return instance, nil
}

func (m *managerImpl) Start(
	ctxt context.Context, config common.CameraConfig, regenerateRelay bool,
) error {
	logTags := m.GetLogTagsForContext(ctxt)

	m.lock.Lock()
	defer m.lock.Unlock()

	// Replace any existing session for the camera
	if entry, ok := m.cameras[config.ID]; ok {
		m.stopEntryLocked(ctxt, config.ID, entry)
	}

	if regenerateRelay {
		if err := m.params.Relay.Regenerate(ctxt); err != nil {
			return err
		}
		if err := m.params.Relay.Restart(ctxt); err != nil {
			// The config is already published; the relay is recoverable separately
			log.WithError(err).WithFields(logTags).Error("Relay restart failed")
		}
	}

	if !config.Recordable() {
		return nil
	}

	m.params.Streams.RegisterRecorder(ctxt, config.ID)

	entryLogTags := log.Fields{
		"module": "camera", "component": "manager", "instance": config.ID,
	}
	settleTimer, err := goutils.GetIntervalTimerInstance(m.workerCtxt, &m.wg, entryLogTags)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to define settle timer")
		m.params.Streams.UnregisterRecorder(ctxt, config.ID)
		return err
	}

	entry := &cameraEntry{config: config, settleTimer: settleTimer}
	m.cameras[config.ID] = entry

	// Let the restarted relay settle before the supervisor connects to it
	if err := settleTimer.Start(m.params.Recording.RelaySettleDelay(), func() error {
		return m.startSupervisor(config.ID, entry)
	}, true); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to schedule supervisor start")
		m.stopEntryLocked(ctxt, config.ID, entry)
		return err
	}

	log.
		WithFields(logTags).
		WithField("camera", config.ID).
		WithField("settle", m.params.Recording.RelaySettleDelay().String()).
		Info("Camera start scheduled")
	return nil
}

// startSupervisor settle timer callback. Builds and starts the camera's
// recording supervisor unless the session was stopped in the meantime.
func (m *managerImpl) startSupervisor(cameraID string, entry *cameraEntry) error {
	logTags := m.GetLogTagsForContext(m.workerCtxt)

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.cameras[cameraID] != entry {
		return nil
	}

	supervisor, err := m.params.NewSupervisor(m.workerCtxt, record.SupervisorParams{
		Camera:               entry.config,
		DB:                   m.params.DB,
		Launcher:             m.params.Launcher,
		FFmpegBin:            m.params.Capture.FFmpegBin,
		RelayStreamURIPrefix: m.params.Capture.RelayStreamURIPrefix,
		RestartBackoff:       m.params.Recording.RestartBackoff(),
		DefaultStoragePath:   m.params.Recording.DefaultStoragePath,
	})
	if err != nil {
		log.WithError(err).WithFields(logTags).
			WithField("camera", cameraID).
			Error("Unable to define recording supervisor")
		return err
	}
	entry.supervisor = supervisor

	if err := supervisor.Start(m.workerCtxt); err != nil {
		log.WithError(err).WithFields(logTags).
			WithField("camera", cameraID).
			Error("Recording supervisor failed to start")
		return err
	}
	log.WithFields(logTags).WithField("camera", cameraID).Info("Camera recording")
	return nil
}

// stopEntryLocked cancel a session's pending start, stop its supervisor, and
// drop it from the registry. Caller must hold the lock.
func (m *managerImpl) stopEntryLocked(ctxt context.Context, cameraID string, entry *cameraEntry) {
	logTags := m.GetLogTagsForContext(ctxt)

	_ = entry.settleTimer.Stop()
	if entry.supervisor != nil {
		if err := entry.supervisor.Stop(ctxt); err != nil {
			log.WithError(err).WithFields(logTags).
				WithField("camera", cameraID).
				Error("Unable to stop recording supervisor")
		}
		entry.supervisor = nil
	}
	m.params.Streams.UnregisterRecorder(ctxt, cameraID)
	delete(m.cameras, cameraID)
}

func (m *managerImpl) Stop(ctxt context.Context, cameraID string, regenerateRelay bool) error {
	logTags := m.GetLogTagsForContext(ctxt)

	m.lock.Lock()
	if entry, ok := m.cameras[cameraID]; ok {
		m.stopEntryLocked(ctxt, cameraID, entry)
		log.WithFields(logTags).WithField("camera", cameraID).Info("Camera stopped")
	}
	m.lock.Unlock()

	if regenerateRelay {
		if err := m.params.Relay.Regenerate(ctxt); err != nil {
			return err
		}
		if err := m.params.Relay.Restart(ctxt); err != nil {
			log.WithError(err).WithFields(logTags).Error("Relay restart failed")
		}
	}
	return nil
}

func (m *managerImpl) Restart(ctxt context.Context, cameraID string) error {
	config, err := m.params.DB.GetCamera(ctxt, cameraID)
	if err != nil {
		return err
	}
	if err := m.Stop(ctxt, cameraID, false); err != nil {
		return err
	}
	return m.Start(ctxt, config, true)
}

func (m *managerImpl) Init(ctxt context.Context) error {
	logTags := m.GetLogTagsForContext(ctxt)

	cameras, err := m.params.DB.ListCameras(ctxt)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to list cameras on startup")
		return err
	}

	if err := m.params.Relay.Regenerate(ctxt); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to publish relay config on startup")
	}
	if err := m.params.Relay.Start(ctxt); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to start relay on startup")
	}

	started := 0
	for _, config := range cameras {
		if !config.Recordable() {
			continue
		}
		if err := m.Start(ctxt, config, false); err != nil {
			log.WithError(err).WithFields(logTags).
				WithField("camera", config.ID).
				Error("Unable to start camera on startup")
			continue
		}
		started++
	}
	log.
		WithFields(logTags).
		WithField("cameras", len(cameras)).
		WithField("recording", started).
		Info("Camera fleet initialized")
	return nil
}

func (m *managerImpl) Recording(cameraID string) bool {
	m.lock.Lock()
	entry, ok := m.cameras[cameraID]
	m.lock.Unlock()
	if !ok || entry.supervisor == nil {
		return false
	}
	return entry.supervisor.Recording()
}

func (m *managerImpl) StopAll(ctxt context.Context) error {
	m.lock.Lock()
	for cameraID, entry := range m.cameras {
		m.stopEntryLocked(ctxt, cameraID, entry)
	}
	m.lock.Unlock()

	m.workerCancel()
	return goutils.TimeBoundedWaitGroupWait(ctxt, &m.wg, time.Second*5)
}
