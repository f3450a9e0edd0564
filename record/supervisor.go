package record

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/db"
	"github.com/AhmadShamli/DarkEye/media"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// Supervisor supervises the capture subprocesses of one camera: the main
// recording and, when enabled, an independent timelapse capture. A subprocess
// failure while recording is desired schedules a respawn after a fixed backoff;
// explicit Stop is the only terminal state.
type Supervisor interface {
	/*
		Start mark recording as desired and spawn the capture subprocesses

			@param ctxt context.Context - execution context
	*/
	Start(ctxt context.Context) error

	/*
		Stop mark recording as not desired, cancel any pending restart, and
		terminate the capture subprocesses

			@param ctxt context.Context - execution context
	*/
	Stop(ctxt context.Context) error

	/*
		Recording whether the main capture subprocess is currently running.
		A camera stuck in restart backoff reports false.
	*/
	Recording() bool
}

// SupervisorParams parameters for defining a recording supervisor
type SupervisorParams struct {
	// Camera the supervised camera
	Camera common.CameraConfig
	// DB persistence access, settings are re-read on every (re)start
	DB db.PersistenceManager
	// Launcher capture subprocess launcher
	Launcher media.ProcessLauncher
	// FFmpegBin capture binary path
	FFmpegBin string
	// RelayStreamURIPrefix prefix of per-camera relay playback endpoints
	RelayStreamURIPrefix string
	// RestartBackoff wait between a capture failure and the respawn attempt
	RestartBackoff time.Duration
	// DefaultStoragePath recording tree root used when the settings store has none
	DefaultStoragePath string
}

// supervisorImpl implements Supervisor
type supervisorImpl struct {
	goutils.Component
	params SupervisorParams

	lock          sync.Mutex
	shouldRecord  bool
	recording     bool
	mainProc      media.Process
	timelapseProc media.Process
	captureGen    int
	restartTimer  goutils.IntervalTimer
	wg            sync.WaitGroup
	workerCtxt    context.Context
	workerCancel  context.CancelFunc
}

/*
NewSupervisor define a new per-camera recording supervisor

	@param parentCtxt context.Context - parent execution context
	@param params SupervisorParams - supervisor parameters
	@returns new Supervisor
*/
func NewSupervisor(parentCtxt context.Context, params SupervisorParams) (Supervisor, error) {
	logTags := log.Fields{
		"module": "record", "component": "supervisor", "instance": params.Camera.ID,
	}

	instance := &supervisorImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		params: params,
	}
	instance.workerCtxt, instance.workerCancel = context.WithCancel(parentCtxt)

	restartTimer, err := goutils.GetIntervalTimerInstance(
		instance.workerCtxt, &instance.wg, logTags,
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to define restart timer")
		return nil, err
	}
	instance.restartTimer = restartTimer

	return instance, nil
}

func (s *supervisorImpl) Start(ctxt context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.shouldRecord = true
	return s.startCaptureLocked(ctxt)
}

// startCaptureLocked spawn the capture subprocesses. Caller must hold the lock.
func (s *supervisorImpl) startCaptureLocked(ctxt context.Context) error {
	logTags := s.GetLogTagsForContext(ctxt)
	camera := s.params.Camera

	if !s.shouldRecord {
		return nil
	}

	// Exit callbacks of these subprocesses only count while this generation is
	// still current
	generation := s.captureGen

	input := fmt.Sprintf("%s/%s", s.params.RelayStreamURIPrefix, camera.ID)
	basePath := s.params.DB.StoragePath(ctxt, s.params.DefaultStoragePath)
	recordingPath := filepath.Join(basePath, camera.ID)

	if err := os.MkdirAll(recordingPath, 0o755); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to create recording directory")
		return err
	}

	// Main recording
	if s.mainProc == nil && camera.RecordMode != common.RecordModeNone {
		outPattern := filepath.Join(recordingPath, media.SegmentFilePattern)
		args := media.RecordingArgs(
			input, outPattern, camera.RecordMode, int(camera.SegmentDuration().Seconds()),
		)
		process, err := s.params.Launcher.Launch(ctxt, media.ProcessSpec{
			Name:   fmt.Sprintf("record-%s", camera.ID),
			Binary: s.params.FFmpegBin,
			Args:   args,
			OnExit: func(exitErr error) {
				s.handleCaptureExit(generation, exitErr)
			},
		})
		if err != nil {
			log.WithError(err).WithFields(logTags).Error("Main capture failed to spawn")
			s.scheduleRestartLocked()
			return nil
		}
		s.mainProc = process
		s.recording = true
		log.WithFields(logTags).WithField("mode", camera.RecordMode).Info("Main recording started")
	}

	// Timelapse runs independently of the main recording
	if s.timelapseProc == nil && camera.TimelapseEnabled {
		timelapseDir := filepath.Join(recordingPath, "timelapse")
		if err := os.MkdirAll(timelapseDir, 0o755); err != nil {
			log.WithError(err).WithFields(logTags).Error("Unable to create timelapse directory")
			return err
		}

		intervalSecs := camera.TimelapseIntervalSecs
		segmentSecs := int(camera.TimelapseDuration().Seconds())
		args := media.TimelapseArgs(
			input, filepath.Join(timelapseDir, media.SegmentFilePattern), intervalSecs, segmentSecs,
		)
		process, err := s.params.Launcher.Launch(ctxt, media.ProcessSpec{
			Name:   fmt.Sprintf("timelapse-%s", camera.ID),
			Binary: s.params.FFmpegBin,
			Args:   args,
			OnExit: func(exitErr error) {
				s.handleCaptureExit(generation, exitErr)
			},
		})
		if err != nil {
			log.WithError(err).WithFields(logTags).Error("Timelapse capture failed to spawn")
			s.scheduleRestartLocked()
			return nil
		}
		s.timelapseProc = process
		log.
			WithFields(logTags).
			WithField("gop", media.TimelapseGOP(segmentSecs, intervalSecs)).
			Info("Timelapse recording started")
	}

	return nil
}

// handleCaptureExit subprocess exit callback. Schedules a respawn while
// recording is still desired. Exits from a superseded generation are the result
// of killCapturesLocked replacing the subprocesses, and must not schedule
// another restart; an exit after Stop is expected and ignored for the same
// reason.
func (s *supervisorImpl) handleCaptureExit(generation int, exitErr error) {
	logTags := s.GetLogTagsForContext(s.workerCtxt)

	s.lock.Lock()
	defer s.lock.Unlock()

	if generation != s.captureGen {
		return
	}
	if !s.shouldRecord {
		return
	}

	if exitErr != nil {
		log.WithError(exitErr).WithFields(logTags).Warn("Capture subprocess failed")
	} else {
		log.WithFields(logTags).Info("Capture stream ended")
	}
	s.recording = false
	s.scheduleRestartLocked()
}

// scheduleRestartLocked arm the restart backoff timer, replacing any pending
// schedule so duplicate subprocesses can never pile up. Caller must hold the lock.
func (s *supervisorImpl) scheduleRestartLocked() {
	logTags := s.GetLogTagsForContext(s.workerCtxt)

	_ = s.restartTimer.Stop()
	if err := s.restartTimer.Start(s.params.RestartBackoff, s.restartCapture, true); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to schedule capture restart")
		return
	}
	log.
		WithFields(logTags).
		WithField("backoff", s.params.RestartBackoff.String()).
		Info("Scheduled capture restart")
}

// restartCapture restart backoff timer callback
func (s *supervisorImpl) restartCapture() error {
	logTags := s.GetLogTagsForContext(s.workerCtxt)

	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.shouldRecord {
		return nil
	}

	log.WithFields(logTags).Info("Restarting capture")
	s.killCapturesLocked(s.workerCtxt)
	return s.startCaptureLocked(s.workerCtxt)
}

// killCapturesLocked terminate any running capture subprocess. Caller must hold
// the lock.
func (s *supervisorImpl) killCapturesLocked(ctxt context.Context) {
	logTags := s.GetLogTagsForContext(ctxt)

	// The kills below deliver exit callbacks of their own; advancing the
	// generation first marks those as superseded
	s.captureGen++

	if s.mainProc != nil {
		if err := s.mainProc.Kill(ctxt); err != nil {
			log.WithError(err).WithFields(logTags).Error("Unable to terminate main capture")
		}
		s.mainProc = nil
	}
	if s.timelapseProc != nil {
		if err := s.timelapseProc.Kill(ctxt); err != nil {
			log.WithError(err).WithFields(logTags).Error("Unable to terminate timelapse capture")
		}
		s.timelapseProc = nil
	}
	s.recording = false
}

func (s *supervisorImpl) Stop(ctxt context.Context) error {
	logTags := s.GetLogTagsForContext(ctxt)

	s.lock.Lock()
	s.shouldRecord = false
	_ = s.restartTimer.Stop()
	s.killCapturesLocked(ctxt)
	s.lock.Unlock()

	s.workerCancel()
	log.WithFields(logTags).Info("Recording stopped")
	return goutils.TimeBoundedWaitGroupWait(ctxt, &s.wg, time.Second*5)
}

func (s *supervisorImpl) Recording() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.recording
}
