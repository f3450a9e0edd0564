package talk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AhmadShamli/DarkEye/media"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
)

// Manager supervises talk-back audio bridge sessions. Each session pipes raw
// PCM from the caller into a bridge subprocess which forwards it to the
// camera's audio backchannel. At most one session per camera.
type Manager interface {
	/*
		StartTalk open a talk-back session toward a camera. An existing session for
		the camera is torn down first.

			@param ctxt context.Context - execution context
			@param cameraID string - camera ID
			@param backchannelURL string - camera audio backchannel locator
	*/
	StartTalk(ctxt context.Context, cameraID string, backchannelURL string) error

	/*
		SendAudio forward a chunk of s16le PCM audio into a camera's talk-back session

			@param ctxt context.Context - execution context
			@param cameraID string - camera ID
			@param pcm []byte - raw audio samples
	*/
	SendAudio(ctxt context.Context, cameraID string, pcm []byte) error

	/*
		StopTalk close a camera's talk-back session

			@param ctxt context.Context - execution context
			@param cameraID string - camera ID
	*/
	StopTalk(ctxt context.Context, cameraID string) error

	/*
		Active whether a talk-back session currently exists for a camera

			@param cameraID string - camera ID
	*/
	Active(cameraID string) bool

	/*
		Stop tear down all talk-back sessions

			@param ctxt context.Context - execution context
	*/
	Stop(ctxt context.Context) error
}

// talkSession one live talk-back bridge session
type talkSession struct {
	id        string
	process   media.Process
	startedAt time.Time
}

// managerImpl implements Manager
type managerImpl struct {
	goutils.Component
	launcher  media.ProcessLauncher
	ffmpegBin string

	lock     sync.Mutex
	sessions map[string]*talkSession
}

/*
NewManager define a new talk-back session manager

	@param launcher media.ProcessLauncher - bridge subprocess launcher
	@param ffmpegBin string - bridge subprocess binary path
	@returns new Manager
*/
func NewManager(launcher media.ProcessLauncher, ffmpegBin string) (Manager, error) {
	return &managerImpl{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "talk", "component": "manager"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		launcher:  launcher,
		ffmpegBin: ffmpegBin,
		sessions:  map[string]*talkSession{},
	}, nil
}

func (m *managerImpl) StartTalk(
	ctxt context.Context, cameraID string, backchannelURL string,
) error {
	logTags := m.GetLogTagsForContext(ctxt)

	m.lock.Lock()
	defer m.lock.Unlock()

	if existing, ok := m.sessions[cameraID]; ok {
		log.
			WithFields(logTags).
			WithField("camera", cameraID).
			WithField("session", existing.id).
			Info("Replacing existing talk-back session")
		m.teardownSessionLocked(ctxt, cameraID, existing)
	}

	sessionID := ulid.Make().String()
	process, err := m.launcher.Launch(ctxt, media.ProcessSpec{
		Name:      fmt.Sprintf("talk-%s", cameraID),
		Binary:    m.ffmpegBin,
		Args:      media.TalkArgs(backchannelURL),
		PipeStdin: true,
		OnExit: func(exitErr error) {
			m.handleBridgeExit(cameraID, sessionID, exitErr)
		},
	})
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Talk-back bridge failed to spawn")
		return err
	}

	m.sessions[cameraID] = &talkSession{
		id:        sessionID,
		process:   process,
		startedAt: time.Now(),
	}
	log.
		WithFields(logTags).
		WithField("camera", cameraID).
		WithField("session", sessionID).
		Info("Talk-back session started")
	return nil
}

func (m *managerImpl) SendAudio(ctxt context.Context, cameraID string, pcm []byte) error {
	m.lock.Lock()
	session, ok := m.sessions[cameraID]
	m.lock.Unlock()
	if !ok {
		return fmt.Errorf("no talk-back session for camera '%s'", cameraID)
	}
	_, err := session.process.WriteStdin(pcm)
	return err
}

// handleBridgeExit bridge subprocess exit callback. Clears the session unless a
// newer session already replaced it.
func (m *managerImpl) handleBridgeExit(cameraID string, sessionID string, exitErr error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	session, ok := m.sessions[cameraID]
	if !ok || session.id != sessionID {
		return
	}
	delete(m.sessions, cameraID)
	if exitErr != nil {
		log.
			WithError(exitErr).
			WithFields(m.LogTags).
			WithField("camera", cameraID).
			WithField("session", sessionID).
			Warn("Talk-back bridge failed")
	}
}

// teardownSessionLocked kill a session's bridge and drop it from the registry.
// Caller must hold the lock.
func (m *managerImpl) teardownSessionLocked(
	ctxt context.Context, cameraID string, session *talkSession,
) {
	logTags := m.GetLogTagsForContext(ctxt)

	delete(m.sessions, cameraID)
	if err := session.process.Kill(ctxt); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to terminate talk-back bridge")
	}
}

func (m *managerImpl) StopTalk(ctxt context.Context, cameraID string) error {
	logTags := m.GetLogTagsForContext(ctxt)

	m.lock.Lock()
	defer m.lock.Unlock()

	session, ok := m.sessions[cameraID]
	if !ok {
		return nil
	}
	log.
		WithFields(logTags).
		WithField("camera", cameraID).
		WithField("session", session.id).
		Info("Talk-back session stopped")
	m.teardownSessionLocked(ctxt, cameraID, session)
	return nil
}

func (m *managerImpl) Active(cameraID string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	_, ok := m.sessions[cameraID]
	return ok
}

func (m *managerImpl) Stop(ctxt context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for cameraID, session := range m.sessions {
		m.teardownSessionLocked(ctxt, cameraID, session)
	}
	return nil
}
