package camera

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/mocks"
	"github.com/AhmadShamli/DarkEye/record"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCameraManagerStartStop(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockDB := mocks.NewPersistenceManager(t)
	mockRelay := mocks.NewPublisher(t)
	mockStreams := mocks.NewStreamManager(t)
	mockLauncher := mocks.NewProcessLauncher(t)
	mockSupervisor := mocks.NewSupervisor(t)

	lock := sync.Mutex{}
	builtFor := []record.SupervisorParams{}
	factory := func(
		_ context.Context, params record.SupervisorParams,
	) (record.Supervisor, error) {
		lock.Lock()
		defer lock.Unlock()
		builtFor = append(builtFor, params)
		return mockSupervisor, nil
	}

	uut, err := NewManager(utCtxt, ManagerParams{
		DB:       mockDB,
		Relay:    mockRelay,
		Streams:  mockStreams,
		Launcher: mockLauncher,
		Capture: common.CaptureConfig{
			FFmpegBin:            "ffmpeg",
			RelayStreamURIPrefix: "rtsp://127.0.0.1:8554/live",
		},
		Recording: common.RecordingConfig{
			RelaySettleDelayInSec: 1,
			RestartBackoffInSec:   1,
			DefaultStoragePath:    t.TempDir(),
		},
		NewSupervisor: factory,
	})
	assert.Nil(err)

	cameraConfig := common.CameraConfig{
		ID:                  "TESTA",
		Name:                "unit-test",
		Kind:                common.CameraKindRTSP,
		StreamURL:           "rtsp://camera.local/stream",
		RecordMode:          common.RecordModeRaw,
		SegmentDurationMins: 15,
	}

	// Case 0: starting a record-enabled camera republishes the relay config,
	// claims the stream, and brings the supervisor up after the settle delay
	mockRelay.On("Regenerate", mock.Anything).Return(nil).Once()
	mockRelay.On("Restart", mock.Anything).Return(nil).Once()
	mockStreams.On("RegisterRecorder", mock.Anything, "TESTA").Return().Once()
	mockSupervisor.On("Start", mock.Anything).Return(nil).Once()

	assert.Nil(uut.Start(utCtxt, cameraConfig, true))
	assert.False(uut.Recording("TESTA"))

	assert.Eventually(func() bool {
		lock.Lock()
		defer lock.Unlock()
		return len(builtFor) == 1
	}, time.Second*5, time.Millisecond*100)
	{
		lock.Lock()
		assert.Equal("TESTA", builtFor[0].Camera.ID)
		assert.Equal("rtsp://127.0.0.1:8554/live", builtFor[0].RelayStreamURIPrefix)
		lock.Unlock()
	}

	// Case 1: recording status comes from the supervisor
	mockSupervisor.On("Recording").Return(true).Once()
	assert.True(uut.Recording("TESTA"))

	// Case 2: stop takes the supervisor down and releases the stream
	mockSupervisor.On("Stop", mock.Anything).Return(nil).Once()
	mockStreams.On("UnregisterRecorder", mock.Anything, "TESTA").Return().Once()
	mockRelay.On("Regenerate", mock.Anything).Return(nil).Once()
	mockRelay.On("Restart", mock.Anything).Return(nil).Once()

	assert.Nil(uut.Stop(utCtxt, "TESTA", true))
	assert.False(uut.Recording("TESTA"))

	assert.Nil(uut.StopAll(utCtxt))
}

func TestCameraManagerStopCancelsPendingStart(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockDB := mocks.NewPersistenceManager(t)
	mockRelay := mocks.NewPublisher(t)
	mockStreams := mocks.NewStreamManager(t)
	mockLauncher := mocks.NewProcessLauncher(t)

	lock := sync.Mutex{}
	factoryCalls := 0
	factory := func(
		_ context.Context, _ record.SupervisorParams,
	) (record.Supervisor, error) {
		lock.Lock()
		defer lock.Unlock()
		factoryCalls++
		return mocks.NewSupervisor(t), nil
	}

	uut, err := NewManager(utCtxt, ManagerParams{
		DB:       mockDB,
		Relay:    mockRelay,
		Streams:  mockStreams,
		Launcher: mockLauncher,
		Capture: common.CaptureConfig{
			FFmpegBin:            "ffmpeg",
			RelayStreamURIPrefix: "rtsp://127.0.0.1:8554/live",
		},
		Recording: common.RecordingConfig{
			RelaySettleDelayInSec: 1,
			RestartBackoffInSec:   1,
			DefaultStoragePath:    t.TempDir(),
		},
		NewSupervisor: factory,
	})
	assert.Nil(err)

	cameraConfig := common.CameraConfig{
		ID:                  "TESTB",
		Name:                "unit-test",
		Kind:                common.CameraKindRTSP,
		StreamURL:           "rtsp://camera.local/stream",
		RecordMode:          common.RecordModeRaw,
		SegmentDurationMins: 15,
	}

	mockStreams.On("RegisterRecorder", mock.Anything, "TESTB").Return().Once()
	assert.Nil(uut.Start(utCtxt, cameraConfig, false))

	// Stop before the settle delay elapses, the supervisor is never built
	mockStreams.On("UnregisterRecorder", mock.Anything, "TESTB").Return().Once()
	assert.Nil(uut.Stop(utCtxt, "TESTB", false))

	time.Sleep(time.Millisecond * 1500)
	{
		lock.Lock()
		assert.Equal(0, factoryCalls)
		lock.Unlock()
	}

	assert.Nil(uut.StopAll(utCtxt))
}

func TestCameraManagerNonRecordableCamera(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockDB := mocks.NewPersistenceManager(t)
	mockRelay := mocks.NewPublisher(t)
	mockStreams := mocks.NewStreamManager(t)
	mockLauncher := mocks.NewProcessLauncher(t)

	factory := func(
		_ context.Context, _ record.SupervisorParams,
	) (record.Supervisor, error) {
		assert.FailNow("supervisor must not be built for a view-only camera")
		return nil, nil
	}

	uut, err := NewManager(utCtxt, ManagerParams{
		DB:       mockDB,
		Relay:    mockRelay,
		Streams:  mockStreams,
		Launcher: mockLauncher,
		Capture: common.CaptureConfig{
			FFmpegBin:            "ffmpeg",
			RelayStreamURIPrefix: "rtsp://127.0.0.1:8554/live",
		},
		Recording: common.RecordingConfig{
			RelaySettleDelayInSec: 1,
			RestartBackoffInSec:   1,
			DefaultStoragePath:    t.TempDir(),
		},
		NewSupervisor: factory,
	})
	assert.Nil(err)

	// View-only camera still republishes the relay config, but no recorder starts
	mockRelay.On("Regenerate", mock.Anything).Return(nil).Once()
	mockRelay.On("Restart", mock.Anything).Return(nil).Once()

	assert.Nil(uut.Start(utCtxt, common.CameraConfig{
		ID:         "TESTC",
		Name:       "unit-test",
		Kind:       common.CameraKindRTSP,
		StreamURL:  "rtsp://camera.local/stream",
		RecordMode: common.RecordModeNone,
	}, true))

	time.Sleep(time.Millisecond * 1500)
	assert.False(uut.Recording("TESTC"))

	assert.Nil(uut.StopAll(utCtxt))
}

func TestCameraManagerInit(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockDB := mocks.NewPersistenceManager(t)
	mockRelay := mocks.NewPublisher(t)
	mockStreams := mocks.NewStreamManager(t)
	mockLauncher := mocks.NewProcessLauncher(t)
	mockSupervisor := mocks.NewSupervisor(t)

	lock := sync.Mutex{}
	builtFor := []string{}
	factory := func(
		_ context.Context, params record.SupervisorParams,
	) (record.Supervisor, error) {
		lock.Lock()
		defer lock.Unlock()
		builtFor = append(builtFor, params.Camera.ID)
		return mockSupervisor, nil
	}

	uut, err := NewManager(utCtxt, ManagerParams{
		DB:       mockDB,
		Relay:    mockRelay,
		Streams:  mockStreams,
		Launcher: mockLauncher,
		Capture: common.CaptureConfig{
			FFmpegBin:            "ffmpeg",
			RelayStreamURIPrefix: "rtsp://127.0.0.1:8554/live",
		},
		Recording: common.RecordingConfig{
			RelaySettleDelayInSec: 1,
			RestartBackoffInSec:   1,
			DefaultStoragePath:    t.TempDir(),
		},
		NewSupervisor: factory,
	})
	assert.Nil(err)

	// Startup reconciliation: relay comes up, only record-enabled cameras start
	mockDB.On("ListCameras", mock.Anything).Return([]common.CameraConfig{
		{
			ID:                  "AAAAA",
			Name:                "recording",
			Kind:                common.CameraKindRTSP,
			StreamURL:           "rtsp://camera-a.local/stream",
			RecordMode:          common.RecordModeRaw,
			SegmentDurationMins: 15,
		},
		{
			ID:         "BBBBB",
			Name:       "view-only",
			Kind:       common.CameraKindRTSP,
			StreamURL:  "rtsp://camera-b.local/stream",
			RecordMode: common.RecordModeNone,
		},
	}, nil).Once()
	mockRelay.On("Regenerate", mock.Anything).Return(nil).Once()
	mockRelay.On("Start", mock.Anything).Return(nil).Once()
	mockStreams.On("RegisterRecorder", mock.Anything, "AAAAA").Return().Once()
	mockSupervisor.On("Start", mock.Anything).Return(nil).Once()

	assert.Nil(uut.Init(utCtxt))

	assert.Eventually(func() bool {
		lock.Lock()
		defer lock.Unlock()
		return len(builtFor) == 1
	}, time.Second*5, time.Millisecond*100)
	{
		lock.Lock()
		assert.Equal([]string{"AAAAA"}, builtFor)
		lock.Unlock()
	}

	mockSupervisor.On("Stop", mock.Anything).Return(nil).Once()
	mockStreams.On("UnregisterRecorder", mock.Anything, "AAAAA").Return().Once()
	assert.Nil(uut.StopAll(utCtxt))
}
