package stream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/media"
	"github.com/AhmadShamli/DarkEye/mocks"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestStreamManagerSessionLifecycle(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockLauncher := mocks.NewProcessLauncher(t)
	mockProc := mocks.NewProcess(t)

	outputRoot := t.TempDir()

	lock := sync.Mutex{}
	launched := []media.ProcessSpec{}
	mockLauncher.On("Launch", mock.Anything, mock.AnythingOfType("media.ProcessSpec")).Run(
		func(args mock.Arguments) {
			lock.Lock()
			defer lock.Unlock()
			launched = append(launched, args.Get(1).(media.ProcessSpec))
		},
	).Return(mockProc, nil)
	mockProc.On("Kill", mock.Anything).Return(nil).Maybe()

	uut, err := NewManager(utCtxt, ManagerParams{
		Launcher:  mockLauncher,
		FFmpegBin: "ffmpeg",
		Config: common.StreamConfig{
			OutputDir:        outputRoot,
			SweepIntInSec:    10,
			IdleTimeoutInSec: 60,
		},
	})
	assert.Nil(err)

	sourceURL := "rtsp://127.0.0.1:8554/live/TESTA"

	// Case 0: first heartbeat spawns the session
	assert.False(uut.Watching("TESTA"))
	assert.Nil(uut.Heartbeat(utCtxt, "TESTA", sourceURL))
	assert.True(uut.Watching("TESTA"))
	assert.False(uut.Ready("TESTA"))
	{
		lock.Lock()
		assert.Len(launched, 1)
		assert.Equal("stream-TESTA", launched[0].Name)
		assert.Contains(launched[0].Args, sourceURL)
		lock.Unlock()
	}

	// Case 1: repeat heartbeats do not spawn again
	assert.Nil(uut.Heartbeat(utCtxt, "TESTA", sourceURL))
	{
		lock.Lock()
		assert.Len(launched, 1)
		lock.Unlock()
	}

	// Case 2: playlist appearing flags the session ready
	playlist := filepath.Join(outputRoot, "TESTA", media.HLSPlaylistName)
	assert.Nil(os.WriteFile(playlist, []byte("#EXTM3U"), 0o644))
	assert.Eventually(func() bool {
		return uut.Ready("TESTA")
	}, time.Second*2, time.Millisecond*20)

	// Case 3: subprocess exit removes the session
	{
		lock.Lock()
		exitCB := launched[0].OnExit
		lock.Unlock()
		exitCB(fmt.Errorf("dummy failure"))
	}
	assert.False(uut.Watching("TESTA"))
	assert.False(uut.Ready("TESTA"))

	assert.Nil(uut.Stop(utCtxt))
}

func TestStreamManagerRecorderExclusivity(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockLauncher := mocks.NewProcessLauncher(t)
	mockProc := mocks.NewProcess(t)

	outputRoot := t.TempDir()

	lock := sync.Mutex{}
	launchCount := 0
	mockLauncher.On("Launch", mock.Anything, mock.AnythingOfType("media.ProcessSpec")).Run(
		func(args mock.Arguments) {
			lock.Lock()
			defer lock.Unlock()
			launchCount++
		},
	).Return(mockProc, nil)
	mockProc.On("Kill", mock.Anything).Return(nil)

	uut, err := NewManager(utCtxt, ManagerParams{
		Launcher:  mockLauncher,
		FFmpegBin: "ffmpeg",
		Config: common.StreamConfig{
			OutputDir:        outputRoot,
			SweepIntInSec:    10,
			IdleTimeoutInSec: 20,
		},
	})
	assert.Nil(err)

	sourceURL := "rtsp://127.0.0.1:8554/live/TESTB"

	// Live session running
	assert.Nil(uut.Heartbeat(utCtxt, "TESTB", sourceURL))
	assert.True(uut.Watching("TESTB"))

	// Recorder registration tears the session down and suppresses new spawns
	uut.RegisterRecorder(utCtxt, "TESTB")
	assert.False(uut.Watching("TESTB"))
	assert.Nil(uut.Heartbeat(utCtxt, "TESTB", sourceURL))
	assert.False(uut.Watching("TESTB"))
	{
		lock.Lock()
		assert.Equal(1, launchCount)
		lock.Unlock()
	}

	// Registration is idempotent
	uut.RegisterRecorder(utCtxt, "TESTB")

	// Unregistering allows sessions again
	uut.UnregisterRecorder(utCtxt, "TESTB")
	assert.Nil(uut.Heartbeat(utCtxt, "TESTB", sourceURL))
	assert.True(uut.Watching("TESTB"))

	assert.Nil(uut.Stop(utCtxt))
}

func TestStreamManagerIdleSweep(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockLauncher := mocks.NewProcessLauncher(t)
	mockProc := mocks.NewProcess(t)

	outputRoot := t.TempDir()

	mockLauncher.On("Launch", mock.Anything, mock.AnythingOfType("media.ProcessSpec")).Return(
		mockProc, nil,
	)
	mockProc.On("Kill", mock.Anything).Return(nil)

	uut, err := NewManager(utCtxt, ManagerParams{
		Launcher:  mockLauncher,
		FFmpegBin: "ffmpeg",
		Config: common.StreamConfig{
			OutputDir:        outputRoot,
			SweepIntInSec:    1,
			IdleTimeoutInSec: 1,
		},
	})
	assert.Nil(err)

	sourceURL := "rtsp://127.0.0.1:8554/live/TESTC"
	assert.Nil(uut.Heartbeat(utCtxt, "TESTC", sourceURL))
	assert.True(uut.Watching("TESTC"))

	// Case 0: a session heartbeating inside the idle threshold survives the
	// sweeps
	for itr := 0; itr < 15; itr++ {
		time.Sleep(time.Millisecond * 200)
		assert.True(uut.Watching("TESTC"))
		assert.Nil(uut.Heartbeat(utCtxt, "TESTC", sourceURL))
	}
	assert.True(uut.Watching("TESTC"))

	// Case 1: once the heartbeats stop, the session is reaped past the idle
	// threshold
	assert.Eventually(func() bool {
		return !uut.Watching("TESTC")
	}, time.Second*5, time.Millisecond*100)

	assert.Nil(uut.Stop(utCtxt))
}
