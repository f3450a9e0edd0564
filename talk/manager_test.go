package talk

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/AhmadShamli/DarkEye/media"
	"github.com/AhmadShamli/DarkEye/mocks"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTalkSessionLifecycle(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockLauncher := mocks.NewProcessLauncher(t)
	mockProc := mocks.NewProcess(t)

	lock := sync.Mutex{}
	launched := []media.ProcessSpec{}
	mockLauncher.On("Launch", mock.Anything, mock.AnythingOfType("media.ProcessSpec")).Run(
		func(args mock.Arguments) {
			lock.Lock()
			defer lock.Unlock()
			launched = append(launched, args.Get(1).(media.ProcessSpec))
		},
	).Return(mockProc, nil)

	uut, err := NewManager(mockLauncher, "ffmpeg")
	assert.Nil(err)

	backchannelURL := "rtsp://camera.local/backchannel"

	// Case 0: start a session
	assert.False(uut.Active("TESTA"))
	assert.Nil(uut.StartTalk(utCtxt, "TESTA", backchannelURL))
	assert.True(uut.Active("TESTA"))
	{
		lock.Lock()
		assert.Len(launched, 1)
		assert.Equal("talk-TESTA", launched[0].Name)
		assert.True(launched[0].PipeStdin)
		assert.Contains(launched[0].Args, backchannelURL)
		lock.Unlock()
	}

	// Case 1: audio flows to the bridge stdin
	audioChunk := []byte{0x01, 0x02, 0x03, 0x04}
	mockProc.On("WriteStdin", audioChunk).Return(len(audioChunk), nil).Once()
	assert.Nil(uut.SendAudio(utCtxt, "TESTA", audioChunk))

	// Case 2: audio toward an unknown camera fails
	assert.NotNil(uut.SendAudio(utCtxt, "BBBBB", audioChunk))

	// Case 3: restarting replaces the session, and the stale exit callback of
	// the replaced bridge is ignored
	mockProc.On("Kill", mock.Anything).Return(nil).Once()
	assert.Nil(uut.StartTalk(utCtxt, "TESTA", backchannelURL))
	assert.True(uut.Active("TESTA"))
	{
		lock.Lock()
		assert.Len(launched, 2)
		staleExit := launched[0].OnExit
		lock.Unlock()
		staleExit(fmt.Errorf("killed"))
	}
	assert.True(uut.Active("TESTA"))

	// Case 4: bridge exit clears the live session
	{
		lock.Lock()
		exitCB := launched[1].OnExit
		lock.Unlock()
		exitCB(fmt.Errorf("dummy failure"))
	}
	assert.False(uut.Active("TESTA"))

	// Case 5: stop on a camera without a session is a no-op
	assert.Nil(uut.StopTalk(utCtxt, "TESTA"))
}

func TestTalkManagerStopAll(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()

	mockLauncher := mocks.NewProcessLauncher(t)
	mockProc := mocks.NewProcess(t)

	mockLauncher.On("Launch", mock.Anything, mock.AnythingOfType("media.ProcessSpec")).Return(
		mockProc, nil,
	)
	mockProc.On("Kill", mock.Anything).Return(nil).Times(2)

	uut, err := NewManager(mockLauncher, "ffmpeg")
	assert.Nil(err)

	assert.Nil(uut.StartTalk(utCtxt, "TESTA", "rtsp://camera-a.local/backchannel"))
	assert.Nil(uut.StartTalk(utCtxt, "TESTB", "rtsp://camera-b.local/backchannel"))
	assert.True(uut.Active("TESTA"))
	assert.True(uut.Active("TESTB"))

	assert.Nil(uut.Stop(utCtxt))
	assert.False(uut.Active("TESTA"))
	assert.False(uut.Active("TESTB"))
}
