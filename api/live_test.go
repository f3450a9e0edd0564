package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/device"
	"github.com/apex/log"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestStreamHeartbeat(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, deps := defineTestHandler(t)

	stored := common.CameraConfig{
		ID:        "AAAAA",
		Name:      "front-door",
		Kind:      common.CameraKindRTSP,
		StreamURL: "rtsp://camera.local/stream",
	}
	deps.db.On("GetCamera", mock.Anything, "AAAAA").Return(stored, nil).Once()
	// The stream must be pulled from the relay, not the camera directly
	deps.streams.On(
		"Heartbeat", mock.Anything, "AAAAA", "rtsp://127.0.0.1:8554/live/AAAAA",
	).Return(nil).Once()
	deps.streams.On("Watching", "AAAAA").Return(true).Once()
	deps.streams.On("Ready", "AAAAA").Return(false).Once()

	req, err := http.NewRequest("POST", "/v1/camera/AAAAA/live/heartbeat", nil)
	assert.Nil(err)
	req = mux.SetURLVars(req, map[string]string{"cameraID": "AAAAA"})
	respRecorder := httptest.NewRecorder()
	uut.StreamHeartbeat(respRecorder, req)
	assert.Equal(http.StatusOK, respRecorder.Code)

	var parsed StreamStatusResponse
	assert.Nil(json.NewDecoder(respRecorder.Body).Decode(&parsed))
	assert.True(parsed.Watching)
	assert.False(parsed.Ready)
}

func TestGetCameraStatus(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, deps := defineTestHandler(t)

	deps.cameras.On("Recording", "AAAAA").Return(true).Once()
	deps.streams.On("Watching", "AAAAA").Return(false).Once()
	deps.streams.On("Ready", "AAAAA").Return(false).Once()
	deps.talks.On("Active", "AAAAA").Return(true).Once()

	req, err := http.NewRequest("GET", "/v1/camera/AAAAA/status", nil)
	assert.Nil(err)
	req = mux.SetURLVars(req, map[string]string{"cameraID": "AAAAA"})
	respRecorder := httptest.NewRecorder()
	uut.GetCameraStatus(respRecorder, req)
	assert.Equal(http.StatusOK, respRecorder.Code)

	var parsed CameraStatusResponse
	assert.Nil(json.NewDecoder(respRecorder.Body).Decode(&parsed))
	assert.True(parsed.Recording)
	assert.False(parsed.Watching)
	assert.True(parsed.Talking)
}

func TestPTZMove(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, deps := defineTestHandler(t)

	serviceURL := "http://camera.local/onvif/device_service"
	username := "admin"
	password := "secret"

	// Case 0: camera without a device control endpoint
	{
		deps.db.On("GetCamera", mock.Anything, "AAAAA").Return(common.CameraConfig{
			ID: "AAAAA", Name: "no-onvif", Kind: common.CameraKindRTSP,
		}, nil).Once()

		payload, err := json.Marshal(&device.PTZVelocity{Pan: 0.5})
		assert.Nil(err)
		req, err := http.NewRequest(
			"POST", "/v1/camera/AAAAA/ptz/move", bytes.NewReader(payload),
		)
		assert.Nil(err)
		req = mux.SetURLVars(req, map[string]string{"cameraID": "AAAAA"})
		respRecorder := httptest.NewRecorder()
		uut.PTZMove(respRecorder, req)
		assert.Equal(http.StatusBadRequest, respRecorder.Code)
	}

	// Case 1: PTZ disabled on the camera
	{
		deps.db.On("GetCamera", mock.Anything, "BBBBB").Return(common.CameraConfig{
			ID:               "BBBBB",
			Name:             "fixed",
			Kind:             common.CameraKindONVIF,
			DeviceServiceURL: &serviceURL,
		}, nil).Once()

		payload, err := json.Marshal(&device.PTZVelocity{Pan: 0.5})
		assert.Nil(err)
		req, err := http.NewRequest(
			"POST", "/v1/camera/BBBBB/ptz/move", bytes.NewReader(payload),
		)
		assert.Nil(err)
		req = mux.SetURLVars(req, map[string]string{"cameraID": "BBBBB"})
		respRecorder := httptest.NewRecorder()
		uut.PTZMove(respRecorder, req)
		assert.Equal(http.StatusBadRequest, respRecorder.Code)
	}

	// Case 2: movement forwarded to the device with the camera's credentials
	{
		deps.db.On("GetCamera", mock.Anything, "CCCCC").Return(common.CameraConfig{
			ID:               "CCCCC",
			Name:             "dome",
			Kind:             common.CameraKindONVIF,
			Username:         &username,
			Password:         &password,
			PTZEnabled:       true,
			DeviceServiceURL: &serviceURL,
		}, nil).Once()
		deps.devices.On(
			"Move",
			mock.Anything,
			serviceURL,
			device.Credentials{Username: username, Password: password},
			device.PTZVelocity{Pan: 0.5, Tilt: -0.25},
		).Return(nil).Once()

		payload, err := json.Marshal(&device.PTZVelocity{Pan: 0.5, Tilt: -0.25})
		assert.Nil(err)
		req, err := http.NewRequest(
			"POST", "/v1/camera/CCCCC/ptz/move", bytes.NewReader(payload),
		)
		assert.Nil(err)
		req = mux.SetURLVars(req, map[string]string{"cameraID": "CCCCC"})
		respRecorder := httptest.NewRecorder()
		uut.PTZMove(respRecorder, req)
		assert.Equal(http.StatusOK, respRecorder.Code)
	}
}

func TestTalkBackSession(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, deps := defineTestHandler(t)

	serviceURL := "http://camera.local/onvif/device_service"
	stored := common.CameraConfig{
		ID:               "AAAAA",
		Name:             "doorbell",
		Kind:             common.CameraKindONVIF,
		DeviceServiceURL: &serviceURL,
	}

	// Case 0: camera without a backchannel
	{
		deps.db.On("GetCamera", mock.Anything, "AAAAA").Return(stored, nil).Once()
		deps.devices.On(
			"GetAudioBackchannelInfo", mock.Anything, serviceURL, device.Credentials{},
		).Return(device.BackchannelInfo{Supported: false}, nil).Once()

		req, err := http.NewRequest("POST", "/v1/camera/AAAAA/talk", nil)
		assert.Nil(err)
		req = mux.SetURLVars(req, map[string]string{"cameraID": "AAAAA"})
		respRecorder := httptest.NewRecorder()
		uut.StartTalk(respRecorder, req)
		assert.Equal(http.StatusBadRequest, respRecorder.Code)
	}

	// Case 1: session opens toward the advertised backchannel
	{
		deps.db.On("GetCamera", mock.Anything, "AAAAA").Return(stored, nil).Once()
		deps.devices.On(
			"GetAudioBackchannelInfo", mock.Anything, serviceURL, device.Credentials{},
		).Return(device.BackchannelInfo{
			Supported: true, StreamURL: "rtsp://camera.local/backchannel",
		}, nil).Once()
		deps.talks.On(
			"StartTalk", mock.Anything, "AAAAA", "rtsp://camera.local/backchannel",
		).Return(nil).Once()

		req, err := http.NewRequest("POST", "/v1/camera/AAAAA/talk", nil)
		assert.Nil(err)
		req = mux.SetURLVars(req, map[string]string{"cameraID": "AAAAA"})
		respRecorder := httptest.NewRecorder()
		uut.StartTalk(respRecorder, req)
		assert.Equal(http.StatusOK, respRecorder.Code)
	}

	// Case 2: audio chunks flow through to the session
	{
		audioChunk := []byte{0x01, 0x02, 0x03, 0x04}
		deps.talks.On("SendAudio", mock.Anything, "AAAAA", audioChunk).Return(nil).Once()

		req, err := http.NewRequest(
			"POST", "/v1/camera/AAAAA/talk/audio", bytes.NewReader(audioChunk),
		)
		assert.Nil(err)
		req = mux.SetURLVars(req, map[string]string{"cameraID": "AAAAA"})
		respRecorder := httptest.NewRecorder()
		uut.SendTalkAudio(respRecorder, req)
		assert.Equal(http.StatusOK, respRecorder.Code)
	}

	// Case 3: session close
	{
		deps.talks.On("StopTalk", mock.Anything, "AAAAA").Return(nil).Once()

		req, err := http.NewRequest("DELETE", "/v1/camera/AAAAA/talk", nil)
		assert.Nil(err)
		req = mux.SetURLVars(req, map[string]string{"cameraID": "AAAAA"})
		respRecorder := httptest.NewRecorder()
		uut.StopTalk(respRecorder, req)
		assert.Equal(http.StatusOK, respRecorder.Code)
	}
}
