package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/mocks"
	"github.com/apex/log"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// testHandlerDeps mock collaborators behind a management API handler
type testHandlerDeps struct {
	db      *mocks.PersistenceManager
	cameras *mocks.CameraManager
	streams *mocks.StreamManager
	talks   *mocks.TalkManager
	cleanup *mocks.RetentionEngine
	relay   *mocks.Publisher
	devices *mocks.DeviceClient
}

// defineTestHandler build a management API handler against mock collaborators
func defineTestHandler(t *testing.T) (NVRManagementHandler, testHandlerDeps) {
	deps := testHandlerDeps{
		db:      mocks.NewPersistenceManager(t),
		cameras: mocks.NewCameraManager(t),
		streams: mocks.NewStreamManager(t),
		talks:   mocks.NewTalkManager(t),
		cleanup: mocks.NewRetentionEngine(t),
		relay:   mocks.NewPublisher(t),
		devices: mocks.NewDeviceClient(t),
	}
	uut, err := NewNVRManagementHandler(
		deps.db,
		deps.cameras,
		deps.streams,
		deps.talks,
		deps.cleanup,
		deps.relay,
		deps.devices,
		common.CaptureConfig{
			FFmpegBin:            "ffmpeg",
			RelayStreamURIPrefix: "rtsp://127.0.0.1:8554/live",
		},
		common.HTTPRequestLogging{
			LogLevel:        "warn",
			HealthLogLevel:  "debug",
			RequestIDHeader: "X-Request-ID",
		},
	)
	assert.Nil(t, err)
	return uut, deps
}

func TestDefineNewCamera(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, deps := defineTestHandler(t)

	// Case 0: no payload
	{
		req, err := http.NewRequest("POST", "/v1/camera", nil)
		assert.Nil(err)
		respRecorder := httptest.NewRecorder()
		uut.DefineNewCamera(respRecorder, req)
		assert.Equal(http.StatusBadRequest, respRecorder.Code)
	}

	// Case 1: payload missing required fields
	{
		payload, err := json.Marshal(&CameraDefinitionRequest{Name: "front-door"})
		assert.Nil(err)
		req, err := http.NewRequest("POST", "/v1/camera", bytes.NewReader(payload))
		assert.Nil(err)
		respRecorder := httptest.NewRecorder()
		uut.DefineNewCamera(respRecorder, req)
		assert.Equal(http.StatusBadRequest, respRecorder.Code)
	}

	// Case 2: valid request defines and starts the camera
	{
		stored := common.CameraConfig{
			ID:                  "AAAAA",
			Name:                "front-door",
			Kind:                common.CameraKindRTSP,
			StreamURL:           "rtsp://camera.local/stream",
			RecordMode:          common.RecordModeRaw,
			SegmentDurationMins: 15,
		}
		deps.db.On(
			"DefineCamera", mock.Anything, mock.AnythingOfType("common.CameraConfig"),
		).Run(func(args mock.Arguments) {
			config := args.Get(1).(common.CameraConfig)
			assert.Equal("front-door", config.Name)
			// Omitted fields were filled by the schema defaults
			assert.Equal(common.RecordModeRaw, config.RecordMode)
			assert.Equal(15, config.SegmentDurationMins)
		}).Return("AAAAA", nil).Once()
		deps.db.On("GetCamera", mock.Anything, "AAAAA").Return(stored, nil).Once()
		deps.cameras.On("Start", mock.Anything, stored, true).Return(nil).Once()

		payload, err := json.Marshal(&CameraDefinitionRequest{
			Name:      "front-door",
			StreamURL: "rtsp://camera.local/stream",
		})
		assert.Nil(err)
		req, err := http.NewRequest("POST", "/v1/camera", bytes.NewReader(payload))
		assert.Nil(err)
		respRecorder := httptest.NewRecorder()
		uut.DefineNewCamera(respRecorder, req)
		assert.Equal(http.StatusOK, respRecorder.Code)

		var parsed CameraInfoResponse
		assert.Nil(json.NewDecoder(respRecorder.Body).Decode(&parsed))
		assert.Equal("AAAAA", parsed.Camera.ID)
	}
}

func TestDeleteCamera(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, deps := defineTestHandler(t)

	deps.db.On("DeleteCamera", mock.Anything, "AAAAA").Return(nil).Once()
	deps.cameras.On("Stop", mock.Anything, "AAAAA", true).Return(nil).Once()

	req, err := http.NewRequest("DELETE", "/v1/camera/AAAAA", nil)
	assert.Nil(err)
	req = mux.SetURLVars(req, map[string]string{"cameraID": "AAAAA"})
	respRecorder := httptest.NewRecorder()
	uut.DeleteCamera(respRecorder, req)
	assert.Equal(http.StatusOK, respRecorder.Code)
}

func TestUpdateSettings(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, deps := defineTestHandler(t)

	// Case 0: unknown setting key is rejected before any write
	{
		payload, err := json.Marshal(&UpdateSettingsRequest{
			Settings: map[string]string{"not_a_setting": "1"},
		})
		assert.Nil(err)
		req, err := http.NewRequest("PUT", "/v1/settings", bytes.NewReader(payload))
		assert.Nil(err)
		respRecorder := httptest.NewRecorder()
		uut.UpdateSettings(respRecorder, req)
		assert.Equal(http.StatusBadRequest, respRecorder.Code)
	}

	// Case 1: known keys are written and the full set read back
	{
		deps.db.On(
			"SetSetting", mock.Anything, common.SettingRetentionHours, "96",
		).Return(nil).Once()
		for _, key := range knownSettingKeys {
			deps.db.On("GetSetting", mock.Anything, key).Return("96", nil).Once()
		}

		payload, err := json.Marshal(&UpdateSettingsRequest{
			Settings: map[string]string{common.SettingRetentionHours: "96"},
		})
		assert.Nil(err)
		req, err := http.NewRequest("PUT", "/v1/settings", bytes.NewReader(payload))
		assert.Nil(err)
		respRecorder := httptest.NewRecorder()
		uut.UpdateSettings(respRecorder, req)
		assert.Equal(http.StatusOK, respRecorder.Code)

		var parsed SettingsResponse
		assert.Nil(json.NewDecoder(respRecorder.Body).Decode(&parsed))
		assert.Equal("96", parsed.Settings[common.SettingRetentionHours])
	}
}

func TestReadinessCheck(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, deps := defineTestHandler(t)

	// Case 0: all dependencies ready
	deps.db.On("Ready", mock.Anything).Return(nil).Once()
	deps.relay.On("Ready", mock.Anything).Return(nil).Once()
	{
		req, err := http.NewRequest("GET", "/v1/ready", nil)
		assert.Nil(err)
		respRecorder := httptest.NewRecorder()
		uut.Ready(respRecorder, req)
		assert.Equal(http.StatusOK, respRecorder.Code)
	}

	// Case 1: relay down fails the check
	deps.db.On("Ready", mock.Anything).Return(nil).Once()
	deps.relay.On("Ready", mock.Anything).Return(fmt.Errorf("dummy failure")).Once()
	{
		req, err := http.NewRequest("GET", "/v1/ready", nil)
		assert.Nil(err)
		respRecorder := httptest.NewRecorder()
		uut.Ready(respRecorder, req)
		assert.Equal(http.StatusInternalServerError, respRecorder.Code)
	}

	// Liveness never consults dependencies
	{
		req, err := http.NewRequest("GET", "/v1/alive", nil)
		assert.Nil(err)
		req = req.WithContext(context.Background())
		respRecorder := httptest.NewRecorder()
		uut.Alive(respRecorder, req)
		assert.Equal(http.StatusOK, respRecorder.Code)
	}
}
