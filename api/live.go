package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/device"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// ====================================================================================
// Live Viewing

// StreamStatusResponse response containing one camera's live stream status
type StreamStatusResponse struct {
	goutils.RestAPIBaseResponse
	// Watching whether a live stream session exists for the camera
	Watching bool `json:"watching"`
	// Ready whether the stream playlist is available yet
	Ready bool `json:"ready"`
}

// StreamHeartbeat godoc
// @Summary Live stream heartbeat
// @Description Signal continued viewer interest in a camera's live stream. Spawns
// the stream session if needed, and reports whether the playlist is available yet.
// @tags live
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param cameraID path string true "Camera ID"
// @Success 200 {object} StreamStatusResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera/{cameraID}/live/heartbeat [post]
func (h NVRManagementHandler) StreamHeartbeat(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	cameraID, ok := h.cameraIDFromRequest(r, &respCode, &response)
	if !ok {
		return
	}

	// Verify the camera exists before spawning anything in its name
	if _, err := h.db.GetCamera(r.Context(), cameraID); err != nil {
		msg := "failed to fetch camera"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	sourceURL := fmt.Sprintf("%s/%s", h.capture.RelayStreamURIPrefix, cameraID)
	if err := h.streams.Heartbeat(r.Context(), cameraID, sourceURL); err != nil {
		msg := "failed to process stream heartbeat"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = StreamStatusResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()),
		Watching:            h.streams.Watching(cameraID),
		Ready:               h.streams.Ready(cameraID),
	}
}

// StreamHeartbeatHandler Wrapper around StreamHeartbeat
func (h NVRManagementHandler) StreamHeartbeatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.StreamHeartbeat(w, r)
	}
}

// ------------------------------------------------------------------------------------

// CameraStatusResponse response containing one camera's runtime status
type CameraStatusResponse struct {
	goutils.RestAPIBaseResponse
	// Recording whether the camera's main recording is running
	Recording bool `json:"recording"`
	// Watching whether a live stream session exists for the camera
	Watching bool `json:"watching"`
	// StreamReady whether the stream playlist is available yet
	StreamReady bool `json:"stream_ready"`
	// Talking whether a talk-back session exists for the camera
	Talking bool `json:"talking"`
}

// GetCameraStatus godoc
// @Summary Fetch camera runtime status
// @Description Fetch the runtime status of one camera's pipelines
// @tags live
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param cameraID path string true "Camera ID"
// @Success 200 {object} CameraStatusResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera/{cameraID}/status [get]
func (h NVRManagementHandler) GetCameraStatus(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	cameraID, ok := h.cameraIDFromRequest(r, &respCode, &response)
	if !ok {
		return
	}

	respCode = http.StatusOK
	response = CameraStatusResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()),
		Recording:           h.cameras.Recording(cameraID),
		Watching:            h.streams.Watching(cameraID),
		StreamReady:         h.streams.Ready(cameraID),
		Talking:             h.talks.Active(cameraID),
	}
}

// GetCameraStatusHandler Wrapper around GetCameraStatus
func (h NVRManagementHandler) GetCameraStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.GetCameraStatus(w, r)
	}
}

// ====================================================================================
// PTZ Control

// deviceTargetForCamera resolve a camera's device control endpoint and credentials
func (h NVRManagementHandler) deviceTargetForCamera(
	r *http.Request, respCode *int, response *interface{},
) (common.CameraConfig, string, device.Credentials, bool) {
	logTags := h.GetLogTagsForContext(r.Context())

	var empty common.CameraConfig
	cameraID, ok := h.cameraIDFromRequest(r, respCode, response)
	if !ok {
		return empty, "", device.Credentials{}, false
	}

	entry, err := h.db.GetCamera(r.Context(), cameraID)
	if err != nil {
		msg := "failed to fetch camera"
		log.WithError(err).WithFields(logTags).Error(msg)
		*respCode = http.StatusInternalServerError
		*response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return empty, "", device.Credentials{}, false
	}
	if entry.DeviceServiceURL == nil {
		msg := "camera has no device control endpoint"
		log.WithFields(logTags).Error(msg)
		*respCode = http.StatusBadRequest
		*response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, msg)
		return empty, "", device.Credentials{}, false
	}

	creds := device.Credentials{}
	if entry.Username != nil {
		creds.Username = *entry.Username
	}
	if entry.Password != nil {
		creds.Password = *entry.Password
	}
	return entry, *entry.DeviceServiceURL, creds, true
}

// PTZMove godoc
// @Summary Start PTZ movement
// @Description Start continuous pan-tilt-zoom movement on a camera
// @tags live
// @Accept json
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param cameraID path string true "Camera ID"
// @Param param body device.PTZVelocity true "Movement vector"
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera/{cameraID}/ptz/move [post]
func (h NVRManagementHandler) PTZMove(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	entry, address, creds, ok := h.deviceTargetForCamera(r, &respCode, &response)
	if !ok {
		return
	}
	if !entry.PTZEnabled {
		msg := "camera does not support PTZ"
		log.WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, msg)
		return
	}

	var velocity device.PTZVelocity
	if err := json.NewDecoder(r.Body).Decode(&velocity); err != nil {
		msg := "unable to parse movement vector from request"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
		return
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.WithError(err).WithFields(logTags).Error("Request body close error")
		}
	}()
	if err := h.validate.Struct(&velocity); err != nil {
		msg := "movement vector out of range"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
		return
	}

	if err := h.devices.Move(r.Context(), address, creds, velocity); err != nil {
		msg := "failed to start PTZ movement"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = h.GetStdRESTSuccessMsg(r.Context())
}

// PTZMoveHandler Wrapper around PTZMove
func (h NVRManagementHandler) PTZMoveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.PTZMove(w, r)
	}
}

// ------------------------------------------------------------------------------------

// PTZStop godoc
// @Summary Stop PTZ movement
// @Description Halt pan-tilt-zoom movement on a camera
// @tags live
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param cameraID path string true "Camera ID"
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera/{cameraID}/ptz/stop [post]
func (h NVRManagementHandler) PTZStop(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	_, address, creds, ok := h.deviceTargetForCamera(r, &respCode, &response)
	if !ok {
		return
	}

	if err := h.devices.Stop(r.Context(), address, creds); err != nil {
		msg := "failed to stop PTZ movement"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = h.GetStdRESTSuccessMsg(r.Context())
}

// PTZStopHandler Wrapper around PTZStop
func (h NVRManagementHandler) PTZStopHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.PTZStop(w, r)
	}
}

// ====================================================================================
// Device Discovery

// DiscoveredDevicesResponse response containing devices found on the local network
type DiscoveredDevicesResponse struct {
	goutils.RestAPIBaseResponse
	// Devices devices found
	Devices []device.DiscoveredDevice `json:"devices"`
}

// DiscoverDevices godoc
// @Summary Discover camera devices
// @Description Search the local network for camera devices
// @tags live
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Success 200 {object} DiscoveredDevicesResponse "success"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/device/discover [get]
func (h NVRManagementHandler) DiscoverDevices(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	devices, err := h.devices.Discover(r.Context())
	if err != nil {
		msg := "device discovery failed"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = DiscoveredDevicesResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()), Devices: devices,
	}
}

// DiscoverDevicesHandler Wrapper around DiscoverDevices
func (h NVRManagementHandler) DiscoverDevicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.DiscoverDevices(w, r)
	}
}

// ------------------------------------------------------------------------------------

// DeviceProfilesRequest parameters to list a device's media profiles
type DeviceProfilesRequest struct {
	Address  string `json:"address" validate:"required"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// MediaProfilesResponse response containing a device's media profiles
type MediaProfilesResponse struct {
	goutils.RestAPIBaseResponse
	// Profiles media profiles offered by the device
	Profiles []device.MediaProfile `json:"profiles"`
}

// GetDeviceProfiles godoc
// @Summary List device media profiles
// @Description List the media profiles a camera device offers
// @tags live
// @Accept json
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param param body DeviceProfilesRequest true "Device endpoint and credentials"
// @Success 200 {object} MediaProfilesResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/device/profiles [post]
func (h NVRManagementHandler) GetDeviceProfiles(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	var params DeviceProfilesRequest
	if r.Body == nil {
		msg := "no payload provided to query device profiles"
		log.WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, msg)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		msg := "unable to parse device parameters from request"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
		return
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.WithError(err).WithFields(logTags).Error("Request body close error")
		}
	}()
	if err := h.validate.Struct(&params); err != nil {
		msg := "missing required values to query device profiles"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
		return
	}

	profiles, err := h.devices.GetProfiles(
		r.Context(),
		params.Address,
		device.Credentials{Username: params.Username, Password: params.Password},
	)
	if err != nil {
		msg := "failed to list device media profiles"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = MediaProfilesResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()), Profiles: profiles,
	}
}

// GetDeviceProfilesHandler Wrapper around GetDeviceProfiles
func (h NVRManagementHandler) GetDeviceProfilesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.GetDeviceProfiles(w, r)
	}
}

// ====================================================================================
// Talk-back Audio

// StartTalk godoc
// @Summary Open talk-back session
// @Description Open a talk-back audio session toward a camera's audio backchannel
// @tags live
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param cameraID path string true "Camera ID"
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera/{cameraID}/talk [post]
func (h NVRManagementHandler) StartTalk(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	entry, address, creds, ok := h.deviceTargetForCamera(r, &respCode, &response)
	if !ok {
		return
	}

	info, err := h.devices.GetAudioBackchannelInfo(r.Context(), address, creds)
	if err != nil {
		msg := "failed to query audio backchannel"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}
	if !info.Supported {
		msg := "camera has no audio backchannel"
		log.WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, msg)
		return
	}

	if err := h.talks.StartTalk(r.Context(), entry.ID, info.StreamURL); err != nil {
		msg := "failed to open talk-back session"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = h.GetStdRESTSuccessMsg(r.Context())
}

// StartTalkHandler Wrapper around StartTalk
func (h NVRManagementHandler) StartTalkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.StartTalk(w, r)
	}
}

// ------------------------------------------------------------------------------------

// StopTalk godoc
// @Summary Close talk-back session
// @Description Close a camera's talk-back audio session
// @tags live
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param cameraID path string true "Camera ID"
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera/{cameraID}/talk [delete]
func (h NVRManagementHandler) StopTalk(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	cameraID, ok := h.cameraIDFromRequest(r, &respCode, &response)
	if !ok {
		return
	}

	if err := h.talks.StopTalk(r.Context(), cameraID); err != nil {
		msg := "failed to close talk-back session"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = h.GetStdRESTSuccessMsg(r.Context())
}

// StopTalkHandler Wrapper around StopTalk
func (h NVRManagementHandler) StopTalkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.StopTalk(w, r)
	}
}

// ------------------------------------------------------------------------------------

// SendTalkAudio godoc
// @Summary Forward talk-back audio
// @Description Forward a chunk of s16le PCM audio into a camera's talk-back session
// @tags live
// @Accept octet-stream
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param cameraID path string true "Camera ID"
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera/{cameraID}/talk/audio [post]
func (h NVRManagementHandler) SendTalkAudio(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	cameraID, ok := h.cameraIDFromRequest(r, &respCode, &response)
	if !ok {
		return
	}

	if r.Body == nil {
		msg := "no audio payload provided"
		log.WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, msg)
		return
	}
	pcm, err := io.ReadAll(r.Body)
	if err != nil {
		msg := "unable to read audio payload"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
		return
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.WithError(err).WithFields(logTags).Error("Request body close error")
		}
	}()

	if err := h.talks.SendAudio(r.Context(), cameraID, pcm); err != nil {
		msg := "failed to forward talk-back audio"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = h.GetStdRESTSuccessMsg(r.Context())
}

// SendTalkAudioHandler Wrapper around SendTalkAudio
func (h NVRManagementHandler) SendTalkAudioHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.SendTalkAudio(w, r)
	}
}
