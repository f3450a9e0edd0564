package api

import (
	"encoding/json"
	"net/http"

	"github.com/AhmadShamli/DarkEye/camera"
	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/db"
	"github.com/AhmadShamli/DarkEye/device"
	"github.com/AhmadShamli/DarkEye/relay"
	"github.com/AhmadShamli/DarkEye/retention"
	"github.com/AhmadShamli/DarkEye/stream"
	"github.com/AhmadShamli/DarkEye/talk"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// NVRManagementHandler REST API interface to the NVR control plane
type NVRManagementHandler struct {
	goutils.RestAPIHandler
	validate *validator.Validate
	db       db.PersistenceManager
	cameras  camera.Manager
	streams  stream.Manager
	talks    talk.Manager
	cleanup  retention.Engine
	relay    relay.Publisher
	devices  device.Client
	capture  common.CaptureConfig
}

/*
NewNVRManagementHandler define a new NVR management REST API handler

	@param dbClient db.PersistenceManager - DB access client
	@param cameras camera.Manager - camera lifecycle manager
	@param streams stream.Manager - on-demand stream manager
	@param talks talk.Manager - talk-back session manager
	@param cleanup retention.Engine - storage retention engine
	@param relayPublisher relay.Publisher - relay config publisher
	@param devices device.Client - camera device control client
	@param capture common.CaptureConfig - capture subprocess settings
	@param logConfig common.HTTPRequestLogging - handler log settings
	@returns new NVRManagementHandler
*/
func NewNVRManagementHandler(
	dbClient db.PersistenceManager,
	cameras camera.Manager,
	streams stream.Manager,
	talks talk.Manager,
	cleanup retention.Engine,
	relayPublisher relay.Publisher,
	devices device.Client,
	capture common.CaptureConfig,
	logConfig common.HTTPRequestLogging,
) (NVRManagementHandler, error) {
	return NVRManagementHandler{
		RestAPIHandler: goutils.RestAPIHandler{
			Component: goutils.Component{
				LogTags: log.Fields{"module": "api", "component": "nvr-management-handler"},
				LogTagModifiers: []goutils.LogMetadataModifier{
					goutils.ModifyLogMetadataByRestRequestParam,
				},
			},
			CallRequestIDHeaderField: &logConfig.RequestIDHeader,
			DoNotLogHeaders: func() map[string]bool {
				result := map[string]bool{}
				for _, v := range logConfig.DoNotLogHeaders {
					result[v] = true
				}
				return result
			}(),
			LogLevel: logConfig.LogLevel,
		},
		validate: validator.New(),
		db:       dbClient,
		cameras:  cameras,
		streams:  streams,
		talks:    talks,
		cleanup:  cleanup,
		relay:    relayPublisher,
		devices:  devices,
		capture:  capture,
	}, nil
}

// ====================================================================================
// Camera CRUD

// CameraDefinitionRequest parameters to define or reconfigure a camera
type CameraDefinitionRequest struct {
	Name                  string            `json:"name" validate:"required"`
	Kind                  common.CameraKind `json:"type" validate:"oneof=rtsp onvif usb"`
	StreamURL             string            `json:"url" validate:"required"`
	SubStreamURL          *string           `json:"substream_url,omitempty"`
	Username              *string           `json:"username,omitempty"`
	Password              *string           `json:"password,omitempty"`
	RecordMode            common.RecordMode `json:"record_mode" validate:"oneof=none raw encode"`
	SegmentDurationMins   int               `json:"segment_duration" validate:"gte=1"`
	TimelapseEnabled      bool              `json:"timelapse_enabled"`
	TimelapseIntervalSecs int               `json:"timelapse_interval" validate:"gte=1"`
	TimelapseDurationMins int               `json:"timelapse_duration" validate:"gte=1"`
	PTZEnabled            bool              `json:"ptz_enabled"`
	DeviceServiceURL      *string           `json:"onvif_service_url,omitempty"`
}

// applyDefaults fill the request's optional fields the same way the DB schema would
func (r *CameraDefinitionRequest) applyDefaults() {
	if r.Kind == "" {
		r.Kind = common.CameraKindRTSP
	}
	if r.RecordMode == "" {
		r.RecordMode = common.RecordModeRaw
	}
	if r.SegmentDurationMins == 0 {
		r.SegmentDurationMins = 15
	}
	if r.TimelapseIntervalSecs == 0 {
		r.TimelapseIntervalSecs = 5
	}
	if r.TimelapseDurationMins == 0 {
		r.TimelapseDurationMins = 60
	}
}

// toConfig build the camera record described by the request
func (r CameraDefinitionRequest) toConfig(id string) common.CameraConfig {
	return common.CameraConfig{
		ID:                    id,
		Name:                  r.Name,
		Kind:                  r.Kind,
		StreamURL:             r.StreamURL,
		SubStreamURL:          r.SubStreamURL,
		Username:              r.Username,
		Password:              r.Password,
		RecordMode:            r.RecordMode,
		SegmentDurationMins:   r.SegmentDurationMins,
		TimelapseEnabled:      r.TimelapseEnabled,
		TimelapseIntervalSecs: r.TimelapseIntervalSecs,
		TimelapseDurationMins: r.TimelapseDurationMins,
		PTZEnabled:            r.PTZEnabled,
		DeviceServiceURL:      r.DeviceServiceURL,
	}
}

// CameraInfoResponse response containing information for one camera
type CameraInfoResponse struct {
	goutils.RestAPIBaseResponse
	// Camera the camera info
	Camera common.CameraConfig `json:"camera" validate:"required,dive"`
}

// CameraInfoListResponse response containing list of cameras
type CameraInfoListResponse struct {
	goutils.RestAPIBaseResponse
	// Cameras list of camera infos
	Cameras []common.CameraConfig `json:"cameras" validate:"required,dive"`
}

// parseCameraDefinition shared body parse and validation for define and update
func (h NVRManagementHandler) parseCameraDefinition(
	w http.ResponseWriter, r *http.Request, respCode *int, response *interface{},
) (CameraDefinitionRequest, bool) {
	logTags := h.GetLogTagsForContext(r.Context())

	var params CameraDefinitionRequest
	if r.Body == nil {
		msg := "no payload provided to define camera"
		log.WithFields(logTags).Error(msg)
		*respCode = http.StatusBadRequest
		*response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, msg)
		return params, false
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		msg := "unable to parse camera parameters from request"
		log.WithError(err).WithFields(logTags).Error(msg)
		*respCode = http.StatusBadRequest
		*response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
		return params, false
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.WithError(err).WithFields(logTags).Error("Request body close error")
		}
	}()

	params.applyDefaults()
	if err := h.validate.Struct(&params); err != nil {
		msg := "missing required values to define camera"
		log.WithError(err).WithFields(logTags).Error(msg)
		*respCode = http.StatusBadRequest
		*response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
		return params, false
	}
	return params, true
}

// DefineNewCamera godoc
// @Summary Define a new camera
// @Description Register a new camera, publish the updated relay config, and start
// the camera's pipelines.
// @tags management
// @Accept json
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param param body CameraDefinitionRequest true "Camera parameters"
// @Success 200 {object} CameraInfoResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera [post]
func (h NVRManagementHandler) DefineNewCamera(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	params, ok := h.parseCameraDefinition(w, r, &respCode, &response)
	if !ok {
		return
	}

	entryID, err := h.db.DefineCamera(r.Context(), params.toConfig(""))
	if err != nil {
		msg := "failed to define new camera"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	entry, err := h.db.GetCamera(r.Context(), entryID)
	if err != nil {
		msg := "failed to read back the new camera entry"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	if err := h.cameras.Start(r.Context(), entry, true); err != nil {
		msg := "camera defined but failed to start"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = CameraInfoResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()), Camera: entry,
	}
}

// DefineNewCameraHandler Wrapper around DefineNewCamera
func (h NVRManagementHandler) DefineNewCameraHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.DefineNewCamera(w, r)
	}
}

// ------------------------------------------------------------------------------------

// ListCameras godoc
// @Summary List known cameras
// @Description Fetch list of known cameras in the system
// @tags management
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Success 200 {object} CameraInfoListResponse "success"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera [get]
func (h NVRManagementHandler) ListCameras(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	entries, err := h.db.ListCameras(r.Context())
	if err != nil {
		msg := "failed to list known cameras"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = CameraInfoListResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()), Cameras: entries,
	}
}

// ListCamerasHandler Wrapper around ListCameras
func (h NVRManagementHandler) ListCamerasHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.ListCameras(w, r)
	}
}

// ------------------------------------------------------------------------------------

// cameraIDFromRequest read the camera ID path variable
func (h NVRManagementHandler) cameraIDFromRequest(
	r *http.Request, respCode *int, response *interface{},
) (string, bool) {
	logTags := h.GetLogTagsForContext(r.Context())

	vars := mux.Vars(r)
	cameraID, ok := vars["cameraID"]
	if !ok {
		msg := "camera ID missing from request URL"
		log.WithFields(logTags).Error(msg)
		*respCode = http.StatusBadRequest
		*response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, msg)
		return "", false
	}
	return cameraID, true
}

// GetCamera godoc
// @Summary Fetch camera
// @Description Fetch one camera's configuration
// @tags management
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param cameraID path string true "Camera ID"
// @Success 200 {object} CameraInfoResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera/{cameraID} [get]
func (h NVRManagementHandler) GetCamera(w http.ResponseWriter, r *http.Request) {
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

	entry, err := h.db.GetCamera(r.Context(), cameraID)
	if err != nil {
		msg := "failed to fetch camera"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = CameraInfoResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()), Camera: entry,
	}
}

// GetCameraHandler Wrapper around GetCamera
func (h NVRManagementHandler) GetCameraHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.GetCamera(w, r)
	}
}

// ------------------------------------------------------------------------------------

// UpdateCamera godoc
// @Summary Reconfigure camera
// @Description Update a camera's configuration and restart its pipelines
// @tags management
// @Accept json
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param cameraID path string true "Camera ID"
// @Param param body CameraDefinitionRequest true "Camera parameters"
// @Success 200 {object} CameraInfoResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera/{cameraID} [put]
func (h NVRManagementHandler) UpdateCamera(w http.ResponseWriter, r *http.Request) {
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
	params, ok := h.parseCameraDefinition(w, r, &respCode, &response)
	if !ok {
		return
	}

	if err := h.db.UpdateCamera(r.Context(), params.toConfig(cameraID)); err != nil {
		msg := "failed to update camera"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	if err := h.cameras.Restart(r.Context(), cameraID); err != nil {
		msg := "camera updated but failed to restart"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	entry, err := h.db.GetCamera(r.Context(), cameraID)
	if err != nil {
		msg := "failed to read back the updated camera entry"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = CameraInfoResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()), Camera: entry,
	}
}

// UpdateCameraHandler Wrapper around UpdateCamera
func (h NVRManagementHandler) UpdateCameraHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.UpdateCamera(w, r)
	}
}

// ------------------------------------------------------------------------------------

// DeleteCamera godoc
// @Summary Delete camera
// @Description Stop a camera's pipelines, remove the record, and publish the
// updated relay config.
// @tags management
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param cameraID path string true "Camera ID"
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/camera/{cameraID} [delete]
func (h NVRManagementHandler) DeleteCamera(w http.ResponseWriter, r *http.Request) {
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

	if err := h.db.DeleteCamera(r.Context(), cameraID); err != nil {
		msg := "failed to delete camera"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	if err := h.cameras.Stop(r.Context(), cameraID, true); err != nil {
		msg := "camera deleted but teardown failed"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = h.GetStdRESTSuccessMsg(r.Context())
}

// DeleteCameraHandler Wrapper around DeleteCamera
func (h NVRManagementHandler) DeleteCameraHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.DeleteCamera(w, r)
	}
}

// ====================================================================================
// Settings

// SettingsResponse response containing the storage policy settings
type SettingsResponse struct {
	goutils.RestAPIBaseResponse
	// Settings key-value settings
	Settings map[string]string `json:"settings" validate:"required"`
}

// UpdateSettingsRequest parameters to change storage policy settings
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required,gt=0"`
}

// knownSettingKeys the settings exposed through the API
var knownSettingKeys = []string{
	common.SettingStoragePath,
	common.SettingMaxStorageGB,
	common.SettingRetentionHours,
	common.SettingCleanupIntervalMin,
}

// GetSettings godoc
// @Summary Fetch settings
// @Description Fetch the storage policy settings
// @tags management
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Success 200 {object} SettingsResponse "success"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/settings [get]
func (h NVRManagementHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	settings := map[string]string{}
	for _, key := range knownSettingKeys {
		value, err := h.db.GetSetting(r.Context(), key)
		if err != nil {
			continue
		}
		settings[key] = value
	}

	respCode = http.StatusOK
	response = SettingsResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()), Settings: settings,
	}
}

// GetSettingsHandler Wrapper around GetSettings
func (h NVRManagementHandler) GetSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.GetSettings(w, r)
	}
}

// ------------------------------------------------------------------------------------

// UpdateSettings godoc
// @Summary Change settings
// @Description Change storage policy settings. Only known setting keys are accepted.
// @tags management
// @Accept json
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Param param body UpdateSettingsRequest true "Settings to change"
// @Success 200 {object} SettingsResponse "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/settings [put]
func (h NVRManagementHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	var params UpdateSettingsRequest
	if r.Body == nil {
		msg := "no payload provided to update settings"
		log.WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, msg)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		msg := "unable to parse settings from request"
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
		msg := "missing required values to update settings"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusBadRequest
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
		return
	}

	known := map[string]bool{}
	for _, key := range knownSettingKeys {
		known[key] = true
	}
	for key := range params.Settings {
		if !known[key] {
			msg := "unknown setting key"
			log.WithFields(logTags).WithField("key", key).Error(msg)
			respCode = http.StatusBadRequest
			response = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, key)
			return
		}
	}

	for key, value := range params.Settings {
		if err := h.db.SetSetting(r.Context(), key, value); err != nil {
			msg := "failed to update setting"
			log.WithError(err).WithFields(logTags).WithField("key", key).Error(msg)
			respCode = http.StatusInternalServerError
			response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
			return
		}
	}

	settings := map[string]string{}
	for _, key := range knownSettingKeys {
		value, err := h.db.GetSetting(r.Context(), key)
		if err != nil {
			continue
		}
		settings[key] = value
	}

	respCode = http.StatusOK
	response = SettingsResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(r.Context()), Settings: settings,
	}
}

// UpdateSettingsHandler Wrapper around UpdateSettings
func (h NVRManagementHandler) UpdateSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.UpdateSettings(w, r)
	}
}

// ====================================================================================
// Retention

// RunRetention godoc
// @Summary Run retention cycle
// @Description Execute one storage retention cycle immediately
// @tags management
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/retention/run [post]
func (h NVRManagementHandler) RunRetention(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	if err := h.cleanup.RunCycle(r.Context()); err != nil {
		msg := "retention cycle failed"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = h.GetStdRESTSuccessMsg(r.Context())
}

// RunRetentionHandler Wrapper around RunRetention
func (h NVRManagementHandler) RunRetentionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.RunRetention(w, r)
	}
}

// ====================================================================================
// Health Check

// Alive godoc
// @Summary NVR node liveness check
// @Description Will return success to indicate the node is live
// @tags util
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/alive [get]
func (h NVRManagementHandler) Alive(w http.ResponseWriter, r *http.Request) {
	logTags := h.GetLogTagsForContext(r.Context())
	if err := h.WriteRESTResponse(
		w, http.StatusOK, h.GetStdRESTSuccessMsg(r.Context()), nil,
	); err != nil {
		log.WithError(err).WithFields(logTags).Error("Failed to form response")
	}
}

// AliveHandler Wrapper around Alive
func (h NVRManagementHandler) AliveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Alive(w, r)
	}
}

// ------------------------------------------------------------------------------------

// Ready godoc
// @Summary NVR node readiness check
// @Description Will return success if the DB and the relay service are reachable
// @tags util
// @Produce json
// @Param X-Request-ID header string false "Request ID"
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /v1/ready [get]
func (h NVRManagementHandler) Ready(w http.ResponseWriter, r *http.Request) {
	var respCode int
	var response interface{}
	logTags := h.GetLogTagsForContext(r.Context())
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, response, nil); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failed to form response")
		}
	}()

	if err := h.db.Ready(r.Context()); err != nil {
		msg := "DB not ready"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}
	if err := h.relay.Ready(r.Context()); err != nil {
		msg := "relay service not ready"
		log.WithError(err).WithFields(logTags).Error(msg)
		respCode = http.StatusInternalServerError
		response = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	response = h.GetStdRESTSuccessMsg(r.Context())
}

// ReadyHandler Wrapper around Ready
func (h NVRManagementHandler) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Ready(w, r)
	}
}
