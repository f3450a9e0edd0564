package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AhmadShamli/DarkEye/camera"
	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/db"
	"github.com/AhmadShamli/DarkEye/device"
	"github.com/AhmadShamli/DarkEye/relay"
	"github.com/AhmadShamli/DarkEye/retention"
	"github.com/AhmadShamli/DarkEye/stream"
	"github.com/AhmadShamli/DarkEye/talk"
	"github.com/gorilla/mux"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ====================================================================================
// NVR Management Server

/*
BuildNVRManagementServer create the NVR management API server

	@param httpCfg common.APIServerConfig - HTTP server configuration
	@param dbClient db.PersistenceManager - DB access client
	@param cameras camera.Manager - camera lifecycle manager
	@param streams stream.Manager - on-demand stream manager
	@param talks talk.Manager - talk-back session manager
	@param cleanup retention.Engine - storage retention engine
	@param relayPublisher relay.Publisher - relay config publisher
	@param devices device.Client - camera device control client
	@param capture common.CaptureConfig - capture subprocess settings
	@returns HTTP server instance
*/
func BuildNVRManagementServer(
	httpCfg common.APIServerConfig,
	dbClient db.PersistenceManager,
	cameras camera.Manager,
	streams stream.Manager,
	talks talk.Manager,
	cleanup retention.Engine,
	relayPublisher relay.Publisher,
	devices device.Client,
	capture common.CaptureConfig,
) (*http.Server, error) {
	httpHandler, err := NewNVRManagementHandler(
		dbClient,
		cameras,
		streams,
		talks,
		cleanup,
		relayPublisher,
		devices,
		capture,
		httpCfg.APIs.RequestLogging,
	)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	mainRouter := registerPathPrefix(router, httpCfg.APIs.Endpoint.PathPrefix, nil)
	v1Router := registerPathPrefix(mainRouter, "/v1", nil)

	// --------------------------------------------------------------------------------
	// Health check
	_ = registerPathPrefix(v1Router, "/alive", map[string]http.HandlerFunc{
		"get": httpHandler.AliveHandler(),
	})
	_ = registerPathPrefix(v1Router, "/ready", map[string]http.HandlerFunc{
		"get": httpHandler.ReadyHandler(),
	})

	// --------------------------------------------------------------------------------
	// Camera
	cameraRouter := registerPathPrefix(v1Router, "/camera", map[string]http.HandlerFunc{
		"post": httpHandler.DefineNewCameraHandler(),
		"get":  httpHandler.ListCamerasHandler(),
	})

	perCameraRouter := registerPathPrefix(
		cameraRouter, "/{cameraID}", map[string]http.HandlerFunc{
			"get":    httpHandler.GetCameraHandler(),
			"put":    httpHandler.UpdateCameraHandler(),
			"delete": httpHandler.DeleteCameraHandler(),
		},
	)

	_ = registerPathPrefix(perCameraRouter, "/status", map[string]http.HandlerFunc{
		"get": httpHandler.GetCameraStatusHandler(),
	})

	// --------------------------------------------------------------------------------
	// Live viewing
	liveRouter := registerPathPrefix(perCameraRouter, "/live", nil)
	_ = registerPathPrefix(liveRouter, "/heartbeat", map[string]http.HandlerFunc{
		"post": httpHandler.StreamHeartbeatHandler(),
	})

	// --------------------------------------------------------------------------------
	// PTZ
	ptzRouter := registerPathPrefix(perCameraRouter, "/ptz", nil)
	_ = registerPathPrefix(ptzRouter, "/move", map[string]http.HandlerFunc{
		"post": httpHandler.PTZMoveHandler(),
	})
	_ = registerPathPrefix(ptzRouter, "/stop", map[string]http.HandlerFunc{
		"post": httpHandler.PTZStopHandler(),
	})

	// --------------------------------------------------------------------------------
	// Talk-back audio
	talkRouter := registerPathPrefix(perCameraRouter, "/talk", map[string]http.HandlerFunc{
		"post":   httpHandler.StartTalkHandler(),
		"delete": httpHandler.StopTalkHandler(),
	})
	_ = registerPathPrefix(talkRouter, "/audio", map[string]http.HandlerFunc{
		"post": httpHandler.SendTalkAudioHandler(),
	})

	// --------------------------------------------------------------------------------
	// Device discovery
	deviceRouter := registerPathPrefix(v1Router, "/device", nil)
	_ = registerPathPrefix(deviceRouter, "/discover", map[string]http.HandlerFunc{
		"get": httpHandler.DiscoverDevicesHandler(),
	})
	_ = registerPathPrefix(deviceRouter, "/profiles", map[string]http.HandlerFunc{
		"post": httpHandler.GetDeviceProfilesHandler(),
	})

	// --------------------------------------------------------------------------------
	// Settings and retention
	_ = registerPathPrefix(v1Router, "/settings", map[string]http.HandlerFunc{
		"get": httpHandler.GetSettingsHandler(),
		"put": httpHandler.UpdateSettingsHandler(),
	})

	retentionRouter := registerPathPrefix(v1Router, "/retention", nil)
	_ = registerPathPrefix(retentionRouter, "/run", map[string]http.HandlerFunc{
		"post": httpHandler.RunRetentionHandler(),
	})

	// --------------------------------------------------------------------------------
	// Middleware

	router.Use(func(next http.Handler) http.Handler {
		return httpHandler.LoggingMiddleware(next.ServeHTTP)
	})

	// --------------------------------------------------------------------------------
	// HTTP Server

	serverListen := fmt.Sprintf(
		"%s:%d", httpCfg.Server.ListenOn, httpCfg.Server.Port,
	)
	httpSrv := &http.Server{
		Addr:         serverListen,
		WriteTimeout: time.Second * time.Duration(httpCfg.Server.Timeouts.WriteTimeout),
		ReadTimeout:  time.Second * time.Duration(httpCfg.Server.Timeouts.ReadTimeout),
		IdleTimeout:  time.Second * time.Duration(httpCfg.Server.Timeouts.IdleTimeout),
		Handler:      h2c.NewHandler(router, &http2.Server{}),
	}

	return httpSrv, nil
}
