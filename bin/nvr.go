package bin

import (
	"context"
	"net/http"

	"github.com/AhmadShamli/DarkEye/api"
	"github.com/AhmadShamli/DarkEye/camera"
	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/db"
	"github.com/AhmadShamli/DarkEye/device"
	"github.com/AhmadShamli/DarkEye/media"
	"github.com/AhmadShamli/DarkEye/record"
	"github.com/AhmadShamli/DarkEye/relay"
	"github.com/AhmadShamli/DarkEye/retention"
	"github.com/AhmadShamli/DarkEye/stream"
	"github.com/AhmadShamli/DarkEye/talk"
	"github.com/apex/log"
	"gorm.io/gorm/logger"
)

// NVRNode the NVR control plane node
type NVRNode struct {
	cameras   camera.Manager
	streams   stream.Manager
	talks     talk.Manager
	cleanup   retention.Engine
	relay     relay.Publisher
	dbManager db.PersistenceManager
	// MgmtAPIServer management API HTTP server
	MgmtAPIServer *http.Server
}

/*
Cleanup stop and clean up the NVR node

	@param ctxt context.Context - execution context
*/
func (n NVRNode) Cleanup(ctxt context.Context) error {
	if err := n.cameras.StopAll(ctxt); err != nil {
		return err
	}
	if err := n.streams.Stop(ctxt); err != nil {
		return err
	}
	if err := n.talks.Stop(ctxt); err != nil {
		return err
	}
	if err := n.cleanup.Stop(ctxt); err != nil {
		return err
	}
	return n.relay.Stop(ctxt)
}

/*
DefineNVRNode setup a new NVR node

	@param parentCtxt context.Context - parent execution context
	@param config common.NVRNodeConfig - NVR node configuration
	@returns new NVR node
*/
func DefineNVRNode(
	parentCtxt context.Context, config common.NVRNodeConfig,
) (NVRNode, error) {
	/*
		Steps for preparing the NVR node are

		* Prepare database
		* Prepare subprocess launcher
		* Prepare relay config publisher
		* Prepare stream, talk, and camera managers
		* Prepare retention engine
		* Reconcile runtime state with the database
		* Prepare HTTP server for management APIs
	*/

	theNode := NVRNode{}

	// Define the persistence manager
	dbManager, err := db.NewManager(db.GetSqliteDialector(config.Sqlite.DBFile), logger.Error)
	if err != nil {
		log.WithError(err).Error("Failed to define persistence manager")
		return theNode, err
	}
	theNode.dbManager = dbManager

	// Define the subprocess launcher
	launcher, err := media.NewExecLauncher()
	if err != nil {
		log.WithError(err).Error("Failed to define subprocess launcher")
		return theNode, err
	}

	// Define the relay config publisher
	relayPublisher, err := relay.NewPublisher(parentCtxt, dbManager, launcher, config.Relay)
	if err != nil {
		log.WithError(err).Error("Failed to define relay config publisher")
		return theNode, err
	}
	theNode.relay = relayPublisher

	// Define the on-demand stream manager
	streamManager, err := stream.NewManager(parentCtxt, stream.ManagerParams{
		Launcher:  launcher,
		FFmpegBin: config.Capture.FFmpegBin,
		Config:    config.Stream,
	})
	if err != nil {
		log.WithError(err).Error("Failed to define on-demand stream manager")
		return theNode, err
	}
	theNode.streams = streamManager

	// Define the talk-back session manager
	talkManager, err := talk.NewManager(launcher, config.Capture.FFmpegBin)
	if err != nil {
		log.WithError(err).Error("Failed to define talk-back session manager")
		return theNode, err
	}
	theNode.talks = talkManager

	// Define the camera lifecycle manager
	cameraManager, err := camera.NewManager(parentCtxt, camera.ManagerParams{
		DB:            dbManager,
		Relay:         relayPublisher,
		Streams:       streamManager,
		Launcher:      launcher,
		Capture:       config.Capture,
		Recording:     config.Recording,
		NewSupervisor: record.NewSupervisor,
	})
	if err != nil {
		log.WithError(err).Error("Failed to define camera lifecycle manager")
		return theNode, err
	}
	theNode.cameras = cameraManager

	// Define the storage retention engine
	cleanupEngine, err := retention.NewEngine(
		parentCtxt, dbManager, config.Recording.DefaultStoragePath,
	)
	if err != nil {
		log.WithError(err).Error("Failed to define storage retention engine")
		return theNode, err
	}
	theNode.cleanup = cleanupEngine

	// Reconcile runtime state with the database
	if err := cameraManager.Init(parentCtxt); err != nil {
		log.WithError(err).Error("Camera fleet initialization failed")
		return theNode, err
	}
	if err := cleanupEngine.Start(parentCtxt); err != nil {
		log.WithError(err).Error("Failed to start storage retention engine")
		return theNode, err
	}

	// Device control integration
	deviceClient, err := device.NewUnsupportedClient()
	if err != nil {
		log.WithError(err).Error("Failed to define device control client")
		return theNode, err
	}

	// Define management API HTTP server
	mgmtAPIServer, err := api.BuildNVRManagementServer(
		config.Management,
		dbManager,
		cameraManager,
		streamManager,
		talkManager,
		cleanupEngine,
		relayPublisher,
		deviceClient,
		config.Capture,
	)
	if err != nil {
		log.WithError(err).Error("Failed to create management API HTTP server")
		return theNode, err
	}
	theNode.MgmtAPIServer = mgmtAPIServer

	return theNode, nil
}
