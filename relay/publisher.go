package relay

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/db"
	"github.com/AhmadShamli/DarkEye/media"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"
)

// Publisher manages the relay service: renders the declarative config from the
// current camera set and controls the relay subprocess. The config file is a
// single shared resource; every update fully replaces it and requires a relay
// restart since the relay does not support partial reconfiguration.
type Publisher interface {
	/*
		Regenerate rewrite the relay declarative config from the current camera records

			@param ctxt context.Context - execution context
	*/
	Regenerate(ctxt context.Context) error

	/*
		Start launch the relay subprocess if not already running

			@param ctxt context.Context - execution context
	*/
	Start(ctxt context.Context) error

	/*
		Restart stop the relay subprocess and launch it again after a short delay,
		allowing the old process to unbind its ports

			@param ctxt context.Context - execution context
	*/
	Restart(ctxt context.Context) error

	/*
		Stop terminate the relay subprocess and cancel any pending delayed start

			@param ctxt context.Context - execution context
	*/
	Stop(ctxt context.Context) error

	/*
		Ready probe the relay service control API

			@param ctxt context.Context - execution context
	*/
	Ready(ctxt context.Context) error
}

// relayPathEntry one per-camera source entry in the relay config
type relayPathEntry struct {
	Source         string `yaml:"source,omitempty"`
	SourceOnDemand bool   `yaml:"sourceOnDemand,omitempty"`
	SourceProtocol string `yaml:"sourceProtocol,omitempty"`
	RunOnDemand    string `yaml:"runOnDemand,omitempty"`
}

// relayServiceConfig the relay declarative config document
type relayServiceConfig struct {
	RTSPAddress             string                    `yaml:"rtspAddress"`
	Protocols               []string                  `yaml:"protocols"`
	WebRTCAddress           string                    `yaml:"webrtcAddress"`
	WebRTCICEHostNAT1To1IPs []string                  `yaml:"webrtcICEHostNAT1To1IPs"`
	API                     bool                      `yaml:"api"`
	APIAddress              string                    `yaml:"apiAddress"`
	Paths                   map[string]relayPathEntry `yaml:"paths"`
}

// publisherImpl implements Publisher
type publisherImpl struct {
	goutils.Component
	db       db.PersistenceManager
	launcher media.ProcessLauncher
	config   common.RelayConfig
	client   *resty.Client

	process      media.Process
	processGen   int
	restartTimer goutils.IntervalTimer
	lock         sync.Mutex
	wg           sync.WaitGroup
	workerCtxt   context.Context
	workerCancel context.CancelFunc
}

/*
NewPublisher define a new relay config publisher

	@param parentCtxt context.Context - parent execution context
	@param dbClient db.PersistenceManager - DB access client
	@param launcher media.ProcessLauncher - subprocess launcher
	@param config common.RelayConfig - relay service config
	@returns new Publisher
*/
func NewPublisher(
	parentCtxt context.Context,
	dbClient db.PersistenceManager,
	launcher media.ProcessLauncher,
	config common.RelayConfig,
) (Publisher, error) {
	logTags := log.Fields{
		"module": "relay", "component": "publisher", "instance": config.ConfigFile,
	}

	instance := &publisherImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:       dbClient,
		launcher: launcher,
		config:   config,
		client:   resty.New().SetBaseURL(config.APIBaseURL),
	}
	instance.workerCtxt, instance.workerCancel = context.WithCancel(parentCtxt)

	restartTimer, err := goutils.GetIntervalTimerInstance(
		instance.workerCtxt, &instance.wg, logTags,
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to define relay restart timer")
		return nil, err
	}
	instance.restartTimer = restartTimer

	return instance, nil
}

func (p *publisherImpl) Regenerate(ctxt context.Context) error {
	logTags := p.GetLogTagsForContext(ctxt)

	cameras, err := p.db.ListCameras(ctxt)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to list cameras for relay config")
		return err
	}

	apiAddress := ""
	if parsed, err := url.Parse(p.config.APIBaseURL); err == nil {
		apiAddress = fmt.Sprintf(":%s", parsed.Port())
	}

	document := relayServiceConfig{
		RTSPAddress:             fmt.Sprintf(":%d", p.config.RTSPPort),
		Protocols:               []string{"tcp"},
		WebRTCAddress:           fmt.Sprintf(":%d", p.config.WebRTCPort),
		WebRTCICEHostNAT1To1IPs: []string{"127.0.0.1"},
		API:                     true,
		APIAddress:              apiAddress,
		Paths:                   map[string]relayPathEntry{},
	}

	if len(cameras) == 0 {
		document.Paths["all"] = relayPathEntry{RunOnDemand: "no"}
	}
	for _, camera := range cameras {
		source := media.AuthenticateStreamURL(camera.StreamURL, camera.Username, camera.Password)
		document.Paths[fmt.Sprintf("live/%s", camera.ID)] = relayPathEntry{
			Source:         source,
			SourceOnDemand: true,
			SourceProtocol: "tcp",
		}
	}

	rendered, err := yaml.Marshal(&document)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to render relay config")
		return err
	}

	// Replace the config atomically so the relay never reads a partial file
	tmpFile := fmt.Sprintf("%s.tmp", p.config.ConfigFile)
	if err := os.MkdirAll(filepath.Dir(p.config.ConfigFile), 0o755); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to create relay config directory")
		return err
	}
	if err := os.WriteFile(tmpFile, rendered, 0o644); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to write relay config")
		return err
	}
	if err := os.Rename(tmpFile, p.config.ConfigFile); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to replace relay config")
		return err
	}

	log.
		WithFields(logTags).
		WithField("cameras", len(cameras)).
		Info("Regenerated relay config")
	return nil
}

func (p *publisherImpl) Start(ctxt context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.startLocked(ctxt)
}

func (p *publisherImpl) startLocked(ctxt context.Context) error {
	logTags := p.GetLogTagsForContext(ctxt)

	if p.process != nil {
		return nil
	}

	p.processGen++
	generation := p.processGen
	process, err := p.launcher.Launch(ctxt, media.ProcessSpec{
		Name:   "relay",
		Binary: p.config.Bin,
		Args:   []string{p.config.ConfigFile},
		OnExit: func(exitErr error) {
			p.handleRelayExit(generation, exitErr)
		},
	})
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Relay service failed to start")
		return err
	}
	p.process = process

	log.WithFields(logTags).Info("Relay service started")
	return nil
}

// handleRelayExit clear the process handle once the relay exits, unless a newer
// relay process has already replaced it
func (p *publisherImpl) handleRelayExit(generation int, exitErr error) {
	logTags := p.GetLogTagsForContext(p.workerCtxt)

	p.lock.Lock()
	defer p.lock.Unlock()
	if p.processGen != generation {
		return
	}
	p.process = nil
	if exitErr != nil {
		log.WithError(exitErr).WithFields(logTags).Warn("Relay service exited abnormally")
	}
}

func (p *publisherImpl) Restart(ctxt context.Context) error {
	logTags := p.GetLogTagsForContext(ctxt)

	p.lock.Lock()
	defer p.lock.Unlock()

	if p.process == nil {
		return p.startLocked(ctxt)
	}

	log.WithFields(logTags).Info("Restarting relay service to apply config")
	if err := p.process.Kill(ctxt); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to terminate relay service")
	}
	p.process = nil
	p.processGen++

	// Give the old process a moment to unbind its ports
	_ = p.restartTimer.Stop()
	if err := p.restartTimer.Start(p.config.RestartDelay(), func() error {
		p.lock.Lock()
		defer p.lock.Unlock()
		return p.startLocked(p.workerCtxt)
	}, true); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to schedule relay start")
		return err
	}

	return nil
}

func (p *publisherImpl) Stop(ctxt context.Context) error {
	logTags := p.GetLogTagsForContext(ctxt)

	p.lock.Lock()
	_ = p.restartTimer.Stop()
	if p.process != nil {
		if err := p.process.Kill(ctxt); err != nil {
			log.WithError(err).WithFields(logTags).Error("Unable to terminate relay service")
		}
		p.process = nil
		p.processGen++
	}
	p.lock.Unlock()

	p.workerCancel()
	return goutils.TimeBoundedWaitGroupWait(ctxt, &p.wg, p.config.RestartDelay()*5)
}

func (p *publisherImpl) Ready(ctxt context.Context) error {
	resp, err := p.client.R().SetContext(ctxt).Get("/v3/paths/list")
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("relay service API returned status %d", resp.StatusCode())
	}
	return nil
}
