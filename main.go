package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/AhmadShamli/DarkEye/bin"
	"github.com/AhmadShamli/DarkEye/common"
	"github.com/AhmadShamli/DarkEye/db"
	"github.com/AhmadShamli/DarkEye/retention"
	"github.com/apex/log"
	apexJSON "github.com/apex/log/handlers/json"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm/logger"
)

type nvrNodeCliArgs struct {
	ConfigFile string `validate:"required,file"`
}

type cliArgs struct {
	JSONLog  bool
	LogLevel string `validate:"required,oneof=debug info warn error"`
	Hostname string
}

var nvrNodeArgs nvrNodeCliArgs

var cmdArgs cliArgs

var logTags log.Fields

// @title DarkEye
// @version v0.1.0
// @description Self-hosted NVR control plane

// @host localhost:8080
// @BasePath /
// @query.collection.format multi
func main() {
	hostname, err := os.Hostname()
	if err != nil {
		log.WithError(err).Fatal("Unable to read hostname")
	}
	cmdArgs.Hostname = hostname
	logTags = log.Fields{
		"module":    "main",
		"component": "main",
		"instance":  hostname,
	}

	app := &cli.App{
		Version:     "v0.1.0",
		Usage:       "application entrypoint",
		Description: "Self-hosted NVR with camera recording, live viewing, and retention",
		Flags: []cli.Flag{
			// LOGGING
			&cli.BoolFlag{
				Name:        "json-log",
				Usage:       "Whether to log in JSON format",
				Aliases:     []string{"j"},
				EnvVars:     []string{"LOG_AS_JSON"},
				Value:       false,
				DefaultText: "false",
				Destination: &cmdArgs.JSONLog,
				Required:    false,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Logging level: [debug info warn error]",
				Aliases:     []string{"l"},
				EnvVars:     []string{"LOG_LEVEL"},
				Value:       "warn",
				DefaultText: "warn",
				Destination: &cmdArgs.LogLevel,
				Required:    false,
			},
		},
		Commands: []*cli.Command{
			{
				Name:        "run",
				Usage:       "Run NVR node",
				Description: "Start the NVR node and its management API server.",
				Flags: []cli.Flag{
					// Config file
					&cli.StringFlag{
						Name:        "config-file",
						Usage:       "Application config file",
						Aliases:     []string{"c"},
						EnvVars:     []string{"CONFIG_FILE"},
						Destination: &nvrNodeArgs.ConfigFile,
						Required:    true,
					},
				},
				Action: startNVRNode,
			},
			{
				Name:        "cleanup",
				Usage:       "Run one retention cycle",
				Description: "Execute one storage retention cycle against the recording tree and exit.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "config-file",
						Usage:       "Application config file",
						Aliases:     []string{"c"},
						EnvVars:     []string{"CONFIG_FILE"},
						Destination: &nvrNodeArgs.ConfigFile,
						Required:    true,
					},
				},
				Action: runRetentionCycle,
			},
		},
	}

	err = app.Run(os.Args)
	if err != nil {
		log.WithError(err).WithFields(logTags).Fatal("Program shutdown")
	}
}

// setupLogging helper function to prepare the app logging
func setupLogging() {
	if cmdArgs.JSONLog {
		log.SetHandler(apexJSON.New(os.Stderr))
	}
	switch cmdArgs.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.ErrorLevel)
	}
}

// loadNVRNodeConfig process the NVR node config file
func loadNVRNodeConfig(validate *validator.Validate) (common.NVRNodeConfig, error) {
	var configs common.NVRNodeConfig

	common.InstallDefaultNVRNodeConfigValues()
	viper.SetConfigFile(nvrNodeArgs.ConfigFile)
	if err := viper.ReadInConfig(); err != nil {
		log.WithError(err).WithFields(logTags).Error("Failed to load NVR node config")
		return configs, err
	}
	if err := viper.Unmarshal(&configs); err != nil {
		log.WithError(err).WithFields(logTags).Error("Failed to parse NVR node config")
		return configs, err
	}

	if err := validate.Struct(&configs); err != nil {
		log.WithError(err).WithFields(logTags).Error("NVR node config file is not valid")
		return configs, err
	}

	{
		t, _ := json.MarshalIndent(&configs, "", "  ")
		log.WithFields(logTags).Debugf("Running with config:\n%s", string(t))
	}

	return configs, nil
}

func startNVRNode(c *cli.Context) error {
	validate := validator.New()

	// Validate general config
	if err := validate.Struct(&cmdArgs); err != nil {
		return err
	}

	setupLogging()

	// ================================================================================
	// Process NVR node config
	if err := validate.Struct(&nvrNodeArgs); err != nil {
		log.
			WithError(err).
			WithFields(logTags).
			Error("Invalid parameters provided to start NVR node")
		return err
	}

	configs, err := loadNVRNodeConfig(validate)
	if err != nil {
		return err
	}

	// ================================================================================
	// Define NVR node

	runtimeCtxt, cancel := context.WithCancel(context.Background())
	defer cancel()

	nvrNode, err := bin.DefineNVRNode(runtimeCtxt, configs)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to define and start NVR node")
		return err
	}
	defer func() {
		if err := nvrNode.Cleanup(runtimeCtxt); err != nil {
			log.WithError(err).WithFields(logTags).Error("Failure during NVR node clean up")
		}
	}()

	// ================================================================================
	// Start HTTP servers

	wg := sync.WaitGroup{}
	defer wg.Wait()
	apiServers := map[string]*http.Server{}

	defer func() {
		// Shutdown the servers
		for svrInstance, svr := range apiServers {
			ctx, cancel := context.WithTimeout(runtimeCtxt, time.Second*10)
			if err := svr.Shutdown(ctx); err != nil {
				log.
					WithError(err).
					WithFields(logTags).
					Errorf("Failure during HTTP Server %s shutdown", svrInstance)
			}
			cancel()
		}
	}()

	// Start management HTTP server
	{
		svr := nvrNode.MgmtAPIServer
		apiServers["mgmt-api"] = svr
		// Start the server
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Management API HTTP server failure")
			}
		}()
	}

	// ------------------------------------------------------------------------------------
	// Wait for termination

	cc := make(chan os.Signal, 1)
	// We'll accept graceful shutdowns when quit via SIGINT (Ctrl+C)
	// SIGKILL, SIGQUIT or SIGTERM (Ctrl+/) will not be caught.
	signal.Notify(cc, os.Interrupt)
	<-cc

	return nil
}

func runRetentionCycle(c *cli.Context) error {
	validate := validator.New()

	// Validate general config
	if err := validate.Struct(&cmdArgs); err != nil {
		return err
	}

	setupLogging()

	if err := validate.Struct(&nvrNodeArgs); err != nil {
		log.
			WithError(err).
			WithFields(logTags).
			Error("Invalid parameters provided to run retention cycle")
		return err
	}

	configs, err := loadNVRNodeConfig(validate)
	if err != nil {
		return err
	}

	runtimeCtxt, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbManager, err := db.NewManager(db.GetSqliteDialector(configs.Sqlite.DBFile), logger.Error)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Failed to define persistence manager")
		return err
	}

	cleanupEngine, err := retention.NewEngine(
		runtimeCtxt, dbManager, configs.Recording.DefaultStoragePath,
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Failed to define storage retention engine")
		return err
	}

	return cleanupEngine.RunCycle(runtimeCtxt)
}
