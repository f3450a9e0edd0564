package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/AhmadShamli/DarkEye/api"
	"github.com/AhmadShamli/DarkEye/common"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	apexJSON "github.com/apex/log/handlers/json"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"
)

type newCameraList struct {
	Cameras []api.CameraDefinitionRequest `json:"cameras" validate:"required,gte=1"`
}

type provisionCameraArgs struct {
	DefinitionFile string `validate:"required,file"`
}

type cliArgs struct {
	JSONLog         bool
	LogLevel        string `validate:"required,oneof=debug info warn error"`
	APIBaseURL      string `validate:"required,url"`
	RequestIDHeader string `validate:"required"`
}

var cmdArgs cliArgs

var logTags log.Fields

var provCamArgs provisionCameraArgs

func main() {
	hostname, err := os.Hostname()
	if err != nil {
		log.WithError(err).Fatal("Unable to read hostname")
	}
	logTags = log.Fields{
		"module":    "main",
		"component": "main",
		"instance":  hostname,
	}

	app := &cli.App{
		Version:     "v0.1.0",
		Usage:       "application entrypoint",
		Description: "DarkEye OPS support utility application",
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
			// NVR node base URL
			&cli.StringFlag{
				Name:        "api-base-url",
				Usage:       "DarkEye NVR node API base URL",
				Aliases:     []string{"u"},
				EnvVars:     []string{"NVR_API_BASE_URL"},
				Value:       "http://127.0.0.1:8080",
				DefaultText: "http://127.0.0.1:8080",
				Destination: &cmdArgs.APIBaseURL,
				Required:    false,
			},
			&cli.StringFlag{
				Name:        "request-id-header",
				Usage:       "HTTP header for request ID",
				Aliases:     []string{"i"},
				EnvVars:     []string{"REQUEST_ID_HTTP_HEADER"},
				Value:       "X-Request-ID",
				DefaultText: "X-Request-ID",
				Destination: &cmdArgs.RequestIDHeader,
				Required:    false,
			},
		},
		Commands: []*cli.Command{
			{
				Name:        "provision-camera",
				Aliases:     []string{"prov-cam"},
				Usage:       "Provision cameras",
				Description: "Provision new cameras in the system.",
				Flags: []cli.Flag{
					// Config file
					&cli.StringFlag{
						Name:        "definition-file",
						Usage:       "New camera definition file",
						Aliases:     []string{"c"},
						EnvVars:     []string{"DEFINITION_FILE"},
						Destination: &provCamArgs.DefinitionFile,
						Required:    true,
					},
				},
				Action: provisionCameras,
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

func provisionCameras(c *cli.Context) error {
	validate := validator.New()

	// Validate general config
	if err := validate.Struct(&cmdArgs); err != nil {
		return err
	}

	setupLogging()

	if err := validate.Struct(&provCamArgs); err != nil {
		return err
	}

	// Process camera definition files
	var definitionFile newCameraList
	if theFile, err := os.Open(provCamArgs.DefinitionFile); err != nil {
		return err
	} else if err := json.NewDecoder(theFile).Decode(&definitionFile); err != nil {
		return err
	}

	{
		t, _ := json.Marshal(definitionFile.Cameras)
		log.WithFields(logTags).WithField("cameras", string(t)).Info("Provision cameras")
	}

	targetURL, err := url.Parse(fmt.Sprintf("%s/v1/camera", cmdArgs.APIBaseURL))
	if err != nil {
		log.
			WithError(err).
			WithFields(logTags).
			WithField("camera-define-url", fmt.Sprintf("%s/v1/camera", cmdArgs.APIBaseURL)).
			Error("Unable to parse camera define URL")
		return err
	}

	client := resty.New()

	reqID := ulid.Make().String()

	// Get all known cameras
	resp, err := client.R().
		// Set request header
		SetHeader(cmdArgs.RequestIDHeader, reqID).
		// Setup error parsing
		SetError(goutils.RestAPIBaseResponse{}).
		Get(targetURL.String())
	if err != nil {
		log.
			WithError(err).
			WithFields(logTags).
			WithField("request-id", reqID).
			Error("Camera query failed on call")
		return err
	}
	if resp.IsError() {
		respError := resp.Error().(*goutils.RestAPIBaseResponse)
		var err error
		if respError.Error != nil {
			err = fmt.Errorf(respError.Error.Detail)
		} else {
			err = fmt.Errorf("status code %d", resp.StatusCode())
		}
		log.
			WithError(err).
			WithFields(logTags).
			WithField("request-id", reqID).
			Error("Camera query failed")
		return err
	}
	var existingCameras api.CameraInfoListResponse
	if err := json.Unmarshal(resp.Body(), &existingCameras); err != nil {
		log.WithError(err).WithFields(logTags).Error("Failed to parse camera query response")
		return err
	}

	cameraByName := map[string]common.CameraConfig{}
	for _, entry := range existingCameras.Cameras {
		cameraByName[entry.Name] = entry
	}

	// Go through each camera
	for _, entry := range definitionFile.Cameras {
		payload, _ := json.Marshal(&entry)
		// Check whether a camera already exist
		if _, ok := cameraByName[entry.Name]; ok {
			log.
				WithFields(logTags).
				WithField("camera", string(payload)).
				Info("Camera already exist")
			continue
		}

		reqID = ulid.Make().String()

		// Define the missing camera
		resp, err := client.R().
			// Set request header
			SetHeader(cmdArgs.RequestIDHeader, reqID).
			// Set request payload
			SetBody(payload).
			// Setup error parsing
			SetError(goutils.RestAPIBaseResponse{}).
			Post(targetURL.String())

		if err != nil {
			log.
				WithError(err).
				WithFields(logTags).
				WithField("camera", string(payload)).
				WithField("request-id", reqID).
				Error("Camera define failed on call")
			return err
		}

		if resp.IsError() {
			respError := resp.Error().(*goutils.RestAPIBaseResponse)
			var err error
			if respError.Error != nil {
				err = fmt.Errorf(respError.Error.Detail)
			} else {
				err = fmt.Errorf("status code %d", resp.StatusCode())
			}
			log.
				WithError(err).
				WithFields(logTags).
				WithField("camera", string(payload)).
				WithField("request-id", reqID).
				Error("Camera define failed")
			return err
		}

		log.
			WithFields(logTags).
			WithField("camera", string(payload)).
			WithField("request-id", reqID).
			Info("Camera defined")
	}

	return nil
}
