package common_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestNVRNodeConfigDefaults(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	viper.Reset()
	common.InstallDefaultNVRNodeConfigValues()

	var cfg common.NVRNodeConfig
	assert.Nil(viper.Unmarshal(&cfg))

	validate := validator.New()
	assert.Nil(validate.Struct(&cfg))

	assert.Equal("data/darkeye.db", cfg.Sqlite.DBFile)
	assert.Equal("ffmpeg", cfg.Capture.FFmpegBin)
	assert.Equal("rtsp://127.0.0.1:8554/live", cfg.Capture.RelayStreamURIPrefix)
	assert.Equal(uint16(8554), cfg.Relay.RTSPPort)
	assert.Equal("http://127.0.0.1:9997", cfg.Relay.APIBaseURL)
	assert.Equal(time.Second*3, cfg.Recording.RelaySettleDelay())
	assert.Equal(time.Second*5, cfg.Recording.RestartBackoff())
	assert.Equal("recordings", cfg.Recording.DefaultStoragePath)
	assert.Equal(time.Second*5, cfg.Stream.SweepInt())
	assert.Equal(time.Second*20, cfg.Stream.IdleTimeout())
	assert.Equal(uint16(8080), cfg.Management.Server.Port)
	assert.Equal("X-Request-ID", cfg.Management.APIs.RequestLogging.RequestIDHeader)
}

func TestNVRNodeConfigOverride(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	viper.Reset()
	common.InstallDefaultNVRNodeConfigValues()

	config := []byte(`---
sqlite:
  db: /var/lib/darkeye/darkeye.db
capture:
  ffmpegBin: /usr/bin/ffmpeg
relay:
  bin: /opt/darkeye/mediamtx
  configFile: /etc/darkeye/mediamtx.yml
  rtspPort: 9554
recording:
  relaySettleDelayInSec: 10
  defaultStoragePath: /srv/recordings
stream:
  idleTimeoutInSec: 45
management:
  service:
    appPort: 9090
`)
	viper.SetConfigType("yaml")
	assert.Nil(viper.ReadConfig(bytes.NewBuffer(config)))

	var cfg common.NVRNodeConfig
	assert.Nil(viper.Unmarshal(&cfg))

	validate := validator.New()
	assert.Nil(validate.Struct(&cfg))

	// Overridden values
	assert.Equal("/var/lib/darkeye/darkeye.db", cfg.Sqlite.DBFile)
	assert.Equal("/usr/bin/ffmpeg", cfg.Capture.FFmpegBin)
	assert.Equal(uint16(9554), cfg.Relay.RTSPPort)
	assert.Equal(time.Second*10, cfg.Recording.RelaySettleDelay())
	assert.Equal("/srv/recordings", cfg.Recording.DefaultStoragePath)
	assert.Equal(time.Second*45, cfg.Stream.IdleTimeout())
	assert.Equal(uint16(9090), cfg.Management.Server.Port)

	// Defaults still fill the rest
	assert.Equal(uint16(8889), cfg.Relay.WebRTCPort)
	assert.Equal(time.Second*5, cfg.Recording.RestartBackoff())
	assert.Equal("0.0.0.0", cfg.Management.Server.ListenOn)
}

func TestNVRNodeConfigValidation(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	viper.Reset()
	common.InstallDefaultNVRNodeConfigValues()

	// A malformed relay API base URL must fail validation
	config := []byte(`---
relay:
  apiBaseURL: not-a-url
`)
	viper.SetConfigType("yaml")
	assert.Nil(viper.ReadConfig(bytes.NewBuffer(config)))

	var cfg common.NVRNodeConfig
	assert.Nil(viper.Unmarshal(&cfg))

	validate := validator.New()
	assert.NotNil(validate.Struct(&cfg))
}
