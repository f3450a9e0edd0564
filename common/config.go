package common

import (
	"time"

	"github.com/alwitt/goutils"
	"github.com/spf13/viper"
)

// ===============================================================================
// Common Submodule Config

// HTTPServerTimeoutConfig defines the timeout settings for HTTP server
type HTTPServerTimeoutConfig struct {
	// ReadTimeout is the maximum duration for reading the entire
	// request, including the body in seconds. A zero or negative
	// value means there will be no timeout.
	ReadTimeout int `mapstructure:"read" json:"read" validate:"gte=0"`
	// WriteTimeout is the maximum duration before timing out
	// writes of the response in seconds. A zero or negative value
	// means there will be no timeout.
	WriteTimeout int `mapstructure:"write" json:"write" validate:"gte=0"`
	// IdleTimeout is the maximum amount of time to wait for the
	// next request when keep-alives are enabled in seconds. If
	// IdleTimeout is zero, the value of ReadTimeout is used. If
	// both are zero, there is no timeout.
	IdleTimeout int `mapstructure:"idle" json:"idle" validate:"gte=0"`
}

// HTTPServerConfig defines the HTTP server parameters
type HTTPServerConfig struct {
	// ListenOn is the interface the HTTP server will listen on
	ListenOn string `mapstructure:"listenOn" json:"listenOn" validate:"required,ip"`
	// Port is the port the HTTP server will listen on
	Port uint16 `mapstructure:"appPort" json:"appPort" validate:"required,gt=0,lt=65536"`
	// Timeouts sets the HTTP timeout settings
	Timeouts HTTPServerTimeoutConfig `mapstructure:"timeoutSecs" json:"timeoutSecs" validate:"required,dive"`
}

// HTTPRequestLogging defines HTTP request logging parameters
type HTTPRequestLogging struct {
	// LogLevel output request logs at this level
	LogLevel goutils.HTTPRequestLogLevel `mapstructure:"logLevel" json:"logLevel" validate:"oneof=warn info debug"`
	// HealthLogLevel output health check logs at this level
	HealthLogLevel goutils.HTTPRequestLogLevel `mapstructure:"healthLogLevel" json:"healthLogLevel" validate:"oneof=warn info debug"`
	// RequestIDHeader is the HTTP header containing the API request ID
	RequestIDHeader string `mapstructure:"requestIDHeader" json:"requestIDHeader"`
	// DoNotLogHeaders is the list of headers to not include in logging metadata
	DoNotLogHeaders []string `mapstructure:"skipHeaders" json:"skipHeaders"`
}

// EndpointConfig defines API endpoint config
type EndpointConfig struct {
	// PathPrefix is the end-point path prefix for the APIs
	PathPrefix string `mapstructure:"pathPrefix" json:"pathPrefix" validate:"required"`
}

// APIConfig defines API settings for a submodule
type APIConfig struct {
	// Endpoint sets API endpoint related parameters
	Endpoint EndpointConfig `mapstructure:"endPoint" json:"endPoint" validate:"required,dive"`
	// RequestLogging sets API request logging parameters
	RequestLogging HTTPRequestLogging `mapstructure:"requestLogging" json:"requestLogging" validate:"required,dive"`
}

// APIServerConfig defines HTTP API / server parameters
type APIServerConfig struct {
	// Server defines HTTP server parameters
	Server HTTPServerConfig `mapstructure:"service" json:"service" validate:"required,dive"`
	// APIs defines API settings for a submodule
	APIs APIConfig `mapstructure:"apis" json:"apis" validate:"required,dive"`
}

// SqliteConfig sqlite related configs
type SqliteConfig struct {
	// DBFile the sqlite DB file path
	DBFile string `mapstructure:"db" json:"db" validate:"required"`
}

// ===============================================================================
// Capture Subprocess Config

// CaptureConfig capture subprocess related configs
type CaptureConfig struct {
	// FFmpegBin path of the ffmpeg binary used for all capture subprocesses
	FFmpegBin string `mapstructure:"ffmpegBin" json:"ffmpegBin" validate:"required"`
	// RelayStreamURIPrefix URI prefix of per-camera relay playback endpoints.
	// The per-camera stream is read from `<prefix>/<camera ID>`.
	RelayStreamURIPrefix string `mapstructure:"relayStreamURIPrefix" json:"relayStreamURIPrefix" validate:"required,uri"`
}

// ===============================================================================
// Relay Service Config

// RelayConfig relay service related configs
type RelayConfig struct {
	// Bin path of the relay service binary
	Bin string `mapstructure:"bin" json:"bin" validate:"required"`
	// ConfigFile path where the generated relay declarative config is written
	ConfigFile string `mapstructure:"configFile" json:"configFile" validate:"required"`
	// RTSPPort relay RTSP listen port
	RTSPPort uint16 `mapstructure:"rtspPort" json:"rtspPort" validate:"required,gt=0"`
	// WebRTCPort relay WebRTC listen port
	WebRTCPort uint16 `mapstructure:"webrtcPort" json:"webrtcPort" validate:"required,gt=0"`
	// APIBaseURL base URL of the relay service control API, used for readiness probes
	APIBaseURL string `mapstructure:"apiBaseURL" json:"apiBaseURL" validate:"required,url"`
	// RestartDelayInSec delay between stopping the relay and starting it again,
	// allowing the old process to unbind its ports
	RestartDelayInSec uint32 `mapstructure:"restartDelayInSec" json:"restartDelayInSec" validate:"gte=1"`
}

// RestartDelay convert RestartDelayInSec to time.Duration
func (c RelayConfig) RestartDelay() time.Duration {
	return time.Second * time.Duration(c.RestartDelayInSec)
}

// ===============================================================================
// Recording Config

// RecordingConfig recording supervision related configs
type RecordingConfig struct {
	// RelaySettleDelayInSec wait after a relay restart before starting a camera's
	// recorder, giving the relay time to bind its new source
	RelaySettleDelayInSec uint32 `mapstructure:"relaySettleDelayInSec" json:"relaySettleDelayInSec" validate:"gte=1"`
	// RestartBackoffInSec wait after a capture subprocess failure before respawning it
	RestartBackoffInSec uint32 `mapstructure:"restartBackoffInSec" json:"restartBackoffInSec" validate:"gte=1"`
	// DefaultStoragePath recording tree root used when the settings store has none
	DefaultStoragePath string `mapstructure:"defaultStoragePath" json:"defaultStoragePath" validate:"required"`
}

// RelaySettleDelay convert RelaySettleDelayInSec to time.Duration
func (c RecordingConfig) RelaySettleDelay() time.Duration {
	return time.Second * time.Duration(c.RelaySettleDelayInSec)
}

// RestartBackoff convert RestartBackoffInSec to time.Duration
func (c RecordingConfig) RestartBackoff() time.Duration {
	return time.Second * time.Duration(c.RestartBackoffInSec)
}

// ===============================================================================
// On-Demand Stream Config

// StreamConfig on-demand live stream related configs
type StreamConfig struct {
	// OutputDir directory HLS session output is written under, one subdir per camera
	OutputDir string `mapstructure:"outputDir" json:"outputDir" validate:"required"`
	// SweepIntInSec period of the idle session sweep
	SweepIntInSec uint32 `mapstructure:"sweepIntInSec" json:"sweepIntInSec" validate:"gte=1"`
	// IdleTimeoutInSec a session without viewer heartbeats for this long is stopped
	IdleTimeoutInSec uint32 `mapstructure:"idleTimeoutInSec" json:"idleTimeoutInSec" validate:"gte=1"`
}

// SweepInt convert SweepIntInSec to time.Duration
func (c StreamConfig) SweepInt() time.Duration {
	return time.Second * time.Duration(c.SweepIntInSec)
}

// IdleTimeout convert IdleTimeoutInSec to time.Duration
func (c StreamConfig) IdleTimeout() time.Duration {
	return time.Second * time.Duration(c.IdleTimeoutInSec)
}

// ===============================================================================
// Complete Node Config

// NVRNodeConfig NVR node configuration
type NVRNodeConfig struct {
	// Sqlite sqlite persistence config
	Sqlite SqliteConfig `mapstructure:"sqlite" json:"sqlite" validate:"required,dive"`
	// Capture capture subprocess config
	Capture CaptureConfig `mapstructure:"capture" json:"capture" validate:"required,dive"`
	// Relay relay service config
	Relay RelayConfig `mapstructure:"relay" json:"relay" validate:"required,dive"`
	// Recording recording supervision config
	Recording RecordingConfig `mapstructure:"recording" json:"recording" validate:"required,dive"`
	// Stream on-demand live stream config
	Stream StreamConfig `mapstructure:"stream" json:"stream" validate:"required,dive"`
	// Management management API server config
	Management APIServerConfig `mapstructure:"management" json:"management" validate:"required,dive"`
}

// InstallDefaultNVRNodeConfigValues installs default config parameters in viper
// for the NVR node
func InstallDefaultNVRNodeConfigValues() {
	// Default sqlite config
	viper.SetDefault("sqlite.db", "data/darkeye.db")

	// Default capture config
	viper.SetDefault("capture.ffmpegBin", "ffmpeg")
	viper.SetDefault("capture.relayStreamURIPrefix", "rtsp://127.0.0.1:8554/live")

	// Default relay config
	viper.SetDefault("relay.bin", "bin/mediamtx")
	viper.SetDefault("relay.configFile", "bin/mediamtx.yml")
	viper.SetDefault("relay.rtspPort", 8554)
	viper.SetDefault("relay.webrtcPort", 8889)
	viper.SetDefault("relay.apiBaseURL", "http://127.0.0.1:9997")
	viper.SetDefault("relay.restartDelayInSec", 1)

	// Default recording config
	viper.SetDefault("recording.relaySettleDelayInSec", 3)
	viper.SetDefault("recording.restartBackoffInSec", 5)
	viper.SetDefault("recording.defaultStoragePath", "recordings")

	// Default on-demand stream config
	viper.SetDefault("stream.outputDir", "public/hls")
	viper.SetDefault("stream.sweepIntInSec", 5)
	viper.SetDefault("stream.idleTimeoutInSec", 20)

	// Default management API server config
	viper.SetDefault("management.service.listenOn", "0.0.0.0")
	viper.SetDefault("management.service.appPort", 8080)
	viper.SetDefault("management.service.timeoutSecs.read", 60)
	viper.SetDefault("management.service.timeoutSecs.write", 60)
	viper.SetDefault("management.service.timeoutSecs.idle", 60)
	viper.SetDefault("management.apis.endPoint.pathPrefix", "/")
	viper.SetDefault("management.apis.requestLogging.logLevel", "warn")
	viper.SetDefault("management.apis.requestLogging.healthLogLevel", "debug")
	viper.SetDefault("management.apis.requestLogging.requestIDHeader", "X-Request-ID")
	viper.SetDefault("management.apis.requestLogging.skipHeaders", []string{
		"WWW-Authenticate", "Authorization", "Proxy-Authenticate", "Proxy-Authorization",
	})
}
