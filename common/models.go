package common

import (
	"time"
)

// CameraKind camera source kind
type CameraKind string

// Supported camera source kinds
const (
	// CameraKindRTSP a plain network stream camera
	CameraKindRTSP CameraKind = "rtsp"
	// CameraKindONVIF a protocol managed camera exposing a device service endpoint
	CameraKindONVIF CameraKind = "onvif"
	// CameraKindUSB a local capture device
	CameraKindUSB CameraKind = "usb"
)

// RecordMode camera recording mode
type RecordMode string

// Supported recording modes
const (
	// RecordModeNone recording disabled, camera is live-view only
	RecordModeNone RecordMode = "none"
	// RecordModeRaw verbatim stream copy into segment files
	RecordModeRaw RecordMode = "raw"
	// RecordModeEncode re-encode the stream before writing segment files
	RecordModeEncode RecordMode = "encode"
)

// CameraConfig identity and capture parameters of one camera
type CameraConfig struct {
	// ID camera ID, assigned at creation and stable afterwards
	ID string `json:"id" gorm:"column:id;primaryKey" validate:"required"`
	// Name camera display name
	Name string `json:"name" gorm:"column:name;not null" validate:"required"`
	// Kind camera source kind
	Kind CameraKind `json:"type" gorm:"column:type;not null" validate:"oneof=rtsp onvif usb"`
	// StreamURL primary media stream locator
	StreamURL string `json:"url" gorm:"column:url;not null" validate:"required"`
	// SubStreamURL optional lower bitrate media stream locator
	SubStreamURL *string `json:"substream_url,omitempty" gorm:"column:substream_url;default:null"`
	// Username optional camera credential
	Username *string `json:"username,omitempty" gorm:"column:username;default:null"`
	// Password optional camera credential
	Password *string `json:"password,omitempty" gorm:"column:password;default:null"`
	// RecordMode main recording mode
	RecordMode RecordMode `json:"record_mode" gorm:"column:record_mode;not null;default:raw" validate:"oneof=none raw encode"`
	// SegmentDurationMins length of one recording segment file in minutes
	SegmentDurationMins int `json:"segment_duration" gorm:"column:segment_duration;not null;default:15" validate:"gte=1"`
	// TimelapseEnabled whether the secondary timelapse capture runs
	TimelapseEnabled bool `json:"timelapse_enabled" gorm:"column:timelapse_enabled;not null;default:false"`
	// TimelapseIntervalSecs seconds between sampled timelapse frames
	TimelapseIntervalSecs int `json:"timelapse_interval" gorm:"column:timelapse_interval;not null;default:5" validate:"gte=1"`
	// TimelapseDurationMins length of one timelapse segment file in minutes
	TimelapseDurationMins int `json:"timelapse_duration" gorm:"column:timelapse_duration;not null;default:60" validate:"gte=1"`
	// PTZEnabled whether the camera supports pan-tilt-zoom control
	PTZEnabled bool `json:"ptz_enabled" gorm:"column:ptz_enabled;not null;default:false"`
	// DeviceServiceURL device control service address for protocol managed cameras
	DeviceServiceURL *string   `json:"onvif_service_url,omitempty" gorm:"column:onvif_service_url;default:null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SegmentDuration convert SegmentDurationMins to time.Duration
func (c CameraConfig) SegmentDuration() time.Duration {
	return time.Minute * time.Duration(c.SegmentDurationMins)
}

// TimelapseInterval convert TimelapseIntervalSecs to time.Duration
func (c CameraConfig) TimelapseInterval() time.Duration {
	return time.Second * time.Duration(c.TimelapseIntervalSecs)
}

// TimelapseDuration convert TimelapseDurationMins to time.Duration
func (c CameraConfig) TimelapseDuration() time.Duration {
	return time.Minute * time.Duration(c.TimelapseDurationMins)
}

// Recordable whether any capture subprocess should run for this camera
func (c CameraConfig) Recordable() bool {
	return c.RecordMode != RecordModeNone || c.TimelapseEnabled
}

// Known settings store keys
const (
	// SettingStoragePath recording tree root directory
	SettingStoragePath = "storage_path"
	// SettingMaxStorageGB recording tree size quota in GB
	SettingMaxStorageGB = "max_storage_gb"
	// SettingRetentionHours recording age limit in hours
	SettingRetentionHours = "retention_hours"
	// SettingCleanupIntervalMin retention cycle period in minutes
	SettingCleanupIntervalMin = "cleanup_interval_min"
)
