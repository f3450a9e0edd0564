package db

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/AhmadShamli/DarkEye/common"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// PersistenceManager database access layer
type PersistenceManager interface {
	/*
		Ready check whether the DB connection is working

			@param ctxt context.Context - execution context
	*/
	Ready(ctxt context.Context) error

	// =====================================================================================
	// Cameras

	/*
		DefineCamera create new camera record. The camera ID is assigned here and is
		stable for the life of the record.

			@param ctxt context.Context - execution context
			@param newCamera common.CameraConfig - camera parameters, ID ignored
			@returns new camera ID
	*/
	DefineCamera(ctxt context.Context, newCamera common.CameraConfig) (string, error)

	/*
		GetCamera retrieve a camera record

			@param ctxt context.Context - execution context
			@param id string - camera ID
			@returns camera record
	*/
	GetCamera(ctxt context.Context, id string) (common.CameraConfig, error)

	/*
		ListCameras list all camera records

			@param ctxt context.Context - execution context
			@returns all camera records
	*/
	ListCameras(ctxt context.Context) ([]common.CameraConfig, error)

	/*
		UpdateCamera update properties of a camera record. The ID is never changed.

			@param ctxt context.Context - execution context
			@param newSetting common.CameraConfig - new properties
	*/
	UpdateCamera(ctxt context.Context, newSetting common.CameraConfig) error

	/*
		DeleteCamera delete a camera record

			@param ctxt context.Context - execution context
			@param id string - camera ID
	*/
	DeleteCamera(ctxt context.Context, id string) error

	// =====================================================================================
	// Settings

	/*
		GetSetting fetch one settings entry

			@param ctxt context.Context - execution context
			@param key string - settings key
			@returns settings value
	*/
	GetSetting(ctxt context.Context, key string) (string, error)

	/*
		SetSetting upsert one settings entry

			@param ctxt context.Context - execution context
			@param key string - settings key
			@param value string - settings value
	*/
	SetSetting(ctxt context.Context, key, value string) error

	/*
		StoragePath resolve the recording tree root directory

			@param ctxt context.Context - execution context
			@param fallback string - path used when the setting is absent
			@returns recording tree root
	*/
	StoragePath(ctxt context.Context, fallback string) string

	/*
		MaxStorageBytes resolve the recording tree quota

			@param ctxt context.Context - execution context
			@returns quota in bytes, 0 when unset or disabled
	*/
	MaxStorageBytes(ctxt context.Context) int64

	/*
		RetentionAge resolve the recording age limit

			@param ctxt context.Context - execution context
			@returns age limit, 0 when unset or disabled
	*/
	RetentionAge(ctxt context.Context) time.Duration

	/*
		CleanupInterval resolve the retention cycle period

			@param ctxt context.Context - execution context
			@param fallback time.Duration - period used when the setting is absent
			@returns retention cycle period
	*/
	CleanupInterval(ctxt context.Context, fallback time.Duration) time.Duration
}

// persistenceManagerImpl implements PersistenceManager
type persistenceManagerImpl struct {
	goutils.Component
	db        *gorm.DB
	validator *validator.Validate
}

/*
NewManager define a new DB access manager

	@param dbDialector gorm.Dialector - GORM SQL dialector
	@param logLevel logger.LogLevel - SQL log level
	@returns new manager
*/
func NewManager(dbDialector gorm.Dialector, logLevel logger.LogLevel) (PersistenceManager, error) {
	db, err := gorm.Open(dbDialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}

	// Prepare the databases
	if err := db.AutoMigrate(&camera{}); err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&setting{}); err != nil {
		return nil, err
	}

	// Seed default settings on first start
	defaults := []setting{
		{Key: common.SettingMaxStorageGB, Value: "500"},
		{Key: common.SettingRetentionHours, Value: "72"},
		{Key: common.SettingCleanupIntervalMin, Value: "60"},
	}
	if tmp := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}}, DoNothing: true,
	}).Create(&defaults); tmp.Error != nil {
		return nil, tmp.Error
	}

	logTags := log.Fields{"module": "db", "component": "manager", "instance": dbDialector.Name()}
	return &persistenceManagerImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:        db,
		validator: validator.New(),
	}, nil
}

func (m *persistenceManagerImpl) Ready(ctxt context.Context) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		tmp := tx.Find(&[]camera{}).Limit(1)
		return tmp.Error
	})
}

// =====================================================================================
// Cameras

// newCameraID assign a short upper-case camera ID token
func newCameraID() string {
	full := ulid.Make().String()
	return strings.ToUpper(full[len(full)-5:])
}

func (m *persistenceManagerImpl) DefineCamera(
	ctxt context.Context, newCamera common.CameraConfig,
) (string, error) {
	newEntryID := ""
	return newEntryID, m.db.Transaction(func(tx *gorm.DB) error {
		logTags := m.GetLogTagsForContext(ctxt)

		// Prepare new entry
		newEntryID = newCameraID()
		newCamera.ID = newEntryID
		newEntry := camera{CameraConfig: newCamera}

		// Verify data
		if err := m.validator.Struct(&newEntry); err != nil {
			return err
		}

		// Insert entry
		if tmp := tx.Create(&newEntry); tmp.Error != nil {
			return tmp.Error
		}

		log.
			WithFields(logTags).
			WithField("name", newCamera.Name).
			WithField("type", newCamera.Kind).
			WithField("id", newEntryID).
			Info("Defined new camera")
		return nil
	})
}

func (m *persistenceManagerImpl) GetCamera(
	ctxt context.Context, id string,
) (common.CameraConfig, error) {
	var result common.CameraConfig
	return result, m.db.Transaction(func(tx *gorm.DB) error {
		var entry camera
		if tmp := tx.First(&entry, "id = ?", id); tmp.Error != nil {
			return tmp.Error
		}
		result = entry.CameraConfig
		return nil
	})
}

func (m *persistenceManagerImpl) ListCameras(ctxt context.Context) ([]common.CameraConfig, error) {
	var result []common.CameraConfig
	return result, m.db.Transaction(func(tx *gorm.DB) error {
		var entries []camera
		if tmp := tx.Find(&entries); tmp.Error != nil {
			return tmp.Error
		}
		for _, entry := range entries {
			result = append(result, entry.CameraConfig)
		}
		return nil
	})
}

func (m *persistenceManagerImpl) UpdateCamera(
	ctxt context.Context, newSetting common.CameraConfig,
) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		logTags := m.GetLogTagsForContext(ctxt)

		if err := m.validator.Struct(&camera{CameraConfig: newSetting}); err != nil {
			return err
		}

		// Select covers zero values (e.g. disabling timelapse) which a struct
		// update would otherwise skip
		if tmp := tx.Model(&camera{}).Where("id = ?", newSetting.ID).Select(
			"name", "type", "url", "substream_url", "username", "password",
			"record_mode", "segment_duration", "timelapse_enabled",
			"timelapse_interval", "timelapse_duration", "ptz_enabled",
			"onvif_service_url",
		).Updates(&camera{CameraConfig: newSetting}); tmp.Error != nil {
			return tmp.Error
		}

		log.
			WithFields(logTags).
			WithField("name", newSetting.Name).
			WithField("id", newSetting.ID).
			Info("Updated camera")

		return nil
	})
}

func (m *persistenceManagerImpl) DeleteCamera(ctxt context.Context, id string) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		logTags := m.GetLogTagsForContext(ctxt)
		if tmp := tx.Delete(&camera{CameraConfig: common.CameraConfig{ID: id}}); tmp.Error != nil {
			return tmp.Error
		}
		log.WithFields(logTags).WithField("id", id).Info("Deleted camera")
		return nil
	})
}

// =====================================================================================
// Settings

func (m *persistenceManagerImpl) GetSetting(ctxt context.Context, key string) (string, error) {
	var result string
	return result, m.db.Transaction(func(tx *gorm.DB) error {
		var entry setting
		if tmp := tx.First(&entry, "key = ?", key); tmp.Error != nil {
			return tmp.Error
		}
		result = entry.Value
		return nil
	})
}

func (m *persistenceManagerImpl) SetSetting(ctxt context.Context, key, value string) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		logTags := m.GetLogTagsForContext(ctxt)
		entry := setting{Key: key, Value: value}
		if tmp := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry); tmp.Error != nil {
			return tmp.Error
		}
		log.WithFields(logTags).WithField("key", key).Info("Updated setting")
		return nil
	})
}

func (m *persistenceManagerImpl) StoragePath(ctxt context.Context, fallback string) string {
	value, err := m.GetSetting(ctxt, common.SettingStoragePath)
	if err != nil || value == "" {
		return fallback
	}
	return value
}

func (m *persistenceManagerImpl) MaxStorageBytes(ctxt context.Context) int64 {
	value, err := m.GetSetting(ctxt, common.SettingMaxStorageGB)
	if err != nil {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return 0
	}
	return int64(parsed * 1024 * 1024 * 1024)
}

func (m *persistenceManagerImpl) RetentionAge(ctxt context.Context) time.Duration {
	value, err := m.GetSetting(ctxt, common.SettingRetentionHours)
	if err != nil {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return 0
	}
	return time.Duration(parsed * float64(time.Hour))
}

func (m *persistenceManagerImpl) CleanupInterval(
	ctxt context.Context, fallback time.Duration,
) time.Duration {
	value, err := m.GetSetting(ctxt, common.SettingCleanupIntervalMin)
	if err != nil {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return time.Minute * time.Duration(parsed)
}
