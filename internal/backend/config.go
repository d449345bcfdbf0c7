package backend

import (
	"errors"
	"fmt"

	"kanakku/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Optional JSON seed, loaded into an empty store.
	SeedFile string

	SQLiteDBPath string

	// Change events; an empty URL disables them.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// InstanceID suffixes the queue name so every instance gets every event.
	InstanceID string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config, instanceID string) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:     backendType,
		SeedFile: appConfig.SeedFile,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
		InstanceID:   instanceID,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("sqlite backend requires a database path")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" || c.GoogleSheetName == "" {
			return errors.New("sheets backend requires a spreadsheet ID and sheet name")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			return errors.New("sheets backend requires service account credentials")
		}
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP requires an exchange and a queue name")
	}
	return nil
}

// QueueName returns the per-instance queue name.
func (c Config) QueueName() string {
	if c.InstanceID == "" {
		return c.AMQPQueue
	}
	return c.AMQPQueue + "." + c.InstanceID
}
