package reporting

import (
	"log"

	"github.com/rollbar/rollbar-go"
)

type Config struct {
	Token       string
	Environment string
	Host        string
	Build       string
}

// Reporter forwards errors to Rollbar when a token is configured and always logs them.
type Reporter struct {
	enabled bool
}

func New(config Config) *Reporter {
	enabled := config.Token != ""
	if enabled {
		rollbar.SetToken(config.Token)
		rollbar.SetEnvironment(config.Environment)
		rollbar.SetServerHost(config.Host)
		rollbar.SetCodeVersion(config.Build)
	}
	rollbar.SetEnabled(enabled)
	return &Reporter{enabled: enabled}
}

func (reporter *Reporter) Enabled() bool {
	return reporter != nil && reporter.enabled
}

func (reporter *Reporter) Error(err error, extras map[string]interface{}) {
	if err == nil {
		return
	}
	log.Printf("error: %v %v", err, extras)
	if !reporter.Enabled() {
		return
	}
	if extras == nil {
		rollbar.Error(err)
		return
	}
	rollbar.Error(err, extras)
}

func (reporter *Reporter) Critical(value interface{}, extras map[string]interface{}) {
	log.Printf("critical: %v %v", value, extras)
	if !reporter.Enabled() {
		return
	}
	rollbar.Critical(value, extras)
}

// Close flushes queued reports.
func (reporter *Reporter) Close() {
	if reporter.Enabled() {
		rollbar.Close()
	}
}
