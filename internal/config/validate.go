package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidationError reports a missing or malformed configuration value.
// It is fatal at startup.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrInvalid is wrapped by every ValidationError returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// scheduleParser accepts standard five-field cron specs and descriptors
// such as "@every 60s".
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ErrScheduleNeverFires is returned for specs with no future activation,
// such as "0 0 30 2 *".
var ErrScheduleNeverFires = errors.New("schedule never fires")

// ParseSchedule parses a cron expression or descriptor that activates at
// least once in the future.
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	if sched.Next(time.Now()).IsZero() {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, ErrScheduleNeverFires)
	}
	return sched, nil
}

func required(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidateYouTube checks what the video API client needs.
func (c *Config) ValidateYouTube() error {
	if err := required("youtube.api_key (YOUTUBE_KEY)", c.YouTube.APIKey); err != nil {
		return err
	}
	if _, err := url.ParseRequestURI(c.YouTube.BaseURL); err != nil {
		return &ValidationError{Field: "youtube.base_url", Message: "must be an absolute URL"}
	}
	return nil
}

// Validate checks everything the watch command needs. Any failure means the
// process must not start.
func (c *Config) Validate() error {
	if err := c.ValidateYouTube(); err != nil {
		return err
	}
	if err := required("youtube.channel", c.YouTube.Channel); err != nil {
		return err
	}
	if _, err := ParseSchedule(c.YouTube.Schedule); err != nil {
		return &ValidationError{Field: "youtube.schedule", Message: err.Error()}
	}

	if err := c.validateEmail(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}

	if err := required("state.channel_file", c.State.ChannelFile); err != nil {
		return err
	}
	return required("state.puzzles_file", c.State.PuzzlesFile)
}

func (c *Config) validateEmail() error {
	if err := required("email.host (SMTP_HOST)", c.Email.Host); err != nil {
		return err
	}
	if c.Email.Port < 1 || c.Email.Port > 65535 {
		return &ValidationError{Field: "email.port", Message: "must be between 1 and 65535"}
	}
	if err := required("email.user (EMAIL_USER)", c.Email.User); err != nil {
		return err
	}
	if err := required("email.password (EMAIL_PASSWORD)", c.Email.Password); err != nil {
		return err
	}
	return required("email.recipient (EMAIL_RECIPIENT)", c.Email.Recipient)
}

func (c *Config) validateSources() error {
	seen := make(map[string]struct{}, len(c.Puzzles.Sources))
	for i, src := range c.Puzzles.Sources {
		field := fmt.Sprintf("puzzles.sources[%d]", i)
		if err := required(field+".key", src.Key); err != nil {
			return err
		}
		if _, dup := seen[src.Key]; dup {
			return &ValidationError{Field: field + ".key", Message: fmt.Sprintf("duplicate key %q", src.Key)}
		}
		seen[src.Key] = struct{}{}

		if _, err := url.ParseRequestURI(src.URL); err != nil {
			return &ValidationError{Field: field + ".url", Message: "must be an absolute URL"}
		}
		if _, err := ParseSchedule(src.Schedule); err != nil {
			return &ValidationError{Field: field + ".schedule", Message: err.Error()}
		}
	}
	return nil
}
