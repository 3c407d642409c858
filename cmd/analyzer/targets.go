package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/iberseis/internal/core/usecases"
)

// TargetFile is the YAML document listing events and stations to analyse.
//
//	defaults:
//	  min_magnitude: 2.0
//	targets:
//	  - name: alenquer-toledo
//	    event_time: 2024-02-10T13:45:12Z
//	    network: PM
//	    station: PESTR
type TargetFile struct {
	Defaults TargetDefaults `yaml:"defaults"`
	Targets  []TargetSpec   `yaml:"targets" validate:"required,min=1,dive"`
}

// TargetDefaults apply to every target that leaves the field unset.
type TargetDefaults struct {
	MinMagnitude float64       `yaml:"min_magnitude" validate:"gte=-2,lte=10"`
	SearchWindow time.Duration `yaml:"search_window" validate:"gte=0,lte=1h"`
	SpeedKmS     float64       `yaml:"speed_km_s" validate:"omitempty,gt=0,lte=20"`
	Location     string        `yaml:"location" validate:"omitempty,max=2"`
	Channel      string        `yaml:"channel" validate:"omitempty,len=3,alphanum"`
}

// TargetSpec is one entry of a target file.
type TargetSpec struct {
	Name         string        `yaml:"name" validate:"required,max=100"`
	EventTime    time.Time     `yaml:"event_time" validate:"required"`
	SearchWindow time.Duration `yaml:"search_window" validate:"gte=0,lte=1h"`
	MinMagnitude *float64      `yaml:"min_magnitude" validate:"omitempty,gte=-2,lte=10"`
	Network      string        `yaml:"network" validate:"required,alphanum,max=2"`
	Station      string        `yaml:"station" validate:"required,alphanum,max=5"`
	Location     string        `yaml:"location" validate:"omitempty,max=2"`
	Channel      string        `yaml:"channel" validate:"omitempty,len=3,alphanum"`
	SpeedKmS     float64       `yaml:"speed_km_s" validate:"omitempty,gt=0,lte=20"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadTargets reads and validates a target file.
func LoadTargets(path string) (*TargetFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTargets(f)
}

// ParseTargets decodes and validates a target file. Unknown fields are rejected.
func ParseTargets(r io.Reader) (*TargetFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var tf TargetFile
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("decode targets: %w", err)
	}
	if err := validate.Struct(&tf); err != nil {
		return nil, fmt.Errorf("invalid targets: %w", describe(err))
	}
	return &tf, nil
}

// AnalysisTargets applies the defaults to every entry.
func (tf *TargetFile) AnalysisTargets() []usecases.AnalysisTarget {
	out := make([]usecases.AnalysisTarget, 0, len(tf.Targets))
	for _, s := range tf.Targets {
		t := usecases.AnalysisTarget{
			EventTime:    s.EventTime.UTC(),
			SearchWindow: s.SearchWindow,
			MinMagnitude: tf.Defaults.MinMagnitude,
			Network:      strings.ToUpper(s.Network),
			Station:      strings.ToUpper(s.Station),
			Location:     s.Location,
			Channel:      strings.ToUpper(s.Channel),
			SpeedKmS:     s.SpeedKmS,
		}
		if s.MinMagnitude != nil {
			t.MinMagnitude = *s.MinMagnitude
		}
		if t.SearchWindow == 0 {
			t.SearchWindow = tf.Defaults.SearchWindow
		}
		if t.SpeedKmS == 0 {
			t.SpeedKmS = tf.Defaults.SpeedKmS
		}
		if t.Location == "" {
			t.Location = tf.Defaults.Location
		}
		if t.Channel == "" {
			t.Channel = strings.ToUpper(tf.Defaults.Channel)
		}
		out = append(out, t)
	}
	return out
}

// describe flattens validator errors into one readable line.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}
