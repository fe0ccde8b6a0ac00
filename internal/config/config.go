// Package config overlays a YAML tuning file onto the built-in defaults of
// every behavior subsystem. All fields are optional; an absent field keeps
// its default. The file can be watched for live re-tuning.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GogaGogich123/HollowEngineAIMod-sub001/internal/agent"
)

// #region file-schema

// File is the YAML schema. Pointer fields distinguish "absent" from zero.
type File struct {
	Perception struct {
		MaxSenseDistance  *float64       `yaml:"maxSenseDistance"`
		AttentionDistance *float64       `yaml:"attentionDistance"`
		GazeAngleDeg      *float64       `yaml:"gazeAngleDeg"`
		PersonalSpace     *float64       `yaml:"personalSpace"`
		MaxRecordAge      *time.Duration `yaml:"maxRecordAge"`
	} `yaml:"perception"`

	Attention struct {
		MinAttention    *float64       `yaml:"minAttention"`
		SwitchMargin    *float64       `yaml:"switchMargin"`
		CandidateMaxAge *time.Duration `yaml:"candidateMaxAge"`
		AttentionRange  *float64       `yaml:"attentionRange"`
	} `yaml:"attention"`

	Interrupt struct {
		BurstWindow *time.Duration `yaml:"burstWindow"`
		BurstLimit  *int           `yaml:"burstLimit"`
		MaxActive   *int           `yaml:"maxActive"`
		DefaultTTL  *time.Duration `yaml:"defaultTTL"`
	} `yaml:"interrupt"`

	Plan struct {
		HistoryCap *int `yaml:"historyCap"`
	} `yaml:"plan"`

	State struct {
		HistoryCap    *int           `yaml:"historyCap"`
		IdleDwell     *time.Duration `yaml:"idleDwell"`
		IdleActChance *float64       `yaml:"idleActChance"`
	} `yaml:"state"`

	Cadence struct {
		Perception *time.Duration `yaml:"perception"`
		Attention  *time.Duration `yaml:"attention"`
		Interrupt  *time.Duration `yaml:"interrupt"`
		Plan       *time.Duration `yaml:"plan"`
		State      *time.Duration `yaml:"state"`
	} `yaml:"cadence"`
}

// #endregion file-schema

// #region load

// Load reads path and applies it over agent.DefaultConfig(). A missing
// file is not an error: defaults are returned unchanged.
func Load(path string) (agent.Config, error) {
	cfg := agent.DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	apply(&cfg, f)
	return cfg, nil
}

func apply(cfg *agent.Config, f File) {
	setF(&cfg.Perception.MaxSenseDistance, f.Perception.MaxSenseDistance)
	setF(&cfg.Perception.AttentionDistance, f.Perception.AttentionDistance)
	setF(&cfg.Perception.GazeAngleDeg, f.Perception.GazeAngleDeg)
	setF(&cfg.Perception.PersonalSpace, f.Perception.PersonalSpace)
	setD(&cfg.Perception.MaxRecordAge, f.Perception.MaxRecordAge)

	setF(&cfg.Attention.MinAttention, f.Attention.MinAttention)
	setF(&cfg.Attention.SwitchMargin, f.Attention.SwitchMargin)
	setD(&cfg.Attention.CandidateMaxAge, f.Attention.CandidateMaxAge)
	setF(&cfg.Attention.AttentionRange, f.Attention.AttentionRange)

	setD(&cfg.Interrupt.BurstWindow, f.Interrupt.BurstWindow)
	setI(&cfg.Interrupt.BurstLimit, f.Interrupt.BurstLimit)
	setI(&cfg.Interrupt.MaxActive, f.Interrupt.MaxActive)
	setD(&cfg.Interrupt.DefaultTTL, f.Interrupt.DefaultTTL)

	setI(&cfg.Plan.HistoryCap, f.Plan.HistoryCap)

	setI(&cfg.State.HistoryCap, f.State.HistoryCap)
	setD(&cfg.State.IdleDwell, f.State.IdleDwell)
	setF(&cfg.State.IdleActChance, f.State.IdleActChance)

	setD(&cfg.PerceptionInterval, f.Cadence.Perception)
	setD(&cfg.AttentionInterval, f.Cadence.Attention)
	setD(&cfg.InterruptInterval, f.Cadence.Interrupt)
	setD(&cfg.PlanInterval, f.Cadence.Plan)
	setD(&cfg.StateInterval, f.Cadence.State)
}

func setF(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setI(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setD(dst *time.Duration, src *time.Duration) {
	if src != nil {
		*dst = *src
	}
}

// #endregion load
